// internal/store/sql.go
//
// SQL record store (MySQL or Postgres via sqlx).
//
// Context
// -------
// Each subdomain is one row holding the JSON-encoded record.  The store
// never updates individual fields; `Set` is a dialect-specific upsert of the
// whole payload.
//
// Schema reference
//
//	CREATE TABLE subdomain_record (
//	    subdomain   VARCHAR(63)  PRIMARY KEY,
//	    data        TEXT         NOT NULL,
//	    created_at  TIMESTAMP    NOT NULL,
//	    updated_at  TIMESTAMP    NOT NULL
//	);
//
// Notes
// -----
//   - Queries are written with `?` and passed through db.Rebind, so the same
//     text serves both bind styles.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/pagesmith/internal/database"
	"github.com/yanizio/pagesmith/internal/metrics"
	"github.com/yanizio/pagesmith/internal/record"
)

const (
	sqlGet = `
        SELECT data
        FROM   subdomain_record
        WHERE  subdomain = ?
        LIMIT  1`

	sqlList = `
        SELECT   subdomain, data
        FROM     subdomain_record
        ORDER BY subdomain`

	sqlUpsertMySQL = `
        INSERT INTO subdomain_record (subdomain, data, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`

	sqlUpsertPostgres = `
        INSERT INTO subdomain_record (subdomain, data, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (subdomain) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	schemaMySQL = `
        CREATE TABLE IF NOT EXISTS subdomain_record (
            subdomain  VARCHAR(63) NOT NULL PRIMARY KEY,
            data       LONGTEXT    NOT NULL,
            created_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`

	schemaPostgres = `
        CREATE TABLE IF NOT EXISTS subdomain_record (
            subdomain  VARCHAR(63) PRIMARY KEY,
            data       TEXT        NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`
)

// SQL is a Store backed by a relational table.
type SQL struct {
	db     *sqlx.DB
	upsert string
	schema string
	now    func() time.Time
}

// NewSQL wraps an open pool.  db.DriverName() selects the dialect.
func NewSQL(db *sqlx.DB) (*SQL, error) {
	s := &SQL{db: db, now: time.Now}
	switch db.DriverName() {
	case database.DriverMySQL:
		s.upsert, s.schema = sqlUpsertMySQL, schemaMySQL
	case database.DriverPostgres:
		s.upsert, s.schema = sqlUpsertPostgres, schemaPostgres
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", db.DriverName())
	}
	return s, nil
}

// Migrate creates the table when missing.
func (s *SQL) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.schema)
	return err
}

func (s *SQL) Get(ctx context.Context, subdomain string) (*record.Record, error) {
	k, err := key(subdomain)
	if err != nil {
		return nil, err
	}
	var raw string
	err = s.db.GetContext(ctx, &raw, s.db.Rebind(sqlGet), k)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.StoreOperationsTotal.WithLabelValues("sql", "get", "miss").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("sql", "get", metrics.ResultError).Inc()
		return nil, fmt.Errorf("sql get %s: %w", k, err)
	}
	var rec record.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", k, err)
	}
	metrics.StoreOperationsTotal.WithLabelValues("sql", "get", metrics.ResultOK).Inc()
	return &rec, nil
}

func (s *SQL) Set(ctx context.Context, subdomain string, rec *record.Record) error {
	k, err := key(subdomain)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", k, err)
	}
	now := s.now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(s.upsert), k, string(raw), created.UTC(), now)
	metrics.StoreOperationsTotal.WithLabelValues("sql", "set", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("sql set %s: %w", k, err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context) ([]Summary, error) {
	rows := make([]struct {
		Subdomain string `db:"subdomain"`
		Data      string `db:"data"`
	}, 0, 16)
	if err := s.db.SelectContext(ctx, &rows, sqlList); err != nil {
		return nil, fmt.Errorf("sql list: %w", err)
	}

	now := s.now()
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		var rec *record.Record
		var decoded record.Record
		if err := json.Unmarshal([]byte(r.Data), &decoded); err == nil {
			rec = &decoded
		}
		out = append(out, summarize(r.Subdomain, rec, now))
	}
	return out, nil
}
