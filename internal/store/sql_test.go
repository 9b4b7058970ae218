// internal/store/sql_test.go
//
// Unit-tests for the SQL store using sqlmock.
//
// Run: go test ./internal/store -v

package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/pagesmith/internal/record"
)

func newMockSQL(t *testing.T, driver string) (*SQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewSQL(sqlx.NewDb(db, driver))
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	s.now = func() time.Time { return time.Unix(1000, 0) }
	return s, mock
}

func TestSQL_Get(t *testing.T) {
	s, mock := newMockSQL(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM subdomain_record WHERE subdomain = ? LIMIT 1`)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow(`{"emoji":"🔥","createdAt":"2025-01-01T00:00:00Z","design":{"chatId":"c1","content":"https://v0.dev/chat/c1","files":[]}}`))

	rec, err := s.Get(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Emoji != "🔥" || rec.Design.ChatID != "c1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQL_GetMissing(t *testing.T) {
	s, mock := newMockSQL(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM subdomain_record`)).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQL_SetMySQL(t *testing.T) {
	s, mock := newMockSQL(t, "mysql")

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO subdomain_record (subdomain, data, created_at, updated_at) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE`,
	)).
		WithArgs("acme", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := record.New("🏠", time.Unix(10, 0))
	if err := s.Set(context.Background(), "acme", rec); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQL_SetPostgresRebinds(t *testing.T) {
	s, mock := newMockSQL(t, "postgres")

	mock.ExpectExec(regexp.QuoteMeta(
		`VALUES ($1, $2, $3, $4) ON CONFLICT (subdomain) DO UPDATE`,
	)).
		WithArgs("acme", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Set(context.Background(), "acme", record.New("", time.Unix(10, 0))); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSQL_List(t *testing.T) {
	s, mock := newMockSQL(t, "mysql")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT subdomain, data FROM subdomain_record ORDER BY subdomain`)).
		WillReturnRows(sqlmock.NewRows([]string{"subdomain", "data"}).
			AddRow("acme", `{"emoji":"🔥","createdAt":"2025-01-01T00:00:00Z","design":{"chatId":"c1","files":[]}}`).
			AddRow("broken", `not json`))

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !got[0].HasDesign || got[0].Emoji != "🔥" {
		t.Fatalf("acme summary wrong: %+v", got[0])
	}
	if got[1].Emoji != fallbackEmoji || !got[1].CreatedAt.Equal(time.Unix(1000, 0)) {
		t.Fatalf("broken row should fall back to defaults: %+v", got[1])
	}
}

func TestNewSQL_UnknownDriver(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()
	if _, err := NewSQL(sqlx.NewDb(db, "sqlite3")); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
