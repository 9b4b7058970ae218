// internal/store/store.go
//
// Record store contract and shared helpers.
//
// Context
// -------
// Every backend persists one `record.Record` per normalized subdomain and
// supports only whole-record reads and writes.  There is no conditional
// write, so concurrent read-modify-write sequences on the same key are
// last-writer-wins.  Callers that need ordering serialize above the store
// (see internal/design).
//
// Backends
// --------
//   - Memory – map + RWMutex, deep copies on every call.
//   - Redis  – JSON value under `subdomain:<name>`.
//   - SQL    – sqlx over MySQL or Postgres, one JSON row per subdomain.
//
// Notes
// -----
//   - Keys passed in are normalized again defensively; an empty key after
//     normalization is rejected with ErrInvalidKey.
//   - Oxford commas, two spaces after periods.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/yanizio/pagesmith/internal/record"
)

// KeyPrefix namespaces subdomain records in shared key spaces.
const KeyPrefix = "subdomain:"

// Listing defaults for rows whose stored payload is incomplete.
const fallbackEmoji = "❓"

var (
	ErrNotFound   = errors.New("record not found")
	ErrInvalidKey = errors.New("subdomain is empty after normalization")
)

// Store is the persistence contract.  Get returns ErrNotFound when no
// record exists.
type Store interface {
	Get(ctx context.Context, subdomain string) (*record.Record, error)
	Set(ctx context.Context, subdomain string, rec *record.Record) error
	List(ctx context.Context) ([]Summary, error)
}

// Summary is one row of the admin listing.
type Summary struct {
	Subdomain string    `json:"subdomain"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
	HasDesign bool      `json:"hasDesign"`
}

// GetOrCreate loads the record for subdomain or returns a fresh default
// record when none exists.  The fresh record is NOT written; the caller's
// subsequent Set persists it together with its own changes.
func GetOrCreate(ctx context.Context, s Store, subdomain string, now time.Time) (*record.Record, bool, error) {
	rec, err := s.Get(ctx, subdomain)
	switch {
	case err == nil:
		return rec, false, nil
	case errors.Is(err, ErrNotFound):
		return record.New(record.DefaultEmoji, now), true, nil
	default:
		return nil, false, err
	}
}

func key(subdomain string) (string, error) {
	k := record.Normalize(subdomain)
	if k == "" {
		return "", ErrInvalidKey
	}
	return k, nil
}

func summarize(sub string, rec *record.Record, now time.Time) Summary {
	s := Summary{Subdomain: sub, Emoji: fallbackEmoji, CreatedAt: now}
	if rec == nil {
		return s
	}
	if rec.Emoji != "" {
		s.Emoji = rec.Emoji
	}
	if !rec.CreatedAt.IsZero() {
		s.CreatedAt = rec.CreatedAt
	}
	s.HasDesign = rec.HasDesign()
	return s
}
