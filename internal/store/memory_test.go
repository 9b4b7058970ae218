package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yanizio/pagesmith/internal/record"
)

func TestMemory_GetMissing(t *testing.T) {
	s := NewMemory()
	if _, err := s.Get(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_RoundTripNormalizesKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	rec := record.New("🔥", time.Unix(100, 0))
	rec.Design = &record.Design{ChatID: "c1", Files: []record.File{{Name: "page.tsx"}}}

	if err := s.Set(ctx, "Acme!", rec); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Design.ChatID != "c1" || got.Emoji != "🔥" {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Design.ChatID = "mutated"
	again, _ := s.Get(ctx, "acme")
	if again.Design.ChatID != "c1" {
		t.Fatalf("store shares state with callers")
	}
}

func TestMemory_InvalidKey(t *testing.T) {
	s := NewMemory()
	if err := s.Set(context.Background(), "!!!", record.New("", time.Now())); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("err = %v, want ErrInvalidKey", err)
	}
}

func TestMemory_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, "beta", &record.Record{Emoji: "🐝", CreatedAt: time.Unix(1, 0), Design: &record.Design{ChatID: "c"}})
	_ = s.Set(ctx, "alpha", &record.Record{})
	_ = s.Set(ctx, "gamma", &record.Record{Emoji: "🌱", Design: &record.Design{}}) // no lineage

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || got[0].Subdomain != "alpha" || got[1].Subdomain != "beta" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got[0].Emoji != fallbackEmoji || got[0].HasDesign {
		t.Fatalf("alpha defaults wrong: %+v", got[0])
	}
	if !got[1].HasDesign || got[1].Emoji != "🐝" {
		t.Fatalf("beta summary wrong: %+v", got[1])
	}
	if got[2].HasDesign {
		t.Fatalf("a design without a chat id is not a design: %+v", got[2])
	}
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Unix(500, 0)

	rec, created, err := GetOrCreate(ctx, s, "fresh", now)
	if err != nil || !created {
		t.Fatalf("created = %v, err = %v", created, err)
	}
	if rec.Emoji != record.DefaultEmoji || !rec.CreatedAt.Equal(now) {
		t.Fatalf("default record wrong: %+v", rec)
	}
	if _, err := s.Get(ctx, "fresh"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetOrCreate must not write")
	}

	_ = s.Set(ctx, "fresh", rec)
	_, created, _ = GetOrCreate(ctx, s, "fresh", now.Add(time.Hour))
	if created {
		t.Fatalf("existing record reported as created")
	}
}
