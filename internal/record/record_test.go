package record

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Acme":          "acme",
		"my-Site_01":    "my-site01",
		"  spaced out ": "spacedout",
		"🔥fire":         "fire",
		"":              "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestState(t *testing.T) {
	now := time.Now()
	rec := New("", now)
	if rec.Emoji != DefaultEmoji {
		t.Fatalf("emoji = %q, want default", rec.Emoji)
	}
	if rec.State() != NoDesign {
		t.Fatalf("state = %v, want no_design", rec.State())
	}

	rec.Design = &Design{ChatID: "c1"}
	if rec.State() != Designed {
		t.Fatalf("state = %v, want designed", rec.State())
	}

	for status, want := range map[Status]State{
		StatusPending:   Deploying,
		StatusCompleted: Live,
		StatusFailed:    DeployFailed,
	} {
		rec.Design.Deployment = &Deployment{ID: "d1", Status: status}
		if got := rec.State(); got != want {
			t.Errorf("status %s: state = %v, want %v", status, got, want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Record{
		Emoji: "🔥",
		Design: &Design{
			ChatID:     "c1",
			Files:      []File{{Name: "page.tsx", Content: "x"}},
			Deployment: &Deployment{ID: "d1", Status: StatusPending},
		},
	}
	cp := orig.Clone()
	cp.Design.Files[0].Content = "changed"
	cp.Design.Deployment.Status = StatusCompleted
	cp.Design.ChatID = "c2"

	if orig.Design.Files[0].Content != "x" {
		t.Fatalf("files slice shared between clone and original")
	}
	if orig.Design.Deployment.Status != StatusPending {
		t.Fatalf("deployment pointer shared between clone and original")
	}
	if orig.Design.ChatID != "c1" {
		t.Fatalf("design pointer shared between clone and original")
	}
	if (*Record)(nil).Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
}
