package resolve

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/store"
)

func withDesign(mut func(d *record.Design)) *record.Record {
	rec := record.New("🔥", time.Unix(1, 0))
	rec.Design = &record.Design{
		ChatID:  "chat_1",
		Content: "https://v0.dev/chat/chat_1",
		Demo:    "https://demo.example/1",
		Files:   []record.File{},
	}
	if mut != nil {
		mut(rec.Design)
	}
	return rec
}

func TestSelect_Priority(t *testing.T) {
	tests := []struct {
		name   string
		rec    *record.Record
		source Source
		target string
		live   bool
	}{
		{
			name: "completed deployment wins",
			rec: withDesign(func(d *record.Design) {
				d.Deployment = &record.Deployment{Status: record.StatusCompleted, WebURL: "https://acme.vercel.app"}
			}),
			source: SourceLive, target: "https://acme.vercel.app", live: true,
		},
		{
			name: "pending deployment falls through to demo",
			rec: withDesign(func(d *record.Design) {
				d.Deployment = &record.Deployment{Status: record.StatusPending, WebURL: "https://acme.vercel.app"}
			}),
			source: SourceDemo, target: "https://demo.example/1",
		},
		{
			name: "completed without url falls through",
			rec: withDesign(func(d *record.Design) {
				d.Deployment = &record.Deployment{Status: record.StatusCompleted}
			}),
			source: SourceDemo, target: "https://demo.example/1",
		},
		{
			name:   "content when no demo",
			rec:    withDesign(func(d *record.Design) { d.Demo = "" }),
			source: SourceContent, target: "https://v0.dev/chat/chat_1",
		},
		{
			name:   "fallback when nothing to show",
			rec:    withDesign(func(d *record.Design) { d.Demo, d.Content = "", "" }),
			source: SourceFallback,
		},
		{
			name:   "fallback without design",
			rec:    record.New("🐙", time.Unix(1, 0)),
			source: SourceFallback,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Select("acme", tc.rec)
			if p.Source != tc.source || p.Live != tc.live {
				t.Fatalf("got %s live=%v, want %s live=%v", p.Source, p.Live, tc.source, tc.live)
			}
			if tc.source == SourceFallback {
				if p.IsURL() || !strings.Contains(p.Target, "acme") {
					t.Fatalf("fallback should be inline html naming the subdomain: %q", p.Target)
				}
				return
			}
			if p.Target != tc.target || !p.IsURL() {
				t.Fatalf("target = %q", p.Target)
			}
		})
	}
}

func TestSelect_FallbackEscapesSubdomain(t *testing.T) {
	p := Select("<b>", nil)
	if strings.Contains(p.Target, "<b>") {
		t.Fatalf("subdomain not escaped: %q", p.Target)
	}
}

func TestCheckIcon(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		rule IconRule
	}{
		{"🔥", true, RuleEmoji},
		{"", false, RuleRejected},
		{"abcdefghijk", false, RuleRejected},
		{"hello", true, RuleFallback},
		{"12345", true, RuleFallback},
		{"hi 🚀", true, RuleEmoji},
		{"☕", true, RuleEmoji},
		{"🔥🔥🔥🔥🔥🔥🔥🔥🔥🔥", true, RuleEmoji},
		{"🔥🔥🔥🔥🔥🔥🔥🔥🔥🔥🔥", false, RuleRejected},
	}
	for _, tc := range tests {
		ok, rule := CheckIcon(tc.in)
		if ok != tc.ok || rule != tc.rule {
			t.Errorf("CheckIcon(%q) = %v, %q; want %v, %q", tc.in, ok, rule, tc.ok, tc.rule)
		}
		if ValidIcon(tc.in) != tc.ok {
			t.Errorf("ValidIcon(%q) disagrees with CheckIcon", tc.in)
		}
	}
}

func TestMainFile(t *testing.T) {
	files := []record.File{
		{Name: "lib/utils.ts"},
		{Name: "components/hero.tsx"},
		{Name: "components/component.tsx"},
		{Name: "app/page.tsx"},
	}
	if f, ok := MainFile(files); !ok || f.Name != "app/page.tsx" {
		t.Fatalf("got %q, want app/page.tsx", f.Name)
	}
	if f, ok := MainFile(files[:3]); !ok || f.Name != "components/component.tsx" {
		t.Fatalf("got %q, want component.tsx", f.Name)
	}
	if f, ok := MainFile(files[:2]); !ok || f.Name != "components/hero.tsx" {
		t.Fatalf("got %q, want hero.tsx", f.Name)
	}
	if _, ok := MainFile(files[:1]); ok {
		t.Fatal("no tsx file should yield ok=false")
	}
}

// countingStore counts Get calls and can block them.
type countingStore struct {
	store.Store
	gets  int32
	block chan struct{}
}

func (s *countingStore) Get(ctx context.Context, sub string) (*record.Record, error) {
	atomic.AddInt32(&s.gets, 1)
	if s.block != nil {
		<-s.block
	}
	return s.Store.Get(ctx, sub)
}

func TestResolver_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_ = mem.Set(ctx, "acme", withDesign(nil))
	cs := &countingStore{Store: mem}
	r := NewResolver(cs, Options{TTL: time.Minute, Size: 8})

	p, err := r.Resolve(ctx, "ACME")
	if err != nil || p.Source != SourceDemo {
		t.Fatalf("Resolve = %+v, %v", p, err)
	}
	_, _ = r.Resolve(ctx, "acme")
	if n := atomic.LoadInt32(&cs.gets); n != 1 {
		t.Fatalf("store gets = %d, want 1 (second read cached)", n)
	}

	live := withDesign(func(d *record.Design) {
		d.Deployment = &record.Deployment{Status: record.StatusCompleted, WebURL: "https://live"}
	})
	_ = mem.Set(ctx, "acme", live)
	if p, _ := r.Resolve(ctx, "acme"); p.Live {
		t.Fatal("cached copy should still be served before invalidation")
	}
	r.Invalidate("acme")
	if p, _ := r.Resolve(ctx, "acme"); !p.Live {
		t.Fatalf("after invalidation want live, got %+v", p)
	}
}

func TestResolver_NotFound(t *testing.T) {
	r := NewResolver(store.NewMemory(), DefaultOptions)
	if _, err := r.Resolve(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := r.Resolve(context.Background(), "!!"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for empty key", err)
	}
}

func TestResolver_CollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_ = mem.Set(ctx, "acme", withDesign(nil))
	cs := &countingStore{Store: mem, block: make(chan struct{})}
	r := NewResolver(cs, Options{TTL: time.Minute, Size: 8})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Record(ctx, "acme"); err != nil {
				t.Errorf("Record: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(cs.block)
	wg.Wait()

	if n := atomic.LoadInt32(&cs.gets); n < 1 || n > 10 {
		t.Fatalf("store gets = %d", n)
	}
	if _, err := r.Record(ctx, "acme"); err != nil {
		t.Fatal(err)
	}
	before := atomic.LoadInt32(&cs.gets)
	_, _ = r.Record(ctx, "acme")
	if atomic.LoadInt32(&cs.gets) != before {
		t.Fatal("warm cache should not hit the store")
	}
}

// gatedStore blocks Get until release is closed, honoring ctx while it waits.
type gatedStore struct {
	store.Store
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) Get(ctx context.Context, sub string) (*record.Record, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Store.Get(ctx, sub)
}

func TestResolver_SharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	mem := store.NewMemory()
	_ = mem.Set(context.Background(), "acme", withDesign(nil))
	gs := &gatedStore{Store: mem, started: make(chan struct{}), release: make(chan struct{})}
	r := NewResolver(gs, Options{TTL: time.Minute, Size: 8})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Record(firstCtx, "acme")
		firstErr <- err
	}()
	<-gs.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := r.Record(context.Background(), "acme")
		secondErr <- err
	}()
	time.Sleep(50 * time.Millisecond) // let the second caller join the load

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}
	close(gs.release)
	if err := <-secondErr; err != nil {
		t.Fatalf("second caller err = %v, want record", err)
	}
}

func TestResolver_ReturnsClones(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_ = mem.Set(ctx, "acme", withDesign(nil))
	r := NewResolver(mem, DefaultOptions)

	a, _ := r.Record(ctx, "acme")
	a.Design.Demo = "mutated"
	b, _ := r.Record(ctx, "acme")
	if b.Design.Demo == "mutated" {
		t.Fatal("cached record shared with caller")
	}
}
