package design

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/deployer"
	"github.com/yanizio/pagesmith/internal/generator"
	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/store"
	"github.com/yanizio/pagesmith/internal/upstream"
)

// fakeGen hands out sequential chat ids and echoes feedback into content.
type fakeGen struct {
	mu      sync.Mutex
	n       int
	genErr  error
	revErr  error
	onRev   func(chatID, feedback string) // optional hook run inside Revise
	revises int32
}

func (g *fakeGen) Generate(_ context.Context, prompt string) (generator.Result, error) {
	if g.genErr != nil {
		return generator.Result{}, g.genErr
	}
	g.mu.Lock()
	g.n++
	id := fmt.Sprintf("chat_%d", g.n)
	g.mu.Unlock()
	return generator.Result{
		ChatID:  id,
		Content: "https://v0.dev/chat/" + id,
		Files:   []record.File{{Name: "app/page.tsx", Content: prompt}},
		Demo:    "https://demo.example/" + id,
	}, nil
}

func (g *fakeGen) Revise(_ context.Context, chatID, feedback string) (generator.Result, error) {
	atomic.AddInt32(&g.revises, 1)
	if g.onRev != nil {
		g.onRev(chatID, feedback)
	}
	if g.revErr != nil {
		return generator.Result{}, g.revErr
	}
	return generator.Result{
		ChatID:  "gateway-should-not-matter",
		Content: "https://v0.dev/chat/" + chatID + "?feedback=" + feedback,
		Files:   []record.File{{Name: "app/page.tsx", Content: feedback}},
	}, nil
}

// fakeDep issues sequential deployment ids and serves a canned status.
type fakeDep struct {
	caps      deployer.Capabilities
	n         int
	createErr error
	status    *record.Deployment
	statusErr error
	deleteOK  bool
	deletes   int
	versions  []string // versionID seen by each Create
	now       func() time.Time
}

func newFakeDep(now func() time.Time) *fakeDep {
	return &fakeDep{caps: deployer.Capabilities{Status: true, Delete: true}, deleteOK: true, now: now}
}

func (d *fakeDep) Create(_ context.Context, chatID, versionID, _ string) (*record.Deployment, error) {
	d.versions = append(d.versions, versionID)
	if d.createErr != nil {
		return nil, d.createErr
	}
	d.n++
	return &record.Deployment{
		ID:        fmt.Sprintf("dep_%d", d.n),
		WebURL:    "https://" + chatID + ".vercel.app",
		Status:    record.StatusPending,
		CreatedAt: d.now(),
	}, nil
}

func (d *fakeDep) Status(_ context.Context, _ string) (*record.Deployment, error) {
	if d.statusErr != nil {
		return nil, d.statusErr
	}
	if d.status == nil {
		return nil, nil
	}
	s := *d.status
	return &s, nil
}

func (d *fakeDep) Delete(_ context.Context, _ string) bool {
	d.deletes++
	return d.deleteOK
}

func (d *fakeDep) Capabilities() deployer.Capabilities { return d.caps }

// fixedClock never advances unless told to.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type harness struct {
	store *store.Memory
	gen   *fakeGen
	dep   *fakeDep
	clock *fixedClock
	coord *Coordinator
}

func newHarness(serialize bool) *harness {
	h := &harness{
		store: store.NewMemory(),
		gen:   &fakeGen{},
		clock: &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.dep = newFakeDep(h.clock.Now)
	h.coord = New(h.store, h.gen, h.dep, Options{
		Serialize: serialize,
		Now:       h.clock.Now,
		Logger:    zap.NewNop().Sugar(),
	})
	return h
}

func (h *harness) stored(sub string) *record.Record {
	rec, err := h.store.Get(context.Background(), sub)
	if err != nil {
		return nil
	}
	return rec
}

var errUpstream = &upstream.Error{Call: "fake", Status: 502, Message: "upstream exploded"}

// stubAPI answers upstream calls by name with canned JSON and records the
// request bodies, so the real deployer gateway can run without a server.
type stubAPI struct {
	replies map[string]any
	bodies  map[string]any
}

func (a *stubAPI) Do(_ context.Context, call, _, _ string, in, out any) error {
	if a.bodies == nil {
		a.bodies = make(map[string]any)
	}
	a.bodies[call] = in
	reply, ok := a.replies[call]
	if !ok {
		return &upstream.Error{Call: call, Status: 404, Message: "not found"}
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// withDeployer rebuilds the coordinator around dep, keeping the store and
// generator.
func (h *harness) withDeployer(dep deployer.Gateway) {
	h.coord = New(h.store, h.gen, dep, Options{Now: h.clock.Now, Logger: zap.NewNop().Sugar()})
}
