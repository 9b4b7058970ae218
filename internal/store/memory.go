package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yanizio/pagesmith/internal/metrics"
	"github.com/yanizio/pagesmith/internal/record"
)

// Memory is an in-process Store.  Records are cloned on the way in and on
// the way out so callers never share state with the map.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*record.Record
	now  func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*record.Record), now: time.Now}
}

func (m *Memory) Get(_ context.Context, subdomain string) (*record.Record, error) {
	k, err := key(subdomain)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	rec, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		metrics.StoreOperationsTotal.WithLabelValues("memory", "get", "miss").Inc()
		return nil, ErrNotFound
	}
	metrics.StoreOperationsTotal.WithLabelValues("memory", "get", metrics.ResultOK).Inc()
	return rec.Clone(), nil
}

func (m *Memory) Set(_ context.Context, subdomain string, rec *record.Record) error {
	k, err := key(subdomain)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[k] = rec.Clone()
	m.mu.Unlock()
	metrics.StoreOperationsTotal.WithLabelValues("memory", "set", metrics.ResultOK).Inc()
	return nil
}

// List returns summaries ordered by subdomain.
func (m *Memory) List(_ context.Context) ([]Summary, error) {
	now := m.now()
	m.mu.RLock()
	out := make([]Summary, 0, len(m.data))
	for k, rec := range m.data {
		out = append(out, summarize(k, rec, now))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Subdomain < out[j].Subdomain })
	return out, nil
}
