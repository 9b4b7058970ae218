// internal/resolve/resolver.go
//
// Cached record loader for the rendering path.
//
// Context
// -------
// Page views vastly outnumber lifecycle writes, so the resolver keeps a
// short-lived copy of each record in a TTL LRU (internal/cache).  Concurrent
// misses for one subdomain collapse into a single store read through
// singleflight.  The design coordinator calls Invalidate after every write,
// so within one process a page never shows a record older than the last
// write it made.  Other processes converge within the TTL.
//
// Notes
// -----
//   - Records handed out are clones; callers may mutate them freely.
//   - A load that started before an Invalidate is returned to its callers
//     but not cached.
//   - Shared loads run detached from any one request.  A caller that gives
//     up returns its own ctx error; the others still get the record.
//   - Oxford commas, two spaces after periods.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/pagesmith/internal/cache"
	"github.com/yanizio/pagesmith/internal/metrics"
	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/store"
)

// loadTimeout bounds one shared store read.
const loadTimeout = 10 * time.Second

// ErrNotFound is returned when the subdomain has no record.
var ErrNotFound = errors.New("subdomain not found")

// Options sizes the resolution cache.  Size < 1 disables caching.
type Options struct {
	TTL  time.Duration
	Size int
}

// DefaultOptions keeps a few seconds of records for a modest tenant count.
var DefaultOptions = Options{TTL: 5 * time.Second, Size: 1024}

// Resolver loads records for rendering.
type Resolver struct {
	store store.Store
	cache *cache.LRU[string, *record.Record]
	group singleflight.Group

	mu  sync.Mutex
	gen map[string]uint64 // bumped by Invalidate
}

// NewResolver wraps s with a resolution cache.
func NewResolver(s store.Store, opts Options) *Resolver {
	r := &Resolver{store: s, gen: make(map[string]uint64)}
	if opts.Size > 0 {
		r.cache = cache.New[string, *record.Record](opts.Size, opts.TTL)
	}
	return r
}

// Record returns the record for subdomain, from cache when possible.
func (r *Resolver) Record(ctx context.Context, subdomain string) (*record.Record, error) {
	sub := record.Normalize(subdomain)
	if sub == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, subdomain)
	}

	if r.cache != nil {
		if rec, ok := r.cache.Get(sub); ok {
			metrics.ResolveCacheTotal.WithLabelValues("hit").Inc()
			return rec.Clone(), nil
		}
		metrics.ResolveCacheTotal.WithLabelValues("miss").Inc()
	}

	ch := r.group.DoChan(sub, func() (any, error) {
		// The load is shared, so it must outlive whichever caller started it.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		gen := r.generation(sub)
		rec, err := r.store.Get(loadCtx, sub)
		if err != nil {
			return nil, err
		}
		if r.cache != nil && r.generation(sub) == gen {
			r.cache.Add(sub, rec)
		}
		return rec, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err := res.Val, res.Err
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sub)
	}
	if err != nil {
		return nil, err
	}
	return v.(*record.Record).Clone(), nil
}

// Resolve loads subdomain and selects what to present.
func (r *Resolver) Resolve(ctx context.Context, subdomain string) (Presentation, error) {
	rec, err := r.Record(ctx, subdomain)
	if err != nil {
		return Presentation{}, err
	}
	return Select(record.Normalize(subdomain), rec), nil
}

// Invalidate drops any cached copy of subdomain.  It matches the design
// coordinator's OnChange hook.
func (r *Resolver) Invalidate(subdomain string) {
	sub := record.Normalize(subdomain)
	r.mu.Lock()
	r.gen[sub]++
	r.mu.Unlock()
	if r.cache != nil {
		r.cache.Remove(sub)
	}
}

func (r *Resolver) generation(sub string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen[sub]
}
