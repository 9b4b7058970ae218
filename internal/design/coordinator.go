// internal/design/coordinator.go
//
// Lifecycle coordinator: the design/deployment state machine.
//
// Context
// -------
// Every mutating operation is one read-modify-write against the record
// store, run through `mutate`:
//
//  1. Normalize the subdomain and optionally take the per-subdomain lock.
//  2. Load the record (generate creates a default one when absent).
//  3. Run the operation step: check the state, call a gateway, and merge the
//     result with a pure apply* function (merge.go).
//  4. Write the whole record back and fire the OnChange hook.
//
// Any failure before step 4 returns without writing, so the stored record
// is either the old one or the complete new one.
//
// Concurrency
// -----------
// Without Options.Serialize two overlapping operations on one subdomain
// both read the same base record and the later write wins in full.  The
// earlier gateway call still happened; its result is lost.  Serialize adds a
// keyed mutex that orders operations within this process only.
//
// Notes
// -----
//   - Gateways are never retried here.
//   - Oxford commas, two spaces after periods.
package design

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/deployer"
	"github.com/yanizio/pagesmith/internal/generator"
	"github.com/yanizio/pagesmith/internal/metrics"
	"github.com/yanizio/pagesmith/internal/record"
	"github.com/yanizio/pagesmith/internal/store"
)

// Operation names used in logs and metrics.
const (
	OpGenerate = "generate"
	OpUpdate   = "update"
	OpDeploy   = "deploy"
	OpRefresh  = "refresh"
	OpUndeploy = "undeploy"
)

// Options tunes a Coordinator.  Zero value is usable.
type Options struct {
	Serialize bool                   // per-subdomain mutex around each operation
	Now       func() time.Time       // clock; defaults to time.Now
	Logger    *zap.SugaredLogger     // defaults to zap.S()
	OnChange  func(subdomain string) // called after every successful write
}

// Coordinator applies lifecycle operations to subdomain records.
type Coordinator struct {
	store    store.Store
	gen      generator.Gateway
	dep      deployer.Gateway
	locks    *keyedMutex
	now      func() time.Time
	log      *zap.SugaredLogger
	onChange func(string)
}

// New wires a Coordinator.
func New(s store.Store, gen generator.Gateway, dep deployer.Gateway, opts Options) *Coordinator {
	c := &Coordinator{
		store:    s,
		gen:      gen,
		dep:      dep,
		now:      opts.Now,
		log:      opts.Logger,
		onChange: opts.OnChange,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = zap.S()
	}
	if opts.Serialize {
		c.locks = newKeyedMutex()
	}
	return c
}

// RefreshResult reports the outcome of a status refresh.
type RefreshResult struct {
	Record  *record.Record
	Checked bool // the gateway was asked for status
	Changed bool // status or URLs moved
}

// UndeployResult reports the outcome of a best-effort deployment delete.
type UndeployResult struct {
	Record  *record.Record
	Deleted bool
}

// step computes the next record.  Returning a nil record skips the write.
type step func(ctx context.Context, cur *record.Record) (*record.Record, error)

func (c *Coordinator) mutate(ctx context.Context, op, subdomain string, create bool, fn step) (rec *record.Record, err error) {
	defer func() {
		metrics.DesignOperationsTotal.WithLabelValues(op, metrics.Outcome(err)).Inc()
	}()

	sub := record.Normalize(subdomain)
	if sub == "" {
		return nil, fmt.Errorf("%w: subdomain is required", ErrValidation)
	}
	if c.locks != nil {
		unlock := c.locks.Lock(sub)
		defer unlock()
	}

	var cur *record.Record
	if create {
		cur, _, err = store.GetOrCreate(ctx, c.store, sub, c.now())
	} else {
		cur, err = c.store.Get(ctx, sub)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: subdomain %q does not exist", ErrNotFound, sub)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sub, err)
	}

	next, err := fn(ctx, cur)
	if err != nil {
		c.log.Warnw("design operation failed", "op", op, "subdomain", sub, "err", err)
		return nil, err
	}
	if next == nil {
		return cur, nil
	}

	if err := c.store.Set(ctx, sub, next); err != nil {
		c.log.Errorw("design write failed", "op", op, "subdomain", sub, "err", err)
		return nil, fmt.Errorf("save %s: %w", sub, err)
	}
	if c.onChange != nil {
		c.onChange(sub)
	}
	c.log.Infow("design operation applied",
		"op", op, "subdomain", sub, "state", next.State().String())
	return next, nil
}

// Generate creates a fresh design lineage from prompt, replacing whatever
// design (and deployment) the subdomain had.  The record is created when
// it does not exist yet.
func (c *Coordinator) Generate(ctx context.Context, subdomain, prompt string) (*record.Record, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	return c.mutate(ctx, OpGenerate, subdomain, true, func(ctx context.Context, cur *record.Record) (*record.Record, error) {
		res, err := c.gen.Generate(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return applyGenerate(cur, res, c.now()), nil
	})
}

// Update revises the existing design with feedback.  The chat id is kept
// and any deployment is dropped.
func (c *Coordinator) Update(ctx context.Context, subdomain, feedback string) (*record.Record, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, fmt.Errorf("%w: feedback is required", ErrValidation)
	}
	return c.mutate(ctx, OpUpdate, subdomain, false, func(ctx context.Context, cur *record.Record) (*record.Record, error) {
		if !cur.HasDesign() {
			return nil, fmt.Errorf("%w: no existing design found for this subdomain", ErrNotFound)
		}
		res, err := c.gen.Revise(ctx, cur.Design.ChatID, feedback)
		if err != nil {
			return nil, err
		}
		return applyUpdate(cur, res, c.now()), nil
	})
}

// Deploy promotes a version of the current design.  An empty versionID
// leaves the choice to the gateway (the latest version under the resolve
// policy; an explicit-policy gateway rejects it with
// deployer.ErrMissingVersion).  Any previous deployment is replaced by the
// new pending one.
func (c *Coordinator) Deploy(ctx context.Context, subdomain, versionID string) (*record.Record, error) {
	versionID = strings.TrimSpace(versionID)
	return c.mutate(ctx, OpDeploy, subdomain, false, func(ctx context.Context, cur *record.Record) (*record.Record, error) {
		if !cur.HasDesign() {
			return nil, fmt.Errorf("%w: no design found for this subdomain, create a design first", ErrNotFound)
		}
		dep, err := c.dep.Create(ctx, cur.Design.ChatID, versionID, "")
		if err != nil {
			return nil, err
		}
		return applyDeploy(cur, dep), nil
	})
}

// Refresh asks the deployment gateway for the current status and merges
// it.  It is a no-op when there is no deployment, when the gateway cannot
// report status, or when the deployment is unknown upstream.
func (c *Coordinator) Refresh(ctx context.Context, subdomain string) (RefreshResult, error) {
	var out RefreshResult
	rec, err := c.mutate(ctx, OpRefresh, subdomain, false, func(ctx context.Context, cur *record.Record) (*record.Record, error) {
		dep := cur.Deployment()
		if dep == nil || !c.dep.Capabilities().Status {
			return nil, nil
		}
		fresh, err := c.dep.Status(ctx, dep.ID)
		if err != nil {
			return nil, err
		}
		out.Checked = true
		if fresh == nil {
			return nil, nil
		}
		next, changed := applyRefresh(cur, fresh, c.now())
		out.Changed = changed
		return next, nil
	})
	if err != nil {
		return RefreshResult{}, err
	}
	out.Record = rec
	return out, nil
}

// Undeploy deletes the current deployment upstream on a best-effort basis.
// The stored deployment is removed only when the gateway confirms.
func (c *Coordinator) Undeploy(ctx context.Context, subdomain string) (UndeployResult, error) {
	var out UndeployResult
	rec, err := c.mutate(ctx, OpUndeploy, subdomain, false, func(ctx context.Context, cur *record.Record) (*record.Record, error) {
		dep := cur.Deployment()
		if dep == nil {
			return nil, fmt.Errorf("%w: no deployment for this subdomain", ErrNotFound)
		}
		if !c.dep.Capabilities().Delete {
			return nil, ErrUnsupported
		}
		if !c.dep.Delete(ctx, dep.ID) {
			return nil, nil
		}
		out.Deleted = true
		return applyUndeploy(cur), nil
	})
	if err != nil {
		return UndeployResult{}, err
	}
	out.Record = rec
	return out, nil
}
