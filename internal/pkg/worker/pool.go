// Package worker runs background goroutines through bounded ants pools.
// Direct go statements stay out of the rest of the codebase so that every
// goroutine gets panic recovery and participates in graceful shutdown.
package worker

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/laporkota/laporkota/internal/pkg/logger"
)

const (
	defaultGeneralSize = 50
	defaultQuerySize   = 20

	idleExpiry      = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Task is a unit of work. Tasks must check ctx.Done() at blocking points.
type Task func(ctx context.Context)

// Pool is a bounded goroutine pool.
type Pool struct {
	inner *ants.Pool
	label string
	base  context.Context
}

// Pools groups the two pools the services share. General takes
// miscellaneous background work. Query takes the dashboard read fan-out,
// capped on its own so a stats burst cannot starve everything else.
type Pools struct {
	General *Pool
	Query   *Pool

	cancel context.CancelFunc
}

// Config sizes the pools. Non-positive values fall back to the defaults.
type Config struct {
	GeneralSize int
	QuerySize   int
}

// NewPools builds both pools. ctx bounds the lifetime of detached tasks;
// cancelling it (or calling Shutdown) tells them to wind down.
func NewPools(ctx context.Context, cfg Config) (*Pools, error) {
	if cfg.GeneralSize <= 0 {
		cfg.GeneralSize = defaultGeneralSize
	}
	if cfg.QuerySize <= 0 {
		cfg.QuerySize = defaultQuerySize
	}

	base, cancel := context.WithCancel(ctx)

	general, err := newPool("general", cfg.GeneralSize, base)
	if err != nil {
		cancel()
		return nil, err
	}
	query, err := newPool("query", cfg.QuerySize, base)
	if err != nil {
		general.inner.Release()
		cancel()
		return nil, err
	}

	return &Pools{General: general, Query: query, cancel: cancel}, nil
}

func newPool(label string, size int, base context.Context) (*Pool, error) {
	inner, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(idleExpiry),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("worker panic recovered",
				zap.String("pool", label),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner, label: label, base: base}, nil
}

// Submit runs task with the caller's context. An already-cancelled context
// returns its error without submitting; a context cancelled while the task
// waits in the queue drops the task.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.inner.Submit(func() {
		select {
		case <-ctx.Done():
			logger.Debug("queued task dropped",
				zap.String("pool", p.label),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
}

// Go runs task detached from any request, under the pools' lifecycle
// context. Use it for work that outlives its trigger but must still stop
// on shutdown.
func (p *Pool) Go(task Task) error {
	return p.inner.Submit(func() {
		select {
		case <-p.base.Done():
			logger.Debug("detached task dropped, shutting down",
				zap.String("pool", p.label),
			)
			return
		default:
		}
		task(p.base)
	})
}

// Stats is a point-in-time snapshot of one pool.
type Stats struct {
	Running  int `json:"running"`
	Idle     int `json:"idle"`
	Capacity int `json:"capacity"`
}

// Stats reports the pool's current occupancy.
func (p *Pool) Stats() Stats {
	return Stats{
		Running:  p.inner.Running(),
		Idle:     p.inner.Free(),
		Capacity: p.inner.Cap(),
	}
}

// Shutdown cancels detached tasks and waits for running work, up to
// shutdownTimeout per pool.
func (p *Pools) Shutdown() {
	p.cancel()

	if err := p.General.inner.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("general pool did not drain", zap.Error(err))
	}
	if err := p.Query.inner.ReleaseTimeout(shutdownTimeout); err != nil {
		logger.Warn("query pool did not drain", zap.Error(err))
	}
}
