package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool is a fixed set of engines addressed by worker index. Calls on
// different workers run in parallel; a worker never serves two calls at once.
type Pool struct {
	engines []Engine
	busy    []atomic.Bool
	closed  atomic.Bool

	once        sync.Once
	shutdownErr error
}

// NewPool creates size engines in parallel. If any engine fails to start,
// the ones already created are closed and no pool is returned.
func NewPool(ctx context.Context, size int, factory EngineFactory) (*Pool, error) {
	const op = "NewPool"

	if size < 1 {
		return nil, NewOCRError(op, ErrInvalidPoolSize, fmt.Sprintf("size %d", size))
	}

	engines := make([]Engine, size)
	g, gctx := errgroup.WithContext(ctx)
	for i := range engines {
		g.Go(func() error {
			engine, err := factory(gctx)
			if err != nil {
				return err
			}
			engines[i] = engine
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, engine := range engines {
			if engine != nil {
				_ = engine.Close()
			}
		}
		if errors.Is(err, ErrEngineInit) {
			return nil, WrapOCRError(op, err, "")
		}
		return nil, NewOCRError(op, fmt.Errorf("%w: %w", ErrEngineInit, err), fmt.Sprintf("size %d", size))
	}

	return &Pool{
		engines: engines,
		busy:    make([]atomic.Bool, size),
	}, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.engines)
}

// Recognize runs image through worker (taken modulo the pool size).
func (p *Pool) Recognize(ctx context.Context, worker int, image []byte) (string, error) {
	const op = "Recognize"

	if p.closed.Load() {
		return "", NewOCRError(op, ErrPoolClosed, "")
	}

	i := worker % len(p.engines)
	if i < 0 {
		i += len(p.engines)
	}
	if !p.busy[i].CompareAndSwap(false, true) {
		return "", NewOCRError(op, ErrWorkerBusy, fmt.Sprintf("worker %d", i))
	}
	defer p.busy[i].Store(false)

	text, err := p.engines[i].Recognize(ctx, image)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", NewOCRError(op, fmt.Errorf("%w: %w", ErrOCRFailed, err), fmt.Sprintf("worker %d", i))
	}
	return text, nil
}

// Shutdown closes every engine. Only the first call does any work; later
// calls return the same result.
func (p *Pool) Shutdown() error {
	p.once.Do(func() {
		p.closed.Store(true)
		var errs []error
		for i, engine := range p.engines {
			if err := engine.Close(); err != nil {
				errs = append(errs, fmt.Errorf("worker %d: %w", i, err))
			}
		}
		p.shutdownErr = errors.Join(errs...)
	})
	return p.shutdownErr
}
