package md2html

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one renderer is available.
	MinPoolSize = 1

	// MaxPoolSize caps execution units; beyond this, additional units
	// mostly add scheduling overhead rather than throughput.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the host application.
	cpuDivisor = 2
)

// RendererPool manages a pool of Renderer instances for parallel
// processing. Each renderer owns its own execution unit, so with more
// than one unit responses may complete in any order relative to
// dispatch. Renderers are created lazily on first acquire.
type RendererPool struct {
	size      int
	opts      []Option
	renderers []*Renderer
	sem       chan *Renderer
	quit      chan struct{} // closed by Close; sem itself is never closed
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewRendererPool creates a pool with capacity for n Renderer
// instances, each configured with opts. Renderers are created lazily
// when acquired, not at pool creation.
func NewRendererPool(n int, opts ...Option) *RendererPool {
	if n < 1 {
		n = 1
	}

	return &RendererPool{
		size:      n,
		opts:      opts,
		renderers: make([]*Renderer, 0, n),
		sem:       make(chan *Renderer, n),
		quit:      make(chan struct{}),
	}
}

// Acquire gets a ready renderer from the pool, creating one if needed.
// Blocks if all renderers are in use. A renderer whose unit fails to
// initialize is closed and not counted against the pool. Acquire fails
// with ErrTerminated once the pool is closed, including for callers
// already blocked waiting on a release.
func (p *RendererPool) Acquire(ctx context.Context) (*Renderer, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrTerminated
	}

	// Try to get an existing renderer (non-blocking)
	select {
	case r := <-p.sem:
		p.mu.Unlock()
		return r, nil
	default:
	}

	// Check if we can create a new renderer
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new renderer outside the lock
		r := New(p.opts...)
		if err := r.WaitReady(ctx); err != nil {
			_ = r.Close()
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.renderers = append(p.renderers, r)
		p.mu.Unlock()

		return r, nil
	}
	p.mu.Unlock()

	// All renderers created, wait for one to be released
	select {
	case r := <-p.sem:
		return r, nil
	case <-p.quit:
		return nil, ErrTerminated
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a renderer to the pool.
func (p *RendererPool) Release(r *Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.sem <- r
	}
}

// Close shuts down every renderer in the pool.
// Returns an aggregated error if multiple renderers fail to close.
func (p *RendererPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.quit)
	renderers := p.renderers
	p.renderers = nil
	p.mu.Unlock()

	// Drain idle renderers so none can be handed out after close.
	// Release is a no-op once closed, so the channel stays empty.
	for drained := false; !drained; {
		select {
		case <-p.sem:
		default:
			drained = true
		}
	}

	var errs []error
	for _, r := range renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *RendererPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the optimal pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return workers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
