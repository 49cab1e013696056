package md2html

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// unitState tracks the execution unit's lifecycle. Readiness and
// termination are one enumerated state rather than separate flags so
// impossible combinations cannot be represented.
type unitState int

const (
	stateUninitialized unitState = iota
	stateReady
	stateTerminated
)

// renderResult is the settled value of one pending render.
type renderResult struct {
	html string
	err  error
}

// pendingEntry tracks one in-flight render from dispatch until its
// response arrives, its timer fires, or the renderer shuts down.
// The channel is buffered and receives exactly one value: whichever
// path removes the entry from the pending table sends it.
type pendingEntry struct {
	ch    chan renderResult
	timer *time.Timer
}

// Renderer dispatches render requests to an isolated execution unit and
// correlates responses back to callers by id. Create with New, render
// with Render, and Close when done. All methods are safe for concurrent
// use; any number of renders may be pending at once.
type Renderer struct {
	cfg  rendererConfig
	unit *unit
	quit chan struct{}

	mu      sync.Mutex
	st      unitState
	pending map[string]*pendingEntry
	pingers []chan struct{}
	initErr error

	ready    chan struct{} // closed when the unit reports ready
	failed   chan struct{} // closed when the unit faults before ready
	recvDone chan struct{} // closed when the receive loop exits
}

// New creates a Renderer and starts its execution unit. The unit
// initializes asynchronously: Render fails with ErrNotReady until the
// unit reports readiness. Use WaitReady to block until then.
func New(opts ...Option) *Renderer {
	r := newRenderer(opts...)
	r.unit = startUnit(toPipelineSchema(r.cfg.schema), r.quit)
	go r.receive()
	return r
}

// newRenderer builds an unstarted Renderer with options applied.
func newRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		cfg: rendererConfig{
			timeout:     DefaultTimeout,
			pingTimeout: DefaultPingTimeout,
			logger:      zap.NewNop(),
		},
		quit:     make(chan struct{}),
		pending:  make(map[string]*pendingEntry),
		ready:    make(chan struct{}),
		failed:   make(chan struct{}),
		recvDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// newWithUnit wires a Renderer to an externally constructed unit.
// Used by tests to script unit behavior.
func newWithUnit(u *unit, opts ...Option) *Renderer {
	r := newRenderer(opts...)
	r.unit = u
	go r.receive()
	return r
}

// Render transforms markdown into a sanitized HTML fragment.
// It fails fast with ErrNotReady before the unit is ready and with
// ErrTerminated after Close. A request that outlives the configured
// timeout fails with ErrTimeout; the unit is not interrupted and its
// late response is discarded.
func (r *Renderer) Render(ctx context.Context, markdown string) (string, error) {
	r.mu.Lock()
	switch r.st {
	case stateTerminated:
		r.mu.Unlock()
		return "", ErrTerminated
	case stateUninitialized:
		err := r.initErr
		r.mu.Unlock()
		if err != nil {
			return "", err
		}
		return "", ErrNotReady
	}

	id := uuid.NewString()
	entry := &pendingEntry{ch: make(chan renderResult, 1)}
	entry.timer = time.AfterFunc(r.cfg.timeout, func() {
		r.reject(id, ErrTimeout)
	})
	r.pending[id] = entry
	r.mu.Unlock()

	// Dispatch. The entry is already registered and timed, so a stalled
	// unit cannot block the caller past the timeout.
	select {
	case r.unit.in <- request{ID: id, Kind: kindProcess, Markdown: markdown}:
	case <-r.quit:
		r.reject(id, ErrTerminated)
		res := <-entry.ch
		return res.html, res.err
	case <-ctx.Done():
		r.reject(id, ctx.Err())
		res := <-entry.ch
		return res.html, res.err
	case res := <-entry.ch:
		// Timed out while waiting to dispatch.
		return res.html, res.err
	}

	select {
	case res := <-entry.ch:
		return res.html, res.err
	case <-ctx.Done():
		r.reject(id, ctx.Err())
		res := <-entry.ch
		return res.html, res.err
	}
}

// HealthCheck probes unit liveness with a ping. It reports false on
// timeout, termination, or cancellation and never returns an error.
// Pings bypass the pipeline, so a unit busy with a long render still
// counts as alive once it reaches the ping.
func (r *Renderer) HealthCheck(ctx context.Context) bool {
	r.mu.Lock()
	if r.st == stateTerminated {
		r.mu.Unlock()
		return false
	}
	waiter := make(chan struct{})
	r.pingers = append(r.pingers, waiter)
	r.mu.Unlock()

	timer := time.NewTimer(r.cfg.pingTimeout)
	defer timer.Stop()

	select {
	case r.unit.in <- request{Kind: kindPing}:
	case <-timer.C:
		r.dropPinger(waiter)
		return false
	case <-r.quit:
		r.dropPinger(waiter)
		return false
	case <-ctx.Done():
		r.dropPinger(waiter)
		return false
	}

	select {
	case <-waiter:
		return true
	case <-timer.C:
		r.dropPinger(waiter)
		return false
	case <-r.quit:
		r.dropPinger(waiter)
		return false
	case <-ctx.Done():
		r.dropPinger(waiter)
		return false
	}
}

// WaitReady blocks until the unit reports readiness, the unit fails to
// initialize, the renderer is closed, or ctx is done.
func (r *Renderer) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-r.failed:
		r.mu.Lock()
		err := r.initErr
		r.mu.Unlock()
		return err
	case <-r.quit:
		return ErrTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the execution unit and rejects every in-flight
// render with ErrTerminated. It is idempotent and releases the unit's
// goroutine on every path, including when initialization failed.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.st == stateTerminated {
		r.mu.Unlock()
		return nil
	}
	r.st = stateTerminated
	close(r.quit)
	pending := r.pending
	r.pending = make(map[string]*pendingEntry)
	r.pingers = nil
	r.mu.Unlock()

	for _, entry := range pending {
		entry.timer.Stop()
		entry.ch <- renderResult{err: ErrTerminated}
	}

	// The unit closes its response channel on exit; wait for the
	// receive loop to observe that before reporting the unit released.
	<-r.recvDone
	r.cfg.logger.Debug("renderer closed")
	return nil
}

// receive is the single reader of the unit's response channel. It runs
// until the unit closes the channel on termination.
func (r *Renderer) receive() {
	defer close(r.recvDone)
	for resp := range r.unit.out {
		switch resp.Outcome {
		case outcomeReady:
			r.markReady()
		case outcomePong:
			r.resolvePing()
		case outcomeResult:
			r.settle(resp.ID, renderResult{html: resp.HTML}, resp.ElapsedMs)
		case outcomeError:
			if resp.ID == "" {
				r.unitFault(resp.Err)
				continue
			}
			r.settle(resp.ID, renderResult{err: fmt.Errorf("%w: %s", ErrProcessing, resp.Err)}, resp.ElapsedMs)
		default:
			r.cfg.logger.Warn("discarding message with unknown outcome",
				zap.String("outcome", resp.Outcome))
		}
	}
}

func (r *Renderer) markReady() {
	r.mu.Lock()
	if r.st == stateUninitialized && r.initErr == nil {
		r.st = stateReady
		close(r.ready)
	}
	r.mu.Unlock()
	r.cfg.logger.Debug("render unit ready")
}

// unitFault surfaces an untagged fault: logged and handed to the fault
// handler, never resolved against a pending entry. A fault before
// readiness is a permanent initialization failure for this renderer.
func (r *Renderer) unitFault(msg string) {
	r.mu.Lock()
	if r.st == stateUninitialized && r.initErr == nil {
		r.initErr = fmt.Errorf("%w: %s", ErrInitialization, msg)
		close(r.failed)
	}
	r.mu.Unlock()

	r.cfg.logger.Error("render unit fault", zap.String("fault", msg))
	if r.cfg.onFault != nil {
		r.cfg.onFault(fmt.Errorf("unit fault: %s", msg))
	}
}

// settle resolves the pending entry for id, if it is still registered.
// Responses for unknown ids are discarded without error: the caller
// already timed out, was cancelled, or never existed.
func (r *Renderer) settle(id string, res renderResult, elapsedMs int64) {
	entry, ok := r.remove(id)
	if !ok {
		r.cfg.logger.Debug("discarding response for unknown id", zap.String("id", id))
		return
	}
	entry.timer.Stop()
	if res.err == nil {
		r.cfg.logger.Debug("render complete",
			zap.String("id", id),
			zap.Int64("elapsed_ms", elapsedMs))
	}
	entry.ch <- res
}

// reject settles a pending entry with an error, if it is still pending.
func (r *Renderer) reject(id string, err error) {
	entry, ok := r.remove(id)
	if !ok {
		return
	}
	entry.timer.Stop()
	entry.ch <- renderResult{err: err}
}

// remove takes the entry for id out of the pending table. Exactly one
// caller wins for any given id, which makes settlement exactly-once.
func (r *Renderer) remove(id string) (*pendingEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return entry, ok
}

// resolvePing releases the oldest health check waiter. A pong with no
// waiter (a probe that already gave up) is dropped.
func (r *Renderer) resolvePing() {
	r.mu.Lock()
	if len(r.pingers) > 0 {
		close(r.pingers[0])
		r.pingers = r.pingers[1:]
	}
	r.mu.Unlock()
}

// dropPinger removes an abandoned health check waiter.
func (r *Renderer) dropPinger(w chan struct{}) {
	r.mu.Lock()
	for i, p := range r.pingers {
		if p == w {
			r.pingers = append(r.pingers[:i], r.pingers[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}
