package md2html

import (
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-md2html/internal/pipeline"
)

// Default timeouts for render and liveness requests.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultPingTimeout = 1 * time.Second
)

// Schema declares the sanitization allow-list: permitted tags, per-tag
// permitted attributes, and permitted URL schemes for link/media
// attributes. The zero value means the built-in policy.
type Schema struct {
	AllowedTags       []string
	AllowedAttributes map[string][]string
	AllowedProtocols  map[string][]string
}

// isZero reports whether the schema is the zero value (use defaults).
func (s Schema) isZero() bool {
	return len(s.AllowedTags) == 0
}

// toPipelineSchema converts the public Schema to the internal
// pipeline.Schema, falling back to the built-in policy for the zero value.
func toPipelineSchema(s Schema) pipeline.Schema {
	if s.isZero() {
		return pipeline.DefaultSchema()
	}
	return pipeline.NewSchema(s.AllowedTags, s.AllowedAttributes, s.AllowedProtocols)
}

// Option configures a Renderer.
type Option func(*Renderer)

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	timeout     time.Duration
	pingTimeout time.Duration
	schema      Schema
	logger      *zap.Logger
	onFault     func(error)
}

// WithTimeout sets the per-render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2html: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithPingTimeout sets the health check budget.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithPingTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2html: WithPingTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.pingTimeout = d
	}
}

// WithSchema replaces the built-in sanitization allow-list.
func WithSchema(s Schema) Option {
	return func(r *Renderer) {
		r.cfg.schema = s
	}
}

// WithLogger sets the logger for renderer diagnostics (unit faults,
// discarded responses, render timings). Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.cfg.logger = l
		}
	}
}

// WithFaultHandler registers a callback for unit-level faults that are
// not tied to any specific render request. Such faults never resolve a
// pending render; affected renders fail through their own timeouts.
func WithFaultHandler(fn func(error)) Option {
	return func(r *Renderer) {
		r.cfg.onFault = fn
	}
}
