package md2html

import "errors"

// Sentinel errors for render operations.
var (
	// ErrInitialization means the execution unit never reached readiness.
	// The failure is permanent for this Renderer; construct a new one.
	ErrInitialization = errors.New("render unit failed to initialize")

	// ErrNotReady means a render was attempted before the unit reported
	// readiness.
	ErrNotReady = errors.New("render unit is not ready")

	// ErrProcessing means a pipeline stage faulted for a specific request.
	ErrProcessing = errors.New("markdown processing failed")

	// ErrTimeout means no response arrived within the configured budget.
	// The unit keeps running; its late response is discarded on arrival.
	ErrTimeout = errors.New("render timed out")

	// ErrTerminated means the renderer was closed while the request was
	// outstanding, or before it was issued.
	ErrTerminated = errors.New("renderer is shut down")
)
