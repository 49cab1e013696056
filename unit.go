package md2html

import (
	"fmt"
	"time"

	"github.com/alnah/go-md2html/internal/pipeline"
)

// unit is the isolated execution unit hosting the transformation
// pipeline. It runs on its own goroutine and is reachable only through
// its request and response channels; no memory is shared with the host.
type unit struct {
	in  chan request
	out chan response
}

// startUnit spawns a unit for the given schema. The unit reports
// readiness, or an untagged initialization fault, on its response
// channel. Closing quit terminates the unit; closing out is its last
// action, which is how the host learns the goroutine is gone.
func startUnit(schema pipeline.Schema, quit <-chan struct{}) *unit {
	u := &unit{
		in:  make(chan request),
		out: make(chan response, 1),
	}
	go u.run(schema, quit)
	return u
}

func (u *unit) run(schema pipeline.Schema, quit <-chan struct{}) {
	defer close(u.out)
	u.serve(schema, quit)
}

// serve initializes the pipeline and then processes messages one at a
// time, in arrival order. Faults not tied to a request (init failures,
// loop panics) cross the boundary as untagged error responses, never
// as raw panics.
func (u *unit) serve(schema pipeline.Schema, quit <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			u.out <- response{Outcome: outcomeError, Err: fmt.Sprintf("unit fault: %v", r)}
		}
	}()

	p, err := pipeline.New(schema)
	if err != nil {
		u.out <- response{Outcome: outcomeError, Err: fmt.Sprintf("initializing pipeline: %v", err)}
		return
	}
	u.out <- response{Outcome: outcomeReady}

	for {
		select {
		case <-quit:
			return
		case req := <-u.in:
			switch req.Kind {
			case kindPing:
				// Liveness probe: answered immediately, bypassing the
				// pipeline, so it reflects the unit being alive rather
				// than the pipeline being fast.
				u.out <- response{Outcome: outcomePong}
			case kindProcess:
				u.out <- u.process(p, req)
			}
		}
	}
}

// process runs one render through the pipeline, converting any stage
// failure or panic into a structured, id-tagged error response.
func (u *unit) process(p *pipeline.Pipeline, req request) (resp response) {
	defer func() {
		if r := recover(); r != nil {
			resp = response{ID: req.ID, Outcome: outcomeError, Err: fmt.Sprintf("pipeline panic: %v", r)}
		}
	}()

	start := time.Now()
	html, err := p.Render(req.Markdown)
	if err != nil {
		return response{ID: req.ID, Outcome: outcomeError, Err: err.Error()}
	}
	return response{
		ID:        req.ID,
		Outcome:   outcomeResult,
		HTML:      html,
		ElapsedMs: time.Since(start).Milliseconds(),
	}
}
