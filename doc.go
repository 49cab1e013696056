// Package md2html converts Markdown documents to sanitized HTML
// fragments on an isolated execution unit.
//
// # Quick Start
//
// Create a renderer, wait for its unit to come up, render, and close
// when done:
//
//	r := md2html.New()
//	defer r.Close()
//
//	if err := r.WaitReady(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	html, err := r.Render(ctx, "# Hello\n\nWorld")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(html)
//
// # Transformation Pipeline
//
// Each render runs these stages inside the execution unit:
//
//  1. Markdown preprocessing (line normalization, ==highlight== syntax)
//  2. Markdown to HTML via Goldmark (GFM, definition lists, footnotes,
//     math notation, syntax highlighting)
//  3. Structural sanitization against a declarative allow-list
//     (tags, per-tag attributes, per-attribute URL schemes)
//  4. Serialization of the surviving tree
//
// Raw HTML embedded in the source never bypasses sanitization; markup
// outside the allow-list is unwrapped so its readable content survives.
//
// # Concurrency
//
// The execution unit is a goroutine reachable only by message passing.
// Render calls may overlap freely: each is tracked by a correlation id
// and settles independently through its own response or timeout. A
// timeout stops the wait but not the unit; the late response is
// discarded. Close rejects every outstanding render and is idempotent.
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r := md2html.New(
//	    md2html.WithTimeout(30 * time.Second),
//	    md2html.WithLogger(logger),
//	    md2html.WithSchema(schema),
//	)
//
// HealthCheck sends a liveness ping that bypasses the pipeline:
//
//	if !r.HealthCheck(ctx) {
//	    // unit is unresponsive
//	}
//
// # Parallel Processing
//
// For batch rendering, use RendererPool to manage multiple units:
//
//	pool := md2html.NewRendererPool(4)
//	defer pool.Close()
//
//	r, err := pool.Acquire(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Release(r)
//	html, err := r.Render(ctx, content)
package md2html
