package md2html_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-md2html"
)

// Example demonstrates basic markdown to sanitized HTML rendering.
func Example() {
	r := md2html.New()
	defer r.Close()

	ctx := context.Background()
	if err := r.WaitReady(ctx); err != nil {
		fmt.Println("error:", err)
		return
	}

	html, err := r.Render(ctx, "# Hello World\n\nThis is a test.")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if strings.Contains(html, "<h1") {
		fmt.Println("HTML generated successfully")
	}
	// Output: HTML generated successfully
}

// Example_sanitization demonstrates that embedded markup never reaches
// the output: disallowed elements are unwrapped, unsafe links stripped.
func Example_sanitization() {
	r := md2html.New()
	defer r.Close()

	ctx := context.Background()
	if err := r.WaitReady(ctx); err != nil {
		fmt.Println("error:", err)
		return
	}

	html, err := r.Render(ctx, `Click [here](javascript:alert(1))

<script>document.cookie</script>`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if !strings.Contains(html, "javascript:") && !strings.Contains(html, "<script") {
		fmt.Println("unsafe markup removed")
	}
	// Output: unsafe markup removed
}

// Example_withOptions demonstrates renderer configuration.
func Example_withOptions() {
	r := md2html.New(
		md2html.WithTimeout(30*time.Second),
		md2html.WithSchema(md2html.Schema{
			AllowedTags:       []string{"p", "em", "strong"},
			AllowedAttributes: map[string][]string{},
			AllowedProtocols:  map[string][]string{},
		}),
	)
	defer r.Close()

	ctx := context.Background()
	if err := r.WaitReady(ctx); err != nil {
		fmt.Println("error:", err)
		return
	}

	html, err := r.Render(ctx, "# Title\n\nOnly *inline* styling survives.")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if !strings.Contains(html, "<h1") && strings.Contains(html, "<em>inline</em>") {
		fmt.Println("custom policy applied")
	}
	// Output: custom policy applied
}

// Example_pool demonstrates parallel rendering with a renderer pool.
func Example_pool() {
	pool := md2html.NewRendererPool(2)
	defer pool.Close()

	ctx := context.Background()
	r, err := pool.Acquire(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer pool.Release(r)

	html, err := r.Render(ctx, "- one\n- two")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if strings.Contains(html, "<ul>") {
		fmt.Println("rendered from pool")
	}
	// Output: rendered from pool
}
