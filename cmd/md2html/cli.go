package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	md2html "github.com/alnah/go-md2html"
	"github.com/alnah/go-md2html/internal/config"
)

// Sentinel errors for CLI operations.
var (
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteHTML          = errors.New("failed to write HTML file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrUnitUnresponsive   = errors.New("render unit unresponsive")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// checkTimeout bounds the --check probe, including unit startup.
const checkTimeout = 10 * time.Second

// FileToRender represents a single file to process.
type FileToRender struct {
	InputPath  string
	OutputPath string
}

// RenderResult holds the outcome of a single render.
type RenderResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// run orchestrates the render process.
func run(flags *cliFlags, args []string, logger *zap.Logger) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	// Load configuration
	cfg := config.Default()
	var err error
	if flags.config != "" {
		cfg, err = config.Load(flags.config)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	// Merge CLI flags into config (CLI wins)
	if flags.timeout != "" {
		cfg.Render.Timeout = flags.timeout
	}
	if flags.workers > 0 {
		cfg.Pool.Workers = flags.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}
	pingTimeout, err := cfg.PingTimeout()
	if err != nil {
		return err
	}

	opts := []md2html.Option{
		md2html.WithTimeout(timeout),
		md2html.WithPingTimeout(pingTimeout),
		md2html.WithLogger(logger),
		md2html.WithSchema(cfg.Schema()),
	}

	poolSize := md2html.ResolvePoolSize(cfg.Pool.Workers)
	logger.Debug("pool configured", zap.Int("size", poolSize))

	pool := md2html.NewRendererPool(poolSize, opts...)
	defer pool.Close()

	ctx := context.Background()

	if flags.check {
		return runCheck(ctx, pool)
	}

	if len(args) == 0 {
		return renderStdin(ctx, pool, flags.output)
	}

	files, err := discoverFiles(args, flags.output)
	if err != nil {
		return err
	}

	results := renderBatch(ctx, pool, files)

	failed := printResults(results, flags.verbose)
	if failed > 0 {
		return fmt.Errorf("%d render(s) failed", failed)
	}
	return nil
}

// runCheck probes a render unit and reports its liveness.
func runCheck(ctx context.Context, pool *md2html.RendererPool) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	r, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnitUnresponsive, err)
	}
	defer pool.Release(r)

	if !r.HealthCheck(ctx) {
		return ErrUnitUnresponsive
	}
	fmt.Println("ok")
	return nil
}

// renderStdin reads markdown from stdin and writes HTML to the output
// file, or to stdout when no output is given.
func renderStdin(ctx context.Context, pool *md2html.RendererPool, output string) error {
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}

	r, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(r)

	html, err := r.Render(ctx, string(content))
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Print(html)
		return nil
	}
	// #nosec G306 -- HTML output is meant to be readable
	if err := os.WriteFile(output, []byte(html), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteHTML, err)
	}
	return nil
}

// discoverFiles expands the positional arguments into files to render.
// Directories are walked recursively for markdown files.
func discoverFiles(args []string, output string) ([]FileToRender, error) {
	var files []FileToRender

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := validateMarkdownExtension(arg); err != nil {
				return nil, err
			}
			files = append(files, FileToRender{
				InputPath:  arg,
				OutputPath: resolveOutputPath(arg, output, ""),
			})
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".md" && ext != ".markdown" {
				return nil
			}
			files = append(files, FileToRender{
				InputPath:  path,
				OutputPath: resolveOutputPath(path, output, arg),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no markdown files found")
	}
	return files, nil
}

// resolveOutputPath determines the HTML output path for a markdown file.
func resolveOutputPath(inputPath, output, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if output == "" {
		return filepath.Join(filepath.Dir(inputPath), base+".html")
	}

	if strings.HasSuffix(output, ".html") {
		return output
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(output, relDir, base+".html")
		}
	}

	return filepath.Join(output, base+".html")
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	ext := filepath.Ext(path)
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2html.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2html.MaxPoolSize)
	}
	return nil
}

// renderBatch processes files concurrently using the renderer pool.
func renderBatch(ctx context.Context, pool *md2html.RendererPool, files []FileToRender) []RenderResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]RenderResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := pool.Acquire(ctx)
			if err != nil {
				for idx := range jobs {
					results[idx] = RenderResult{InputPath: files[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(r)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = renderFile(ctx, r, files[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderFile processes a single file and returns the result.
func renderFile(ctx context.Context, r *md2html.Renderer, f FileToRender) RenderResult {
	start := time.Now()
	result := RenderResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadMarkdown, err)
		result.Duration = time.Since(start)
		return result
	}

	html, err := r.Render(ctx, string(content))
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	outDir := filepath.Dir(f.OutputPath)
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	// #nosec G306 -- HTML output is meant to be readable
	if err := os.WriteFile(f.OutputPath, []byte(html), filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteHTML, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// printResults outputs render results and returns the failure count.
func printResults(results []RenderResult, verbose bool) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		succeeded++
		if verbose {
			fmt.Printf("%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Printf("Created %s\n", r.OutputPath)
		}
	}

	if len(results) > 1 {
		fmt.Printf("\n%d succeeded, %d failed\n", succeeded, failed)
	}

	return failed
}
