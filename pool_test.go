package md2html

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRendererPoolAcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(2)
	t.Cleanup(func() { _ = pool.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	html, err := r1.Render(ctx, "# Pool Test")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(html, "Pool Test") {
		t.Errorf("Render() = %q, want heading content", html)
	}

	pool.Release(r1)

	// A released renderer comes back before a new one is created.
	r2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if r2 != r1 {
		t.Error("Acquire() after Release returned a different renderer")
	}
	pool.Release(r2)
}

func TestRendererPoolBlocksWhenExhausted(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(1)
	t.Cleanup(func() { _ = pool.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Second acquire must block until release, not create a second unit.
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer shortCancel()
	if _, err := pool.Acquire(shortCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() on exhausted pool error = %v, want DeadlineExceeded", err)
	}

	pool.Release(r)
	got, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() after Release error = %v", err)
	}
	pool.Release(got)
}

func TestRendererPoolClose(t *testing.T) {
	t.Parallel()

	pool := NewRendererPool(2)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	pool.Release(r)

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Idempotent.
	if err := pool.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := pool.Acquire(ctx); !errors.Is(err, ErrTerminated) {
		t.Errorf("Acquire() after Close error = %v, want ErrTerminated", err)
	}
}

func TestRendererPoolAcquireAfterClose(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	t.Run("empty pool", func(t *testing.T) {
		t.Parallel()

		pool := NewRendererPool(1)
		if err := pool.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		r, err := pool.Acquire(ctx)
		if !errors.Is(err, ErrTerminated) {
			t.Errorf("Acquire() after Close = %v, %v; want nil, ErrTerminated", r, err)
		}
		if r != nil {
			t.Errorf("Acquire() after Close returned renderer %v, want nil", r)
		}
	})

	t.Run("idle renderer left in pool", func(t *testing.T) {
		t.Parallel()

		pool := NewRendererPool(1)

		r, err := pool.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		pool.Release(r)

		if err := pool.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		// The released renderer is closed and drained; it must never be
		// handed out again.
		got, err := pool.Acquire(ctx)
		if !errors.Is(err, ErrTerminated) {
			t.Errorf("Acquire() after Close = %v, %v; want nil, ErrTerminated", got, err)
		}
		if got != nil {
			t.Errorf("Acquire() after Close returned renderer %v, want nil", got)
		}
	})

	t.Run("blocked acquire unblocked by close", func(t *testing.T) {
		t.Parallel()

		pool := NewRendererPool(1)
		t.Cleanup(func() { _ = pool.Close() })

		r, err := pool.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		_ = r // held for the duration: the next Acquire must block

		errCh := make(chan error, 1)
		go func() {
			_, err := pool.Acquire(ctx)
			errCh <- err
		}()

		time.Sleep(50 * time.Millisecond)
		if err := pool.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		select {
		case err := <-errCh:
			if !errors.Is(err, ErrTerminated) {
				t.Errorf("blocked Acquire() error = %v, want ErrTerminated", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("blocked Acquire never settled after Close")
		}
	})
}

func TestNewRendererPoolMinimumSize(t *testing.T) {
	t.Parallel()

	for _, n := range []int{-3, 0, 1, 5} {
		pool := NewRendererPool(n)
		want := n
		if want < 1 {
			want = 1
		}
		if pool.Size() != want {
			t.Errorf("NewRendererPool(%d).Size() = %d, want %d", n, pool.Size(), want)
		}
		_ = pool.Close()
	}
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	t.Run("explicit workers win", func(t *testing.T) {
		t.Parallel()

		for _, n := range []int{1, 3, 16} {
			if got := ResolvePoolSize(n); got != n {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", n, got, n)
			}
		}
	})

	t.Run("auto stays within bounds", func(t *testing.T) {
		t.Parallel()

		got := ResolvePoolSize(0)
		if got < MinPoolSize || got > MaxPoolSize {
			t.Errorf("ResolvePoolSize(0) = %d, want within [%d, %d]", got, MinPoolSize, MaxPoolSize)
		}
	})
}
