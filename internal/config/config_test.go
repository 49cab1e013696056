package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	md2html "github.com/alnah/go-md2html"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
render:
  timeout: 30s
  pingTimeout: 2s
pool:
  workers: 4
policy:
  allowedTags: [p, a]
  allowedAttributes:
    a: [href]
  allowedProtocols:
    href: [https]
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		timeout, err := cfg.Timeout()
		if err != nil {
			t.Fatalf("Timeout() error = %v", err)
		}
		if timeout != 30*time.Second {
			t.Errorf("Timeout() = %v, want 30s", timeout)
		}
		if cfg.Pool.Workers != 4 {
			t.Errorf("Workers = %d, want 4", cfg.Pool.Workers)
		}

		schema := cfg.Schema()
		if len(schema.AllowedTags) != 2 {
			t.Errorf("Schema().AllowedTags = %v, want [p a]", schema.AllowedTags)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Load() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "render:\n  timeot: 5s\n")
		if _, err := Load(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("Load() error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("bad duration rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "render:\n  timeout: banana\n")
		if _, err := Load(path); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("Load() error = %v, want ErrInvalidTimeout", err)
		}
	})

	t.Run("negative duration rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "render:\n  timeout: -5s\n")
		if _, err := Load(path); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("Load() error = %v, want ErrInvalidTimeout", err)
		}
	})

	t.Run("negative workers rejected", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "pool:\n  workers: -1\n")
		if _, err := Load(path); !errors.Is(err, ErrInvalidWorkers) {
			t.Errorf("Load() error = %v, want ErrInvalidWorkers", err)
		}
	})
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	timeout, err := cfg.Timeout()
	if err != nil {
		t.Fatalf("Timeout() error = %v", err)
	}
	if timeout != md2html.DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", timeout, md2html.DefaultTimeout)
	}

	ping, err := cfg.PingTimeout()
	if err != nil {
		t.Fatalf("PingTimeout() error = %v", err)
	}
	if ping != md2html.DefaultPingTimeout {
		t.Errorf("PingTimeout() = %v, want %v", ping, md2html.DefaultPingTimeout)
	}

	if schema := cfg.Schema(); len(schema.AllowedTags) != 0 {
		t.Errorf("Schema() = %v, want zero value selecting built-in policy", schema)
	}
}
