package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		inputPath    string
		output       string
		baseInputDir string
		want         string
	}{
		{
			name:      "no output goes next to input",
			inputPath: filepath.Join("docs", "guide.md"),
			want:      filepath.Join("docs", "guide.html"),
		},
		{
			name:      "explicit html file wins",
			inputPath: "guide.md",
			output:    filepath.Join("out", "page.html"),
			want:      filepath.Join("out", "page.html"),
		},
		{
			name:      "output directory",
			inputPath: filepath.Join("docs", "guide.md"),
			output:    "out",
			want:      filepath.Join("out", "guide.html"),
		},
		{
			name:         "directory structure preserved under output",
			inputPath:    filepath.Join("docs", "sub", "guide.md"),
			output:       "out",
			baseInputDir: "docs",
			want:         filepath.Join("out", "sub", "guide.html"),
		},
		{
			name:      "markdown extension variant",
			inputPath: "notes.markdown",
			want:      "notes.html",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolveOutputPath(tt.inputPath, tt.output, tt.baseInputDir)
			if got != tt.want {
				t.Errorf("resolveOutputPath(%q, %q, %q) = %q, want %q",
					tt.inputPath, tt.output, tt.baseInputDir, got, tt.want)
			}
		})
	}
}

func TestValidateMarkdownExtension(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"a.md", "b.markdown", filepath.Join("dir", "c.md")} {
		if err := validateMarkdownExtension(path); err != nil {
			t.Errorf("validateMarkdownExtension(%q) error = %v, want nil", path, err)
		}
	}
	for _, path := range []string{"a.txt", "b.html", "noext"} {
		if err := validateMarkdownExtension(path); !errors.Is(err, ErrInvalidExtension) {
			t.Errorf("validateMarkdownExtension(%q) error = %v, want ErrInvalidExtension", path, err)
		}
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 8} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) error = %v, want nil", n, err)
		}
	}
	for _, n := range []int{-1, 9, 100} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}
