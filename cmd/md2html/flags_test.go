package main

import "testing"

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		want     cliFlags
		wantArgs []string
		wantErr  bool
	}{
		{
			name: "defaults",
			args: []string{"md2html"},
			want: cliFlags{},
		},
		{
			name:     "positional files",
			args:     []string{"md2html", "a.md", "b.md"},
			want:     cliFlags{},
			wantArgs: []string{"a.md", "b.md"},
		},
		{
			name: "all flags",
			args: []string{"md2html", "-c", "cfg.yaml", "-o", "out", "-w", "4", "-t", "30s", "--check", "-v"},
			want: cliFlags{config: "cfg.yaml", output: "out", workers: 4, timeout: "30s", check: true, verbose: true},
		},
		{
			name: "long flags",
			args: []string{"md2html", "--config=cfg.yaml", "--workers=2", "--version"},
			want: cliFlags{config: "cfg.yaml", workers: 2, version: true},
		},
		{
			name:    "unknown flag",
			args:    []string{"md2html", "--bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, args, err := parseFlags(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseFlags() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", *got, tt.want)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("positional args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("positional args = %v, want %v", args, tt.wantArgs)
					break
				}
			}
		})
	}
}
