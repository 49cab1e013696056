package main

import (
	flag "github.com/spf13/pflag"
)

// cliFlags holds all command-line flags.
type cliFlags struct {
	config  string
	output  string
	workers int
	timeout string
	check   bool
	verbose bool
	version bool
}

// parseFlags parses command-line arguments. Remaining positional
// arguments are the markdown input files; none means stdin.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("md2html", flag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "path to YAML config file")
	fs.StringVarP(&f.output, "output", "o", "", "output file (single input) or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "number of render units (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-render timeout, e.g. 30s")
	fs.BoolVar(&f.check, "check", false, "probe render unit liveness and exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
