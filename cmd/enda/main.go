// Package main provides the enda command: build information, environment
// diagnostics, traversal benchmarks and worked examples.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"

	"github.com/enda-lib/enda/internal/config"
)

const version = "v0.1.0"

type command struct {
	name  string
	usage string
	run   func(cfg *config.Config, args []string, out io.Writer) error
}

var commands = []command{
	{"version", "Show version", runVersion},
	{"info", "Show CPU features, configuration and BLAS availability", runInfo},
	{"bench", "Time contiguous and strided traversals", runBench},
	{"demo", "Run the layout, slicing, broadcasting and ownership examples", runDemo},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("enda", flag.ContinueOnError)
	fs.SetOutput(stderr)
	klog.InitFlags(fs)
	cfgPath := fs.String("config", os.Getenv("ENDA_CONFIG"), "YAML configuration file")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	defer klog.Flush()

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stdout, fs)
		return 0
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "enda: unknown command %q\n\n", rest[0])
		usage(stderr, fs)
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "enda: %v\n", err)
		return 1
	}
	if err := cmd.run(cfg, rest[1:], stdout); err != nil {
		fmt.Fprintf(stderr, "enda %s: %v\n", cmd.name, err)
		return 1
	}
	return 0
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "enda %s - strided N-dimensional arrays for Go\n\n", version)
	fmt.Fprintln(w, "Usage: enda [flags] <command> [args]")
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w, "\nFlags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func runVersion(_ *config.Config, _ []string, out io.Writer) error {
	_, err := fmt.Fprintf(out, "enda %s\n", version)
	return err
}
