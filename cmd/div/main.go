// div - compiler and REPL for the div expression language.
//
// With file arguments every file is run through one engine, so later files
// see the definitions of earlier ones. "-" reads standard input. Without
// arguments an interactive session starts.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	cli "github.com/urfave/cli/v2"

	"github.com/kolkov/div"
)

// version is set at build time via -ldflags.
var version = "dev"

// errFailed reports that at least one entry failed; the entries already
// logged their errors.
var errFailed = errors.New("one or more entries failed")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "div: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "div",
		Usage:     "compile and run div programs",
		UsageText: "div [flags] [file ...]",
		Version:   version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-opt", Usage: "skip the optimization pipeline"},
			&cli.BoolFlag{Name: "guard-loops", Usage: "test a for loop's end condition before the first iteration"},
			&cli.BoolFlag{Name: "dump-ir", Usage: "print the IR of every module to stderr"},
			&cli.StringFlag{Name: "dump-ast", Usage: "print the parsed entries and exit (`FORMAT`: source or go)"},
			&cli.IntFlag{Name: "max-depth", Value: div.DefaultMaxCallDepth, Usage: "maximum call depth at run time"},
			&cli.StringFlag{Name: "log-level", Value: "disabled", Usage: "diagnostic log level on stderr (trace, debug, info, warn, error, disabled)"},
		},
		Action: run,
	}
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(lvl), nil
}

func configFrom(c *cli.Context, log *zerolog.Logger) *div.Config {
	cfg := &div.Config{
		Output:       os.Stdout,
		Logger:       log,
		Optimize:     div.Bool(!c.Bool("no-opt")),
		GuardLoops:   c.Bool("guard-loops"),
		MaxCallDepth: c.Int("max-depth"),
	}
	if c.Bool("dump-ir") {
		cfg.DumpIR = os.Stderr
	}
	return cfg
}

func run(c *cli.Context) error {
	log, err := newLogger(c.String("log-level"))
	if err != nil {
		return err
	}

	if format := c.String("dump-ast"); format != "" {
		return dumpAST(c.Args().Slice(), format, os.Stdout)
	}

	cfg := configFrom(c, &log)
	if c.NArg() == 0 {
		return repl(c.Context, div.New(cfg), os.Stdout)
	}

	engine := div.New(cfg)
	failed := false
	for _, path := range c.Args().Slice() {
		r, closeFn, err := open(path)
		if err != nil {
			return err
		}
		if !report(engine.RunContext(c.Context, r), os.Stdout, os.Stderr) {
			failed = true
		}
		closeFn()
	}
	if failed {
		return errFailed
	}
	return nil
}

func open(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// report prints expression values to out and errors to errOut. It returns
// false if any entry failed.
func report(results []div.Result, out, errOut io.Writer) bool {
	ok := true
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(errOut, "error: %v\n", res.Err)
			ok = false
			continue
		}
		if res.Kind == div.KindExpression {
			fmt.Fprintf(out, "Evaluated to %f\n", res.Value)
		}
	}
	return ok
}
