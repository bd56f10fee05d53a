// Command mlogc compiles mlogc source files to Mindustry logic.
//
//	mlogc [flags] <input>
//	mlogc -repl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"mlogc/pkg/compiler"
	"mlogc/pkg/logger"
	"mlogc/pkg/processor"
	"mlogc/pkg/utils"
)

type config struct {
	output    string
	resolve   bool
	prune     bool
	entry     string
	run       bool
	steps     int
	worldPath string
	repl      bool
	verbose   bool
	debug     bool
}

func parseFlags(args []string, stderr io.Writer) (*config, []string, error) {
	var cfg config
	fs := flag.NewFlagSet("mlogc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.output, "o", "", "Write the generated mlog to `file` instead of stdout")
	fs.BoolVar(&cfg.resolve, "resolve", false, "Emit label-free mlog with numeric jump targets")
	fs.BoolVar(&cfg.prune, "prune", false, "Drop functions unreachable from the entry function")
	fs.StringVar(&cfg.entry, "entry", "main", "Function called at program start")
	fs.BoolVar(&cfg.run, "run", false, "Emulate one program pass; printflush output goes to stdout")
	fs.IntVar(&cfg.steps, "steps", 100000, "Step budget for -run (0 = unlimited)")
	fs.StringVar(&cfg.worldPath, "world", "", "JavaScript `file` answering radar, ubind, ucontrol and sensor during -run")
	fs.BoolVar(&cfg.repl, "repl", false, "Start an interactive session")
	fs.BoolVar(&cfg.verbose, "v", false, "Verbose output")
	fs.BoolVar(&cfg.debug, "vv", false, "Very verbose output (tokens, AST)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: mlogc [flags] <input>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}

func (c *config) level() logger.Level {
	switch {
	case c.debug:
		return logger.Debug
	case c.verbose:
		return logger.Verbose
	}
	return logger.Quiet
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	log := logger.NewWithWriter(cfg.level(), stderr)
	opts := compiler.Options{Entry: cfg.entry, PruneUnused: cfg.prune}

	if cfg.repl {
		return repl(opts, stdout, log)
	}
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "usage: mlogc [flags] <input>")
		return 2
	}

	path := rest[0]
	src, dir, err := utils.ReadSource(path)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	log.V("compiling %s (includes relative to %s)", path, dir)

	res, err := compiler.Compile(src, dir, opts)
	dumpStages(log, res)
	if err != nil {
		log.Error("%v", compiler.RenderError(err, path, res.Source))
		return 1
	}
	log.V("generated %d instructions", res.Assembly.Len())

	code := res.Code
	if cfg.resolve {
		code = res.Assembly.String()
	}
	switch {
	case cfg.output != "":
		if err := os.WriteFile(cfg.output, []byte(code), 0o644); err != nil {
			log.Error("%v", err)
			return 1
		}
		log.V("wrote %s", cfg.output)
	case !cfg.run:
		fmt.Fprint(stdout, code)
	}

	if cfg.run {
		if err := emulate(cfg, res, stdout, log); err != nil {
			log.Error("%v", err)
			return 1
		}
	}
	return 0
}

// dumpStages writes the intermediate products to the log at -vv.
func dumpStages(log *logger.Logger, res *compiler.Result) {
	if !log.IsDebug() || res == nil {
		return
	}
	if len(res.Tokens) > 0 {
		lines := make([]string, len(res.Tokens))
		for i, tok := range res.Tokens {
			lines[i] = tok.String()
		}
		log.Dump(fmt.Sprintf("Tokens (%d)", len(res.Tokens)), strings.Join(lines, "\n"))
	}
	if res.Program != nil {
		log.Dump("AST", res.Program.String())
	}
	if res.Code != "" {
		log.Dump("Generated mlog", res.Code)
	}
}

func emulate(cfg *config, res *compiler.Result, stdout io.Writer, log *logger.Logger) error {
	recorder := &processor.RecordingWorld{}
	var world processor.World = recorder
	if cfg.worldPath != "" {
		script, _, err := utils.ReadSource(cfg.worldPath)
		if err != nil {
			return err
		}
		sw, err := processor.NewScriptWorld(script)
		if err != nil {
			return err
		}
		defer func() {
			for _, line := range sw.Logs {
				log.V("world: %s", line)
			}
		}()
		world = sw
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := processor.New(res.Assembly, processor.WithWorld(world), processor.WithOutput(stdout))
	err := p.Run(ctx, cfg.steps)
	log.V("executed %d steps", p.Steps)
	for _, c := range recorder.Calls {
		log.VV("world call: %s", c)
	}
	return err
}
