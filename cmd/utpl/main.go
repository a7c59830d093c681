package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"

	"github.com/aparcar/utpl/modules/jsonmod"
	"github.com/aparcar/utpl/modules/yamlmod"
	"github.com/aparcar/utpl/utpl"
)

var version = "0.1.0"

type cli struct {
	StepQuota      int    `help:"Execution step quota."         default:"100000"         group:"limits"`
	MemoryQuota    int    `help:"Memory quota in bytes."        default:"262144"         group:"limits"`
	RecursionLimit int    `help:"Maximum call stack depth."     default:"64"             group:"limits"`
	Profile        string `help:"Write a profile while running." enum:",cpu,mem" default:"" group:"profiling"`
	ProfileDir     string `help:"Profile output directory."     default:"."              group:"profiling" type:"path"`

	Run  runCmd  `cmd:"" default:"withargs" help:"Render a template file."`
	Repl replCmd `cmd:""                    help:"Start an interactive session."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

type runCmd struct {
	Check   bool          `help:"Compile the template without rendering it."`
	Global  []string      `help:"Bind a global as name=value (repeatable)." short:"g"`
	Output  string        `help:"Write output to a file instead of stdout." short:"o" type:"path"`
	Timeout time.Duration `help:"Abort rendering after this duration." default:"0"`

	Template string `arg:"" help:"Template file, or - for stdin."`
}

type replCmd struct{}

func main() {
	var c cli
	ktx := kong.Parse(&c,
		kong.Name("utpl"),
		kong.Description("Render utpl templates."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
	)

	stop := startProfile(c.Profile, c.ProfileDir)
	err := ktx.Run(&c)
	stop()
	ktx.FatalIfErrorf(err)
}

func startProfile(mode, dir string) func() {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet).Stop
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath(dir), profile.Quiet).Stop
	default:
		return func() {}
	}
}

func (c *cli) engine() (*utpl.Engine, error) {
	engine, err := utpl.NewEngine(utpl.Config{
		StepQuota:        c.StepQuota,
		MemoryQuotaBytes: c.MemoryQuota,
		RecursionLimit:   c.RecursionLimit,
	})
	if err != nil {
		return nil, err
	}
	if err := engine.RegisterProvider(yamlmod.New()); err != nil {
		return nil, err
	}
	if err := engine.RegisterProvider(jsonmod.New()); err != nil {
		return nil, err
	}
	return engine, nil
}

func (r *runCmd) Run(c *cli) error {
	var source []byte
	var err error
	if r.Template == "-" {
		source, err = io.ReadAll(os.Stdin)
	} else {
		source, err = os.ReadFile(r.Template)
	}
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	engine, err := c.engine()
	if err != nil {
		return err
	}
	tmpl, err := engine.Compile(string(source))
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}
	if r.Check {
		return nil
	}

	globals, err := parseGlobals(r.Global)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out := io.Writer(os.Stdout)
	if r.Output != "" {
		f, err := os.Create(r.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := tmpl.Render(ctx, out, utpl.RenderOptions{Globals: globals}); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// parseGlobals turns name=value flags into typed globals: integers, doubles,
// and the literals true, false, and null convert to their template types,
// anything else stays a string.
func parseGlobals(pairs []string) (map[string]utpl.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	globals := make(map[string]utpl.Value, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid global %q, expected name=value", pair)
		}
		globals[name] = convertGlobal(raw)
	}
	return globals, nil
}

func convertGlobal(raw string) utpl.Value {
	switch raw {
	case "true":
		return utpl.NewBool(true)
	case "false":
		return utpl.NewBool(false)
	case "null":
		return utpl.NewNull()
	}
	if i, err := strconv.ParseInt(raw, 0, 64); err == nil {
		return utpl.NewInt(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return utpl.NewDouble(f)
	}
	return utpl.NewString(raw)
}

func (r *replCmd) Run(c *cli) error {
	engine, err := c.engine()
	if err != nil {
		return err
	}
	return runREPL(engine)
}
