// Command jitter evaluates an edge jitter script and writes the resulting
// profile as SVG and/or DXF.
//
// Usage:
//
//	jitter [-config jitter.toml] [-min 1] [-max 2] [-svg out.svg] [-dxf out.dxf] script.jit
//
// Settings come from the `default:` tags of config.Config, then from the
// config file (jitter.toml in the working directory unless -config names
// another), then from flags.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/cli"
	"github.com/muesli/termenv"

	"github.com/chazu/edgejitter/pkg/config"
	"github.com/chazu/edgejitter/pkg/engine"
	"github.com/chazu/edgejitter/pkg/render"
	"github.com/chazu/edgejitter/pkg/tessellate"
)

func main() {
	cli.Run(options(), &config.Config{}, command(Jitter))
}

func options() *cli.Options {
	opts := cli.DefaultOptions("jitter", "Jitter evaluates an edge jitter script and writes the resulting profile as SVG and DXF.")
	opts.PrintSuccess = false
	// The empty path resolves -config relative to the working directory
	// and keeps absolute paths intact.
	opts.IncludePaths = []string{"", "configs"}
	return opts
}

func command(fn func(*config.Config) error) *cli.Cmd[*config.Config] {
	return &cli.Cmd[*config.Config]{
		Func: fn,
		Name: "jitter",
		Doc:  "evaluate a jitter script and write the profile",
		Root: true,
	}
}

// Jitter evaluates c.Script and writes the outputs c names.
func Jitter(c *config.Config) error {
	return run(c, os.Stdout, os.Stderr)
}

// dxfExporter is implemented by sketches that can write DXF.
type dxfExporter interface {
	ExportDXF(path string) error
}

func run(c *config.Config, stdout, stderr io.Writer) error {
	out := termenv.NewOutput(stdout)
	errOut := termenv.NewOutput(stderr)
	logger := c.Logger(stderr)

	src, err := os.ReadFile(c.Script)
	if err != nil {
		return errors.Log(err)
	}

	eng := engine.NewEngine(engine.WithSettings(engine.SettingsFromConfig(c)), engine.WithLogger(logger))
	res, err := eng.EvaluateAll(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", c.Script, err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(stdout, out.String("warning:").Foreground(termenv.ANSIYellow), w.Message)
	}
	if len(res.Errors) > 0 {
		label := errOut.String("error:").Foreground(termenv.ANSIRed).Bold()
		for _, e := range res.Errors {
			if e.Line > 0 {
				fmt.Fprintf(stderr, "%s %s:%d: %s\n", label, c.Script, e.Line, e.Message)
			} else {
				fmt.Fprintf(stderr, "%s %s: %s\n", label, c.Script, e.Message)
			}
		}
		return fmt.Errorf("%s: %d error(s)", c.Script, len(res.Errors))
	}

	p := res.Profile
	polys, err := tessellate.Tessellate(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %d curves, %d runs, %d cuts, %.2f %s of outline\n",
		out.String("ok").Foreground(termenv.ANSIGreen).Bold(),
		p.CurveCount(), len(p.Runs), p.CutCount(), tessellate.TotalLength(polys), p.Defaults.Units)

	if path := c.Output.SVG; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		werr := render.WriteProfile(f, p, render.DefaultOptions())
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write svg: %w", werr)
		}
		fmt.Fprintln(stdout, "wrote", path)
	}
	if path := c.Output.DXF; path != "" {
		x, ok := p.Sketch.(dxfExporter)
		if !ok {
			return fmt.Errorf("sketch does not support DXF export")
		}
		if err := x.ExportDXF(path); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "wrote", path)
	}
	if c.Output.SVG == "" && c.Output.DXF == "" {
		if names := p.SortedNames(); len(names) > 0 {
			fmt.Fprintln(stdout, "named curves:", strings.Join(names, " "))
		}
	}
	return nil
}
