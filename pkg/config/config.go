// Package config holds the edge jitter settings. The same struct is read
// from TOML files and drives the jitter command line through
// cogentcore.org/core/cli, so every key is also a flag.
//
// A config file looks like:
//
//	[jitter]
//	min_size = 1.0
//	max_size = 2.0
//	recurse = true
//	seed = 42          # 0 picks a random seed per run
//	size_ceiling = 100
//
//	[kernel]
//	tolerance = 1e-6
//	arc_segments = 32
//
//	[log]
//	level = "info"
//
//	[engine]
//	timeout = "5s"
//
//	[output]
//	svg = "out.svg"
//	dxf = "out.dxf"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cogentcore.org/core/cli"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	return d.SetString(string(b))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// SetString parses s as a duration. It lets `default:` tags and flags
// set the value.
func (d *Duration) SetString(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the full settings file.
type Config struct {

	// Script is the jitter script to evaluate. It is only ever given on
	// the command line.
	Script string `toml:"-" posarg:"0"`

	Jitter Jitter `toml:"jitter"`
	Kernel Kernel `toml:"kernel"`
	Log    Log    `toml:"log"`
	Engine Engine `toml:"engine"`
	Output Output `toml:"output"`
}

// Jitter holds the default run parameters.
type Jitter struct {
	MinSize float64 `toml:"min_size" flag:"min,min-size" default:"1"`
	MaxSize float64 `toml:"max_size" flag:"max,max-size" default:"2"`
	Recurse bool    `toml:"recurse" default:"true"`

	// Seed fixes the random source; 0 picks one per run.
	Seed int64 `toml:"seed"`

	// SizeCeiling is the exclusive upper bound on max_size.
	SizeCeiling float64 `toml:"size_ceiling" flag:"ceiling,size-ceiling" default:"100"`
}

// Kernel configures the planar sketch.
type Kernel struct {
	Tolerance   float64 `toml:"tolerance" default:"1e-6"`
	ArcSegments int     `toml:"arc_segments" default:"32"`
}

type Log struct {
	Level string `toml:"level" default:"info"`
}

type Engine struct {
	Timeout Duration `toml:"timeout" default:"5s"`
}

// Output names the files the profile is written to.
type Output struct {
	SVG string `toml:"svg" flag:"svg"`
	DXF string `toml:"dxf" flag:"dxf"`
}

// Default returns the built-in settings from the `default:` tags.
func Default() *Config {
	c := &Config{}
	cli.SetFromDefaults(c)
	return c
}

// Load reads and validates the config file at path. Keys missing from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("unknown keys:\n%s", sme.String())
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	j := c.Jitter
	if j.MinSize <= 0 {
		errs = append(errs, fmt.Errorf("jitter.min_size %g must be positive", j.MinSize))
	}
	if j.SizeCeiling <= 0 {
		errs = append(errs, fmt.Errorf("jitter.size_ceiling %g must be positive", j.SizeCeiling))
	} else if j.MaxSize >= j.SizeCeiling {
		errs = append(errs, fmt.Errorf("jitter.max_size %g must be below %g", j.MaxSize, j.SizeCeiling))
	}
	if j.MinSize > j.MaxSize {
		errs = append(errs, fmt.Errorf("jitter.min_size %g exceeds max_size %g", j.MinSize, j.MaxSize))
	}
	if c.Kernel.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("kernel.tolerance %g must be positive", c.Kernel.Tolerance))
	}
	if c.Kernel.ArcSegments < 4 {
		errs = append(errs, fmt.Errorf("kernel.arc_segments %d must be at least 4", c.Kernel.ArcSegments))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Engine.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("engine.timeout %s must be positive", c.Engine.Timeout))
	}
	return errors.Join(errs...)
}

// OnConfig validates the settings once the command line has been applied.
func (c *Config) OnConfig(cmd string) error {
	return c.Validate()
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.Log.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
