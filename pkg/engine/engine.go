// Package engine evaluates jitter scripts. It wraps zygomys in a sandbox
// and builds a profile (a planar sketch plus named curves and jitter run
// records) from user source code.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/edgejitter/pkg/config"
	"github.com/chazu/edgejitter/pkg/jitter"
	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/chazu/edgejitter/pkg/kernel/planar"
	"github.com/chazu/edgejitter/pkg/profile"
)

// Fatal evaluation outcomes.
var (
	ErrTimeout    = errors.New("evaluation timeout")
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	CurveID kernel.CurveID
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Profile  *profile.Profile
	Errors   []EvalError
	Warnings []EvalWarning
}

// Settings are the defaults every evaluation starts from.
type Settings struct {
	MinSize     float64
	MaxSize     float64
	Recurse     bool
	Seed        int64 // 0 draws from the global source
	SizeCeiling float64
	Tolerance   float64
	ArcSegments int
	Timeout     time.Duration
}

// DefaultSettings returns the settings used by NewEngine.
func DefaultSettings() Settings {
	return Settings{
		MinSize:     profile.DefaultMinSize,
		MaxSize:     profile.DefaultMaxSize,
		Recurse:     true,
		SizeCeiling: jitter.DefaultSizeCeiling,
		Tolerance:   planar.DefaultTolerance,
		ArcSegments: 32,
		Timeout:     EvalTimeout,
	}
}

// SettingsFromConfig maps a loaded config onto evaluation settings.
func SettingsFromConfig(c *config.Config) Settings {
	return Settings{
		MinSize:     c.Jitter.MinSize,
		MaxSize:     c.Jitter.MaxSize,
		Recurse:     c.Jitter.Recurse,
		Seed:        c.Jitter.Seed,
		SizeCeiling: c.Jitter.SizeCeiling,
		Tolerance:   c.Kernel.Tolerance,
		ArcSegments: c.Kernel.ArcSegments,
		Timeout:     c.Engine.Timeout.Duration,
	}
}

// Engine wraps the zygomys interpreter for jitter scripts.
// Each call to Evaluate creates a fresh sandbox and a fresh sketch; a newer
// call supersedes any evaluation still in flight.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	settings   Settings
	log        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		settings: DefaultSettings(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the current evaluation defaults.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Configure replaces the evaluation defaults. Evaluations already running
// keep the settings they started with.
func (e *Engine) Configure(s Settings) {
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
}

// Evaluate takes script source and produces a new profile.
//
// Return semantics:
//   - On success: returns profile + nil errors + nil error
//   - On parse/eval failure: returns nil profile + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*profile.Profile, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	settings := e.settings
	e.mu.Unlock()

	limit := settings.Timeout
	if limit <= 0 {
		limit = EvalTimeout
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		p, evalErrs, err := e.evaluate(source, settings, gen)
		ch <- evalResult{profile: p, errors: evalErrs, err: err}
	}()

	p, evalErrs, err := waitWithTimeout(ch, gen, &e.mu, &e.generation, limit)
	if err != nil {
		e.log.Warn("evaluation failed", "generation", gen, "err", err)
	}
	return p, evalErrs, err
}

// EvaluateAll evaluates source and validates the resulting profile.
// Blocking validation findings are reported as eval errors alongside the
// profile; advisory findings become warnings.
func (e *Engine) EvaluateAll(source string) (*EvalResult, error) {
	p, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return nil, err
	}
	res := &EvalResult{Profile: p, Errors: evalErrs}
	if p == nil {
		return res, nil
	}
	v := profile.ValidateAll(p)
	for _, ve := range v.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, w := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: w.Message, CurveID: w.CurveID})
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, settings Settings, gen uint64) (*profile.Profile, []EvalError, error) {
	sess := newSession(settings, e.log)
	sess.profile.Version = gen

	// Empty source is a valid program that produces an empty profile.
	if strings.TrimSpace(source) == "" {
		return sess.profile, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, sess)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	e.log.Debug("evaluated",
		"generation", gen, "curves", sess.profile.CurveCount(),
		"runs", len(sess.profile.Runs), "cuts", sess.profile.CutCount())
	return sess.profile, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// pulling out a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
