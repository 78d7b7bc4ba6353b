package profile

import (
	"fmt"
	"math"

	"github.com/chazu/edgejitter/pkg/kernel"
)

// ValidationSeverity indicates whether a validation finding blocks export
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks export
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	CurveID  kernel.CurveID     // which curve has the problem (zero if profile-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.CurveID == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] curve %d: %s", e.Severity, e.CurveID, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	CurveID kernel.CurveID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks: names and run records must refer
// to curves that still exist, unless a later run consumed them. It never
// mutates the profile.
func Validate(p *Profile) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(p)...)
	errs = append(errs, validateRuns(p)...)
	errs = append(errs, validateDefaults(p)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, geometric,
// fabrication) and returns errors and warnings separately.
func ValidateAll(p *Profile) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(p) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{CurveID: e.CurveID, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	result.Errors = append(result.Errors, validateGeometry(p)...)
	result.Warnings = append(result.Warnings, validateFragments(p)...)
	return result
}

// consumed returns the IDs of curves that were the target of a run.
func consumed(p *Profile) map[kernel.CurveID]bool {
	ids := make(map[kernel.CurveID]bool, len(p.Runs))
	for _, r := range p.Runs {
		ids[r.Target] = true
	}
	return ids
}

func validateNames(p *Profile) []ValidationError {
	var errs []ValidationError
	used := consumed(p)
	for _, name := range p.SortedNames() {
		c := p.Names[name]
		if p.Sketch.IsValid(c) || used[c.ID()] {
			continue
		}
		errs = append(errs, ValidationError{
			CurveID:  c.ID(),
			Message:  fmt.Sprintf("name %q refers to a curve that no longer exists", name),
			Severity: SeverityError,
		})
	}
	return errs
}

func validateRuns(p *Profile) []ValidationError {
	var errs []ValidationError
	used := consumed(p)
	for i, r := range p.Runs {
		if r.Err != "" {
			errs = append(errs, ValidationError{
				CurveID:  r.Target,
				Message:  fmt.Sprintf("run %d stopped after %d cuts: %s", i, r.Cuts, r.Err),
				Severity: SeverityWarning,
			})
		}
		for _, f := range r.Fragments {
			if p.Sketch.IsValid(f) || used[f.ID()] {
				continue
			}
			errs = append(errs, ValidationError{
				CurveID:  f.ID(),
				Message:  fmt.Sprintf("fragment of run %d no longer exists", i),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateDefaults(p *Profile) []ValidationError {
	d := p.Defaults
	if d.MinSize > 0 && d.MinSize <= d.MaxSize {
		return nil
	}
	return []ValidationError{{
		Message:  fmt.Sprintf("default cut sizes min %.4f, max %.4f are out of order", d.MinSize, d.MaxSize),
		Severity: SeverityError,
	}}
}

// ---------------------------------------------------------------------------
// Tier 2: Geometric validation
// ---------------------------------------------------------------------------

// validateGeometry checks that every live curve has a finite length above
// the profile tolerance.
func validateGeometry(p *Profile) []ValidationError {
	var errs []ValidationError
	for _, c := range p.Sketch.Curves() {
		l, err := p.Sketch.Length(c)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				CurveID:  c.ID(),
				Message:  fmt.Sprintf("length unavailable: %v", err),
				Severity: SeverityError,
			})
		case math.IsNaN(l) || math.IsInf(l, 0):
			errs = append(errs, ValidationError{
				CurveID:  c.ID(),
				Message:  fmt.Sprintf("%s has non-finite length", c.Kind()),
				Severity: SeverityError,
			})
		case l <= p.Defaults.Tolerance:
			errs = append(errs, ValidationError{
				CurveID:  c.ID(),
				Message:  fmt.Sprintf("%s length %.6f is degenerate", c.Kind(), l),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 3: Fabrication warnings
// ---------------------------------------------------------------------------

// validateFragments warns about surviving fragments shorter than the
// minimum cut of their run. They tend to vanish under a cutter.
func validateFragments(p *Profile) []ValidationWarning {
	var warnings []ValidationWarning
	for _, r := range p.Runs {
		for _, f := range r.Fragments {
			if !p.Sketch.IsValid(f) {
				continue
			}
			l, err := p.Sketch.Length(f)
			if err != nil || l >= r.MinSize {
				continue
			}
			warnings = append(warnings, ValidationWarning{
				CurveID: f.ID(),
				Message: fmt.Sprintf("fragment length %.4f is shorter than the minimum cut %.4f", l, r.MinSize),
			})
		}
	}
	return warnings
}
