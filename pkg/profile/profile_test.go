package profile

import (
	"testing"

	"github.com/chazu/edgejitter/pkg/kernel"
	"github.com/chazu/edgejitter/pkg/kernel/planar"
)

func TestNewDefaults(t *testing.T) {
	p := New(planar.New())
	if p.Defaults.MinSize != DefaultMinSize || p.Defaults.MaxSize != DefaultMaxSize {
		t.Errorf("sizes = %v/%v, want %v/%v", p.Defaults.MinSize, p.Defaults.MaxSize, DefaultMinSize, DefaultMaxSize)
	}
	if !p.Defaults.Recurse {
		t.Error("expected recurse on by default")
	}
	if p.Defaults.Units != "mm" {
		t.Errorf("units = %q, want mm", p.Defaults.Units)
	}
	if p.CurveCount() != 0 {
		t.Errorf("CurveCount = %d, want 0", p.CurveCount())
	}
}

func TestNameAndLookup(t *testing.T) {
	s := planar.New()
	p := New(s)
	a, _ := s.AddLine(kernel.Pt(0, 0), kernel.Pt(10, 0))
	b, _ := s.AddLine(kernel.Pt(10, 0), kernel.Pt(10, 5))

	if err := p.Name("bottom", a); err != nil {
		t.Fatalf("Name: %v", err)
	}
	if err := p.Name("bottom", a); err != nil {
		t.Errorf("renaming the same curve should be allowed: %v", err)
	}
	if err := p.Name("bottom", b); err == nil {
		t.Error("expected error for duplicate name on another curve")
	}
	if err := p.Name("", b); err == nil {
		t.Error("expected error for empty name")
	}
	if err := p.Name("right", b); err != nil {
		t.Fatalf("Name: %v", err)
	}

	if got := p.Lookup("bottom"); got == nil || got.ID() != a.ID() {
		t.Errorf("Lookup(bottom) = %v, want %v", got, a)
	}
	if got := p.Lookup("missing"); got != nil {
		t.Errorf("Lookup(missing) = %v, want nil", got)
	}
	if got := p.NameOf(b.ID()); got != "right" {
		t.Errorf("NameOf = %q, want right", got)
	}
	names := p.SortedNames()
	if len(names) != 2 || names[0] != "bottom" || names[1] != "right" {
		t.Errorf("SortedNames = %v", names)
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(planar.New()).MustLookup("nope")
}

func TestCutCount(t *testing.T) {
	p := New(planar.New())
	p.AddRun(RunRecord{Cuts: 3})
	p.AddRun(RunRecord{Cuts: 4})
	if got := p.CutCount(); got != 7 {
		t.Errorf("CutCount = %d, want 7", got)
	}
}
