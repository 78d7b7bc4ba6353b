package jitter

import (
	"testing"

	"github.com/chazu/edgejitter/pkg/kernel"
)

type fakeSource struct {
	points []kernel.Point
	origin kernel.Point
}

func (f fakeSource) VisiblePoints() []kernel.Point { return f.points }
func (f fakeSource) Origin() kernel.Point { return f.origin }

func TestDominantAxis(t *testing.T) {
	tests := []struct {
		name       string
		start, end kernel.Point
		want       kernel.Axis
	}{
		{"horizontal", kernel.Pt(0, 0), kernel.Pt(10, 0), kernel.AxisX},
		{"vertical", kernel.Pt(0, 0), kernel.Pt(0, 10), kernel.AxisY},
		{"reversed horizontal", kernel.Pt(10, 3), kernel.Pt(0, 3), kernel.AxisX},
		{"mostly x", kernel.Pt(0, 0), kernel.Pt(5, -3), kernel.AxisX},
		{"diagonal tie", kernel.Pt(0, 0), kernel.Pt(5, 5), kernel.AxisY},
		{"degenerate", kernel.Pt(1, 1), kernel.Pt(1, 1), kernel.AxisY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DominantAxis(tt.start, tt.end); got != tt.want {
				t.Errorf("DominantAxis(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestEstimateDirection(t *testing.T) {
	horizontal := [2]kernel.Point{kernel.Pt(0, 0), kernel.Pt(10, 0)}
	vertical := [2]kernel.Point{kernel.Pt(2, 0), kernel.Pt(2, 10)}

	tests := []struct {
		name     string
		seg      [2]kernel.Point
		axis     kernel.Axis
		src      fakeSource
		polarity Polarity
		want     Direction
	}{
		{
			name:     "concave toward material above",
			seg:      horizontal,
			axis:     kernel.AxisX,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(0, 0), kernel.Pt(10, 0), kernel.Pt(10, 6)}},
			polarity: Concave,
			want:     PositiveY,
		},
		{
			name:     "convex away from material above",
			seg:      horizontal,
			axis:     kernel.AxisX,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(10, 6)}},
			polarity: Convex,
			want:     NegativeY,
		},
		{
			name:     "concave toward material below",
			seg:      horizontal,
			axis:     kernel.AxisX,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(3, -1), kernel.Pt(3, -8)}},
			polarity: Concave,
			want:     NegativeY,
		},
		{
			name:     "farthest point wins",
			seg:      horizontal,
			axis:     kernel.AxisX,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(0, 2), kernel.Pt(0, -5)}},
			polarity: Concave,
			want:     NegativeY,
		},
		{
			name:     "vertical segment concave",
			seg:      vertical,
			axis:     kernel.AxisY,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(-4, 1)}},
			polarity: Concave,
			want:     NegativeX,
		},
		{
			name:     "vertical segment convex",
			seg:      vertical,
			axis:     kernel.AxisY,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(-4, 1)}},
			polarity: Convex,
			want:     PositiveX,
		},
		{
			name:     "no points falls back to origin",
			seg:      [2]kernel.Point{kernel.Pt(0, 3), kernel.Pt(10, 3)},
			axis:     kernel.AxisX,
			src:      fakeSource{},
			polarity: Concave,
			want:     NegativeY,
		},
		{
			name:     "points on the line fall back to origin",
			seg:      [2]kernel.Point{kernel.Pt(0, 3), kernel.Pt(10, 3)},
			axis:     kernel.AxisX,
			src:      fakeSource{points: []kernel.Point{kernel.Pt(0, 3), kernel.Pt(10, 3)}},
			polarity: Convex,
			want:     PositiveY,
		},
		{
			name:     "segment through origin nudges outward",
			seg:      horizontal,
			axis:     kernel.AxisX,
			src:      fakeSource{},
			polarity: Concave,
			want:     PositiveY,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateDirection(tt.src, tt.seg[0], tt.seg[1], tt.axis, tt.polarity)
			if got != tt.want {
				t.Errorf("EstimateDirection() = %v, want %v", got, tt.want)
			}
			if got.Axis() != tt.axis.Other() {
				t.Errorf("direction %v is not lateral to %v", got, tt.axis)
			}
		})
	}
}

func TestEstimateDirectionPolaritiesOppose(t *testing.T) {
	src := fakeSource{points: []kernel.Point{kernel.Pt(1, 9)}}
	a, b := kernel.Pt(0, 0), kernel.Pt(10, 0)
	concave := EstimateDirection(src, a, b, kernel.AxisX, Concave)
	convex := EstimateDirection(src, a, b, kernel.AxisX, Convex)
	if concave.Sign() == convex.Sign() {
		t.Errorf("concave %v and convex %v point the same way", concave, convex)
	}
}
