package jitter

import (
	"math"
	"testing"

	"cogentcore.org/core/base/randx"
	"github.com/stretchr/testify/assert"
)

func TestRandomSizeStaysInRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
	}{
		{"unit range", 1, 2},
		{"wide range", 0.1, 10},
		{"off grid min", 0.35, 1},
		{"narrow range", 4.9, 5},
		{"tiny sizes", 0.001, 0.003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rnd := randx.NewSysRand(7)
			step := tt.max / 10
			for i := 0; i < 500; i++ {
				got := RandomSize(rnd, tt.min, tt.max)
				assert.GreaterOrEqual(t, got, tt.min-1e-9)
				assert.LessOrEqual(t, got, tt.max+1e-9)
				steps := got / step
				assert.InDelta(t, math.Round(steps), steps, 1e-9, "size %g is not a multiple of %g", got, step)
			}
		})
	}
}

func TestRandomSizeEqualBounds(t *testing.T) {
	rnd := randx.NewSysRand(1)
	for i := 0; i < 10; i++ {
		assert.InDelta(t, 3.0, RandomSize(rnd, 3, 3), 1e-12)
	}
}

func TestRandomSizeCoversGrid(t *testing.T) {
	rnd := randx.NewSysRand(42)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		seen[int(math.Round(RandomSize(rnd, 0.1, 1)*10))] = true
	}
	for q := 1; q <= 10; q++ {
		assert.True(t, seen[q], "grid value %d/10 never drawn", q)
	}
}

func TestRandomSizeDeterministicForSeed(t *testing.T) {
	a, b := randx.NewSysRand(99), randx.NewSysRand(99)
	for i := 0; i < 50; i++ {
		assert.Equal(t, RandomSize(a, 1, 5), RandomSize(b, 1, 5))
	}
}
