package jitter

import (
	"math"

	"cogentcore.org/core/base/randx"
)

// sizeSteps is the number of quantization steps between 0 and maxSize.
const sizeSteps = 10

// quantEpsilon absorbs float error when snapping minSize onto the grid.
const quantEpsilon = 1e-9

// RandomSize draws a size uniformly from [minSize, maxSize] and snaps it
// to the nearest multiple of maxSize/10. The result is clamped onto the
// grid points that lie inside the range, so it never leaves [minSize, maxSize].
func RandomSize(rnd randx.Rand, minSize, maxSize float64) float64 {
	step := maxSize / sizeSteps
	if step <= 0 || minSize >= maxSize {
		return maxSize
	}
	v := minSize + rnd.Float64()*(maxSize-minSize)
	q := math.Round(v / step)
	lo := math.Ceil(minSize/step - quantEpsilon)
	q = math.Min(math.Max(q, lo), sizeSteps)
	return q * step
}
