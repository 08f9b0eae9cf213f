// math/interp.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// Interp1 linearly interpolates the samples (xs[i], ys[i]) at x. xs must be
// ascending and the same length as ys. Queries outside [xs[0], xs[last]]
// are clamped to the first or last sample; there is no extrapolation. An
// empty xs gives NaN, which callers should treat as "no data"; so does a
// ys whose length doesn't match xs.
//
// Repeated adjacent values in xs divide by zero; that is left to the caller.
func Interp1(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || len(ys) != n {
		return NaN()
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}

	for i := 1; i < n; i++ {
		if x == xs[i] {
			return ys[i]
		} else if x < xs[i] {
			t := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + t*(ys[i]-ys[i-1])
		}
	}
	// Only reachable with a non-ascending xs.
	return NaN()
}

// Interp2 does separable bilinear interpolation over grid, whose rows are
// indexed by the ys axis and columns by the xs axis: every row is first
// interpolated at x, then the resulting column is interpolated at y. Both
// passes clamp like Interp1.
func Interp2(x, y float64, xs, ys []float64, grid [][]float64) float64 {
	col := make([]float64, len(ys))
	for i := range ys {
		if i < len(grid) {
			col[i] = Interp1(x, xs, grid[i])
		} else {
			col[i] = NaN()
		}
	}
	return Interp1(y, ys, col)
}
