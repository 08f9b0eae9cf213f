// math/core.go
// Copyright(c) 2022-2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Radians converts an angle expressed in degrees to radians.
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

func Cos(a float64) float64 {
	return gomath.Cos(a)
}

func Mod(a, b float64) float64 {
	return gomath.Mod(a, b)
}

func NaN() float64 {
	return gomath.NaN()
}

func IsNaN(v float64) bool {
	return gomath.IsNaN(v)
}

// IsFinite returns false for NaNs and infinities.
func IsFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}

// Round rounds half away from zero; Round(2.5) == 3, Round(-2.5) == -3.
func Round(v float64) float64 {
	return gomath.Round(v)
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}
