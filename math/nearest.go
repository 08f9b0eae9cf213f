// math/nearest.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "golang.org/x/exp/constraints"

// NearestIndex returns the index of the element of keys that is closest to
// q. keys are scanned in the order given and the first element to reach
// the minimum distance wins, so with ascending keys a tie goes to the
// smaller key. It returns -1 if keys is empty.
func NearestIndex[T constraints.Signed | constraints.Float](keys []T, q T) int {
	best := -1
	var bestDist T
	for i, k := range keys {
		d := Abs(k - q)
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
