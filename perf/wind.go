// perf/wind.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"github.com/rotorperf/rotorperf/math"
	"github.com/rotorperf/rotorperf/util"
)

// ChartCell is a published (head, cross) wind component pair, in knots.
type ChartCell struct {
	Head  float64
	Cross float64
}

// Chart maps wind speed buckets (knots) to relative-angle buckets
// (degrees) to wind components.
type Chart map[float64]map[float64]ChartCell

// S97 is the built-in empirical wind component chart.
var S97 = Chart{
	20: {10: {10, 2}, 20: {9, 3}, 30: {9, 5}, 40: {8, 6}, 50: {6, 8}, 60: {5, 9}, 70: {3, 9}, 80: {2, 10}, 90: {0, 10}},
	25: {10: {15, 3}, 20: {14, 5}, 30: {13, 8}, 40: {11, 10}, 50: {10, 11}, 55: {14, 20}},
	30: {10: {20, 3}, 20: {19, 7}, 30: {17, 10}, 40: {15, 13}, 50: {13, 15}, 60: {10, 17}, 70: {7, 19}, 80: {3, 20}, 90: {0, 20}},
	35: {10: {25, 4}, 20: {23, 9}, 30: {22, 13}, 40: {19, 16}, 50: {16, 19}},
	40: {10: {30, 5}, 20: {28, 10}, 30: {26, 15}, 40: {23, 19}, 43: {22, 20}},
}

// ChartReading is the chart cell a query snapped to.
type ChartReading struct {
	Speed, Angle float64 // the chart buckets used
	ChartCell
}

// Lookup snaps speed to the nearest speed bucket and then angle to the
// nearest angle bucket for that speed; there is no interpolation between
// published points. Both snaps scan buckets in ascending order and keep
// the first minimum, so ties go to the lower bucket. ok is false for an
// empty chart.
func (c Chart) Lookup(speed, angle float64) (r ChartReading, ok bool) {
	speeds := util.SortedMapKeys(c)
	si := math.NearestIndex(speeds, speed)
	if si == -1 {
		return ChartReading{}, false
	}
	cells := c[speeds[si]]

	angles := util.SortedMapKeys(cells)
	ai := math.NearestIndex(angles, angle)
	if ai == -1 {
		return ChartReading{}, false
	}

	return ChartReading{
		Speed:     speeds[si],
		Angle:     angles[ai],
		ChartCell: cells[angles[ai]],
	}, true
}

// HeadWind returns the head-wind component in knots for a wind of the
// given speed at angle degrees off the nose; positive values are winds
// into the aircraft.
func HeadWind(speed, angle float64, mode WindMode) float64 {
	switch mode {
	case WindModeCosine:
		return speed * math.Cos(math.Radians(angle))
	case WindModeChart:
		r, _ := S97.Lookup(speed, angle)
		return r.Head
	default:
		panic("unhandled wind mode " + mode.String())
	}
}

// RelativeWindAngle returns the angle in [0,180] between the direction
// the wind is blowing from and the aircraft heading.
func RelativeWindAngle(windFrom, heading float64) float64 {
	return math.HeadingDifference(windFrom, heading)
}
