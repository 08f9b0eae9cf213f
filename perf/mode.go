// perf/mode.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import "fmt"

// Mode selects which figure is computed and which collection of the
// database it is computed from.
type Mode int

const (
	Conventional    Mode = iota // drop-down, conventional procedure
	Enhanced                    // drop-down, enhanced procedure
	RejectedTakeoff             // RTO clear area
)

var Modes = []Mode{Conventional, Enhanced, RejectedTakeoff}

func (m Mode) String() string {
	switch m {
	case Conventional:
		return "conv"
	case Enhanced:
		return "enh"
	case RejectedTakeoff:
		return "rto"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Label is the human-readable name of the figure the mode computes.
func (m Mode) Label() string {
	switch m {
	case Conventional:
		return "Conventional drop-down"
	case Enhanced:
		return "Enhanced drop-down"
	case RejectedTakeoff:
		return "RTO clear area"
	default:
		panic("unhandled mode " + m.String())
	}
}

// Unit is the unit of the mode's result; drop-down heights are in feet
// and clear-area distances in meters.
func (m Mode) Unit() string {
	switch m {
	case Conventional, Enhanced:
		return "ft"
	case RejectedTakeoff:
		return "m"
	default:
		panic("unhandled mode " + m.String())
	}
}

// ParseMode accepts exactly "conv", "enh" or "rto".
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if s == m.String() {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

func (m Mode) MarshalText() ([]byte, error) {
	if m < Conventional || m > RejectedTakeoff {
		return nil, fmt.Errorf("%d: %w", int(m), ErrUnknownMode)
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	var err error
	*m, err = ParseMode(string(b))
	return err
}

// WindMode selects how the head-wind component is derived from the wind
// speed and relative angle.
type WindMode int

const (
	// WindModeCosine projects the wind onto the flight path: speed*cos(angle).
	WindModeCosine WindMode = iota
	// WindModeChart reads the head component from the built-in S97 chart
	// by snapping to the nearest published speed and angle.
	WindModeChart
)

func (w WindMode) String() string {
	switch w {
	case WindModeCosine:
		return "cos"
	case WindModeChart:
		return "s97"
	default:
		return fmt.Sprintf("WindMode(%d)", int(w))
	}
}

// ParseWindMode accepts exactly "cos" or "s97".
func ParseWindMode(s string) (WindMode, error) {
	switch s {
	case "cos":
		return WindModeCosine, nil
	case "s97":
		return WindModeChart, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownWindMode)
	}
}

func (w WindMode) MarshalText() ([]byte, error) {
	if w != WindModeCosine && w != WindModeChart {
		return nil, fmt.Errorf("%d: %w", int(w), ErrUnknownWindMode)
	}
	return []byte(w.String()), nil
}

func (w *WindMode) UnmarshalText(b []byte) error {
	var err error
	*w, err = ParseWindMode(string(b))
	return err
}
