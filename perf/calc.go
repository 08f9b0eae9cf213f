// perf/calc.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rotorperf/rotorperf/math"
)

// DescendingMargin is added to conventional drop-down heights when the
// descending flag is set.
const DescendingMargin = 15

const (
	// UnavailableDisplay is shown in place of a number when no result
	// could be computed.
	UnavailableDisplay = "—"
	// UnavailableLabel is the label of a result computed without a
	// matching table.
	UnavailableLabel = "database not loaded"
)

// Request holds the inputs for a single calculation.
type Request struct {
	Mode        Mode     `json:"mode"`
	GrossWeight float64  `json:"gw"`
	OAT         float64  `json:"oat"`  // outside air temperature
	Altitude    float64  `json:"alt"`  // pressure altitude
	WindSpeed   float64  `json:"wind"` // knots
	WindAngle   float64  `json:"wra"`  // degrees off the nose
	WindMode    WindMode `json:"wind_mode"`
	Descending  bool     `json:"descending"`
	// FeetPerKnot scales the head wind into a drop-down correction.
	FeetPerKnot float64 `json:"ft_per_kt"`
	// RTODivisor and FilterMargin are only used for RejectedTakeoff.
	RTODivisor   float64 `json:"rto_div"`
	FilterMargin float64 `json:"filter"`
}

// Validate checks the request for values the calculator cannot give a
// meaningful answer for. Calculate itself does not call it.
func (r Request) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"gross weight", r.GrossWeight},
		{"OAT", r.OAT},
		{"altitude", r.Altitude},
		{"wind speed", r.WindSpeed},
		{"wind angle", r.WindAngle},
		{"ft/kt", r.FeetPerKnot},
		{"RTO divisor", r.RTODivisor},
		{"filter margin", r.FilterMargin},
	} {
		if !math.IsFinite(f.v) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidRequest, f.name)
		}
	}

	switch r.Mode {
	case Conventional, Enhanced:
	case RejectedTakeoff:
		if r.RTODivisor <= 0 {
			return fmt.Errorf("%w: RTO divisor must be positive", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrUnknownMode)
	}

	if r.WindMode != WindModeCosine && r.WindMode != WindModeChart {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrUnknownWindMode)
	}
	return nil
}

func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", r.Mode.String()),
		slog.Float64("gw", r.GrossWeight),
		slog.Float64("oat", r.OAT),
		slog.Float64("alt", r.Altitude),
		slog.Float64("wind", r.WindSpeed),
		slog.Float64("wra", r.WindAngle),
		slog.String("wind_mode", r.WindMode.String()))
}

// Result is the outcome of a calculation. Value is unrounded; Rounded and
// Display give the figures to show. When Err is non-nil Value is NaN and
// the result must not be presented as a number.
type Result struct {
	Mode  Mode
	Value float64
	Unit  string
	Label string
	Note  string

	HeadWind    float64 // knots
	TableWeight float64 // weight of the table that was used
	Base        float64 // interpolated drop-down height or RTO distance
	Factor      float64 // RTO wind factor
	WindBenefit float64 // RTO only
	Margin      float64 // descending margin (drop-down) or filter margin (RTO)

	Err error
}

func (r Result) Available() bool {
	return r.Err == nil
}

// Rounded returns Value rounded half away from zero.
func (r Result) Rounded() int {
	return int(math.Round(r.Value))
}

// Display returns the value with its unit, e.g. "15 ft", or
// UnavailableDisplay.
func (r Result) Display() string {
	if !r.Available() {
		return UnavailableDisplay
	}
	return strconv.Itoa(r.Rounded()) + " " + r.Unit
}

func unavailable(m Mode, head float64) Result {
	return Result{
		Mode:     m,
		Value:    math.NaN(),
		Label:    UnavailableLabel,
		HeadWind: head,
		Err:      ErrNoMatchingTable,
	}
}

// Calculate computes the figure for req from the tables in db. It is a
// pure function of its arguments.
func Calculate(req Request, db *Database) Result {
	head := HeadWind(req.WindSpeed, req.WindAngle, req.WindMode)

	if db == nil {
		return unavailable(req.Mode, head)
	}
	table, weight, ok := NearestTable(db.Collection(req.Mode), req.GrossWeight)
	if !ok || table == nil {
		return unavailable(req.Mode, head)
	}

	r := Result{
		Mode:        req.Mode,
		Unit:        req.Mode.Unit(),
		Label:       req.Mode.Label(),
		HeadWind:    head,
		TableWeight: weight,
	}

	switch req.Mode {
	case Conventional, Enhanced:
		r.Base = table.Lookup(req.OAT, req.Altitude, table.Grid)
		if req.Mode == Conventional && req.Descending {
			r.Margin = DescendingMargin
		}
		r.Value = r.Base + head*req.FeetPerKnot + r.Margin
		r.Note = fmt.Sprintf("Headwind used: %d kt", int(math.Round(head)))

	case RejectedTakeoff:
		r.Base = table.Lookup(req.OAT, req.Altitude, table.Distance)
		r.Factor = table.Lookup(req.OAT, req.Altitude, table.Factor)
		r.WindBenefit = (head / req.RTODivisor) * r.Factor
		r.Margin = req.FilterMargin
		r.Value = r.Base + r.WindBenefit + r.Margin
		r.Note = fmt.Sprintf("Wind benefit: %d m • EAPS/IBF: %s m", int(math.Round(r.WindBenefit)),
			strconv.FormatFloat(req.FilterMargin, 'f', -1, 64))

	default:
		panic("unhandled mode " + req.Mode.String())
	}

	if math.IsNaN(r.Value) {
		r.Err = ErrDegenerateAxis
		r.Note = fmt.Sprintf("table for %s has an empty or mismatched axis", FormatWeight(weight))
	}
	return r
}
