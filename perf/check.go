// perf/check.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"fmt"

	"github.com/rotorperf/rotorperf/math"
	"github.com/rotorperf/rotorperf/util"
)

// Check reports tables whose shape breaks the calculator's assumptions:
// empty or non-ascending axes, grids with the wrong number of rows or
// columns, missing grids for the mode and non-finite values. Calculate
// does not require a database to pass Check; malformed tables give
// meaningless numbers or ErrDegenerateAxis results.
func (db *Database) Check(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	for _, m := range Modes {
		e.Push(m.String())
		c := db.Collection(m)
		for _, w := range c.Weights() {
			e.Push(FormatWeight(w))
			if t := c[w]; t == nil {
				e.ErrorString("table is missing")
			} else {
				t.check(m, e)
			}
			e.Pop()
		}
		e.Pop()
	}
}

// Validate runs Check and returns an error wrapping ErrMalformedTable
// that lists every problem found.
func (db *Database) Validate() error {
	var e util.ErrorLogger
	db.Check(&e)
	if e.HaveErrors() {
		return fmt.Errorf("%w:\n%s", ErrMalformedTable, e.String())
	}
	return nil
}

// CheckJSON checks a database document: it reports syntax errors, fields
// that are misspelled or of the wrong type, duplicate keys, and then
// everything Check reports for the parsed database.
func CheckJSON(b []byte, e *util.ErrorLogger) {
	util.CheckJSON[wireDatabase](b, e)
	if e.HaveErrors() {
		return
	}

	db, err := ParseDatabase(b)
	if err != nil {
		e.Error(err)
		return
	}
	db.Check(e)
}

func (t *Table) check(m Mode, e *util.ErrorLogger) {
	checkAxis("oats", t.OATs, e)
	checkAxis("alts", t.Alts, e)

	switch m {
	case Conventional, Enhanced:
		t.checkGrid("grid", t.Grid, e)
	case RejectedTakeoff:
		t.checkGrid("dist", t.Distance, e)
		t.checkGrid("fac", t.Factor, e)
	default:
		panic("unhandled mode " + m.String())
	}
}

func checkAxis(name string, axis []float64, e *util.ErrorLogger) {
	if len(axis) == 0 {
		e.ErrorString("%s: axis is empty", name)
		return
	}
	for i, v := range axis {
		if !math.IsFinite(v) {
			e.ErrorString("%s[%d]: %v is not a finite number", name, i, v)
		} else if i > 0 && v <= axis[i-1] {
			e.ErrorString("%s[%d]: %v is not greater than the previous value %v", name, i, v, axis[i-1])
		}
	}
}

func (t *Table) checkGrid(name string, g Grid, e *util.ErrorLogger) {
	if g == nil {
		e.ErrorString("%s: missing", name)
		return
	}
	if len(g) != len(t.Alts) {
		e.ErrorString("%s: %d rows but %d altitudes", name, len(g), len(t.Alts))
	}
	for i, row := range g {
		if len(row) != len(t.OATs) {
			e.ErrorString("%s[%d]: %d values but %d temperatures", name, i, len(row), len(t.OATs))
		}
		for j, v := range row {
			if !math.IsFinite(v) {
				e.ErrorString("%s[%d][%d]: %v is not a finite number", name, i, j, v)
			}
		}
	}
}
