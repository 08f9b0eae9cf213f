// perf/table.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"strconv"

	"github.com/rotorperf/rotorperf/math"
	"github.com/rotorperf/rotorperf/util"
)

// Grid holds one row per altitude sample; each row has one value per
// temperature sample.
type Grid [][]float64

// Table is the performance data for a single gross weight. Drop-down
// tables carry Grid; RTO tables carry Distance and Factor.
//
// The calculator assumes len(grid) == len(Alts), len(row) == len(OATs)
// and strictly ascending axes; Database.Check reports violations.
//
// A missing grid is nil and an empty one is not; both encodings keep the
// two apart.
type Table struct {
	OATs     []float64 `json:"oats" msgpack:"oats"`
	Alts     []float64 `json:"alts" msgpack:"alts"`
	Grid     Grid      `json:"grid,omitzero" msgpack:"grid"`
	Distance Grid      `json:"dist,omitzero" msgpack:"dist"`
	Factor   Grid      `json:"fac,omitzero" msgpack:"fac"`
}

// Lookup interpolates g at the given temperature and altitude.
func (t *Table) Lookup(oat, alt float64, g Grid) float64 {
	return math.Interp2(oat, alt, t.OATs, t.Alts, g)
}

// Collection maps gross weight to the table for that weight.
type Collection map[float64]*Table

// Weights returns the collection's gross weights in ascending order.
func (c Collection) Weights() []float64 {
	return util.SortedMapKeys(c)
}

// NearestTable returns the table whose weight is closest to gw, along
// with that weight. Weights are considered in ascending order and the
// first one at the minimum distance wins, so when gw is exactly between
// two weights the lighter table is used. ok is false if the collection is
// empty.
func NearestTable(c Collection, gw float64) (t *Table, weight float64, ok bool) {
	weights := c.Weights()
	i := math.NearestIndex(weights, gw)
	if i == -1 {
		return nil, 0, false
	}
	return c[weights[i]], weights[i], true
}

// Database is the full set of performance tables. It is treated as
// immutable once built: updates replace the whole Database.
type Database struct {
	Conventional    Collection
	Enhanced        Collection
	RejectedTakeoff Collection
}

// EmptyDatabase returns a database with all three collections present
// and empty.
func EmptyDatabase() *Database {
	return &Database{
		Conventional:    make(Collection),
		Enhanced:        make(Collection),
		RejectedTakeoff: make(Collection),
	}
}

// Collection returns the tables used for the given mode.
func (db *Database) Collection(m Mode) Collection {
	switch m {
	case Conventional:
		return db.Conventional
	case Enhanced:
		return db.Enhanced
	case RejectedTakeoff:
		return db.RejectedTakeoff
	default:
		panic("unhandled mode " + m.String())
	}
}

// NumTables returns the total number of tables across all collections.
func (db *Database) NumTables() int {
	if db == nil {
		return 0
	}
	return len(db.Conventional) + len(db.Enhanced) + len(db.RejectedTakeoff)
}

// FormatWeight formats a gross weight the way it is written as a key in
// the database file.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
