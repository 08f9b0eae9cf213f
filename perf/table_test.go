// perf/table_test.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"slices"
	"testing"
)

func TestNearestTable(t *testing.T) {
	a, b, c := &Table{}, &Table{}, &Table{}
	coll := Collection{4500: a, 5000: b, 6000: c}

	for _, tc := range []struct {
		gw     float64
		table  *Table
		weight float64
	}{
		{4000, a, 4500},
		{4750, a, 4500}, // tie goes to the lighter table
		{4751, b, 5000},
		{5500, b, 5000},
		{5501, c, 6000},
		{9000, c, 6000},
	} {
		tbl, w, ok := NearestTable(coll, tc.gw)
		if !ok || tbl != tc.table || w != tc.weight {
			t.Errorf("NearestTable(%v) = %p, %v, %v; expected %p, %v", tc.gw, tbl, w, ok, tc.table, tc.weight)
		}
	}

	if _, _, ok := NearestTable(Collection{}, 5000); ok {
		t.Error("expected empty collection to have no nearest table")
	}
}

func TestCollectionWeights(t *testing.T) {
	coll := Collection{6000: nil, 4500: nil, 5000.5: nil}
	if w := coll.Weights(); !slices.Equal(w, []float64{4500, 5000.5, 6000}) {
		t.Errorf("got weights %v", w)
	}
}

func TestDatabaseCollection(t *testing.T) {
	db := testDatabase()
	if db.Collection(Conventional)[30] != db.Conventional[30] ||
		db.Collection(Enhanced)[30] != db.Enhanced[30] ||
		db.Collection(RejectedTakeoff)[6000] != db.RejectedTakeoff[6000] {
		t.Error("Collection returned the wrong tables")
	}
	if n := db.NumTables(); n != 4 {
		t.Errorf("NumTables = %d, expected 4", n)
	}
	if n := (*Database)(nil).NumTables(); n != 0 {
		t.Errorf("nil NumTables = %d", n)
	}
}

func TestFormatWeight(t *testing.T) {
	for w, s := range map[float64]string{4500: "4500", 4500.5: "4500.5", 0.25: "0.25"} {
		if got := FormatWeight(w); got != s {
			t.Errorf("FormatWeight(%v) = %q, expected %q", w, got, s)
		}
	}
}
