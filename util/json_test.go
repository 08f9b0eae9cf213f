// util/json_test.go
// Copyright(c) 2022-2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"strings"
	"testing"
)

func TestFindDuplicateJSONKeys(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected []DuplicateJSONKey
	}{
		{
			name:     "no duplicates",
			json:     `{"a": 1, "b": 2, "c": 3}`,
			expected: nil,
		},
		{
			name: "simple duplicate at root",
			json: `{"a": 1, "b": 2, "a": 3}`,
			expected: []DuplicateJSONKey{
				{Path: "", Key: "a"},
			},
		},
		{
			name: "duplicate in nested object",
			json: `{"outer": {"inner": 1, "inner": 2}}`,
			expected: []DuplicateJSONKey{
				{Path: "outer", Key: "inner"},
			},
		},
		{
			name: "multiple duplicates at different levels",
			json: `{"a": 1, "a": 2, "nested": {"b": 1, "b": 2}}`,
			expected: []DuplicateJSONKey{
				{Path: "", Key: "a"},
				{Path: "nested", Key: "b"},
			},
		},
		{
			name:     "array with objects no duplicates",
			json:     `{"items": [{"x": 1}, {"x": 2}]}`,
			expected: nil,
		},
		{
			name: "duplicate inside array element",
			json: `{"items": [{"x": 1, "x": 2}]}`,
			expected: []DuplicateJSONKey{
				{Path: "items", Key: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindDuplicateJSONKeys([]byte(tt.json))

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d duplicates, got %d", len(tt.expected), len(result))
				return
			}

			for i, exp := range tt.expected {
				if result[i].Path != exp.Path || result[i].Key != exp.Key {
					t.Errorf("duplicate %d: expected {Path: %q, Key: %q}, got {Path: %q, Key: %q}",
						i, exp.Path, exp.Key, result[i].Path, result[i].Key)
				}
			}
		})
	}
}

func TestUnmarshalJSONBytesPosition(t *testing.T) {
	var v map[string][]float64
	err := UnmarshalJSONBytes([]byte("{\n  \"oats\": [1, 2,]\n}"), &v)
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not mention line 2", err)
	}

	err = UnmarshalJSONBytes([]byte(`{"oats": ["x"]}`), &v)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected type error with position, got %v", err)
	}
}

func TestCheckJSON(t *testing.T) {
	type table struct {
		OATs []float64   `json:"oats"`
		Grid [][]float64 `json:"grid"`
	}
	type doc struct {
		Conv map[string]table `json:"conv"`
	}

	var e ErrorLogger
	CheckJSON[doc]([]byte(`{"conv": {"30": {"oats": [1, 2], "grid": [[1, 2]]}}}`), &e)
	if e.HaveErrors() {
		t.Errorf("unexpected errors: %s", e.String())
	}

	e = ErrorLogger{}
	CheckJSON[doc]([]byte(`{"conv": {"30": {"oats": [1, "2"], "gird": []}, "40": {}, "40": {}}}`), &e)
	msgs := e.String()
	for _, want := range []string{"conv / 30 / oats / [1]", `"gird"`, `conv: duplicate key "40"`} {
		if !strings.Contains(msgs, want) {
			t.Errorf("errors %q do not mention %q", msgs, want)
		}
	}
}
