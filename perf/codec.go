// perf/codec.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotorperf/rotorperf/math"
	"github.com/rotorperf/rotorperf/util"

	"github.com/iancoleman/orderedmap"
)

// wireDatabase is the on-disk form of a Database: weights are decimal
// strings because JSON object keys must be strings. It is also what is
// stored in the offline cache.
type wireDatabase struct {
	Conv map[string]*Table `json:"conv" msgpack:"conv"`
	Enh  map[string]*Table `json:"enh" msgpack:"enh"`
	RTO  map[string]*Table `json:"rto" msgpack:"rto"`
}

// ParseDatabase decodes a database in its JSON form:
//
//	{"conv": {"4500": {"oats": [...], "alts": [...], "grid": [[...], ...]}, ...},
//	 "enh": {...},
//	 "rto": {"4500": {"oats": [...], "alts": [...], "dist": [[...]], "fac": [[...]]}}}
//
// Missing collections are empty. The document must be a JSON object and
// weight keys must be unique numbers; syntax and type errors report the
// line and column. Table shapes are not checked here; see Check.
func ParseDatabase(b []byte) (*Database, error) {
	if t := bytes.TrimSpace(b); len(t) == 0 || t[0] != '{' {
		return nil, errors.New("database must be a JSON object")
	}

	if dupes := util.FindDuplicateJSONKeys(b); len(dupes) > 0 {
		d := dupes[0]
		if d.Path == "" {
			return nil, fmt.Errorf("duplicate key %q", d.Key)
		}
		return nil, fmt.Errorf("%s: duplicate key %q", d.Path, d.Key)
	}

	var w wireDatabase
	if err := util.UnmarshalJSONBytes(b, &w); err != nil {
		return nil, err
	}
	return w.database()
}

func (w wireDatabase) database() (*Database, error) {
	db := EmptyDatabase()
	for _, m := range Modes {
		c := db.Collection(m)
		for key, table := range w.collection(m) {
			weight, err := strconv.ParseFloat(strings.TrimSpace(key), 64)
			if err != nil || !math.IsFinite(weight) {
				return nil, fmt.Errorf("%s: weight %q is not a number", m, key)
			}
			if table == nil {
				return nil, fmt.Errorf("%s: %s: table is null", m, key)
			}
			if _, ok := c[weight]; ok {
				return nil, fmt.Errorf("%s: more than one table for weight %s", m, FormatWeight(weight))
			}
			c[weight] = table
		}
	}
	return db, nil
}

func (w wireDatabase) collection(m Mode) map[string]*Table {
	switch m {
	case Conventional:
		return w.Conv
	case Enhanced:
		return w.Enh
	case RejectedTakeoff:
		return w.RTO
	default:
		panic("unhandled mode " + m.String())
	}
}

func (db *Database) wire() wireDatabase {
	conv := func(c Collection) map[string]*Table {
		m := make(map[string]*Table, len(c))
		for w, t := range c {
			m[FormatWeight(w)] = t
		}
		return m
	}
	return wireDatabase{
		Conv: conv(db.Conventional),
		Enh:  conv(db.Enhanced),
		RTO:  conv(db.RejectedTakeoff),
	}
}

// MarshalJSON encodes the database with its collections in the order
// conv, enh, rto and the weights of each in ascending numeric order.
func (db *Database) MarshalJSON() ([]byte, error) {
	top := orderedmap.New()
	top.SetEscapeHTML(false)
	for _, m := range Modes {
		c := db.Collection(m)
		om := orderedmap.New()
		for _, w := range c.Weights() {
			om.Set(FormatWeight(w), c[w])
		}
		top.Set(m.String(), om)
	}
	return json.Marshal(top)
}

func (db *Database) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDatabase(b)
	if err != nil {
		return err
	}
	*db = *parsed
	return nil
}

// WriteJSON writes the database as indented, human-readable JSON.
func (db *Database) WriteJSON(w io.Writer) error {
	b, err := db.MarshalJSON()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	_, err = buf.WriteTo(w)
	return err
}
