// perf/errors.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package perf

import "errors"

var (
	ErrDatabaseImport  = errors.New("unable to import performance database")
	ErrDatabaseLoad    = errors.New("unable to load performance database")
	ErrDegenerateAxis  = errors.New("table has an empty or mismatched axis")
	ErrInvalidRequest  = errors.New("invalid calculation request")
	ErrMalformedTable  = errors.New("malformed performance table")
	ErrNoMatchingTable = errors.New("no performance table available")
	ErrNoSource        = errors.New("no database source configured")
	ErrUnknownMode     = errors.New("unknown calculation mode")
	ErrUnknownWindMode = errors.New("unknown wind mode")
)
