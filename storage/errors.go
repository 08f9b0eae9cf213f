// storage/errors.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import "errors"

var (
	ErrNotFound          = errors.New("object not found")
	ErrReadOnly          = errors.New("backend is read-only")
	ErrUnsupportedScheme = errors.New("unsupported storage scheme")
)
