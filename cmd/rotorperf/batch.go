// cmd/rotorperf/batch.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotorperf/rotorperf/perf"
	"github.com/rotorperf/rotorperf/server"

	"golang.org/x/sync/errgroup"
)

type batchResult struct {
	Line int `json:"line"`
	server.CalcResponse
}

// runBatch reads one JSON request per line from r, computes them with at
// most limit running at once, and writes one JSON result per line to w in
// input order. Fields a request omits come from base. Blank lines and
// lines starting with '#' are skipped; a line that isn't a valid request
// gives a result with only the error set.
func runBatch(ctx context.Context, store *perf.Store, base perf.Request, r io.Reader, w io.Writer, limit int) error {
	type line struct {
		n    int
		text []byte
	}
	var lines []line

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		lines = append(lines, line{n: n, text: bytes.Clone(text)})
	}
	if err := sc.Err(); err != nil {
		return err
	}

	// Load once before fanning out.
	db := store.LoadOrFallback(ctx)

	results := make([]batchResult, len(lines))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(limit, 1))
	for i, l := range lines {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i].Line = l.n
			req := base
			if err := json.Unmarshal(l.text, &req); err != nil {
				results[i].CalcResponse = invalidResponse(req.Mode, err)
				return nil
			}
			if err := req.Validate(); err != nil {
				results[i].CalcResponse = invalidResponse(req.Mode, err)
				return nil
			}
			results[i].CalcResponse = server.MakeCalcResponse(perf.Calculate(req, db))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("line %d: %w", res.Line, err)
		}
	}
	return bw.Flush()
}

func invalidResponse(m perf.Mode, err error) server.CalcResponse {
	if _, merr := m.MarshalText(); merr != nil {
		m = perf.Conventional
	}
	return server.CalcResponse{
		Mode:    m,
		Display: perf.UnavailableDisplay,
		Error:   err.Error(),
	}
}
