// server/api.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rotorperf/rotorperf/perf"
)

// CalcResponse is the JSON form of a perf.Result. Value and Rounded are
// omitted when no figure is available so that NaN never reaches the wire.
type CalcResponse struct {
	Mode        perf.Mode `json:"mode"`
	Available   bool      `json:"available"`
	Value       *float64  `json:"value,omitempty"`
	Rounded     *int      `json:"rounded,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Display     string    `json:"display"`
	Label       string    `json:"label"`
	Note        string    `json:"note"`
	HeadWind    float64   `json:"head_wind"`
	TableWeight float64   `json:"table_weight,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func MakeCalcResponse(r perf.Result) CalcResponse {
	resp := CalcResponse{
		Mode:      r.Mode,
		Available: r.Available(),
		Display:   r.Display(),
		Label:     r.Label,
		Note:      r.Note,
		HeadWind:  r.HeadWind,
	}
	if r.Available() {
		v, rounded := r.Value, r.Rounded()
		resp.Value, resp.Rounded = &v, &rounded
		resp.Unit = r.Unit
		resp.TableWeight = r.TableWeight
	} else {
		resp.Error = r.Err.Error()
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
}

type importResponse struct {
	Tables int `json:"tables"`
}

func (s *Server) calcHandler(w http.ResponseWriter, r *http.Request) {
	s.rx.Add(max(r.ContentLength, 0))

	req := s.defaults
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result := s.store.Calculate(r.Context(), req)
	s.calcs.Add(1)
	s.lg.Debug("calculated", slog.Any("request", req), slog.String("result", result.Display()))

	s.writeJSON(w, http.StatusOK, MakeCalcResponse(result))
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	s.store.LoadOrFallback(r.Context())

	var buf bytes.Buffer
	if err := s.store.Export(&buf); err != nil {
		s.lg.Errorf("export: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="db.json"`)
	n, _ := buf.WriteTo(w)
	s.tx.Add(n)
}

func (s *Server) importHandler(w http.ResponseWriter, r *http.Request) {
	body := &countingReader{r: http.MaxBytesReader(w, r.Body, MaxImportSize)}
	err := s.store.Import(body)
	s.rx.Add(body.n)

	if err != nil {
		msg := err.Error()
		s.lastImportError.Store(&msg)
		s.lg.Warnf("import: %v", err)

		status := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status = http.StatusRequestEntityTooLarge
		}
		s.writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	s.imports.Add(1)
	s.lastImportError.Store(nil)
	s.writeJSON(w, http.StatusOK, importResponse{Tables: s.store.Snapshot().NumTables()})
}

// reloadHandler fetches the database from the configured source again.
func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	db, err := s.store.Reload(r.Context())
	if err != nil {
		s.lg.Warnf("reload: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, perf.ErrNoSource) {
			status = http.StatusConflict
		}
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	s.reloads.Add(1)
	s.writeJSON(w, http.StatusOK, importResponse{Tables: db.NumTables()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.lg.Errorf("%+v: %v", v, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	n, _ := w.Write(append(b, '\n'))
	s.tx.Add(int64(n))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}
