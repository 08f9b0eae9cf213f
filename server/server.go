// server/server.go
// Copyright(c) 2022-2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package server exposes the performance calculator over HTTP: a JSON
// calculation endpoint, database import and export, and a status page.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/rotorperf/rotorperf/log"
	"github.com/rotorperf/rotorperf/perf"
)

// MaxImportSize bounds the size of a database accepted by the import
// endpoint.
const MaxImportSize = 16 << 20

type Options struct {
	Store *perf.Store
	// Defaults supplies values for request fields that a calculation
	// request omits.
	Defaults perf.Request
	Logger   *log.Logger
}

type Server struct {
	store     *perf.Store
	defaults  perf.Request
	lg        *log.Logger
	startTime time.Time
	mux       *http.ServeMux

	calcs, imports  atomic.Int64
	reloads         atomic.Int64
	rx, tx          atomic.Int64
	lastImportError atomic.Pointer[string]
}

func New(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		defaults:  opts.Defaults,
		lg:        opts.Logger,
		startTime: time.Now(),
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/calc", s.calcHandler)
	s.mux.HandleFunc("GET /api/db", s.exportHandler)
	s.mux.HandleFunc("PUT /api/db", s.importHandler)
	s.mux.HandleFunc("POST /api/db", s.importHandler)
	s.mux.HandleFunc("POST /api/db/reload", s.reloadHandler)

	s.mux.HandleFunc("/sup", func(w http.ResponseWriter, r *http.Request) {
		s.statsHandler(w, r)
		s.lg.Infof("%s: served stats request", r.URL.String())
	})

	s.mux.HandleFunc("/debug/pprof/", pprof.Index)
	s.mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve handles requests on l until ctx is canceled, at which point it
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errch := make(chan error, 1)
	go func() {
		s.lg.Infof("Listening on %s", l.Addr())
		errch <- hs.Serve(l)
	}()

	select {
	case err := <-errch:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errch; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
