// cmd/rotorperf/main.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// rotorperf computes helicopter drop-down heights and rejected-takeoff
// clear-area distances from a performance database. It can also check,
// import and export databases, run a batch of calculations, and serve
// the calculator over HTTP.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rotorperf/rotorperf/config"
	"github.com/rotorperf/rotorperf/log"
	"github.com/rotorperf/rotorperf/perf"
	"github.com/rotorperf/rotorperf/server"
	"github.com/rotorperf/rotorperf/storage"
	"github.com/rotorperf/rotorperf/util"

	"github.com/goforj/godump"
	"github.com/pkg/browser"
)

// Keep the offline cache directory from growing without bound.
const maxCacheBytes = 64 << 20

var (
	configFile = flag.String("config", "rotorperf.yaml", "YAML configuration file")
	dbSource   = flag.String("db", "", "performance database file or URL (overrides the configuration)")
	logLevel   = flag.String("loglevel", "", "logging level: debug, info, warn, error")
	logDir     = flag.String("logdir", "", "log file directory")

	mode        = flag.String("mode", "conv", "figure to compute: conv, enh or rto")
	allModes    = flag.Bool("all", false, "compute all three figures")
	grossWeight = flag.Float64("gw", 0, "gross weight")
	oat         = flag.Float64("oat", 0, "outside air temperature")
	altitude    = flag.Float64("alt", 0, "pressure altitude")
	windSpeed   = flag.Float64("wind", 0, "wind speed (knots)")
	windAngle   = flag.Float64("wra", 0, "wind angle relative to the nose (degrees)")
	windDir     = flag.Float64("winddir", 0, "direction the wind is from; with -heading, used instead of -wra")
	heading     = flag.Float64("heading", 0, "aircraft heading, for -winddir")
	windMode    = flag.String("windmode", "", "head wind from \"cos\" projection or the \"s97\" chart")
	descending  = flag.Bool("descending", false, "descending procedure (conventional drop-down only)")
	feetPerKnot = flag.Float64("ftperkt", 0, "drop-down feet per knot of head wind")
	rtoDivisor  = flag.Float64("rtodiv", 0, "RTO wind divisor")
	filter      = flag.Float64("filter", 0, "EAPS/IBF margin (meters)")
	dumpResult  = flag.Bool("dump", false, "dump the full result rather than a summary")

	checkFile  = flag.String("check", "", "check the database file or URL for errors and exit")
	importFrom = flag.String("import", "", "import a database from this file or URL before doing anything else")
	export     = flag.Bool("export", false, "write the database and exit")
	exportTo   = flag.String("out", "db.json", "where -export writes; names ending in .zst are compressed")
	batchFile  = flag.String("batch", "", "compute each JSON request in this file (\"-\" for stdin), one per line")
	serve      = flag.Bool("serve", false, "serve the calculator over HTTP")
	listen     = flag.String("listen", "", "address to serve on (overrides the configuration)")
	openPage   = flag.Bool("open", false, "with -serve, open the status page in a browser")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	lg := log.New(*serve, cfg.Log.Level, cfg.Log.Dir)
	defer lg.CatchAndReportCrash()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *checkFile != "" {
		return check(ctx, *checkFile, lg)
	}

	store := makeStore(cfg, lg)

	if *importFrom != "" {
		if err := importDatabase(ctx, store, *importFrom); err != nil {
			lg.Errorf("%s: %v", *importFrom, err)
			fmt.Fprintf(os.Stderr, "%s: %v\n", *importFrom, err)
			return 1
		}
	}

	switch {
	case *export:
		store.LoadOrFallback(ctx)
		var buf bytes.Buffer
		if err := store.Export(&buf); err != nil {
			fmt.Fprintf(os.Stderr, "export: %v\n", err)
			return 1
		}
		if _, err := storage.WriteAll(ctx, *exportTo, buf.Bytes()); err != nil {
			lg.Errorf("%s: %v", *exportTo, err)
			fmt.Fprintf(os.Stderr, "%s: %v\n", *exportTo, err)
			return 1
		}
		fmt.Printf("Wrote %d tables to %s\n", store.Snapshot().NumTables(), *exportTo)
		return 0

	case *batchFile != "":
		in := os.Stdin
		if *batchFile != "-" {
			f, err := os.Open(*batchFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				return 1
			}
			defer f.Close()
			in = f
		}
		base, err := baseRequest(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		if err := runBatch(ctx, store, base, in, os.Stdout, runtime.NumCPU()); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *batchFile, err)
			return 1
		}
		return 0

	case *serve:
		return runServer(ctx, cfg, store, lg)

	default:
		return calculate(ctx, cfg, store)
	}
}

// loadConfig reads the configuration file, applies the command-line
// overrides and validates the result.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyFlags overrides configuration values with the flags that were
// given explicitly.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.Database.Source = *dbSource
		case "loglevel":
			cfg.Log.Level = *logLevel
		case "logdir":
			cfg.Log.Dir = *logDir
		case "listen":
			cfg.HTTP.Listen = *listen
		case "open":
			cfg.HTTP.OpenBrowser = *openPage
		case "windmode":
			cfg.Defaults.WindMode = *windMode
		case "ftperkt":
			cfg.Defaults.FeetPerKnot = *feetPerKnot
		case "rtodiv":
			cfg.Defaults.RTODivisor = *rtoDivisor
		case "filter":
			cfg.Defaults.FilterMargin = *filter
		}
	})
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func makeStore(cfg config.Config, lg *log.Logger) *perf.Store {
	opts := perf.StoreOptions{Logger: lg}

	if src := cfg.Database.Source; src != "" {
		opts.Source = storage.NewFetcher(8, cfg.FetchTTL()).Object(src)
	}

	if dir := cfg.CacheDir(lg); dir != "" {
		opts.Cache = &util.Cache{Dir: dir}
		if err := opts.Cache.CullObjects(maxCacheBytes); err != nil {
			lg.Warnf("%s: unable to cull cache: %v", dir, err)
		}
	}

	return perf.NewStore(opts)
}

func importDatabase(ctx context.Context, store *perf.Store, location string) error {
	b, err := storage.ReadAll(ctx, location)
	if err != nil {
		return fmt.Errorf("%w: %w", perf.ErrDatabaseImport, err)
	}
	return store.Import(bytes.NewReader(b))
}

func check(ctx context.Context, location string, lg *log.Logger) int {
	b, err := storage.ReadAll(ctx, location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", location, err)
		return 1
	}

	var e util.ErrorLogger
	e.Push(location)
	perf.CheckJSON(b, &e)
	e.Pop()

	if e.HaveErrors() {
		e.PrintErrors(os.Stderr, lg)
		return 1
	}
	fmt.Printf("%s: ok\n", location)
	return 0
}

// baseRequest returns the configured defaults along with the wind and
// descending settings from the command line.
func baseRequest(cfg config.Config) (perf.Request, error) {
	req, err := cfg.Request(perf.Conventional)
	if err != nil {
		return req, err
	}
	req.GrossWeight = *grossWeight
	req.OAT = *oat
	req.Altitude = *altitude
	req.WindSpeed = *windSpeed
	req.WindAngle = *windAngle
	if flagWasSet("winddir") {
		req.WindAngle = perf.RelativeWindAngle(*windDir, *heading)
	}
	req.Descending = *descending
	return req, nil
}

func calculate(ctx context.Context, cfg config.Config, store *perf.Store) int {
	modes := perf.Modes
	if !*allModes {
		m, err := perf.ParseMode(*mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "-mode: %v\n", err)
			return 1
		}
		modes = []perf.Mode{m}
	}

	base, err := baseRequest(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	status := 0
	for _, m := range modes {
		req := base
		req.Mode = m
		if err := req.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}

		r := store.Calculate(ctx, req)
		if *dumpResult {
			godump.Dump(r)
			continue
		}

		label := r.Label
		if !r.Available() {
			label = m.Label() + " (" + r.Label + ")"
			status = 1
		}
		fmt.Printf("%s: %s\n", label, r.Display())
		if r.Note != "" {
			fmt.Printf("  %s\n", r.Note)
		}
	}
	return status
}

func runServer(ctx context.Context, cfg config.Config, store *perf.Store, lg *log.Logger) int {
	defaults, err := baseRequest(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	// Load up front so the first request doesn't pay for it.
	store.LoadOrFallback(ctx)

	if ttl := cfg.FetchTTL(); ttl > 0 && cfg.Database.Source != "" {
		// Poll twice per TTL; the fetcher reads the source at most once
		// per TTL.
		go store.RefreshEvery(ctx, max(ttl/2, time.Second))
	}

	l, err := net.Listen("tcp", cfg.HTTP.Listen)
	if err != nil {
		lg.Errorf("%s: %v", cfg.HTTP.Listen, err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", cfg.HTTP.Listen, err)
		return 1
	}

	url := "http://" + l.Addr().String() + "/sup"
	fmt.Printf("Serving on %s\n", url)
	if cfg.HTTP.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			lg.Warnf("%s: unable to open browser: %v", url, err)
		}
	}

	s := server.New(server.Options{
		Store:    store,
		Defaults: defaults,
		Logger:   lg,
	})
	if err := s.Serve(ctx, l); err != nil {
		lg.Errorf("HTTP server error: %v", err)
		return 1
	}
	return 0
}
