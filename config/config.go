// config/config.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rotorperf/rotorperf/log"
	"github.com/rotorperf/rotorperf/math"
	"github.com/rotorperf/rotorperf/perf"
	"github.com/rotorperf/rotorperf/util"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the contents of the rotorperf.yaml configuration file.
// Command-line flags override individual values.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type DatabaseConfig struct {
	// Source is where the performance database is loaded from: a file
	// path or a file://, http(s)://, gs:// or s3:// URL.
	Source string `yaml:"source"`
	// CacheDir holds the offline copy of the last database loaded from
	// Source; the user cache directory if empty.
	CacheDir        string `yaml:"cache_dir"`
	Cache           bool   `yaml:"cache"`
	FetchTTLSeconds int    `yaml:"fetch_ttl_seconds"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type HTTPConfig struct {
	Listen      string `yaml:"listen"`
	OpenBrowser bool   `yaml:"open_browser"`
}

// DefaultsConfig supplies the calculation parameters that are usually
// fixed for an operator rather than entered per calculation.
type DefaultsConfig struct {
	FeetPerKnot  float64 `yaml:"ft_per_kt"`
	RTODivisor   float64 `yaml:"rto_divisor"`
	FilterMargin float64 `yaml:"filter_margin"`
	WindMode     string  `yaml:"wind_mode"`
}

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Source:          "db.json",
			Cache:           true,
			FetchTTLSeconds: 300,
		},
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Listen: "localhost:8097",
		},
		Defaults: DefaultsConfig{
			FeetPerKnot:  1,
			RTODivisor:   10,
			FilterMargin: 0,
			WindMode:     perf.WindModeCosine.String(),
		},
	}
}

// Load reads the YAML file at path on top of Default. An empty path or a
// missing file gives the defaults; unknown keys are an error. The result
// is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration in a single error
// wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var e util.ErrorLogger
	c.check(&e)
	if e.HaveErrors() {
		return fmt.Errorf("%w:\n%s", ErrInvalidConfig, e.String())
	}
	return nil
}

func (c Config) check(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	e.Push("database")
	if c.Database.FetchTTLSeconds < 0 {
		e.ErrorString("fetch_ttl_seconds must not be negative")
	}
	e.Pop()

	e.Push("log")
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		e.ErrorString("%q: unknown level", c.Log.Level)
	}
	e.Pop()

	e.Push("http")
	if c.HTTP.Listen == "" {
		e.ErrorString("listen address must be set")
	}
	e.Pop()

	e.Push("defaults")
	if !math.IsFinite(c.Defaults.FeetPerKnot) {
		e.ErrorString("ft_per_kt must be a number")
	}
	if !math.IsFinite(c.Defaults.RTODivisor) || c.Defaults.RTODivisor <= 0 {
		e.ErrorString("rto_divisor must be positive")
	}
	if !math.IsFinite(c.Defaults.FilterMargin) {
		e.ErrorString("filter_margin must be a number")
	}
	if _, err := perf.ParseWindMode(c.Defaults.WindMode); err != nil {
		e.Error(err)
	}
	e.Pop()
}

// FetchTTL returns how long a fetched database is reused before it is
// fetched again.
func (c Config) FetchTTL() time.Duration {
	return time.Duration(c.Database.FetchTTLSeconds) * time.Second
}

// CacheDir returns the offline cache directory, or "" if the cache is
// disabled or no directory could be determined.
func (c Config) CacheDir(lg *log.Logger) string {
	if !c.Database.Cache {
		return ""
	}
	if c.Database.CacheDir != "" {
		return c.Database.CacheDir
	}
	dir, err := util.DefaultCacheDir()
	if err != nil {
		lg.Warnf("Unable to find user cache dir: %v", err)
		return ""
	}
	return dir
}

// Request returns a calculation request for mode m with the configured
// defaults filled in. An unknown wind mode is an error.
func (c Config) Request(m perf.Mode) (perf.Request, error) {
	wm, err := perf.ParseWindMode(c.Defaults.WindMode)
	if err != nil {
		return perf.Request{}, fmt.Errorf("%w: defaults: %w", ErrInvalidConfig, err)
	}
	return perf.Request{
		Mode:         m,
		WindMode:     wm,
		FeetPerKnot:  c.Defaults.FeetPerKnot,
		RTODivisor:   c.Defaults.RTODivisor,
		FilterMargin: c.Defaults.FilterMargin,
	}, nil
}
