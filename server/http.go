// server/http.go
// Copyright(c) 2022-2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"html/template"
	"net/http"
	"runtime"
	"time"

	"github.com/rotorperf/rotorperf/math"
	"github.com/rotorperf/rotorperf/perf"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
)

type serverStats struct {
	Uptime           time.Duration
	AllocMemory      uint64
	TotalAllocMemory uint64
	SysMemory        uint64
	RX, TX           int64
	NumGC            uint32
	NumGoRoutines    int
	CPUUsage         int

	Calculations    int64
	Imports         int64
	Reloads         int64
	LastImportError string

	DatabaseLoaded bool
	Collections    []collectionStatus
}

type collectionStatus struct {
	Mode    string
	Label   string
	Weights string
	Tables  int
}

func (s *Server) collectionStatus() []collectionStatus {
	db := s.store.Snapshot()
	if db == nil {
		return nil
	}

	var status []collectionStatus
	for _, m := range perf.Modes {
		c := db.Collection(m)
		weights := c.Weights()
		cs := collectionStatus{
			Mode:   m.String(),
			Label:  m.Label(),
			Tables: len(weights),
		}
		if len(weights) > 0 {
			cs.Weights = perf.FormatWeight(weights[0]) + "–" + perf.FormatWeight(weights[len(weights)-1])
		}
		status = append(status, cs)
	}
	return status
}

var templateFuncs = template.FuncMap{
	"bytes": func(v int64) string { return humanize.Bytes(uint64(max(v, 0))) },
	"comma": func(v int64) string { return humanize.Comma(v) },
	"mb":    func(v uint64) string { return humanize.IBytes(v) },
}

var statsTemplate = template.Must(template.New("").Funcs(templateFuncs).Parse(`
<!DOCTYPE html>
<html>
<head>
<title>rotorperf</title>
</head>
<style>
table {
  border-collapse: collapse;
  width: 100%;
}

th, td {
  border: 1px solid #dddddd;
  padding: 8px;
  text-align: left;
}

tr:nth-child(even) {
  background-color: #f2f2f2;
}
</style>
<body>
<h1>Server Status</h1>
<ul>
  <li>Uptime: {{.Uptime}}</li>
  <li>CPU usage: {{.CPUUsage}}%</li>
  <li>Bandwidth: {{bytes .RX}} RX, {{bytes .TX}} TX</li>
  <li>Allocated memory: {{mb .AllocMemory}}</li>
  <li>Total allocated memory: {{mb .TotalAllocMemory}}</li>
  <li>System memory: {{mb .SysMemory}}</li>
  <li>Garbage collection passes: {{.NumGC}}</li>
  <li>Running goroutines: {{.NumGoRoutines}}</li>
  <li>Calculations: {{comma .Calculations}}</li>
  <li>Imports: {{comma .Imports}}</li>
  <li>Reloads: {{comma .Reloads}}</li>
{{if .LastImportError}}
  <li>Last import error: <tt>{{.LastImportError}}</tt></li>
{{end}}
</ul>

<h1>Performance Database</h1>
{{if .DatabaseLoaded}}
<table>
  <tr>
  <th>Collection</th>
  <th>Figure</th>
  <th>Tables</th>
  <th>Gross weights</th>
  </tr>
{{range .Collections}}
  <tr>
  <td><tt>{{.Mode}}</tt></td>
  <td>{{.Label}}</td>
  <td>{{.Tables}}</td>
  <td>{{.Weights}}</td>
  </tr>
{{end}}
</table>
{{else}}
<p>Not loaded yet.</p>
{{end}}

</body>
</html>
`))

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// With a zero interval this reports usage since the previous call.
	usage, _ := cpu.Percent(0, false)

	stats := serverStats{
		Uptime:           time.Since(s.startTime).Round(time.Second),
		AllocMemory:      m.Alloc,
		TotalAllocMemory: m.TotalAlloc,
		SysMemory:        m.Sys,
		RX:               s.rx.Load(),
		TX:               s.tx.Load(),
		NumGC:            m.NumGC,
		NumGoRoutines:    runtime.NumGoroutine(),
		Calculations:     s.calcs.Load(),
		Imports:          s.imports.Load(),
		Reloads:          s.reloads.Load(),
		Collections:      s.collectionStatus(),
	}
	stats.DatabaseLoaded = stats.Collections != nil
	if len(usage) > 0 {
		stats.CPUUsage = int(math.Round(usage[0]))
	}
	if msg := s.lastImportError.Load(); msg != nil {
		stats.LastImportError = *msg
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statsTemplate.Execute(w, stats); err != nil {
		s.lg.Errorf("stats template: %v", err)
	}
}
