// server/server_test.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotorperf/rotorperf/perf"
)

const testDocument = `{
  "conv": {
    "30": {"oats": [10, 30], "alts": [10, 50], "grid": [[20, 17], [13, 10]]}
  }
}`

func newTestServer(t *testing.T, store *perf.Store) *httptest.Server {
	t.Helper()
	s := New(Options{
		Store:    store,
		Defaults: perf.Request{FeetPerKnot: 1, RTODivisor: 10, WindMode: perf.WindModeCosine},
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func importedStore(t *testing.T) *perf.Store {
	t.Helper()
	store := perf.NewStore(perf.StoreOptions{})
	if err := store.Import(strings.NewReader(testDocument)); err != nil {
		t.Fatal(err)
	}
	return store
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, b
}

func TestCalc(t *testing.T) {
	srv := newTestServer(t, importedStore(t))

	resp, b := postJSON(t, srv.URL+"/api/calc", `{"mode": "conv", "gw": 30, "oat": 20, "alt": 30, "wind": 0, "wind_mode": "cos"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %s: %s", resp.Status, b)
	}

	var cr CalcResponse
	if err := json.Unmarshal(b, &cr); err != nil {
		t.Fatal(err)
	}
	if !cr.Available || cr.Rounded == nil || *cr.Rounded != 15 || cr.Display != "15 ft" || cr.Unit != "ft" {
		t.Errorf("unexpected response %s", b)
	}
	if cr.Mode != perf.Conventional || cr.Label != "Conventional drop-down" || cr.TableWeight != 30 {
		t.Errorf("unexpected response %s", b)
	}
}

func TestCalcUnavailable(t *testing.T) {
	srv := newTestServer(t, perf.NewStore(perf.StoreOptions{}))

	resp, b := postJSON(t, srv.URL+"/api/calc", `{"mode": "rto", "gw": 5000, "wind": 10}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %s: %s", resp.Status, b)
	}
	if strings.Contains(string(b), "NaN") || strings.Contains(string(b), `"value"`) {
		t.Errorf("unavailable result carries a value: %s", b)
	}

	var cr CalcResponse
	if err := json.Unmarshal(b, &cr); err != nil {
		t.Fatal(err)
	}
	if cr.Available || cr.Display != perf.UnavailableDisplay || cr.Label != perf.UnavailableLabel || cr.Error == "" {
		t.Errorf("unexpected response %s", b)
	}
	if cr.HeadWind != 10 {
		t.Errorf("head wind %v, expected 10", cr.HeadWind)
	}
}

func TestCalcBadRequests(t *testing.T) {
	srv := newTestServer(t, importedStore(t))

	for _, body := range []string{
		`{"mode": "hover"}`,
		`{"mode": "conv", "weight": 30}`,
		`{"mode": "rto", "rto_div": 0}`,
		`{"mode": "conv", "wind_mode": "S97"}`,
		`not json`,
	} {
		resp, b := postJSON(t, srv.URL+"/api/calc", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %s, expected 400", body, resp.Status)
		}
		var er errorResponse
		if err := json.Unmarshal(b, &er); err != nil || er.Error == "" {
			t.Errorf("%s: expected an error message, got %s", body, b)
		}
	}

	resp, err := http.Get(srv.URL + "/api/calc")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/calc: status %s", resp.Status)
	}
}

func TestImportExport(t *testing.T) {
	store := perf.NewStore(perf.StoreOptions{})
	srv := newTestServer(t, store)

	// Nothing loaded: the skeleton.
	resp, err := http.Get(srv.URL + "/api/db")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(b) != "{\n  \"conv\": {},\n  \"enh\": {},\n  \"rto\": {}\n}\n" {
		t.Errorf("unexpected export %q", b)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "db.json") {
		t.Errorf("Content-Disposition %q", cd)
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/db", strings.NewReader(testDocument))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(b)) != `{"tables":1}` {
		t.Errorf("import: status %s, body %s", resp.Status, b)
	}

	// A bad import leaves the database alone.
	before := store.Snapshot()
	resp, b = postJSON(t, srv.URL+"/api/db", `{"conv": {"30": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad import: status %s, body %s", resp.Status, b)
	}
	if store.Snapshot() != before {
		t.Error("bad import replaced the database")
	}

	resp, err = http.Get(srv.URL + "/api/db")
	if err != nil {
		t.Fatal(err)
	}
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	db, err := perf.ParseDatabase(b)
	if err != nil {
		t.Fatal(err)
	}
	if db.NumTables() != 1 || db.Conventional[30] == nil {
		t.Errorf("unexpected exported database %s", b)
	}
}

func TestReload(t *testing.T) {
	var doc atomic.Pointer[string]
	empty := `{}`
	doc.Store(&empty)
	store := perf.NewStore(perf.StoreOptions{
		Source: perf.SourceFunc(func(ctx context.Context) ([]byte, error) {
			d := doc.Load()
			if d == nil {
				return nil, errors.New("connection refused")
			}
			return []byte(*d), nil
		}),
	})
	store.LoadOrFallback(context.Background())
	srv := newTestServer(t, store)

	d := testDocument
	doc.Store(&d)
	resp, b := postJSON(t, srv.URL+"/api/db/reload", "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(b)) != `{"tables":1}` {
		t.Fatalf("status %s: %s", resp.Status, b)
	}
	if store.Snapshot().NumTables() != 1 {
		t.Errorf("reload did not replace the database")
	}

	doc.Store(nil)
	resp, b = postJSON(t, srv.URL+"/api/db/reload", "")
	if resp.StatusCode != http.StatusBadGateway || !strings.Contains(string(b), "connection refused") {
		t.Errorf("status %s: %s", resp.Status, b)
	}
	if store.Snapshot().NumTables() != 1 {
		t.Errorf("failed reload replaced the database")
	}

	// A store without a source has nothing to reload.
	srv = newTestServer(t, importedStore(t))
	if resp, b := postJSON(t, srv.URL+"/api/db/reload", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("status %s: %s", resp.Status, b)
	}

	resp, err := http.Get(srv.URL + "/api/db/reload")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET reload: status %s", resp.Status)
	}
}

func TestStatusPage(t *testing.T) {
	srv := newTestServer(t, importedStore(t))
	postJSON(t, srv.URL+"/api/calc", `{"mode": "conv", "gw": 30}`)

	resp, err := http.Get(srv.URL + "/sup")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	page := string(b)
	for _, s := range []string{"Server Status", "Calculations: 1", "Conventional drop-down", "30–30"} {
		if !strings.Contains(page, s) {
			t.Errorf("status page missing %q", s)
		}
	}
}

func TestServeShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Options{Store: importedStore(t)})
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/sup")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
