// storage/storage_test.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	doc := []byte(`{"conv": {}, "enh": {}, "rto": {}}`)

	for _, name := range []string{"db.json", "nested/db.json.zst"} {
		path := filepath.Join(dir, name)
		if _, err := WriteAll(ctx, path, doc); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		b, err := ReadAll(ctx, path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !bytes.Equal(b, doc) {
			t.Errorf("%s: read %q, expected %q", name, b, doc)
		}
	}

	// The compressed file really is compressed.
	raw, err := os.ReadFile(filepath.Join(dir, "nested/db.json.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(raw, doc) {
		t.Error(".zst file was stored uncompressed")
	}

	// file:// URLs reach the same file.
	if b, err := ReadAll(ctx, "file://"+filepath.Join(dir, "db.json")); err != nil || !bytes.Equal(b, doc) {
		t.Errorf("file URL: got %q, %v", b, err)
	}

	if _, err := ReadAll(ctx, filepath.Join(dir, "missing.json")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/db.json":
			w.Write([]byte(`{"conv": {}}`))
		case "/broken.json":
			http.Error(w, "oops", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	b, err := ReadAll(ctx, srv.URL+"/db.json")
	if err != nil || string(b) != `{"conv": {}}` {
		t.Errorf("got %q, %v", b, err)
	}

	if _, err := ReadAll(ctx, srv.URL+"/nope.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := ReadAll(ctx, srv.URL+"/broken.json"); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected server error, got %v", err)
	}

	if _, err := WriteAll(ctx, srv.URL+"/db.json", b); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, _, err := Open(ctx, "ftp://example.com/db.json"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
	for _, loc := range []string{"gs://bucket", "gs:///object", "s3://bucket/"} {
		if _, _, err := Open(ctx, loc); err == nil {
			t.Errorf("%s: expected error", loc)
		}
	}
}

func TestFetcher(t *testing.T) {
	calls := 0
	fail := false
	f := NewFetcher(4, time.Hour)
	f.read = func(ctx context.Context, location string) ([]byte, error) {
		calls++
		if fail {
			return nil, errors.New("unreachable")
		}
		return []byte(location), nil
	}

	ctx := context.Background()
	for range 3 {
		if b, err := f.Fetch(ctx, "a"); err != nil || string(b) != "a" {
			t.Fatalf("got %q, %v", b, err)
		}
	}
	if calls != 1 {
		t.Errorf("read %d times, expected once", calls)
	}

	f.Forget("a")
	fail = true
	if _, err := f.Fetch(ctx, "a"); err == nil {
		t.Error("expected error after Forget")
	}
	fail = false
	if _, err := f.Fetch(ctx, "a"); err != nil {
		t.Errorf("failed read was cached: %v", err)
	}
	if calls != 3 {
		t.Errorf("read %d times, expected 3", calls)
	}
}

func TestFetcherExpiry(t *testing.T) {
	calls := 0
	f := NewFetcher(4, 20*time.Millisecond)
	f.read = func(ctx context.Context, location string) ([]byte, error) {
		calls++
		return []byte(location), nil
	}

	o := f.Object("db.json")
	ctx := context.Background()
	for range 2 {
		if _, err := o.Fetch(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Fatalf("read %d times before expiry, expected once", calls)
	}

	time.Sleep(60 * time.Millisecond)
	if b, err := o.Fetch(ctx); err != nil || string(b) != "db.json" {
		t.Fatalf("got %q, %v", b, err)
	}
	if calls != 2 {
		t.Errorf("read %d times after expiry, expected twice", calls)
	}

	o.Forget()
	if _, err := o.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("read %d times after Forget, expected three times", calls)
	}
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{Writer: &buf}
	cw.Write([]byte("hello"))
	cw.Write([]byte(", world"))
	if cw.N != 12 || buf.String() != "hello, world" {
		t.Errorf("got N=%d %q", cw.N, buf.String())
	}
}
