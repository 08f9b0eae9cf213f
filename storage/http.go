// storage/http.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPBackend reads objects from web servers; the path is the full URL.
type HTTPBackend struct {
	// Client is used for requests; http.DefaultClient if nil.
	Client *http.Client
}

func (h HTTPBackend) OpenRead(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

func (HTTPBackend) Store(ctx context.Context, url string, r io.Reader) (int64, error) {
	return 0, fmt.Errorf("%s: %w", url, ErrReadOnly)
}

func (HTTPBackend) Close() error { return nil }
