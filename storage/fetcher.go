// storage/fetcher.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Fetcher reads objects with ReadAll and remembers the contents of recent
// successful reads for a limited time. Failed reads are not cached.
type Fetcher struct {
	cache *expirable.LRU[string, []byte]
	read  func(ctx context.Context, location string) ([]byte, error)
}

// NewFetcher returns a Fetcher holding at most size objects, each for at
// most ttl. A ttl of zero means entries never expire.
func NewFetcher(size int, ttl time.Duration) *Fetcher {
	return &Fetcher{
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
		read:  ReadAll,
	}
}

// Fetch returns the contents of location, from the cache if a fresh copy
// is there. Callers must not modify the returned slice.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if b, ok := f.cache.Get(location); ok {
		return b, nil
	}

	b, err := f.read(ctx, location)
	if err != nil {
		return nil, err
	}
	f.cache.Add(location, b)
	return b, nil
}

// Forget drops any cached copy of location.
func (f *Fetcher) Forget(location string) {
	f.cache.Remove(location)
}

// Object binds a location to a Fetcher. Its Fetch method serves fresh
// cached copies and its Forget method drops them, so it can be used
// wherever a database source is needed.
type Object struct {
	f        *Fetcher
	location string
}

func (f *Fetcher) Object(location string) Object {
	return Object{f: f, location: location}
}

func (o Object) Fetch(ctx context.Context) ([]byte, error) {
	return o.f.Fetch(ctx, o.location)
}

func (o Object) Forget() {
	o.f.Forget(o.location)
}

func (o Object) String() string {
	return o.location
}
