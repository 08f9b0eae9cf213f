// storage/backend.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package storage reads and writes performance databases wherever they
// live: local files, web servers, Google Cloud Storage buckets and S3
// buckets. Objects whose names end in ".zst" are transparently
// (de)compressed.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type Backend interface {
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
	Store(ctx context.Context, path string, r io.Reader) (int64, error)
	Close() error
}

// Open returns the backend for a location along with the path of the
// object within it. Locations are gs://bucket/object, s3://bucket/key,
// http(s):// URLs, file:// URLs and plain filesystem paths.
func Open(ctx context.Context, location string) (Backend, string, error) {
	scheme, rest, ok := strings.Cut(location, "://")
	if !ok {
		return FileBackend{}, location, nil
	}

	switch strings.ToLower(scheme) {
	case "file":
		return FileBackend{}, rest, nil

	case "http", "https":
		return HTTPBackend{}, location, nil

	case "gs":
		bucket, object, err := splitBucket(location, rest)
		if err != nil {
			return nil, "", err
		}
		b, err := MakeGCSBackend(ctx, bucket)
		if err != nil {
			return nil, "", err
		}
		return b, object, nil

	case "s3":
		bucket, key, err := splitBucket(location, rest)
		if err != nil {
			return nil, "", err
		}
		b, err := MakeS3Backend(ctx, bucket)
		if err != nil {
			return nil, "", err
		}
		return b, key, nil

	default:
		return nil, "", fmt.Errorf("%s: %w", location, ErrUnsupportedScheme)
	}
}

func splitBucket(location, rest string) (bucket, object string, err error) {
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("%s: expected bucket and object name", location)
	}
	return bucket, object, nil
}

// ReadAll fetches the object at location, decompressing it if its name
// ends in ".zst".
func ReadAll(ctx context.Context, location string) ([]byte, error) {
	be, path, err := Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer be.Close()

	r, err := be.OpenRead(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if !isCompressed(path) {
		return io.ReadAll(r)
	}

	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// WriteAll stores b at location, compressing it first if the name ends in
// ".zst". It returns the number of bytes written to the backend.
func WriteAll(ctx context.Context, location string, b []byte) (int64, error) {
	be, path, err := Open(ctx, location)
	if err != nil {
		return 0, err
	}
	defer be.Close()

	if isCompressed(path) {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(b); err != nil {
			return 0, err
		} else if err := zw.Close(); err != nil {
			return 0, err
		}
		b = buf.Bytes()
	}

	return be.Store(ctx, path, bytes.NewReader(b))
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	io.Writer
	N int64
}

func (w *CountingWriter) Write(b []byte) (int, error) {
	n, err := w.Writer.Write(b)
	w.N += int64(n)
	return n, err
}
