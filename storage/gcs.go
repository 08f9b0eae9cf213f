// storage/gcs.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSCredentialsEnv names the environment variable that may hold service
// account credentials (JSON) for Google Cloud Storage. If it is unset,
// application default credentials are used.
const GCSCredentialsEnv = "ROTORPERF_GCS_CREDENTIALS"

type GCSBackend struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
}

func MakeGCSBackend(ctx context.Context, bucketName string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if credsJSON := os.Getenv(GCSCredentialsEnv); credsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBackend{
		client: client,
		bucket: client.Bucket(bucketName),
	}, nil
}

func (g *GCSBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := g.bucket.Object(path).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return r, err
}

func (g *GCSBackend) Store(ctx context.Context, path string, r io.Reader) (int64, error) {
	objw := g.bucket.Object(path).NewWriter(ctx)
	cw := &CountingWriter{Writer: objw}

	if _, err := io.Copy(cw, r); err != nil {
		objw.Close()
		return 0, err
	} else if err := objw.Close(); err != nil {
		return 0, err
	}
	return cw.N, nil
}

func (g *GCSBackend) Close() error { return g.client.Close() }
