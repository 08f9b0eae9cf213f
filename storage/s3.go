// storage/s3.go
// Copyright(c) 2025 rotorperf contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Environment variables that override the default AWS credential chain
// and region for S3 access.
const (
	S3AccessKeyEnv = "ROTORPERF_S3_ACCESS_KEY"
	S3SecretKeyEnv = "ROTORPERF_S3_SECRET_KEY"
	S3RegionEnv    = "ROTORPERF_S3_REGION"
)

type S3Backend struct {
	client *s3.Client
	bucket string
}

func MakeS3Backend(ctx context.Context, bucket string) (*S3Backend, error) {
	var opts []func(*config.LoadOptions) error
	if key, secret := os.Getenv(S3AccessKeyEnv), os.Getenv(S3SecretKeyEnv); key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}
	if region := os.Getenv(S3RegionEnv); region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &S3Backend{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

func (s *S3Backend) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Backend) Store(ctx context.Context, key string, r io.Reader) (int64, error) {
	// PutObject wants a seekable body so it can compute the payload hash.
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(b),
		ContentLength: aws.Int64(int64(len(b))),
	})
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

func (s *S3Backend) Close() error { return nil }
