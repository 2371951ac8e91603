// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps template assets (background images, logos,
// signatures, watermark images) in S3-compatible object storage. It wraps
// the AWS SDK v2 with path-style addressing so self-hosted endpoints work.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Client stores assets in a public bucket (served directly to browsers)
// and keeps untouched originals in a private one.
type Client struct {
	s3            *s3.Client
	publicBucket  string
	privateBucket string
	endpoint      string
	publicURL     string // optional CDN/direct URL for public files
}

// Config carries the connection settings.
type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBucket  string
	PrivateBucket string
	PublicURL     string
}

// New creates a storage client. It returns (nil, nil) when the endpoint or
// credentials are empty so the service can start without uploads.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, nil
	}
	if cfg.PublicBucket == "" {
		return nil, fmt.Errorf("storage: public bucket is required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	s3Client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:            s3Client,
		publicBucket:  cfg.PublicBucket,
		privateBucket: cfg.PrivateBucket,
		endpoint:      endpoint,
		publicURL:     strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// AssetKey builds an object key for an uploaded asset:
// assets/<kind>/<yyyy>/<mm>/<uuid>-<name>. name should already be slugged.
func AssetKey(kind, name string, now time.Time) string {
	if kind == "" {
		kind = "misc"
	}
	return path.Join("assets", kind, now.Format("2006"), now.Format("01"), uuid.NewString()+"-"+name)
}

// UploadPublic stores an asset in the public bucket with a public-read ACL
// and returns its URL.
func (c *Client) UploadPublic(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if err := c.upload(ctx, c.publicBucket, key, contentType, body, size, true); err != nil {
		return "", err
	}
	return c.FileURL(key), nil
}

// UploadOriginal keeps the unprocessed upload in the private bucket. It is a
// no-op when no private bucket is configured.
func (c *Client) UploadOriginal(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if c.privateBucket == "" {
		return nil
	}
	return c.upload(ctx, c.privateBucket, key, contentType, body, size, false)
}

func (c *Client) upload(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64, public bool) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}
	if public {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", bucket, key, err)
	}
	return nil
}

// DeleteURL removes the public object behind an asset URL. URLs that do not
// belong to this storage are ignored.
func (c *Client) DeleteURL(ctx context.Context, rawURL string) error {
	key, ok := c.ExtractS3Key(rawURL)
	if !ok {
		return nil
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.publicBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.publicBucket, key, err)
	}
	return nil
}

// FileURL returns the public URL for a key in the public bucket.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.publicBucket + "/" + key
}

// ExtractS3Key extracts the object key from a public asset URL.
// Returns ("", false) if the URL doesn't belong to this storage.
func (c *Client) ExtractS3Key(rawURL string) (string, bool) {
	if c.publicURL != "" {
		prefix := c.publicURL + "/"
		if strings.HasPrefix(rawURL, prefix) {
			return rawURL[len(prefix):], true
		}
	}

	prefix := c.endpoint + "/" + c.publicBucket + "/"
	if strings.HasPrefix(rawURL, prefix) {
		return rawURL[len(prefix):], true
	}

	return "", false
}
