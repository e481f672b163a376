//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of AgentToast.
//
// AgentToast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AgentToast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AgentToast. If not, see https://www.gnu.org/licenses/.

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiverError provides structured error information for archive operations.
type ArchiverError struct {
	Op  string // Operation that failed (e.g., "upload", "archive_file")
	Key string // Object key involved, if any
	Err error  // Underlying error
}

func (e *ArchiverError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("archiver %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("archiver %s: %v", e.Op, e.Err)
}

func (e *ArchiverError) Unwrap() error {
	return e.Err
}

// ArchiverOptions configures the S3 archiver.
type ArchiverOptions struct {
	Bucket         string          // S3 bucket name
	Prefix         string          // Key prefix for uploaded artifacts
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
}

// ArchiverOption configures ArchiverOptions.
type ArchiverOption func(*ArchiverOptions)

// WithArchiveBucket sets the destination bucket.
func WithArchiveBucket(bucket string) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.Bucket = bucket
	}
}

// WithArchivePrefix sets the key prefix for uploads.
func WithArchivePrefix(prefix string) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.Prefix = prefix
	}
}

// WithArchiveRegion sets the AWS region.
func WithArchiveRegion(region string) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.Region = region
	}
}

// WithArchiveProfile sets the AWS profile.
func WithArchiveProfile(profile string) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.Profile = profile
	}
}

// WithArchiveCredentials sets explicit credentials, overriding the
// default provider chain.
func WithArchiveCredentials(creds aws.Credentials) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.Credentials = creds
	}
}

// WithArchiveEndpoint sets a custom S3 endpoint.
func WithArchiveEndpoint(endpoint string) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.EndpointURL = endpoint
	}
}

// WithArchivePathStyle enables path-style addressing.
func WithArchivePathStyle(pathStyle bool) ArchiverOption {
	return func(opts *ArchiverOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// Archiver uploads generated artifacts (reports, audio) to S3 under a
// dated prefix.
type Archiver struct {
	client *s3.Client
	opts   ArchiverOptions
}

// NewArchiver creates an S3 archiver.
func NewArchiver(ctx context.Context, options ...ArchiverOption) (*Archiver, error) {
	opts := ArchiverOptions{Prefix: "agenttoast"}
	for _, option := range options {
		option(&opts)
	}
	if opts.Bucket == "" {
		return nil, &ArchiverError{Op: "validate", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := createAWSConfig(ctx, opts)
	if err != nil {
		return nil, &ArchiverError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &Archiver{client: client, opts: opts}, nil
}

func createAWSConfig(ctx context.Context, opts ArchiverOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}

// Upload stores body at a dated key and returns the full object key.
func (a *Archiver) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	key := a.key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &ArchiverError{Op: "upload", Key: key, Err: err}
	}
	return key, nil
}

// ArchiveFile uploads a local file, inferring the content type from its
// extension.
func (a *Archiver) ArchiveFile(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &ArchiverError{Op: "archive_file", Err: err}
	}
	defer f.Close()

	return a.Upload(ctx, filepath.Base(localPath), contentTypeFor(localPath), f)
}

// key builds the object key: <prefix>/<YYYY-MM-DD>/<name>.
func (a *Archiver) key(name string) string {
	return path.Join(a.opts.Prefix, time.Now().Format("2006-01-02"), name)
}

func contentTypeFor(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".md":
		return "text/markdown"
	case ".mp3":
		return "audio/mpeg"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
