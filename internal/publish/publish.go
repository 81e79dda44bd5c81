// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package publish uploads the rendered site to an S3 bucket.
package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of the S3 client the publisher needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// S3Publisher uploads files under Prefix in Bucket.
type S3Publisher struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

// ObjectKey joins prefix and the file's base name.
func ObjectKey(prefix, file string) string {
	name := filepath.Base(file)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// ContentType guesses the MIME type from the file extension.
func ContentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".js":
		return "application/javascript"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	}
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Publish uploads each file and returns the object keys written. It stops at
// the first failure.
func (p *S3Publisher) Publish(ctx context.Context, files ...string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := ObjectKey(p.Prefix, file)
		if err := p.put(ctx, file, key); err != nil {
			return keys, err
		}
		log.WithFields(log.Fields{"bucket": p.Bucket, "key": key}).Info("published")
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *S3Publisher) put(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	_, err = p.Client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:        awsv2.String(p.Bucket),
		Key:           awsv2.String(key),
		Body:          f,
		ContentLength: awsv2.Int64(fi.Size()),
		ContentType:   awsv2.String(ContentType(file)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", p.Bucket, key, err)
	}
	return nil
}
