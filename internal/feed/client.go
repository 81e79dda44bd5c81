// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
)

// Sentinel errors so callers can tell transport trouble from a feed that
// returned something unexpected.
var (
	ErrHTTPStatus     = errors.New("unexpected HTTP status")
	ErrMalformedIndex = errors.New("malformed index document")
	ErrMalformedChunk = errors.New("malformed chunk document")
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 5 * time.Minute

// Client downloads feed documents into Dir.
type Client struct {
	BaseURL   string
	Dir       string
	Reuse     bool
	UserAgent string
	HTTP      *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithReuse controls whether an existing download is used instead of
// fetching again. Defaults to true.
func WithReuse(reuse bool) Option {
	return func(c *Client) { c.Reuse = reuse }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTP.Timeout = d }
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

// NewClient returns a Client for the feed at baseURL that stores downloads
// in dir.
func NewClient(baseURL, dir string, opts ...Option) *Client {
	hc := cleanhttp.DefaultClient()
	hc.Timeout = DefaultTimeout

	c := &Client{
		BaseURL: baseURL,
		Dir:     dir,
		Reuse:   true,
		HTTP:    hc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads url into dest. With Reuse set and dest already present no
// request is made at all; freshness is not checked.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	log.Infof("requesting file: %s", dest)
	if c.Reuse {
		if fi, err := os.Stat(dest); err == nil && !fi.IsDir() {
			log.Debugf("cache hit: %s", dest)
			return nil
		}
	}

	log.Infof("fetching: %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s for %s", ErrHTTPStatus, resp.Status, url)
	}

	return writeAtomic(dest, resp.Body)
}

// writeAtomic streams r into a temp file next to dest and renames it into
// place, so an interrupted download never looks like a cached one.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warnf("failed to remove temp file %s", tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
