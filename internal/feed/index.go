// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"golang.org/x/net/html/charset"
)

// IndexFile is the name of the session document inside the working dir.
const IndexFile = "index.xml"

// Index is what the session request tells us about the run.
type Index struct {
	SessionID string
	Records   int
	Chunks    int
	// Timestamp is the modification time of the local index file, used as
	// the "data as of" date on the page.
	Timestamp time.Time
	Path      string
}

type indexDoc struct {
	SessionID *string `xml:"sessionid"`
	Records   *struct {
		Cache *string `xml:"cache,attr"`
	} `xml:"records"`
}

// Negotiate requests (or reuses) the index document and derives the session
// id and number of chunks from it.
func (c *Client) Negotiate(ctx context.Context) (Index, error) {
	path := filepath.Join(c.Dir, IndexFile)
	if err := c.Fetch(ctx, IndexURL(c.BaseURL), path); err != nil {
		return Index{}, fmt.Errorf("failed to fetch index: %w", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Index{}, fmt.Errorf("failed to stat index: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return Index{}, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	sessionID, records, err := ParseIndex(f)
	if err != nil {
		return Index{}, err
	}

	idx := Index{
		SessionID: sessionID,
		Records:   records,
		Chunks:    ChunkCount(records),
		Timestamp: fi.ModTime(),
		Path:      path,
	}
	log.Infof("session_id: %s", idx.SessionID)
	log.Infof("records: %d => files: %d", idx.Records, idx.Chunks)

	return idx, nil
}

// ParseIndex extracts the session id text and the cache record count from
// an index document.
func ParseIndex(r io.Reader) (string, int, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc indexDoc
	if err := dec.Decode(&doc); err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrMalformedIndex, err)
	}

	if doc.SessionID == nil {
		return "", 0, fmt.Errorf("%w: missing sessionid element", ErrMalformedIndex)
	}
	sessionID := strings.TrimSpace(*doc.SessionID)
	if sessionID == "" {
		return "", 0, fmt.Errorf("%w: empty sessionid", ErrMalformedIndex)
	}

	if doc.Records == nil {
		return "", 0, fmt.Errorf("%w: missing records element", ErrMalformedIndex)
	}
	if doc.Records.Cache == nil {
		return "", 0, fmt.Errorf("%w: records element has no cache attribute", ErrMalformedIndex)
	}

	records, err := strconv.Atoi(strings.TrimSpace(*doc.Records.Cache))
	if err != nil {
		return "", 0, fmt.Errorf("%w: cache count: %w", ErrMalformedIndex, err)
	}
	if records < 0 {
		return "", 0, fmt.Errorf("%w: negative cache count %d", ErrMalformedIndex, records)
	}

	return sessionID, records, nil
}
