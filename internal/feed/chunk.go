// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html/charset"
)

const (
	// MinChunkSize is the smallest download treated as a real chunk. The
	// feed answers trailing or empty pages with a few bytes.
	MinChunkSize = 100

	// ActiveStatus is the status id of a published, findable cache.
	ActiveStatus = "1"
)

// Sink receives the coordinates of active caches. Add reports whether the
// point was accepted.
type Sink interface {
	Add(lat, lon float64) bool
}

// ChunkStats describes one processed chunk. It is informational only.
type ChunkStats struct {
	Index     int
	Seen      int
	Added     int
	Discarded int
	Skipped   bool
}

type cacheRecord struct {
	Status *struct {
		ID *string `xml:"id,attr"`
	} `xml:"status"`
	Latitude  *string `xml:"latitude"`
	Longitude *string `xml:"longitude"`
}

// ChunkFile is the name of chunk n inside the working dir.
func ChunkFile(n int) string {
	return fmt.Sprintf("file%d.xml.gz", n)
}

// ProcessChunk downloads chunk n of the session and feeds every active cache
// to sink. Near-empty downloads are skipped without error.
func (c *Client) ProcessChunk(ctx context.Context, sessionID string, n int, sink Sink) (ChunkStats, error) {
	stats := ChunkStats{Index: n}

	path := filepath.Join(c.Dir, ChunkFile(n))
	if err := c.Fetch(ctx, ChunkURL(c.BaseURL, sessionID, n), path); err != nil {
		return stats, fmt.Errorf("failed to fetch chunk %d: %w", n, err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		return stats, fmt.Errorf("failed to stat chunk %d: %w", n, err)
	}
	if fi.Size() < MinChunkSize {
		log.Infof("file seems to be almost empty => skipping...")
		stats.Skipped = true
		return stats, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("failed to open chunk %d: %w", n, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return stats, fmt.Errorf("%w: chunk %d: %w", ErrMalformedChunk, n, err)
	}
	defer zr.Close()

	if err := ParseChunk(zr, sink, &stats); err != nil {
		return stats, fmt.Errorf("chunk %d: %w", n, err)
	}

	log.WithFields(log.Fields{
		"chunk":     n,
		"discarded": stats.Discarded,
	}).Infof("added caches: %d/%d", stats.Added, stats.Seen)

	return stats, nil
}

// ParseChunk streams the records of a decompressed chunk into sink and
// accumulates counts in stats. A record without a status, or an active one
// without coordinates, aborts the chunk.
func ParseChunk(r io.Reader, sink Sink, stats *ChunkStats) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedChunk, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "cache" {
			continue
		}

		var rec cacheRecord
		if err := dec.DecodeElement(&rec, &se); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedChunk, err)
		}
		stats.Seen++

		if rec.Status == nil || rec.Status.ID == nil {
			return fmt.Errorf("%w: record %d has no status id", ErrMalformedChunk, stats.Seen)
		}
		if *rec.Status.ID != ActiveStatus {
			continue
		}

		lat, err := parseCoord(rec.Latitude, "latitude")
		if err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrMalformedChunk, stats.Seen, err)
		}
		lon, err := parseCoord(rec.Longitude, "longitude")
		if err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrMalformedChunk, stats.Seen, err)
		}

		if sink.Add(lat, lon) {
			stats.Added++
		} else {
			log.Debugf("discarding out of range coordinate %v/%v", lat, lon)
			stats.Discarded++
		}
	}
}

func parseCoord(text *string, name string) (float64, error) {
	if text == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*text), 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", name, err)
	}
	return v, nil
}
