// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"fmt"
	"net/url"
)

const (
	// DefaultURL is the Opencaching.de XML interface.
	DefaultURL = "http://www.opencaching.de/xml/ocxml15.php"

	// ModifiedSince predates every record on the feed, so the index covers
	// all of them.
	ModifiedSince = "20050801000000"

	// PageSize is the number of records the feed puts into one chunk.
	PageSize = 500
)

// IndexURL builds the session request asking for cache records.
func IndexURL(base string) string {
	return fmt.Sprintf("%s?modifiedsince=%s&cache=1", base, ModifiedSince)
}

// ChunkURL builds the request for chunk n of the given session.
func ChunkURL(base, sessionID string, n int) string {
	return fmt.Sprintf(
		"%s?sessionid=%s&file=%d&charset=utf-8&cdata=1&xmldecl=1&ocxmltag=1&doctype=0&zip=gzip",
		base, url.QueryEscape(sessionID), n,
	)
}

// ChunkCount returns ceil(records / PageSize).
func ChunkCount(records int) int {
	if records <= 0 {
		return 0
	}
	return (records + PageSize - 1) / PageSize
}
