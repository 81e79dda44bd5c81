// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/ocheatmap/internal/grid"
)

// fakeFeed serves an index document and gzip chunks keyed by file number.
type fakeFeed struct {
	index  string
	chunks map[int][]byte
	hits   atomic.Int32
}

func (f *fakeFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	q := r.URL.Query()
	if q.Get("sessionid") == "" {
		fmt.Fprint(w, f.index)
		return
	}
	n, _ := strconv.Atoi(q.Get("file"))
	body, ok := f.chunks[n]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(body)
}

func indexXML(session string, records int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ocxmlsession>
  <sessionid>%s</sessionid>
  <records user="0" cache="%d" cachedesc="0" cachelog="0" picture="0" removeobject="0"/>
</ocxmlsession>`, session, records)
}

func cacheXML(status, lat, lon string) string {
	var b strings.Builder
	b.WriteString("<cache>")
	b.WriteString(`<name><![CDATA[Test cache]]></name>`)
	if lat != "" {
		fmt.Fprintf(&b, "<latitude>%s</latitude>", lat)
	}
	if lon != "" {
		fmt.Fprintf(&b, "<longitude>%s</longitude>", lon)
	}
	if status != "" {
		fmt.Fprintf(&b, `<status id="%s"><![CDATA[status]]></status>`, status)
	}
	b.WriteString("</cache>")
	return b.String()
}

// gzipChunk wraps records in an oc11xml document. NoCompression keeps the
// payload comfortably above MinChunkSize.
func gzipChunk(t *testing.T, records ...string) []byte {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8"?>` + "\n<oc11xml version=\"1.1\">\n" +
		strings.Join(records, "\n") + "\n</oc11xml>\n"

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.NoCompression)
	require.NoError(t, err)
	_, err = zw.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestClient(t *testing.T, h http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, t.TempDir(), opts...), srv
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		records int
		want    int
	}{
		{records: 0, want: 0},
		{records: 1, want: 1},
		{records: 499, want: 1},
		{records: 500, want: 1},
		{records: 501, want: 2},
		{records: 1000, want: 2},
		{records: 1001, want: 3},
		{records: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.records), func(t *testing.T) {
			assert.Equal(t, tt.want, ChunkCount(tt.records))
		})
	}
}

func TestURLs(t *testing.T) {
	assert.Equal(t,
		"http://x/ocxml15.php?modifiedsince=20050801000000&cache=1",
		IndexURL("http://x/ocxml15.php"))
	assert.Equal(t,
		"http://x/ocxml15.php?sessionid=a+b%2Fc&file=3&charset=utf-8&cdata=1&xmldecl=1&ocxmltag=1&doctype=0&zip=gzip",
		ChunkURL("http://x/ocxml15.php", "a b/c", 3))
}

func TestFetch_ReusesExistingFile(t *testing.T) {
	ff := &fakeFeed{index: indexXML("s1", 0)}
	c, srv := newTestClient(t, ff)

	dest := filepath.Join(c.Dir, IndexFile)
	require.NoError(t, os.WriteFile(dest, []byte("cached"), 0o600))

	require.NoError(t, c.Fetch(context.Background(), IndexURL(srv.URL), dest))
	assert.Equal(t, int32(0), ff.hits.Load(), "no request expected when the file exists")

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(got))
}

func TestFetch_NoReuseOverwrites(t *testing.T) {
	ff := &fakeFeed{index: indexXML("s1", 0)}
	c, srv := newTestClient(t, ff, WithReuse(false))

	dest := filepath.Join(c.Dir, IndexFile)
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o600))

	require.NoError(t, c.Fetch(context.Background(), IndexURL(srv.URL), dest))
	assert.Equal(t, int32(1), ff.hits.Load())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, ff.index, string(got))
}

func TestFetch_HTTPError(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())

	dest := filepath.Join(c.Dir, "missing.xml")
	err := c.Fetch(context.Background(), srv.URL, dest)
	assert.ErrorIs(t, err, ErrHTTPStatus)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "failed download must not leave a file behind")

	entries, err := os.ReadDir(c.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetch_UserAgent(t *testing.T) {
	var ua string
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}), WithUserAgent("ocheatmap/test"))

	require.NoError(t, c.Fetch(context.Background(), srv.URL, filepath.Join(c.Dir, "x")))
	assert.Equal(t, "ocheatmap/test", ua)
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantSession string
		wantRecords int
		wantErr     bool
	}{
		{
			name:        "valid",
			doc:         indexXML("a1b2c3", 12345),
			wantSession: "a1b2c3",
			wantRecords: 12345,
		},
		{
			name:        "whitespace around session id",
			doc:         "<ocxmlsession><sessionid>\n  42\n</sessionid><records cache=\"7\"/></ocxmlsession>",
			wantSession: "42",
			wantRecords: 7,
		},
		{
			name:        "latin-1 declaration",
			doc:         "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><ocxmlsession><sessionid>s\xe4</sessionid><records cache=\"1\"/></ocxmlsession>",
			wantSession: "sä",
			wantRecords: 1,
		},
		{
			name:    "missing sessionid",
			doc:     `<ocxmlsession><records cache="1"/></ocxmlsession>`,
			wantErr: true,
		},
		{
			name:    "empty sessionid",
			doc:     `<ocxmlsession><sessionid></sessionid><records cache="1"/></ocxmlsession>`,
			wantErr: true,
		},
		{
			name:    "missing records",
			doc:     `<ocxmlsession><sessionid>1</sessionid></ocxmlsession>`,
			wantErr: true,
		},
		{
			name:    "missing cache attribute",
			doc:     `<ocxmlsession><sessionid>1</sessionid><records user="3"/></ocxmlsession>`,
			wantErr: true,
		},
		{
			name:    "non-numeric count",
			doc:     `<ocxmlsession><sessionid>1</sessionid><records cache="many"/></ocxmlsession>`,
			wantErr: true,
		},
		{
			name:    "malformed xml",
			doc:     `<ocxmlsession><sessionid>1</sessionid`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, records, err := ParseIndex(strings.NewReader(tt.doc))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedIndex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSession, session)
			assert.Equal(t, tt.wantRecords, records)
		})
	}
}

func TestNegotiate(t *testing.T) {
	ff := &fakeFeed{index: indexXML("sess-9", 1001)}
	c, _ := newTestClient(t, ff)

	idx, err := c.Negotiate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sess-9", idx.SessionID)
	assert.Equal(t, 1001, idx.Records)
	assert.Equal(t, 3, idx.Chunks)
	assert.Equal(t, filepath.Join(c.Dir, IndexFile), idx.Path)

	fi, err := os.Stat(idx.Path)
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(idx.Timestamp))
}

func TestNegotiate_Malformed(t *testing.T) {
	ff := &fakeFeed{index: "<html>maintenance</html>"}
	c, _ := newTestClient(t, ff)

	_, err := c.Negotiate(context.Background())
	assert.ErrorIs(t, err, ErrMalformedIndex)
}

func TestProcessChunk(t *testing.T) {
	ff := &fakeFeed{chunks: map[int][]byte{
		1: gzipChunk(t,
			cacheXML("1", "52.516", "13.378"),
			cacheXML("1", "52.519", "13.401"),
			cacheXML("2", "52.516", "13.378"),
			cacheXML("1", " 52.516 ", "13.379"),
			cacheXML("3", "", ""),
		),
	}}
	c, _ := newTestClient(t, ff)
	g := grid.New()

	stats, err := c.ProcessChunk(context.Background(), "s", 1, g)
	require.NoError(t, err)

	assert.Equal(t, ChunkStats{Index: 1, Seen: 5, Added: 3}, stats)
	assert.Equal(t, 3, g.Count())
	got, _ := g.Get("52.52/13.38")
	assert.Equal(t, 2, got)
	got, _ = g.Get("52.52/13.40")
	assert.Equal(t, 1, got)

	_, err = os.Stat(filepath.Join(c.Dir, ChunkFile(1)))
	assert.NoError(t, err)
}

func TestProcessChunk_InactiveNeverCounted(t *testing.T) {
	ff := &fakeFeed{chunks: map[int][]byte{
		1: gzipChunk(t,
			cacheXML("2", "10.0", "10.0"),
			cacheXML("6", "11.0", "11.0"),
			cacheXML("7", "12.0", "12.0"),
		),
	}}
	c, _ := newTestClient(t, ff)
	g := grid.New()

	stats, err := c.ProcessChunk(context.Background(), "s", 1, g)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Seen)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 0, g.Count())
	assert.Equal(t, 0, g.Len())
}

func TestProcessChunk_NearEmptySkipped(t *testing.T) {
	for _, size := range []int{0, 20, 99} {
		t.Run(strconv.Itoa(size), func(t *testing.T) {
			ff := &fakeFeed{chunks: map[int][]byte{2: bytes.Repeat([]byte{'x'}, size)}}
			c, _ := newTestClient(t, ff)
			g := grid.New()

			stats, err := c.ProcessChunk(context.Background(), "s", 2, g)
			require.NoError(t, err)
			assert.True(t, stats.Skipped)
			assert.Equal(t, 0, stats.Seen)
			assert.Equal(t, 0, g.Count())
		})
	}
}

func TestProcessChunk_ReusesDownloadedChunk(t *testing.T) {
	ff := &fakeFeed{}
	c, _ := newTestClient(t, ff)

	path := filepath.Join(c.Dir, ChunkFile(4))
	require.NoError(t, os.WriteFile(path, gzipChunk(t, cacheXML("1", "1.0", "2.0")), 0o600))

	g := grid.New()
	stats, err := c.ProcessChunk(context.Background(), "s", 4, g)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, int32(0), ff.hits.Load())
}

func TestProcessChunk_Fatal(t *testing.T) {
	tests := []struct {
		name string
		body func(t *testing.T) []byte
	}{
		{
			name: "missing status",
			body: func(t *testing.T) []byte { return gzipChunk(t, cacheXML("", "1.0", "2.0")) },
		},
		{
			name: "active without latitude",
			body: func(t *testing.T) []byte { return gzipChunk(t, cacheXML("1", "", "2.0")) },
		},
		{
			name: "active with unparsable longitude",
			body: func(t *testing.T) []byte { return gzipChunk(t, cacheXML("1", "1.0", "east")) },
		},
		{
			name: "truncated xml",
			body: func(t *testing.T) []byte {
				return gzipChunk(t, cacheXML("1", "1.0", "2.0"), "<cache><status id=\"1\">")
			},
		},
		{
			name: "not gzip",
			body: func(t *testing.T) []byte { return bytes.Repeat([]byte("<oc11xml/>"), 20) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ff := &fakeFeed{chunks: map[int][]byte{1: tt.body(t)}}
			c, _ := newTestClient(t, ff)

			_, err := c.ProcessChunk(context.Background(), "s", 1, grid.New())
			assert.ErrorIs(t, err, ErrMalformedChunk)
		})
	}
}

func TestProcessChunk_HTTPFailure(t *testing.T) {
	ff := &fakeFeed{chunks: map[int][]byte{}}
	c, _ := newTestClient(t, ff)

	_, err := c.ProcessChunk(context.Background(), "s", 9, grid.New())
	assert.ErrorIs(t, err, ErrHTTPStatus)
}
