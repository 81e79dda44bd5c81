// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package heatmap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/staranto/ocheatmap/internal/cacheutil"
	"github.com/staranto/ocheatmap/internal/feed"
	"github.com/staranto/ocheatmap/internal/grid"
	"github.com/staranto/ocheatmap/internal/render"
)

// DefaultTemplate is the page template, relative to the working directory.
const DefaultTemplate = "templates/index.html"

// Publisher ships the rendered files somewhere after a successful run.
type Publisher interface {
	Publish(ctx context.Context, files ...string) ([]string, error)
}

// Options configure a Generator. Empty URL, OutputDir and TemplatePath are
// filled in by New.
type Options struct {
	URL          string
	OutputDir    string
	DataDir      string
	TemplatePath string
	KeepTemp     bool
	// GeoJSON additionally writes the cells as data.geojson.
	GeoJSON      bool
	// Refetch downloads every document again even when a copy exists in
	// the working directory.
	Refetch      bool
	Timeout      time.Duration
	MaxAge       time.Duration
	UserAgent    string

	// HTTPClient overrides the feed HTTP client; Timeout is ignored then.
	HTTPClient *http.Client
	Publisher  Publisher
}

// Run is the state of one generation pass. It lives for a single call to
// Generator.Run and is never shared.
type Run struct {
	Index  feed.Index
	Grid   *grid.Grid
	Chunks []feed.ChunkStats
}

// Generator produces the heat map site.
type Generator struct {
	opts Options
}

func New(opts Options) *Generator {
	if opts.URL == "" {
		opts.URL = feed.DefaultURL
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "out"
	}
	if opts.TemplatePath == "" {
		opts.TemplatePath = DefaultTemplate
	}
	return &Generator{opts: opts}
}

// Options returns the effective options after defaults were applied.
func (g *Generator) Options() Options { return g.opts }

// Run fetches the whole feed and writes index.html and data.js. Nothing is
// written to the output directory unless every chunk was processed.
func (g *Generator) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	o := g.opts

	log.Infof("using data dir: %s", o.DataDir)
	log.Infof("using output dir: %s", o.OutputDir)

	if err := cacheutil.EnsureDir(o.OutputDir); err != nil {
		return Summary{}, err
	}

	wd, err := cacheutil.Acquire(o.DataDir, o.KeepTemp)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if rerr := wd.Release(); rerr != nil {
			log.WithError(rerr).Warn("failed to clean up working directory")
		}
	}()

	if !wd.Temp {
		if n, err := cacheutil.Purge(wd.Path, o.MaxAge); err != nil {
			log.WithError(err).Warn("failed to purge stale downloads")
		} else if n > 0 {
			log.Infof("purged %d stale downloads", n)
		}
	}

	client := feed.NewClient(o.URL, wd.Path, g.clientOptions()...)

	run, err := g.collect(ctx, client)
	if err != nil {
		return Summary{}, err
	}

	indexPath := filepath.Join(o.OutputDir, render.IndexFile)
	dataPath := filepath.Join(o.OutputDir, render.DataFile)

	if err := render.WriteIndex(o.TemplatePath, indexPath, run.Grid.Count(), run.Index.Timestamp); err != nil {
		return Summary{}, err
	}
	if err := render.WriteData(dataPath, run.Grid); err != nil {
		return Summary{}, err
	}

	files := []string{indexPath, dataPath}

	summary := newSummary(run, wd)
	summary.IndexPath = indexPath
	summary.DataPath = dataPath

	if o.GeoJSON {
		geoPath := filepath.Join(o.OutputDir, render.GeoJSONFile)
		if err := render.WriteGeoJSON(geoPath, run.Grid); err != nil {
			return Summary{}, err
		}
		summary.GeoJSONPath = geoPath
		files = append(files, geoPath)
	}

	if o.Publisher != nil {
		keys, err := o.Publisher.Publish(ctx, files...)
		if err != nil {
			return Summary{}, fmt.Errorf("failed to publish: %w", err)
		}
		summary.Published = keys
	}

	summary.Duration = time.Since(start)
	return summary, nil
}

// collect negotiates the session and processes chunks 1..N in order. The
// first failing chunk abandons the rest.
func (g *Generator) collect(ctx context.Context, client *feed.Client) (*Run, error) {
	idx, err := client.Negotiate(ctx)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Index:  idx,
		Grid:   grid.New(),
		Chunks: make([]feed.ChunkStats, 0, idx.Chunks),
	}

	for n := 1; n <= idx.Chunks; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats, err := client.ProcessChunk(ctx, idx.SessionID, n, run.Grid)
		if err != nil {
			return nil, err
		}
		run.Chunks = append(run.Chunks, stats)
	}

	return run, nil
}

func (g *Generator) clientOptions() []feed.Option {
	opts := []feed.Option{
		feed.WithReuse(!g.opts.Refetch),
		feed.WithTimeout(g.opts.Timeout),
	}
	if g.opts.UserAgent != "" {
		opts = append(opts, feed.WithUserAgent(g.opts.UserAgent))
	}
	if g.opts.HTTPClient != nil {
		opts = append(opts, feed.WithHTTPClient(g.opts.HTTPClient))
	}
	return opts
}
