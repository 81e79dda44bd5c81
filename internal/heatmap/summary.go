// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package heatmap

import (
	"time"

	"github.com/staranto/ocheatmap/internal/cacheutil"
)

// Summary reports what a run did.
type Summary struct {
	SessionID     string        `json:"session_id" yaml:"session_id"`
	Records       int           `json:"records" yaml:"records"`
	Chunks        int           `json:"chunks" yaml:"chunks"`
	ChunksSkipped int           `json:"chunks_skipped" yaml:"chunks_skipped"`
	Seen          int           `json:"seen" yaml:"seen"`
	Active        int           `json:"active" yaml:"active"`
	Discarded     int           `json:"discarded" yaml:"discarded"`
	Cells         int           `json:"cells" yaml:"cells"`
	MaxCell       int           `json:"max_cell" yaml:"max_cell"`
	FeedTime      time.Time     `json:"feed_time" yaml:"feed_time"`
	WorkDir       string        `json:"work_dir" yaml:"work_dir"`
	WorkDirKept   bool          `json:"work_dir_kept" yaml:"work_dir_kept"`
	IndexPath     string        `json:"index_path" yaml:"index_path"`
	DataPath      string        `json:"data_path" yaml:"data_path"`
	GeoJSONPath   string        `json:"geojson_path,omitempty" yaml:"geojson_path,omitempty"`
	Published     []string      `json:"published,omitempty" yaml:"published,omitempty"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

func newSummary(run *Run, wd *cacheutil.Workdir) Summary {
	s := Summary{
		SessionID:   run.Index.SessionID,
		Records:     run.Index.Records,
		Chunks:      run.Index.Chunks,
		Active:      run.Grid.Count(),
		Cells:       run.Grid.Len(),
		MaxCell:     run.Grid.Max(),
		FeedTime:    run.Index.Timestamp,
		WorkDir:     wd.Path,
		WorkDirKept: !wd.Temp || wd.Keep,
	}
	for _, c := range run.Chunks {
		if c.Skipped {
			s.ChunksSkipped++
		}
		s.Seen += c.Seen
		s.Discarded += c.Discarded
	}
	return s
}
