// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// TempPrefix names auto-created working directories.
const TempPrefix = "ocheatmap-"

// Workdir is where the raw feed downloads live during a run.
type Workdir struct {
	Path string
	// Temp is true when the directory was created for this run and is
	// removed on Release unless Keep is set.
	Temp bool
	Keep bool
}

// Acquire returns the working directory for a run. An empty dataDir yields
// a fresh temp directory; otherwise dataDir is created if needed and used
// as a persistent download cache.
func Acquire(dataDir string, keep bool) (*Workdir, error) {
	if dataDir != "" {
		if err := EnsureDir(dataDir); err != nil {
			return nil, err
		}
		return &Workdir{Path: dataDir, Keep: true}, nil
	}

	dir, err := os.MkdirTemp("", TempPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	log.Infof("using temp dir: %s", dir)
	return &Workdir{Path: dir, Temp: true, Keep: keep}, nil
}

// Release removes a temp working directory. Persistent and kept directories
// are left alone. Safe to call more than once.
func (w *Workdir) Release() error {
	if w == nil || !w.Temp || w.Path == "" {
		return nil
	}
	if w.Keep {
		log.Infof("keeping temp dir: %s", w.Path)
		return nil
	}

	log.Debugf("removing temp dir: %s", w.Path)
	if err := os.RemoveAll(w.Path); err != nil {
		return fmt.Errorf("failed to remove temp directory: %w", err)
	}
	w.Path = ""
	return nil
}

// EnsureDir creates dir (and parents) if it does not exist yet.
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	log.Infof("creating dir: %s", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Purge removes files under dir older than maxAge and returns how many it
// removed. maxAge <= 0 is a no-op.
func Purge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}

	removed := 0
	if err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				log.Debugf("removed cache file %s", path)
				removed++
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}
