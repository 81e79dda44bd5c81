// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/ocheatmap/internal/grid"
)

const (
	DataFile  = "data.js"
	IndexFile = "index.html"

	CountToken = "@COUNT@"
	DateToken  = "@DATE@"

	// DateLayout renders the feed timestamp as month/year.
	DateLayout = "01/2006"
)

// WriteData writes the grid as a JavaScript array literal to path.
func WriteData(path string, g *grid.Grid) error {
	log.Infof("creating file: %s", path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := FormatData(f, g); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatData emits `var data = [...]` with one [lat, lon, density] line per
// populated cell.
func FormatData(w io.Writer, g *grid.Grid) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("var data = [\n"); err != nil {
		return err
	}
	for _, c := range g.Cells() {
		if _, err := fmt.Fprintf(bw, "[%s, %s, %s],\n", c.Lat, c.Lon, FormatDensity(g.Density(c.Count))); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("];\n"); err != nil {
		return err
	}

	return bw.Flush()
}

// FormatDensity prints v as the shortest round-tripping decimal and always
// keeps a fractional part, so 1 prints as "1.0" and 0.5 as "0.5".
func FormatDensity(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// WriteIndex fills the template at templatePath and writes it to path.
func WriteIndex(templatePath, path string, count int, ts time.Time) error {
	log.Infof("creating file: %s", path)

	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	if err := os.WriteFile(path, []byte(FillTemplate(string(tmpl), count, ts)), 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FillTemplate replaces every literal @COUNT@ and @DATE@ in tmpl.
func FillTemplate(tmpl string, count int, ts time.Time) string {
	r := strings.NewReplacer(
		CountToken, strconv.Itoa(count),
		DateToken, ts.Format(DateLayout),
	)
	return r.Replace(tmpl)
}
