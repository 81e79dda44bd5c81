// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/ocheatmap/internal/config"
	"github.com/staranto/ocheatmap/internal/heatmap"
)

// Formats are the accepted values of --summary.
var Formats = []string{"none", "text", "json", "yaml"}

// Row is one label/value pair of the text summary.
type Row struct {
	Label string
	Value string
}

// WriteSummary renders s to w in the given format. "none" and "" print
// nothing.
func WriteSummary(w io.Writer, s heatmap.Summary, format string) error {
	if w == nil {
		w = os.Stdout
	}

	switch format {
	case "", "none":
		return nil
	case "json":
		out, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "text":
		rows := Rows(s, time.Now())
		if IsTerminal(w) {
			_, err := fmt.Fprintln(w, TableWriter(rows))
			return err
		}
		return PlainWriter(w, rows)
	default:
		return fmt.Errorf("unknown summary format %q", format)
	}
}

// Rows flattens s into display rows. now anchors the relative feed age.
func Rows(s heatmap.Summary, now time.Time) []Row {
	rows := []Row{
		{"session", s.SessionID},
		{"records", humanize.Comma(int64(s.Records))},
		{"chunks", fmt.Sprintf("%s (%s skipped)", humanize.Comma(int64(s.Chunks)), humanize.Comma(int64(s.ChunksSkipped)))},
		{"seen", humanize.Comma(int64(s.Seen))},
		{"active", humanize.Comma(int64(s.Active))},
		{"discarded", humanize.Comma(int64(s.Discarded))},
		{"cells", humanize.Comma(int64(s.Cells))},
		{"max cell", humanize.Comma(int64(s.MaxCell))},
	}

	if !s.FeedTime.IsZero() {
		rows = append(rows, Row{"feed time", fmt.Sprintf("%s (%s)",
			s.FeedTime.Format(time.DateTime), humanize.RelTime(s.FeedTime, now, "ago", "from now"))})
	}

	workdir := s.WorkDir
	if !s.WorkDirKept {
		workdir += " (removed)"
	}
	rows = append(rows,
		Row{"work dir", workdir},
		Row{"index", s.IndexPath},
		Row{"data", s.DataPath},
	)
	if s.GeoJSONPath != "" {
		rows = append(rows, Row{"geojson", s.GeoJSONPath})
	}

	if len(s.Published) > 0 {
		rows = append(rows, Row{"published", strings.Join(s.Published, ", ")})
	}

	return append(rows, Row{"duration", s.Duration.Round(time.Millisecond).String()})
}

// PlainWriter prints rows as label=value lines, suitable for pipes and logs.
func PlainWriter(w io.Writer, rows []Row) error {
	for _, r := range rows {
		label := strings.ReplaceAll(r.Label, " ", "_")
		if _, err := fmt.Fprintf(w, "%s=%s\n", label, r.Value); err != nil {
			return err
		}
	}
	return nil
}

// TableWriter lays rows out in a borderless two column table. Label colors
// come from colors.title/colors.even/colors.odd in the config file.
func TableWriter(rows []Row) *table.Table {
	labelColor, evenColor, oddColor := getColors("colors")

	var (
		labelStyle   = lipgloss.NewStyle().Align(lipgloss.Left).Foreground(lipgloss.Color(labelColor))
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle  = cellStyle.Foreground(lipgloss.Color(oddColor))
	)

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{r.Label, r.Value})
	}

	pad, _ := config.GetInt("padding", 2)

	return table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			style := oddRowStyle
			if row%2 == 0 {
				style = evenRowStyle
			}
			return style.PaddingLeft(pad)
		}).
		Rows(data...)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// getColors returns configured color values for table rendering.
func getColors(key string) (label string, even string, odd string) {
	label, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}
