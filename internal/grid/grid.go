// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package grid

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Cell is a populated grid bucket. Lat and Lon are the 2-decimal key parts
// exactly as they appear in the key.
type Cell struct {
	Key   string
	Lat   string
	Lon   string
	Count int
}

// Grid maps cell keys to the number of active caches that fell into them.
// The zero value is not usable; call New.
type Grid struct {
	cells map[string]int
	count int
	max   int
}

func New() *Grid {
	return &Grid{cells: make(map[string]int)}
}

// Key formats a coordinate pair into its cell key, e.g. "52.52/13.38".
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.2f/%.2f", lat, lon)
}

// Valid reports whether lat/lon can be placed on the grid.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return math.Abs(lat) <= 90 && math.Abs(lon) <= 180
}

// Add counts one active cache at lat/lon. Coordinates that are NaN, infinite
// or out of range are discarded and Add returns false.
func (g *Grid) Add(lat, lon float64) bool {
	if !Valid(lat, lon) {
		return false
	}

	key := Key(lat, lon)
	g.cells[key]++
	g.count++
	if v := g.cells[key]; v > g.max {
		g.max = v
	}
	return true
}

// Count is the total number of caches added. It always equals the sum of
// all cell counts.
func (g *Grid) Count() int { return g.count }

// Max is the largest cell count, or 0 for an empty grid.
func (g *Grid) Max() int { return g.max }

// Len is the number of populated cells.
func (g *Grid) Len() int { return len(g.cells) }

// Get returns the count for key and whether the cell exists.
func (g *Grid) Get(key string) (int, bool) {
	v, ok := g.cells[key]
	return v, ok
}

// Density normalizes count against the largest cell. An empty grid yields 0
// instead of dividing by zero.
func (g *Grid) Density(count int) float64 {
	if g.max == 0 {
		return 0
	}
	return float64(count) / float64(g.max)
}

// Cells returns every populated cell ordered by key.
func (g *Grid) Cells() []Cell {
	keys := make([]string, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cells := make([]Cell, 0, len(keys))
	for _, k := range keys {
		lat, lon, _ := strings.Cut(k, "/")
		cells = append(cells, Cell{Key: k, Lat: lat, Lon: lon, Count: g.cells[k]})
	}
	return cells
}
