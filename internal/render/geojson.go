// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"os"
	"strconv"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"

	"github.com/staranto/ocheatmap/internal/grid"
)

const GeoJSONFile = "data.geojson"

// CellFeatures converts every cell into a point feature at the cell's key
// coordinates, carrying its count and density.
func CellFeatures(g *grid.Grid) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, c := range g.Cells() {
		lat, err := strconv.ParseFloat(c.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", c.Key, err)
		}
		lon, err := strconv.ParseFloat(c.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", c.Key, err)
		}

		// GeoJSON positions are lon, lat.
		f := geojson.NewPointFeature([]float64{lon, lat})
		f.SetProperty("cell", c.Key)
		f.SetProperty("count", c.Count)
		f.SetProperty("density", g.Density(c.Count))
		fc.AddFeature(f)
	}
	return fc, nil
}

// WriteGeoJSON writes the grid as a GeoJSON FeatureCollection to path.
func WriteGeoJSON(path string, g *grid.Grid) error {
	log.Infof("creating file: %s", path)

	fc, err := CellFeatures(g)
	if err != nil {
		return err
	}
	out, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
