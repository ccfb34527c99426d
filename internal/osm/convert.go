package osm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
)

// Merger turns the raw per-theme Overpass extracts of one year into a single
// merged GeoPackage under the vector directory, one layer per theme.
type Merger struct {
	tc        *gdal.Toolchain
	osmDir    string
	vectorDir string
	year      int
}

func NewMerger(tc *gdal.Toolchain, osmDir, vectorDir string, year int) *Merger {
	return &Merger{tc: tc, osmDir: osmDir, vectorDir: vectorDir, year: year}
}

// MergedName is the filename of the merged extract for a year, matching the
// default vector.osm_data template.
func MergedName(year int) string {
	return fmt.Sprintf("osm_merged_%d.gpkg", year)
}

// Run converts, filters and merges the extracts: raw JSON through
// osmtogeojson, geometry filtering, GeoPackage conversion in WGS84, layer by
// layer merge, a final geometry repair, then intermediate cleanup. Themes
// whose raw extract is missing are skipped.
func (m *Merger) Run(ctx context.Context) (string, error) {
	tempDir := filepath.Join(m.osmDir, "gpkg_temp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "osm: create %s", tempDir)
	}

	var gpkgs []gpkgLayer
	for _, theme := range Themes() {
		raw := filepath.Join(m.osmDir, rawName(theme, m.year))
		if _, err := os.Stat(raw); err != nil {
			zap.L().Warn("no raw extract for theme, skipping", zap.String("theme", theme), zap.Int("year", m.year))
			continue
		}

		geojson := filepath.Join(m.osmDir, fmt.Sprintf("%s_%d.geojson", theme, m.year))
		if err := m.tc.OsmToGeoJSON(ctx, raw, geojson); err != nil {
			zap.L().Error("osmtogeojson failed", zap.String("theme", theme), zap.Error(err))
			continue
		}

		filtered := filepath.Join(m.osmDir, fmt.Sprintf("%s_%d_filtered.geojson", theme, m.year))
		kept, err := FilterGeoJSON(theme, geojson, filtered)
		if err != nil {
			zap.L().Error("filter failed", zap.String("theme", theme), zap.Error(err))
			continue
		}
		if kept == 0 {
			zap.L().Warn("no features left after filtering", zap.String("theme", theme))
			continue
		}

		gpkg := filepath.Join(tempDir, fmt.Sprintf("%s_%d_filtered.gpkg", theme, m.year))
		if err := m.tc.ConvertToGPKG(ctx, filtered, gpkg, wgs84); err != nil {
			zap.L().Error("gpkg conversion failed", zap.String("theme", theme), zap.Error(err))
			continue
		}
		gpkgs = append(gpkgs, gpkgLayer{path: gpkg, layer: theme})
	}
	if len(gpkgs) == 0 {
		return "", eris.Errorf("osm: nothing to merge for %d", m.year)
	}

	merged := filepath.Join(tempDir, MergedName(m.year))
	if err := m.tc.InitGPKGLayer(ctx, gpkgs[0].path, merged, gpkgs[0].layer, wgs84); err != nil {
		return "", err
	}
	for _, g := range gpkgs[1:] {
		if err := m.tc.AppendGPKGLayer(ctx, g.path, merged, g.layer, wgs84); err != nil {
			zap.L().Error("could not append layer", zap.String("layer", g.layer), zap.Error(err))
		}
	}

	fixed := filepath.Join(tempDir, fmt.Sprintf("osm_merged_%d_fixed.gpkg", m.year))
	if err := m.tc.MakeValid(ctx, merged, fixed); err != nil {
		return "", err
	}

	if err := os.MkdirAll(m.vectorDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "osm: create %s", m.vectorDir)
	}
	final := filepath.Join(m.vectorDir, MergedName(m.year))
	if err := os.Rename(fixed, final); err != nil {
		return "", eris.Wrapf(err, "osm: move merged gpkg to %s", final)
	}

	m.cleanup(tempDir)
	zap.L().Info("merged osm extract", zap.String("path", final), zap.Int("layers", len(gpkgs)))
	return final, nil
}

type gpkgLayer struct {
	path  string
	layer string
}

// cleanup removes the intermediate GeoJSONs and per-theme GeoPackages.
// Failures only get logged; the merged output is already in place.
func (m *Merger) cleanup(tempDir string) {
	entries, err := os.ReadDir(m.osmDir)
	if err == nil {
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".geojson") {
				if err := os.Remove(filepath.Join(m.osmDir, e.Name())); err != nil {
					zap.L().Warn("could not remove intermediate", zap.String("file", e.Name()), zap.Error(err))
				}
			}
		}
	}
	if err := os.RemoveAll(tempDir); err != nil {
		zap.L().Warn("could not remove temp dir", zap.String("dir", tempDir), zap.Error(err))
	}
}
