package main

import (
	"context"
	"path/filepath"

	"github.com/ecotone-geo/landprep/internal/config"
	"github.com/ecotone-geo/landprep/internal/gdal"
	"github.com/ecotone-geo/landprep/internal/raster"
)

func toolchain() *gdal.Toolchain {
	return gdal.NewToolchain(gdal.ExecRunner{}, cfg.Tools)
}

// lulcPath resolves the LULC raster for a year.
func lulcPath(year int) string {
	return filepath.Join(cfg.Paths.LULCDir, config.ExpandYear(cfg.LULC.Template, year))
}

// impedancePath resolves the base impedance raster for a year.
func impedancePath(year int) string {
	return filepath.Join(cfg.Paths.ImpedanceDir, config.ExpandYear(cfg.LULC.ImpedanceTIF, year))
}

// lulcMetadata reads the grid metadata of the year's LULC raster.
func lulcMetadata(ctx context.Context, tc *gdal.Toolchain, year int) (raster.Metadata, error) {
	return raster.ReadMetadata(ctx, tc, lulcPath(year))
}

// firstYear returns the representative year of a run. Multi-year support in
// the fetch stages is deferred; the first configured year drives them.
func firstYear() int {
	return cfg.Years[0]
}
