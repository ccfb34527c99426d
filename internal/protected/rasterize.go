package protected

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
	"github.com/ecotone-geo/landprep/internal/raster"
)

// PANoData marks cells outside any protected area after rasterization. Zero
// is reserved for "no protection" so the later raster sum keeps those cells.
const PANoData = -2147483647

// Rasterizer slices the merged protected-area GeoPackage by establishment
// year and burns each slice onto the LULC grid.
type Rasterizer struct {
	tc     *gdal.Toolchain
	merged string
	grid   raster.Metadata
	outDir string
}

func NewRasterizer(tc *gdal.Toolchain, merged string, grid raster.Metadata, outDir string) *Rasterizer {
	return &Rasterizer{tc: tc, merged: merged, grid: grid, outDir: outDir}
}

// establishedWhere filters to areas established on or before the year stamp.
func establishedWhere(year int) string {
	return fmt.Sprintf("year <= '%d-01-01'", year)
}

// SlicePath is the per-year GeoPackage slice filename.
func (r *Rasterizer) SlicePath(year int) string {
	return filepath.Join(r.outDir, fmt.Sprintf("pas_%d.gpkg", year))
}

// RasterPath is the per-year rasterized slice filename.
func (r *Rasterizer) RasterPath(year int) string {
	return filepath.Join(r.outDir, fmt.Sprintf("pas_%d.tif", year))
}

// RasterizeYear writes the establishment slice for one year and burns it to
// a GeoTIFF aligned with the LULC grid. The intermediate GeoPackage is
// removed unless keepSlices is set.
func (r *Rasterizer) RasterizeYear(ctx context.Context, year int, keepSlices bool) (string, error) {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "protected: create %s", r.outDir)
	}

	slice := r.SlicePath(year)
	if err := r.tc.FilterWhere(ctx, r.merged, slice, establishedWhere(year)); err != nil {
		return "", err
	}
	zap.L().Info("filtered protected areas by establishment year",
		zap.Int("year", year), zap.String("slice", slice))

	out := r.RasterPath(year)
	args := gdal.RasterizeArgs{
		Src:        slice,
		Dst:        out,
		Burn:       100,
		Init:       0,
		NoData:     PANoData,
		Res:        r.grid.CellSize,
		XMin:       r.grid.XMin,
		YMin:       r.grid.YMin,
		XMax:       r.grid.XMax,
		YMax:       r.grid.YMax,
		OutputType: "Int32",
	}
	if err := r.tc.Rasterize(ctx, args); err != nil {
		return "", err
	}

	if !keepSlices {
		if err := os.Remove(slice); err != nil {
			zap.L().Warn("could not remove intermediate slice", zap.String("path", slice), zap.Error(err))
		}
	}
	zap.L().Info("rasterized protected areas", zap.Int("year", year), zap.String("raster", out))
	return out, nil
}

// RasterizeAll runs RasterizeYear for every LULC year stamp.
func (r *Rasterizer) RasterizeAll(ctx context.Context, years []int, keepSlices bool) ([]string, error) {
	var rasters []string
	for _, year := range years {
		out, err := r.RasterizeYear(ctx, year, keepSlices)
		if err != nil {
			return rasters, err
		}
		rasters = append(rasters, out)
	}
	return rasters, nil
}
