package gdal

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// epsg formats an EPSG code the way the OGR tools expect it.
func epsg(code int) string {
	return fmt.Sprintf("EPSG:%d", code)
}

// Reproject rewrites a vector dataset into the target CRS.
func (t *Toolchain) Reproject(ctx context.Context, src, dst string, targetEPSG int) error {
	args := []string{"-f", "GPKG", "-t_srs", epsg(targetEPSG), dst, src}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: reproject %s", src)
	}
	return nil
}

// ConvertToGPKG converts a vector file (typically GeoJSON) to GeoPackage,
// reprojecting into the target CRS.
func (t *Toolchain) ConvertToGPKG(ctx context.Context, src, dst string, targetEPSG int) error {
	args := []string{"-f", "GPKG", "-t_srs", epsg(targetEPSG), dst, src}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: convert %s to gpkg", src)
	}
	return nil
}

// InitGPKGLayer seeds a merged GeoPackage with its first layer.
func (t *Toolchain) InitGPKGLayer(ctx context.Context, src, dst, layer string, srsEPSG int) error {
	args := []string{
		"-f", "GPKG", dst, src,
		"-s_srs", epsg(srsEPSG),
		"-t_srs", epsg(srsEPSG),
		"-nln", layer,
	}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: init gpkg layer %s", layer)
	}
	return nil
}

// AppendGPKGLayer appends a source dataset into an existing GeoPackage as a
// named layer.
func (t *Toolchain) AppendGPKGLayer(ctx context.Context, src, dst, layer string, srsEPSG int) error {
	args := []string{
		"-f", "GPKG", dst,
		"-s_srs", epsg(srsEPSG),
		"-t_srs", epsg(srsEPSG),
		"-nln", layer,
		"-update", "-append",
		src,
	}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: append gpkg layer %s", layer)
	}
	return nil
}

// BufferLayer runs an SQLite-dialect buffer query against one layer of the
// source dataset, writing the buffered polygons to dst. The SQL is built by
// the vector package; this method only delegates it.
func (t *Toolchain) BufferLayer(ctx context.Context, src, dst, layer, sql string) error {
	args := []string{
		"-f", "GPKG", dst, src,
		"-dialect", "SQLite",
		"-sql", sql,
		"-nln", layer,
		"-nlt", "POLYGON",
	}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: buffer layer %s", layer)
	}
	return nil
}

// ExportGeoJSON extracts one layer of a vector dataset as GeoJSON.
func (t *Toolchain) ExportGeoJSON(ctx context.Context, src, layer, dst string) error {
	args := []string{"-f", "GeoJSON", dst, src, layer}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: export layer %s", layer)
	}
	return nil
}

// MakeValid rewrites a vector dataset with invalid geometries repaired.
func (t *Toolchain) MakeValid(ctx context.Context, src, dst string) error {
	args := []string{"-f", "GPKG", "-makevalid", dst, src}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: makevalid %s", src)
	}
	return nil
}

// FilterWhere copies a vector dataset applying an attribute filter.
func (t *Toolchain) FilterWhere(ctx context.Context, src, dst, where string) error {
	args := []string{"-f", "GPKG", dst, src, "-where", where}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.Ogr2Ogr, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: filter %s", src)
	}
	return nil
}
