package gdal

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/ecotone-geo/landprep/internal/config"
)

// Toolchain binds the configured tool binaries to a Runner.
type Toolchain struct {
	r    Runner
	bins config.ToolsConfig
}

// NewToolchain creates a Toolchain. Empty binary paths fall back to the
// conventional command names resolved through PATH.
func NewToolchain(r Runner, bins config.ToolsConfig) *Toolchain {
	if bins.Ogr2Ogr == "" {
		bins.Ogr2Ogr = "ogr2ogr"
	}
	if bins.GdalRasterize == "" {
		bins.GdalRasterize = "gdal_rasterize"
	}
	if bins.GdalTranslate == "" {
		bins.GdalTranslate = "gdal_translate"
	}
	if bins.GdalProximity == "" {
		bins.GdalProximity = "gdal_proximity.py"
	}
	if bins.GdalTransform == "" {
		bins.GdalTransform = "gdaltransform"
	}
	if bins.GdalInfo == "" {
		bins.GdalInfo = "gdalinfo"
	}
	if bins.OsmToGeoJSON == "" {
		bins.OsmToGeoJSON = "osmtogeojson"
	}
	return &Toolchain{r: r, bins: bins}
}

// Info runs gdalinfo -json on a raster and returns the raw JSON report.
func (t *Toolchain) Info(ctx context.Context, raster string) ([]byte, error) {
	res, err := t.r.Run(ctx, Command{Bin: t.bins.GdalInfo, Args: []string{"-json", raster}})
	if err != nil {
		return nil, eris.Wrapf(err, "gdal: info %s", raster)
	}
	return res.Stdout, nil
}

// OsmToGeoJSON converts a raw Overpass JSON file to GeoJSON, writing the
// converted document to dst.
func (t *Toolchain) OsmToGeoJSON(ctx context.Context, src, dst string) error {
	res, err := t.r.Run(ctx, Command{Bin: t.bins.OsmToGeoJSON, Args: []string{src}})
	if err != nil {
		return eris.Wrapf(err, "gdal: osmtogeojson %s", src)
	}
	if err := os.WriteFile(dst, res.Stdout, 0o644); err != nil {
		return eris.Wrapf(err, "gdal: write geojson %s", dst)
	}
	return nil
}
