package osm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
	"github.com/ecotone-geo/landprep/internal/raster"
)

const wgs84 = 4326

// BBoxWGS84 expresses a raster extent as an Overpass bbox clause in
// south,west,north,east order. gdaltransform emits lon/lat pairs, so the
// output coordinates are swapped into the latitude-first order Overpass
// wants.
func BBoxWGS84(ctx context.Context, tc *gdal.Toolchain, md raster.Metadata) (string, error) {
	pts := []gdal.Point{
		{X: md.XMin, Y: md.YMin},
		{X: md.XMax, Y: md.YMax},
	}
	out, err := tc.TransformPoints(ctx, md.EPSG, wgs84, pts)
	if err != nil {
		return "", err
	}
	bbox := FormatBBox(out[0].Y, out[0].X, out[1].Y, out[1].X)
	zap.L().Info("raster extent in WGS84", zap.String("bbox", bbox), zap.Int("source_epsg", md.EPSG))
	return bbox, nil
}

// FormatBBox formats south,west,north,east for an Overpass bbox clause.
func FormatBBox(south, west, north, east float64) string {
	return fmt.Sprintf("%f,%f,%f,%f", south, west, north, east)
}
