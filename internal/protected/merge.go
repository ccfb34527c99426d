package protected

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
)

const (
	wgs84       = 4326
	mergedLayer = "protected_areas"
)

// MergeGeoJSONs merges the per-country GeoJSON files into a single
// GeoPackage layer in WGS84. The first file seeds the layer, the rest are
// appended; a country that fails to append is logged and left out.
func MergeGeoJSONs(ctx context.Context, tc *gdal.Toolchain, files []string, outGpkg string) error {
	if len(files) == 0 {
		return eris.New("protected: nothing to merge")
	}

	if err := tc.InitGPKGLayer(ctx, files[0], outGpkg, mergedLayer, wgs84); err != nil {
		return err
	}
	for _, f := range files[1:] {
		if err := tc.AppendGPKGLayer(ctx, f, outGpkg, mergedLayer, wgs84); err != nil {
			zap.L().Error("could not append country file", zap.String("file", f), zap.Error(err))
		}
	}

	zap.L().Info("merged protected areas", zap.String("path", outGpkg), zap.Int("countries", len(files)))
	return nil
}
