package protected

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/raster"
)

// SumWithLULC folds the per-year protected-area raster into its LULC raster.
// LULC nodata cells are zeroed first so burned PA cells survive the sum, and
// the zeroed intermediate is removed afterwards. Returns the combined raster
// path.
func SumWithLULC(lulcPath, paPath, outDir string, year int) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "protected: create %s", outDir)
	}

	zeroed := filepath.Join(outDir, fmt.Sprintf("lulc_%d_zeroed.tif", year))
	if err := raster.ZeroNoData(lulcPath, zeroed); err != nil {
		return "", err
	}

	out := filepath.Join(outDir, fmt.Sprintf("lulc_pa_%d.tif", year))
	if err := raster.Sum(zeroed, paPath, out); err != nil {
		return "", err
	}

	if err := os.Remove(zeroed); err != nil {
		zap.L().Warn("could not remove zeroed intermediate", zap.String("path", zeroed), zap.Error(err))
	}
	zap.L().Info("combined lulc with protected areas", zap.Int("year", year), zap.String("raster", out))
	return out, nil
}
