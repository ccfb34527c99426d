package vector

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Road features without a usable width attribute fall back to half the
// conventional corridor width of their highway class: 30m for motorways and
// trunks, 20m for primary and secondary roads, 10m for everything else.
const halfWidthCase = `
            CASE
                WHEN "width" IS NULL OR CAST("width" AS REAL) IS NULL THEN
                    CASE
                        WHEN highway IN ('motorway', 'motorway_link', 'trunk', 'trunk_link') THEN 30/2
                        WHEN highway IN ('primary', 'primary_link', 'secondary', 'secondary_link') THEN 20/2
                        ELSE 10/2
                    END
                ELSE CAST("width" AS REAL)/2
            END`

// HalfWidthCase returns the SQL expression that derives a buffer half-width
// from a feature's width attribute with highway-class fallbacks.
func HalfWidthCase() string {
	return halfWidthCase
}

// BufferSQL builds the SQLite-dialect buffer query for one layer. When the
// source CRS is not cartesian the geometry takes a round trip through a
// temporary metric CRS so the buffer distance stays in meters.
func BufferSQL(layer string, srcEPSG int, cartesian bool, metricEPSG int) string {
	var geomExpr string
	if cartesian {
		geomExpr = fmt.Sprintf(`ST_Buffer(geom, %s) AS geometry, *`, halfWidthCase)
	} else {
		geomExpr = fmt.Sprintf(`ST_Transform(
                    ST_Buffer(
                        ST_Transform(geom, %d),
                        %s
                    ),
                    %d
                ) AS geometry,
                *`, metricEPSG, halfWidthCase, srcEPSG)
	}
	return fmt.Sprintf("SELECT %s FROM %s", geomExpr, layer)
}

// BufferLayer buffers the named layer into outPath. An existing output is
// replaced. Failures are logged and returned; callers looping over layers
// treat them as per-layer skips.
func (p *Preprocessor) BufferLayer(ctx context.Context, layer, outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		if err := os.Remove(outPath); err != nil {
			zap.L().Warn("could not remove stale buffer output",
				zap.String("path", outPath), zap.Error(err))
		}
	}

	sql := BufferSQL(layer, p.crs, p.cartesian, p.metricEPSG)
	zap.L().Info("buffering layer", zap.String("layer", layer), zap.Bool("cartesian", p.cartesian))

	if err := p.tc.BufferLayer(ctx, p.source, outPath, layer, sql); err != nil {
		zap.L().Error("buffer failed", zap.String("layer", layer), zap.Error(err))
		return err
	}

	zap.L().Info("buffered layer", zap.String("layer", layer), zap.String("out", outPath))
	return nil
}
