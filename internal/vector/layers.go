// Package vector prepares vector datasets for rasterization: layer discovery,
// reprojection, geometry repair and width-derived buffering of linear
// features. Geometry work is delegated to OGR; this package only coordinates.
package vector

import (
	"database/sql"
	"fmt"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // GeoPackages are SQLite databases

	"go.uber.org/zap"
)

// ListLayers returns the feature layer names of a GeoPackage, read from its
// gpkg_contents registry.
func ListLayers(path string) ([]string, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open gpkg %s", path)
	}
	defer db.Close() //nolint:errcheck

	rows, err := db.Query(`SELECT table_name FROM gpkg_contents WHERE data_type = 'features' ORDER BY table_name`)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: query gpkg_contents of %s", path)
	}
	defer rows.Close() //nolint:errcheck

	var layers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "vector: scan layer name")
		}
		layers = append(layers, name)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "vector: iterate layer names")
	}

	zap.L().Info("gpkg layers", zap.String("path", path), zap.Strings("layers", layers))
	return layers, nil
}

// LayerSRS returns the EPSG srs_id recorded for a GeoPackage layer.
func LayerSRS(path, layer string) (int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, eris.Wrapf(err, "vector: open gpkg %s", path)
	}
	defer db.Close() //nolint:errcheck

	var srs int
	err = db.QueryRow(`SELECT srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, layer).Scan(&srs)
	if err != nil {
		return 0, eris.Wrapf(err, "vector: srs of layer %s in %s", layer, path)
	}
	return srs, nil
}

// CountFeatures returns the feature count of a layer. The layer name must
// come from ListLayers; it is interpolated as a quoted identifier.
func CountFeatures(path, layer string) (int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, eris.Wrapf(err, "vector: open gpkg %s", path)
	}
	defer db.Close() //nolint:errcheck

	var n int
	q := fmt.Sprintf(`SELECT count(*) FROM %q`, layer)
	if err := db.QueryRow(q).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "vector: count features of %s", layer)
	}
	return n, nil
}
