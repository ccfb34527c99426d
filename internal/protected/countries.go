// Package protected fetches protected-area polygons for the countries the
// land-cover grid touches, merges them into one GeoPackage and rasterizes
// per-year establishment slices onto the LULC grid.
package protected

import (
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Extent is a WGS84 bounding box in lon/lat.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
}

func (e Extent) intersects(b shp.Box) bool {
	return e.MinX <= b.MaxX && e.MaxX >= b.MinX && e.MinY <= b.MaxY && e.MaxY >= b.MinY
}

// iso3Fields are the attribute names country boundary products use for the
// three-letter country code, in lookup order.
var iso3Fields = []string{"iso3", "iso_a3", "adm0_a3", "gid_0", "iso3cd"}

// CountryCodes returns the sorted unique ISO3 codes of boundary polygons
// whose bounding box intersects the extent. The shapefile is expected in
// WGS84, as the common country boundary products are.
func CountryCodes(shpPath string, extent Extent) ([]string, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "protected: open country shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	isoIdx := -1
	for i, f := range fields {
		name := strings.ToLower(strings.TrimRight(f.String(), "\x00"))
		for _, candidate := range iso3Fields {
			if name == candidate {
				isoIdx = i
				break
			}
		}
		if isoIdx >= 0 {
			break
		}
	}
	if isoIdx < 0 {
		return nil, eris.Errorf("protected: no ISO3 attribute in %s", shpPath)
	}

	seen := make(map[string]struct{})
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil || !extent.intersects(shape.BBox()) {
			continue
		}
		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(isoIdx), "\x00"))
		if len(code) != 3 {
			continue
		}
		seen[strings.ToUpper(code)] = struct{}{}
	}

	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	zap.L().Info("countries intersecting raster extent", zap.Strings("iso3", codes))
	if len(codes) == 0 {
		return nil, eris.New("protected: no countries intersect the raster extent")
	}
	return codes, nil
}
