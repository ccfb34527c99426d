package osm

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// FilterGeoJSON rewrites an osmtogeojson output file keeping only the
// geometries usable for rasterization: lines for the infrastructure themes
// (at ground level), polygons for waterbodies. Property keys are lowercased
// so later attribute queries see a uniform schema. Returns the kept feature
// count.
func FilterGeoJSON(theme, src, dst string) (int, error) {
	raw, err := os.ReadFile(src)
	if err != nil {
		return 0, eris.Wrapf(err, "osm: read %s", src)
	}

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(raw, &fc); err != nil {
		return 0, eris.Wrapf(err, "osm: decode %s", src)
	}

	kept := make([]*geojson.Feature, 0, len(fc.Features))
	skipped := 0
	for _, rawFeat := range fc.Features {
		var feat geojson.Feature
		if err := json.Unmarshal(rawFeat, &feat); err != nil {
			skipped++
			continue
		}
		if !keepFeature(theme, &feat) {
			continue
		}
		feat.Properties = lowercaseKeys(feat.Properties)
		kept = append(kept, &feat)
	}
	if skipped > 0 {
		zap.L().Debug("skipped undecodable features", zap.String("theme", theme), zap.Int("count", skipped))
	}
	zap.L().Info("filtered geojson",
		zap.String("theme", theme),
		zap.Int("total", len(fc.Features)),
		zap.Int("kept", len(kept)),
	)

	out, err := json.Marshal(struct {
		Type     string             `json:"type"`
		Features []*geojson.Feature `json:"features"`
	}{Type: "FeatureCollection", Features: kept})
	if err != nil {
		return 0, eris.Wrap(err, "osm: encode filtered geojson")
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return 0, eris.Wrapf(err, "osm: write %s", dst)
	}
	return len(kept), nil
}

// keepFeature applies the per-theme geometry and level rules.
func keepFeature(theme string, feat *geojson.Feature) bool {
	switch theme {
	case "roads", "railways", "waterways":
		switch feat.Geometry.(type) {
		case *geom.LineString, *geom.MultiLineString:
			return groundLevel(feat.Properties)
		}
		return false
	case "waterbodies":
		switch feat.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
			return true
		}
		return false
	default:
		return true
	}
}

// groundLevel reports whether a feature sits at ground level. Bridges and
// tunnels carry a non-zero level tag and do not interrupt the surface.
func groundLevel(props map[string]any) bool {
	level, ok := lookupKey(props, "level")
	if !ok || level == nil {
		return true
	}
	switch v := level.(type) {
	case float64:
		return v == 0
	case string:
		return strings.TrimSpace(v) == "0"
	default:
		return false
	}
}

func lookupKey(props map[string]any, key string) (any, bool) {
	for k, v := range props {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func lowercaseKeys(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[strings.ToLower(k)] = v
	}
	return out
}
