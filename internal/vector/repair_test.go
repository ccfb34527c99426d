package vector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geos "github.com/twpayne/go-geos"
)

// Bowtie polygon: the ring crosses itself at (1,1).
const bowtie = `{"type":"Polygon","coordinates":[[[0,0],[2,2],[2,0],[0,2],[0,0]]]}`

const square = `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}`

func writeRepairInput(t *testing.T, geometries ...string) string {
	t.Helper()
	features := make([]map[string]json.RawMessage, len(geometries))
	for i, g := range geometries {
		features[i] = map[string]json.RawMessage{
			"type":       json.RawMessage(`"Feature"`),
			"geometry":   json.RawMessage(g),
			"properties": json.RawMessage(`{"name":"f"}`),
		}
	}
	doc, err := json.Marshal(map[string]any{"type": "FeatureCollection", "features": features})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "layer_repair.geojson")
	require.NoError(t, os.WriteFile(path, doc, 0o644))
	return path
}

func TestRepairGeoJSON_FixesInvalidPolygon(t *testing.T) {
	path := writeRepairInput(t, square, bowtie)

	rep, err := repairGeoJSON(path, "waterbodies")
	require.NoError(t, err)
	assert.Equal(t, "waterbodies", rep.Layer)
	assert.Equal(t, 1, rep.Needed)
	assert.Equal(t, 1, rep.Fixed)
	assert.Equal(t, 0, rep.Unfixable)
	assert.Equal(t, rep.Needed, rep.Fixed+rep.Unfixable)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc struct {
		Features []repairFeature `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	require.Len(t, fc.Features, 2)
	for _, f := range fc.Features {
		g, err := geos.NewGeomFromGeoJSON(string(f.Geometry))
		require.NoError(t, err)
		assert.True(t, g.IsValid())
	}
}

func TestRepairGeoJSON_ValidInputUntouched(t *testing.T) {
	path := writeRepairInput(t, square, square)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rep, err := repairGeoJSON(path, "roads")
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Needed)
	assert.Equal(t, 0, rep.Fixed)
	assert.Equal(t, 0, rep.Unfixable)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRepairGeoJSON_UndecodableGeometrySkipped(t *testing.T) {
	path := writeRepairInput(t, `{"type":"Polygon"}`, bowtie)

	rep, err := repairGeoJSON(path, "roads")
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Needed)
	assert.Equal(t, 1, rep.Fixed)
}
