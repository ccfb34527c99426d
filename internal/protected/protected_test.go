package protected

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotone-geo/landprep/internal/config"
)

func writeCountryShapefile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "countries.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("ISO3", 10)}))

	countries := []struct {
		iso3 string
		box  shp.Box
	}{
		{"GBR", shp.Box{MinX: -8, MinY: 49, MaxX: 2, MaxY: 61}},
		{"FRA", shp.Box{MinX: -5, MinY: 42, MaxX: 8, MaxY: 51}},
		{"JPN", shp.Box{MinX: 129, MinY: 31, MaxX: 146, MaxY: 45}},
	}
	for i, c := range countries {
		poly := &shp.Polygon{
			Box:       c.box,
			NumParts:  1,
			NumPoints: 5,
			Parts:     []int32{0},
			Points: []shp.Point{
				{X: c.box.MinX, Y: c.box.MinY},
				{X: c.box.MinX, Y: c.box.MaxY},
				{X: c.box.MaxX, Y: c.box.MaxY},
				{X: c.box.MaxX, Y: c.box.MinY},
				{X: c.box.MinX, Y: c.box.MinY},
			},
		}
		w.Write(poly)
		w.WriteAttribute(i, 0, c.iso3) //nolint:errcheck
	}
	w.Close() //nolint:errcheck
	return path
}

func TestCountryCodes(t *testing.T) {
	path := writeCountryShapefile(t, t.TempDir())

	// extent over southern England touches GBR and FRA but not JPN
	codes, err := CountryCodes(path, Extent{MinX: -1.5, MinY: 50.0, MaxX: 1.0, MaxY: 52.0})
	require.NoError(t, err)
	assert.Equal(t, []string{"FRA", "GBR"}, codes)
}

func TestCountryCodes_NoIntersection(t *testing.T) {
	path := writeCountryShapefile(t, t.TempDir())

	_, err := CountryCodes(path, Extent{MinX: -60, MinY: -20, MaxX: -50, MaxY: -10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no countries intersect")
}

func TestEstablishedWhere(t *testing.T) {
	assert.Equal(t, "year <= '2018-01-01'", establishedWhere(2018))
}

func TestFetchCountry_Paginated(t *testing.T) {
	feature := func(id int) json.RawMessage {
		return json.RawMessage(fmt.Sprintf(
			`{"type":"Feature","properties":{"id":%d},"geometry":null}`, id))
	}
	pages := map[string][]json.RawMessage{
		"1": {feature(1), feature(2)},
		"2": {feature(3)},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GBR", r.URL.Query().Get("country"))
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		var payload searchResponse
		for _, f := range pages[r.URL.Query().Get("page")] {
			payload.ProtectedAreas = append(payload.ProtectedAreas, struct {
				GeoJSON json.RawMessage `json:"geojson"`
			}{GeoJSON: f})
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	defer srv.Close()

	c := NewClient(config.WDPAConfig{APIURL: srv.URL, Token: "secret", PerPage: 2})
	dir := t.TempDir()

	out, err := c.FetchCountry(context.Background(), "GBR", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "GBR.geojson"), out)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 3)
}

func TestFetchCountry_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(config.WDPAConfig{APIURL: srv.URL, Token: "wrong"})
	_, err := c.FetchCountry(context.Background(), "GBR", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestStagedGeoJSONs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GBR.geojson"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := StagedGeoJSONs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "GBR.geojson")}, files)
}

func TestStagedGeoJSONs_Empty(t *testing.T) {
	_, err := StagedGeoJSONs(t.TempDir())
	require.Error(t, err)
}
