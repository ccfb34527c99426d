package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotone-geo/landprep/internal/config"
	"github.com/ecotone-geo/landprep/internal/resilience"
)

func TestQuery_Roads(t *testing.T) {
	q, err := Query("roads", 2018, "51.1,-1.2,51.9,-0.3", 1073741824, 9000)
	require.NoError(t, err)

	assert.Contains(t, q, `[date:"2018-12-31T23:59:59Z"]`)
	assert.Contains(t, q, "[bbox:51.1,-1.2,51.9,-0.3]")
	assert.Contains(t, q, "[maxsize:1073741824]")
	assert.Contains(t, q, "[timeout:9000]")
	assert.Contains(t, q, `way["highway"~"(motorway|trunk|primary|secondary|tertiary)"]`)
}

func TestQuery_Waterbodies(t *testing.T) {
	q, err := Query("waterbodies", 2020, "0,0,1,1", 1073741824, 9000)
	require.NoError(t, err)
	assert.Contains(t, q, `nwr["natural"="water"]`)
	assert.Contains(t, q, `nwr["landuse"="reservoir"]`)
}

func TestQuery_UnknownTheme(t *testing.T) {
	_, err := Query("buildings", 2018, "0,0,1,1", 1073741824, 9000)
	require.Error(t, err)
}

func TestFormatBBox(t *testing.T) {
	assert.Equal(t, "51.100000,-1.200000,51.900000,-0.300000", FormatBBox(51.1, -1.2, 51.9, -0.3))
}

const sampleGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"Highway": "motorway", "level": null},
			"geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}
		},
		{
			"type": "Feature",
			"properties": {"highway": "primary", "level": "1"},
			"geometry": {"type": "LineString", "coordinates": [[0,0],[2,2]]}
		},
		{
			"type": "Feature",
			"properties": {"railway": "rail", "level": 0},
			"geometry": {"type": "MultiLineString", "coordinates": [[[0,0],[1,1]]]}
		},
		{
			"type": "Feature",
			"properties": {"natural": "water"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}
		},
		{
			"type": "Feature",
			"properties": {},
			"geometry": {"type": "Point", "coordinates": [0,0]}
		}
	]
}`

func TestFilterGeoJSON_Lines(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "roads.geojson")
	dst := filepath.Join(dir, "roads_filtered.geojson")
	require.NoError(t, os.WriteFile(src, []byte(sampleGeoJSON), 0o644))

	// null level and level 0 survive, level "1" and non-lines do not
	kept, err := FilterGeoJSON("roads", src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, kept)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	// property keys are lowercased in the output
	assert.Contains(t, string(out), `"highway"`)
	assert.NotContains(t, string(out), `"Highway"`)
}

func TestFilterGeoJSON_Waterbodies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "waterbodies.geojson")
	dst := filepath.Join(dir, "waterbodies_filtered.geojson")
	require.NoError(t, os.WriteFile(src, []byte(sampleGeoJSON), 0o644))

	kept, err := FilterGeoJSON("waterbodies", src, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, kept)
}

func TestGroundLevel(t *testing.T) {
	assert.True(t, groundLevel(map[string]any{}))
	assert.True(t, groundLevel(map[string]any{"level": nil}))
	assert.True(t, groundLevel(map[string]any{"level": float64(0)}))
	assert.True(t, groundLevel(map[string]any{"level": "0"}))
	assert.False(t, groundLevel(map[string]any{"level": float64(1)}))
	assert.False(t, groundLevel(map[string]any{"level": "-1"}))
}

func TestClientFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("data")
		w.Write([]byte(`{"elements": [{"type": "way", "id": 1}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(config.OSMConfig{OverpassURL: srv.URL, RatePerSec: 100, TimeoutSecs: 5})
	dir := t.TempDir()

	out, err := c.Fetch(context.Background(), "roads", 2018, "QUERY", dir)
	require.NoError(t, err)
	assert.Equal(t, "QUERY", gotQuery)
	assert.Equal(t, filepath.Join(dir, "roads_2018.json"), out)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"elements"`)
}

func TestClientFetch_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "malformed query", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(config.OSMConfig{OverpassURL: srv.URL, RatePerSec: 100, TimeoutSecs: 5})
	_, err := c.Fetch(context.Background(), "roads", 2018, "QUERY", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestClientFetch_RetriesRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"elements": []}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(config.OSMConfig{OverpassURL: srv.URL, RatePerSec: 100, TimeoutSecs: 5})
	c.retry = resilience.Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1}

	_, err := c.Fetch(context.Background(), "roads", 2018, "QUERY", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMergedName(t *testing.T) {
	assert.Equal(t, "osm_merged_2018.gpkg", MergedName(2018))
}
