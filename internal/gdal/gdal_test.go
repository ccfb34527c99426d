package gdal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotone-geo/landprep/internal/config"
)

// fakeRunner records invocations and plays back canned results.
type fakeRunner struct {
	cmds      []Command
	stdinSeen []string
	stdout    []byte
	err       error
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (Result, error) {
	// Drain stdin so recorded commands can assert on piped input.
	if cmd.Stdin != nil {
		b, _ := io.ReadAll(cmd.Stdin)
		cmd.Stdin = nil
		f.cmds = append(f.cmds, cmd)
		f.stdinSeen = append(f.stdinSeen, string(b))
	} else {
		f.cmds = append(f.cmds, cmd)
		f.stdinSeen = append(f.stdinSeen, "")
	}
	return Result{Stdout: f.stdout}, f.err
}

func TestNewToolchain_Defaults(t *testing.T) {
	tc := NewToolchain(&fakeRunner{}, config.ToolsConfig{})
	assert.Equal(t, "ogr2ogr", tc.bins.Ogr2Ogr)
	assert.Equal(t, "gdal_rasterize", tc.bins.GdalRasterize)
	assert.Equal(t, "gdal_proximity.py", tc.bins.GdalProximity)
	assert.Equal(t, "osmtogeojson", tc.bins.OsmToGeoJSON)
}

func TestRasterizeArgs_BuildArgs(t *testing.T) {
	a := RasterizeArgs{
		Src: "pas_2018.gpkg", Dst: "pas_2018.tif",
		Burn: 100, Init: 0, NoData: -2147483647,
		Res:  25,
		XMin: 100, YMin: 200, XMax: 300, YMax: 400,
		OutputType: "Int32",
	}
	args := a.BuildArgs()
	assert.Equal(t, []string{
		"-burn", "100",
		"-init", "0",
		"-tr", "25", "25",
		"-a_nodata", "-2147483647",
		"-te", "100", "200", "300", "400",
		"-ot", "Int32",
		"-of", "GTiff",
		"-co", "COMPRESS=LZW",
		"pas_2018.gpkg",
		"pas_2018.tif",
	}, args)
}

func TestTranslateArgs_BuildArgs(t *testing.T) {
	a := TranslateArgs{Src: "in.tif", Dst: "out.tif", NoData: "9999", OutputType: "Float32"}
	assert.Equal(t, []string{"in.tif", "out.tif", "-a_nodata", "9999", "-ot", "Float32", "-co", "COMPRESS=LZW"}, a.BuildArgs())

	bare := TranslateArgs{Src: "in.tif", Dst: "out.tif"}
	assert.Equal(t, []string{"in.tif", "out.tif", "-co", "COMPRESS=LZW"}, bare.BuildArgs())
}

func TestBufferLayer_CommandShape(t *testing.T) {
	fr := &fakeRunner{}
	tc := NewToolchain(fr, config.ToolsConfig{})

	err := tc.BufferLayer(context.Background(), "roads.gpkg", "roads_buffered.gpkg", "roads", "SELECT 1")
	require.NoError(t, err)
	require.Len(t, fr.cmds, 1)

	cmd := fr.cmds[0]
	assert.Equal(t, "ogr2ogr", cmd.Bin)
	assert.Contains(t, cmd.Args, "-dialect")
	assert.Contains(t, cmd.Args, "SQLite")
	assert.Contains(t, cmd.Args, "-nlt")
	assert.Contains(t, cmd.Args, "POLYGON")
	assert.Contains(t, cmd.Args, "-nln")
}

func TestAppendGPKGLayer_CommandShape(t *testing.T) {
	fr := &fakeRunner{}
	tc := NewToolchain(fr, config.ToolsConfig{})

	err := tc.AppendGPKGLayer(context.Background(), "roads_2018.gpkg", "osm_merged_2018.gpkg", "roads", 4326)
	require.NoError(t, err)
	require.Len(t, fr.cmds, 1)

	args := fr.cmds[0].Args
	assert.Contains(t, args, "-update")
	assert.Contains(t, args, "-append")
	assert.Contains(t, args, "EPSG:4326")
	assert.Equal(t, "roads_2018.gpkg", args[len(args)-1])
}

func TestParseTransformOutput(t *testing.T) {
	out := []byte("-3.5 51.2\n-2.1 52.9 0\n")
	pts, err := parseTransformOutput(out)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.InDelta(t, -3.5, pts[0].X, 1e-9)
	assert.InDelta(t, 51.2, pts[0].Y, 1e-9)
	assert.InDelta(t, 52.9, pts[1].Y, 1e-9)
}

func TestParseTransformOutput_Malformed(t *testing.T) {
	_, err := parseTransformOutput([]byte("oops\n"))
	require.Error(t, err)
}

func TestTransformPoints(t *testing.T) {
	fr := &fakeRunner{stdout: []byte("-3.5 51.2\n-2.1 52.9\n")}
	tc := NewToolchain(fr, config.ToolsConfig{})

	pts, err := tc.TransformPoints(context.Background(), 27700, 4326, []Point{{X: 100, Y: 200}, {X: 300, Y: 400}})
	require.NoError(t, err)
	require.Len(t, pts, 2)

	require.Len(t, fr.cmds, 1)
	assert.Equal(t, "gdaltransform", fr.cmds[0].Bin)
	assert.Equal(t, []string{"-s_srs", "EPSG:27700", "-t_srs", "EPSG:4326", "-output_xy"}, fr.cmds[0].Args)
	assert.Equal(t, "100 200\n300 400\n", fr.stdinSeen[0])
}

func TestTransformPoints_CountMismatch(t *testing.T) {
	fr := &fakeRunner{stdout: []byte("-3.5 51.2\n")}
	tc := NewToolchain(fr, config.ToolsConfig{})

	_, err := tc.TransformPoints(context.Background(), 27700, 4326, []Point{{X: 1, Y: 2}, {X: 3, Y: 4}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2")
}

func TestOsmToGeoJSON_WritesFile(t *testing.T) {
	fr := &fakeRunner{stdout: []byte(`{"type":"FeatureCollection","features":[]}`)}
	tc := NewToolchain(fr, config.ToolsConfig{})

	dst := filepath.Join(t.TempDir(), "roads_2018.geojson")
	err := tc.OsmToGeoJSON(context.Background(), "roads_2018.json", dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
