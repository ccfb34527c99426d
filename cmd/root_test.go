package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotone-geo/landprep/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"enrich", "osm", "pa", "impedance"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "landprep", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestOsmCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range osmCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"fetch", "merge"} {
		assert.True(t, names[name], "osm should have subcommand %q", name)
	}
}

func TestPaCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range paCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"fetch", "rasterize", "sum", "reclassify"} {
		assert.True(t, names[name], "pa should have subcommand %q", name)
	}
}

func TestImpedanceCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range impedanceCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"init", "validate", "calc"} {
		assert.True(t, names[name], "impedance should have subcommand %q", name)
	}
}

func TestPaFetchCommand_Flags(t *testing.T) {
	flag := paFetchCmd.Flags().Lookup("skip-fetch")
	require.NotNil(t, flag, "pa fetch should have --skip-fetch flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestPaRasterizeCommand_Flags(t *testing.T) {
	flag := paRasterizeCmd.Flags().Lookup("keep-slices")
	require.NotNil(t, flag, "pa rasterize should have --keep-slices flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestPathHelpers(t *testing.T) {
	cfg = &config.Config{
		Years: []int{2018, 2019},
		Paths: config.PathsConfig{
			LULCDir:      "/data/lulc",
			ImpedanceDir: "/data/impedance",
		},
		LULC: config.LULCConfig{
			Template:     "lulc_{year}.tif",
			ImpedanceTIF: "impedance_{year}.tif",
		},
	}

	assert.Equal(t, "/data/lulc/lulc_2018.tif", lulcPath(2018))
	assert.Equal(t, "/data/impedance/impedance_2019.tif", impedancePath(2019))
	assert.Equal(t, 2018, firstYear())
}
