package raster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReclassTable_Integer(t *testing.T) {
	table, err := parseReclassTable(strings.NewReader("lulc,impedance\n1,10\n2,50\n3,100\n"))
	require.NoError(t, err)

	assert.False(t, table.HasDecimal)
	assert.Equal(t, "Int32", table.OutputType())
	assert.Equal(t, 10.0, table.Mapping[1])
	assert.Equal(t, 50.0, table.Mapping[2])

	// nodata sentinels folded in
	assert.Equal(t, float64(ReclassNoData), table.Mapping[-2147483647])
	assert.Equal(t, float64(ReclassNoData), table.Mapping[-32768])
	assert.Equal(t, float64(ReclassNoData), table.Mapping[0])
}

func TestParseReclassTable_Decimal(t *testing.T) {
	table, err := parseReclassTable(strings.NewReader("lulc,impedance\n1,10.5\n2,50\n"))
	require.NoError(t, err)

	assert.True(t, table.HasDecimal)
	assert.Equal(t, "Float32", table.OutputType())
}

func TestParseReclassTable_BOM(t *testing.T) {
	// parseReclassTable sits behind the BOM-stripping reader in
	// LoadReclassTable; a stray BOM reaching it must not break the header
	// detection because column match is by trimmed lowercase name.
	table, err := parseReclassTable(strings.NewReader("LULC, Impedance\n7, 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3.0, table.Mapping[7])
}

func TestParseReclassTable_Empty(t *testing.T) {
	_, err := parseReclassTable(strings.NewReader(""))
	require.Error(t, err)

	_, err = parseReclassTable(strings.NewReader("lulc,impedance\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable rows")
}

func TestParseReclassTable_MissingColumns(t *testing.T) {
	_, err := parseReclassTable(strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lulc and impedance")
}

func TestReclassTable_Apply(t *testing.T) {
	table, err := parseReclassTable(strings.NewReader("lulc,impedance\n1,10\n"))
	require.NoError(t, err)

	assert.Equal(t, 10.0, table.Apply(1))
	// unmapped codes become nodata
	assert.Equal(t, float64(ReclassNoData), table.Apply(42))
	assert.Equal(t, float64(ReclassNoData), table.Apply(0))
}
