package raster

import (
	"math"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
)

// MaxValue scans the first band of a raster and returns its maximum value,
// ignoring nodata cells. Used to establish the global impedance maximum.
func MaxValue(path string) (float64, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "raster: open %s", path)
	}
	defer ds.Close()

	band := ds.Bands()[0]
	nodata, hasNodata := band.NoData()

	st := band.Structure()
	buf := make([]float64, st.BlockSizeX*st.BlockSizeY)

	maxVal := math.Inf(-1)
	found := false
	for block, ok := st.FirstBlock(), true; ok; block, ok = block.Next() {
		if err := band.Read(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return 0, eris.Wrapf(err, "raster: read block of %s", path)
		}
		n := block.W * block.H
		for i := 0; i < n; i++ {
			v := buf[i]
			if math.IsNaN(v) {
				continue
			}
			if hasNodata && v == nodata {
				continue
			}
			if v > maxVal {
				maxVal = v
				found = true
			}
		}
	}

	if !found {
		return 0, eris.Errorf("raster: %s has no valid cells", path)
	}
	return maxVal, nil
}
