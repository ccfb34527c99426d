package raster

import (
	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MaskBurn is the value burned into class-mask cells. Matches the burn value
// used when rasterizing vector stressors, so proximity treats both the same.
const MaskBurn = 100

// ClassMask writes a stressor footprint raster: cells holding the class code
// become MaskBurn, everything else zero. Used to turn one LULC class (urban,
// water) into a distance-transform input.
func ClassMask(src, dst string, code float64) error {
	srcDS, err := godal.Open(src)
	if err != nil {
		return eris.Wrapf(err, "raster: open %s", src)
	}
	defer srcDS.Close()

	st := srcDS.Structure()
	dstDS, err := godal.Create(godal.GTiff, dst, 1, godal.Int32, st.SizeX, st.SizeY,
		godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", dst)
	}
	defer dstDS.Close()

	if err := copyGeoref(srcDS, dstDS); err != nil {
		return err
	}

	srcBand := srcDS.Bands()[0]
	dstBand := dstDS.Bands()[0]

	bs := srcBand.Structure()
	buf := make([]float64, bs.BlockSizeX*bs.BlockSizeY)
	var burned int64
	for block, ok := bs.FirstBlock(), true; ok; block, ok = block.Next() {
		if err := srcBand.Read(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: read block of %s", src)
		}
		n := block.W * block.H
		for i := 0; i < n; i++ {
			if buf[i] == code {
				buf[i] = MaskBurn
				burned++
			} else {
				buf[i] = 0
			}
		}
		if err := dstBand.Write(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: write block of %s", dst)
		}
	}

	zap.L().Debug("class mask written",
		zap.String("src", src),
		zap.Float64("code", code),
		zap.Int64("cells", burned),
	)
	return nil
}
