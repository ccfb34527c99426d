package raster

import (
	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ZeroNoData copies a raster, replacing nodata cells with zero. Run on the
// LULC raster before summing with a protected-area raster so that nodata
// cells do not mask out burned PA values.
func ZeroNoData(src, dst string) error {
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
	nodata, hasNodata := srcBand.NoData()

	bs := srcBand.Structure()
	buf := make([]float64, bs.BlockSizeX*bs.BlockSizeY)
	for block, ok := bs.FirstBlock(), true; ok; block, ok = block.Next() {
		if err := srcBand.Read(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: read block of %s", src)
		}
		if hasNodata {
			n := block.W * block.H
			for i := 0; i < n; i++ {
				if buf[i] == nodata {
					buf[i] = 0
				}
			}
		}
		if err := dstBand.Write(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: write block of %s", dst)
		}
	}
	return nil
}

// Sum writes the cell-wise sum of two rasters sharing one grid. Used to fold
// the burned protected-area raster into the LULC raster (PA cells get the
// +100 class offset).
func Sum(aPath, bPath, dst string) error {
	aDS, err := godal.Open(aPath)
	if err != nil {
		return eris.Wrapf(err, "raster: open %s", aPath)
	}
	defer aDS.Close()

	bDS, err := godal.Open(bPath)
	if err != nil {
		return eris.Wrapf(err, "raster: open %s", bPath)
	}
	defer bDS.Close()

	aSt := aDS.Structure()
	bSt := bDS.Structure()
	if aSt.SizeX != bSt.SizeX || aSt.SizeY != bSt.SizeY {
		return eris.Errorf("raster: grid mismatch %dx%d vs %dx%d",
			aSt.SizeX, aSt.SizeY, bSt.SizeX, bSt.SizeY)
	}

	dstDS, err := godal.Create(godal.GTiff, dst, 1, godal.Int32, aSt.SizeX, aSt.SizeY,
		godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", dst)
	}
	defer dstDS.Close()

	if err := copyGeoref(aDS, dstDS); err != nil {
		return err
	}

	aBand := aDS.Bands()[0]
	bBand := bDS.Bands()[0]
	dstBand := dstDS.Bands()[0]

	bs := aBand.Structure()
	aBuf := make([]float64, bs.BlockSizeX*bs.BlockSizeY)
	bBuf := make([]float64, bs.BlockSizeX*bs.BlockSizeY)
	for block, ok := bs.FirstBlock(), true; ok; block, ok = block.Next() {
		if err := aBand.Read(block.X0, block.Y0, aBuf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: read block of %s", aPath)
		}
		if err := bBand.Read(block.X0, block.Y0, bBuf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: read block of %s", bPath)
		}
		n := block.W * block.H
		for i := 0; i < n; i++ {
			aBuf[i] += bBuf[i]
		}
		if err := dstBand.Write(block.X0, block.Y0, aBuf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: write block of %s", dst)
		}
	}

	zap.L().Info("summed rasters", zap.String("a", aPath), zap.String("b", bPath), zap.String("dst", dst))
	return nil
}

func copyGeoref(src, dst *godal.Dataset) error {
	gt, err := src.GeoTransform()
	if err != nil {
		return eris.Wrap(err, "raster: read geotransform")
	}
	if err := dst.SetGeoTransform(gt); err != nil {
		return eris.Wrap(err, "raster: set geotransform")
	}
	if err := dst.SetProjection(src.Projection()); err != nil {
		return eris.Wrap(err, "raster: set projection")
	}
	return nil
}
