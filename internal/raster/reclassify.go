package raster

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ecotone-geo/landprep/internal/gdal"
)

// ReclassNoData is the nodata sentinel used in reclassified impedance rasters.
// Downstream connectivity tooling requires a positive nodata value.
const ReclassNoData = 9999

// ReclassTable maps LULC class codes to impedance values.
type ReclassTable struct {
	Mapping    map[float64]float64
	HasDecimal bool
}

// OutputType returns the GeoTIFF pixel type matching the table's value domain.
func (t ReclassTable) OutputType() string {
	if t.HasDecimal {
		return "Float32"
	}
	return "Int32"
}

// LoadReclassTable reads the lulc,impedance CSV table. The file may carry a
// UTF-8 BOM (spreadsheet exports usually do). Raster nodata sentinels and the
// unclassified zero code are folded into the mapping as ReclassNoData.
func LoadReclassTable(path string) (ReclassTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReclassTable{}, eris.Wrapf(err, "raster: open reclass table %s", path)
	}
	defer f.Close() //nolint:errcheck

	return parseReclassTable(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
}

func parseReclassTable(r io.Reader) (ReclassTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return ReclassTable{}, eris.Wrap(err, "raster: read reclass table")
	}
	if len(records) == 0 {
		return ReclassTable{}, eris.New("raster: reclass table is empty")
	}

	header := records[0]
	lulcIdx, impIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "lulc":
			lulcIdx = i
		case "impedance":
			impIdx = i
		}
	}
	if lulcIdx < 0 || impIdx < 0 {
		return ReclassTable{}, eris.New("raster: reclass table must have lulc and impedance columns")
	}

	table := ReclassTable{Mapping: make(map[float64]float64, len(records))}
	for _, rec := range records[1:] {
		if len(rec) <= lulcIdx || len(rec) <= impIdx {
			continue
		}
		lulc, err := strconv.ParseFloat(strings.TrimSpace(rec[lulcIdx]), 64)
		if err != nil {
			continue
		}
		imp, err := strconv.ParseFloat(strings.TrimSpace(rec[impIdx]), 64)
		if err != nil {
			continue
		}
		table.Mapping[lulc] = imp
		if imp != math.Trunc(imp) {
			table.HasDecimal = true
		}
	}
	if len(table.Mapping) == 0 {
		return ReclassTable{}, eris.New("raster: reclass table has no usable rows")
	}

	// Align the raster nodata sentinels and the unclassified zero code with
	// the positive nodata value the connectivity model expects.
	table.Mapping[-2147483647] = ReclassNoData
	table.Mapping[-32768] = ReclassNoData
	table.Mapping[0] = ReclassNoData

	return table, nil
}

// Apply maps one cell value through the table. Unmapped values become nodata.
func (t ReclassTable) Apply(v float64) float64 {
	if out, ok := t.Mapping[v]; ok {
		return out
	}
	return ReclassNoData
}

// Reclassify rewrites a LULC raster as an impedance raster using the table,
// then runs a gdal_translate compression pass that stamps the nodata value.
func Reclassify(ctx context.Context, tc *gdal.Toolchain, table ReclassTable, src, dst string) error {
	if err := reclassifyArrays(table, src, dst); err != nil {
		return err
	}

	// gdal_translate does not rewrite in place: compress to a sibling file,
	// then swap it over the uncompressed output.
	compressed := strings.TrimSuffix(dst, ".tif") + "_compr.tif"
	err := tc.Translate(ctx, gdal.TranslateArgs{
		Src:        dst,
		Dst:        compressed,
		NoData:     strconv.Itoa(ReclassNoData),
		OutputType: table.OutputType(),
	})
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil {
		return eris.Wrapf(err, "raster: remove uncompressed %s", dst)
	}
	if err := os.Rename(compressed, dst); err != nil {
		return eris.Wrapf(err, "raster: rename %s", compressed)
	}

	zap.L().Info("reclassified raster",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.String("type", table.OutputType()),
	)
	return nil
}

func reclassifyArrays(table ReclassTable, src, dst string) error {
	srcDS, err := godal.Open(src)
	if err != nil {
		return eris.Wrapf(err, "raster: open %s", src)
	}
	defer srcDS.Close()

	st := srcDS.Structure()
	dtype := godal.Int32
	if table.HasDecimal {
		dtype = godal.Float32
	}

	dstDS, err := godal.Create(godal.GTiff, dst, 1, dtype, st.SizeX, st.SizeY)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", dst)
	}
	defer dstDS.Close()

	gt, err := srcDS.GeoTransform()
	if err != nil {
		return eris.Wrapf(err, "raster: geotransform of %s", src)
	}
	if err := dstDS.SetGeoTransform(gt); err != nil {
		return eris.Wrapf(err, "raster: set geotransform on %s", dst)
	}
	if err := dstDS.SetProjection(srcDS.Projection()); err != nil {
		return eris.Wrapf(err, "raster: set projection on %s", dst)
	}

	srcBand := srcDS.Bands()[0]
	dstBand := dstDS.Bands()[0]
	if err := dstBand.SetNoData(ReclassNoData); err != nil {
		return eris.Wrapf(err, "raster: set nodata on %s", dst)
	}

	bs := srcBand.Structure()
	buf := make([]float64, bs.BlockSizeX*bs.BlockSizeY)
	for block, ok := bs.FirstBlock(), true; ok; block, ok = block.Next() {
		if err := srcBand.Read(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: read block of %s", src)
		}
		n := block.W * block.H
		for i := 0; i < n; i++ {
			buf[i] = table.Apply(buf[i])
		}
		if err := dstBand.Write(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return eris.Wrapf(err, "raster: write block of %s", dst)
		}
	}

	return nil
}
