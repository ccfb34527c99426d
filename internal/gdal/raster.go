package gdal

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
)

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RasterizeArgs describes a gdal_rasterize invocation aligned to a reference
// raster grid.
type RasterizeArgs struct {
	Src        string
	Dst        string
	Burn       int
	Init       int
	NoData     int64
	Res        float64
	XMin       float64
	YMin       float64
	XMax       float64
	YMax       float64
	OutputType string
}

// BuildArgs renders the gdal_rasterize argument list.
func (a RasterizeArgs) BuildArgs() []string {
	return []string{
		"-burn", strconv.Itoa(a.Burn),
		"-init", strconv.Itoa(a.Init),
		"-tr", ftoa(a.Res), ftoa(a.Res),
		"-a_nodata", strconv.FormatInt(a.NoData, 10),
		"-te", ftoa(a.XMin), ftoa(a.YMin), ftoa(a.XMax), ftoa(a.YMax),
		"-ot", a.OutputType,
		"-of", "GTiff",
		"-co", "COMPRESS=LZW",
		a.Src,
		a.Dst,
	}
}

// Rasterize burns a vector dataset onto the reference grid.
func (t *Toolchain) Rasterize(ctx context.Context, a RasterizeArgs) error {
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.GdalRasterize, Args: a.BuildArgs()}); err != nil {
		return eris.Wrapf(err, "gdal: rasterize %s", a.Src)
	}
	return nil
}

// TranslateArgs describes a gdal_translate compression/retype pass.
type TranslateArgs struct {
	Src        string
	Dst        string
	NoData     string
	OutputType string
}

// BuildArgs renders the gdal_translate argument list.
func (a TranslateArgs) BuildArgs() []string {
	args := []string{a.Src, a.Dst}
	if a.NoData != "" {
		args = append(args, "-a_nodata", a.NoData)
	}
	if a.OutputType != "" {
		args = append(args, "-ot", a.OutputType)
	}
	return append(args, "-co", "COMPRESS=LZW")
}

// Translate rewrites a raster with compression, output type and nodata
// applied. gdal_translate cannot write in place, so Dst must differ from Src.
func (t *Toolchain) Translate(ctx context.Context, a TranslateArgs) error {
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.GdalTranslate, Args: a.BuildArgs()}); err != nil {
		return eris.Wrapf(err, "gdal: translate %s", a.Src)
	}
	return nil
}

// Proximity computes a distance-to-nearest-feature raster from the stressor
// footprint, with distances in georeferenced units.
func (t *Toolchain) Proximity(ctx context.Context, src, dst string, values int) error {
	args := []string{
		src, dst,
		"-values", strconv.Itoa(values),
		"-distunits", "GEO",
		"-ot", "Float32",
		"-co", "COMPRESS=LZW",
	}
	if _, err := t.r.Run(ctx, Command{Bin: t.bins.GdalProximity, Args: args}); err != nil {
		return eris.Wrapf(err, "gdal: proximity %s", src)
	}
	return nil
}
