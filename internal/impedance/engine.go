package impedance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
	"github.com/ecotone-geo/landprep/internal/raster"
)

// Engine runs the edge-effect accumulation: per stressor a proximity raster
// is computed, the configured decay applied, and the result folded into a
// running cell-wise maximum. The accumulator is finally merged with the base
// impedance raster and rescaled to its maximum.
type Engine struct {
	tc            *gdal.Toolchain
	reg           *Registry
	cfg           *ConfigFile
	impedancePath string
	impedanceMax  float64
	outDir        string
}

func NewEngine(tc *gdal.Toolchain, reg *Registry, cfg *ConfigFile, impedancePath string, impedanceMax float64, outDir string) *Engine {
	return &Engine{
		tc:            tc,
		reg:           reg,
		cfg:           cfg,
		impedancePath: impedancePath,
		impedanceMax:  impedanceMax,
		outDir:        outDir,
	}
}

// Run processes every registered stressor and writes the decay-adjusted
// impedance raster for the year. A stressor raster that cannot be opened is
// skipped; any other raster failure aborts.
func (e *Engine) Run(ctx context.Context, year int) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "impedance: create %s", e.outDir)
	}

	var accum []float64
	processed := 0
	for _, s := range e.reg.Stressors() {
		params, err := e.cfg.DecayParams(s.Alias)
		if err != nil {
			return "", err
		}
		decay, err := DecayForParams(params, e.impedanceMax)
		if err != nil {
			return "", err
		}

		probe, err := godal.Open(s.RasterPath)
		if err != nil {
			zap.L().Error("cannot open stressor raster, skipping",
				zap.String("alias", s.Alias), zap.String("raster", s.RasterPath), zap.Error(err))
			continue
		}
		probe.Close()

		zap.L().Info("processing stressor",
			zap.String("alias", s.Alias),
			zap.String("raster", s.RasterPath),
			zap.String("decline_type", params.DeclineType),
		)

		dist, err := e.stressorDistances(ctx, s)
		if err != nil {
			return "", err
		}

		if accum == nil {
			accum = make([]float64, len(dist))
		} else if len(accum) != len(dist) {
			return "", eris.Errorf("impedance: stressor %q grid does not match earlier stressors", s.Alias)
		}
		for i, d := range dist {
			if effect := decay(d); effect > accum[i] {
				accum[i] = effect
			}
		}
		processed++
	}
	if processed == 0 {
		return "", eris.New("impedance: no stressor raster could be processed")
	}
	zap.L().Info("accumulated edge effects", zap.Int("stressors", processed))

	return e.finalize(accum, year)
}

// stressorDistances zeroes the stressor's nodata, computes its proximity
// raster on the shared grid and returns the distances. Intermediates are
// removed once read.
func (e *Engine) stressorDistances(ctx context.Context, s Stressor) ([]float64, error) {
	normalized := filepath.Join(e.outDir, s.Alias+"_nodata0.tif")
	if err := raster.ZeroNoData(s.RasterPath, normalized); err != nil {
		return nil, err
	}

	prox := filepath.Join(e.outDir, s.Alias+"_proximity.tif")
	if err := e.tc.Proximity(ctx, normalized, prox, raster.MaskBurn); err != nil {
		return nil, err
	}
	if err := os.Remove(normalized); err != nil {
		zap.L().Warn("could not remove intermediate", zap.String("path", normalized), zap.Error(err))
	}

	dist, _, err := readBand(prox)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(prox); err != nil {
		zap.L().Warn("could not remove intermediate", zap.String("path", prox), zap.Error(err))
	}
	return dist, nil
}

// finalize merges the accumulator with the base impedance raster by
// cell-wise maximum (when initial_lulc is enabled), rescales so the overall
// maximum equals the base raster's maximum, and writes the result.
func (e *Engine) finalize(accum []float64, year int) (string, error) {
	base, meta, err := readBand(e.impedancePath)
	if err != nil {
		return "", err
	}
	if len(base) != len(accum) {
		return "", eris.New("impedance: accumulator grid does not match base impedance raster")
	}

	useBase := e.cfg.InitialLULCEnabled()
	merged := make([]float64, len(accum))
	maxVal := 0.0
	for i := range accum {
		if meta.hasNoData && base[i] == meta.noData {
			merged[i] = meta.noData
			continue
		}
		v := accum[i]
		if useBase && base[i] > v {
			v = base[i]
		}
		merged[i] = v
		if v > maxVal {
			maxVal = v
		}
	}

	if maxVal > 0 && maxVal != e.impedanceMax {
		scale := e.impedanceMax / maxVal
		for i := range merged {
			if meta.hasNoData && merged[i] == meta.noData {
				continue
			}
			merged[i] *= scale
		}
		zap.L().Info("rescaled impedance", zap.Float64("scale", scale), zap.Float64("max", e.impedanceMax))
	}

	out := filepath.Join(e.outDir, fmt.Sprintf("impedance_decayed_%d.tif", year))
	if err := writeBand(out, merged, meta); err != nil {
		return "", err
	}
	zap.L().Info("wrote decay-adjusted impedance", zap.String("path", out))
	return out, nil
}

// bandMeta carries the georeferencing needed to write a result on the same
// grid as its source.
type bandMeta struct {
	sizeX, sizeY int
	geoTransform [6]float64
	projection   string
	noData       float64
	hasNoData    bool
}

func readBand(path string) ([]float64, bandMeta, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, bandMeta{}, eris.Wrapf(err, "impedance: open %s", path)
	}
	defer ds.Close()

	st := ds.Structure()
	meta := bandMeta{sizeX: st.SizeX, sizeY: st.SizeY, projection: ds.Projection()}
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, bandMeta{}, eris.Wrapf(err, "impedance: geotransform of %s", path)
	}
	meta.geoTransform = gt

	band := ds.Bands()[0]
	meta.noData, meta.hasNoData = band.NoData()

	buf := make([]float64, st.SizeX*st.SizeY)
	if err := band.Read(0, 0, buf, st.SizeX, st.SizeY); err != nil {
		return nil, bandMeta{}, eris.Wrapf(err, "impedance: read %s", path)
	}
	return buf, meta, nil
}

func writeBand(path string, data []float64, meta bandMeta) error {
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, meta.sizeX, meta.sizeY,
		godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		return eris.Wrapf(err, "impedance: create %s", path)
	}
	defer ds.Close()

	if err := ds.SetGeoTransform(meta.geoTransform); err != nil {
		return eris.Wrapf(err, "impedance: set geotransform on %s", path)
	}
	if err := ds.SetProjection(meta.projection); err != nil {
		return eris.Wrapf(err, "impedance: set projection on %s", path)
	}

	band := ds.Bands()[0]
	if meta.hasNoData {
		if err := band.SetNoData(meta.noData); err != nil {
			return eris.Wrapf(err, "impedance: set nodata on %s", path)
		}
	}
	if err := band.Write(0, 0, data, meta.sizeX, meta.sizeY); err != nil {
		return eris.Wrapf(err, "impedance: write %s", path)
	}
	return nil
}
