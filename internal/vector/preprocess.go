package vector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/config"
	"github.com/ecotone-geo/landprep/internal/gdal"
)

// Preprocessor reprojects, repairs and buffers one vector dataset so it can
// be rasterized onto the LULC grid.
type Preprocessor struct {
	tc         *gdal.Toolchain
	source     string
	crs        int
	cartesian  bool
	metricEPSG int
}

// ResolveSource picks the input vector dataset for a year: the OSM extract
// when configured, otherwise the user-supplied vector. Neither configured is
// a hard failure, since every later stage depends on it.
func ResolveSource(cfg config.VectorConfig, vectorDir string, year int) (string, error) {
	if cfg.OSMData != "" {
		name := config.ExpandYear(cfg.OSMData, year)
		zap.L().Info("enriching with OSM data", zap.String("file", name))
		return filepath.Join(vectorDir, name), nil
	}
	zap.L().Warn("osm_data not set in configuration, falling back to user vector")
	if cfg.UserVector != "" {
		name := config.ExpandYear(cfg.UserVector, year)
		zap.L().Info("enriching with user-specified data", zap.String("file", name))
		return filepath.Join(vectorDir, name), nil
	}
	return "", eris.New("vector: no input vector source; set vector.osm_data or vector.user_vector")
}

// NewPreprocessor opens the source dataset for preprocessing against the
// target (LULC) CRS.
func NewPreprocessor(tc *gdal.Toolchain, source string, targetEPSG int, targetCartesian bool, metricEPSG int) (*Preprocessor, error) {
	if _, err := os.Stat(source); err != nil {
		return nil, eris.Wrapf(err, "vector: source %s", source)
	}
	if metricEPSG == 0 {
		metricEPSG = 27700
	}
	return &Preprocessor{
		tc:         tc,
		source:     source,
		crs:        targetEPSG,
		cartesian:  targetCartesian,
		metricEPSG: metricEPSG,
	}, nil
}

// Source returns the dataset path currently being preprocessed.
func (p *Preprocessor) Source() string {
	return p.source
}

// EnsureCRS reprojects the source into the target CRS when its layers are
// registered under a different one, then repairs any invalid geometries the
// reprojection surfaced. The preprocessor switches to the reprojected copy.
func (p *Preprocessor) EnsureCRS(ctx context.Context) error {
	layers, err := ListLayers(p.source)
	if err != nil {
		return err
	}
	if len(layers) == 0 {
		return eris.Errorf("vector: %s has no feature layers", p.source)
	}

	srs, err := LayerSRS(p.source, layers[0])
	if err != nil {
		return err
	}
	if srs == p.crs {
		zap.L().Debug("vector already in target CRS", zap.Int("epsg", srs))
		return nil
	}

	reprojected := reprojectedPath(p.source, p.crs)
	zap.L().Info("reprojecting vector",
		zap.String("source", p.source),
		zap.Int("from_epsg", srs),
		zap.Int("to_epsg", p.crs),
	)
	if err := p.tc.Reproject(ctx, p.source, reprojected, p.crs); err != nil {
		return err
	}

	p.source = reprojected
	_, err = p.Repair(ctx)
	return err
}

func reprojectedPath(source string, epsg int) string {
	ext := filepath.Ext(source)
	return fmt.Sprintf("%s_epsg%d%s", source[:len(source)-len(ext)], epsg, ext)
}

// BufferedLayer is one buffered output together with the layer it came
// from. The layer name travels with the path so downstream stages never
// have to re-derive it from the filename, where underscores in layer names
// would make the parse ambiguous.
type BufferedLayer struct {
	Layer string
	Path  string
}

// BufferAll buffers each named layer into "<layer>_<year>_buffered.gpkg"
// under outDir. A failing layer is skipped; the successfully written outputs
// are returned.
func (p *Preprocessor) BufferAll(ctx context.Context, layers []string, outDir string, year int) []BufferedLayer {
	var outputs []BufferedLayer
	for _, layer := range layers {
		out := filepath.Join(outDir, fmt.Sprintf("%s_%d_buffered.gpkg", layer, year))
		if err := p.BufferLayer(ctx, layer, out); err != nil {
			continue
		}
		outputs = append(outputs, BufferedLayer{Layer: layer, Path: out})
	}
	return outputs
}
