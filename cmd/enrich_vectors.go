package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
	"github.com/ecotone-geo/landprep/internal/impedance"
	"github.com/ecotone-geo/landprep/internal/vector"
)

var enrichVectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Buffer and rasterize vector layers",
	Long:  "Resolves the input vector dataset, reprojects it onto the LULC CRS, buffers the configured layers by width, rasterizes each buffer and records the resulting stressor rasters.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tc := toolchain()
		year := firstYear()

		md, err := lulcMetadata(ctx, tc, year)
		if err != nil {
			return eris.Wrap(err, "enrich vectors")
		}

		source, err := vector.ResolveSource(cfg.Vector, cfg.Paths.VectorDir, year)
		if err != nil {
			return err
		}

		pre, err := vector.NewPreprocessor(tc, source, md.EPSG, md.Projected, cfg.Vector.BufferEPSG)
		if err != nil {
			return err
		}
		if err := pre.EnsureCRS(ctx); err != nil {
			return eris.Wrap(err, "enrich vectors")
		}

		if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
			return eris.Wrapf(err, "enrich vectors: create %s", cfg.Paths.OutputDir)
		}

		buffered := pre.BufferAll(ctx, cfg.Vector.BufferLayers, cfg.Paths.OutputDir, year)
		if len(buffered) == 0 {
			return eris.New("enrich vectors: no layer could be buffered")
		}

		stressors := make(map[string]string, len(buffered))
		for _, bl := range buffered {
			tif := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("%s_%d.tif", bl.Layer, year))
			args := gdal.RasterizeArgs{
				Src:        bl.Path,
				Dst:        tif,
				Burn:       100,
				Init:       0,
				NoData:     -2147483647,
				Res:        md.CellSize,
				XMin:       md.XMin,
				YMin:       md.YMin,
				XMax:       md.XMax,
				YMax:       md.YMax,
				OutputType: "Int32",
			}
			if err := tc.Rasterize(ctx, args); err != nil {
				zap.L().Error("could not rasterize buffered layer", zap.String("layer", bl.Layer), zap.Error(err))
				continue
			}
			stressors[bl.Layer] = tif
		}
		if len(stressors) == 0 {
			return eris.New("enrich vectors: no buffered layer could be rasterized")
		}

		if err := impedance.WriteStressors(cfg.Impedance.StressorsPath, stressors); err != nil {
			return err
		}

		fmt.Printf("enriched %d vector layers for %d\n", len(stressors), year)
		return nil
	},
}

func init() { enrichCmd.AddCommand(enrichVectorsCmd) }
