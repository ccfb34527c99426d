package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ecotone-geo/landprep/internal/raster"
)

var paReclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Reclassify combined rasters to impedance",
	Long:  "Maps each LULC+PA raster through the lulc,impedance CSV table, producing the impedance rasters the accumulation stage consumes.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tc := toolchain()
		table, err := raster.LoadReclassTable(cfg.LULC.ReclassTable)
		if err != nil {
			return err
		}

		inDir := filepath.Join(cfg.Paths.OutputDir, "lulc_pa")
		outDir := cfg.Paths.ImpedanceDir
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrapf(err, "pa reclassify: create %s", outDir)
		}

		for _, year := range cfg.Years {
			src := filepath.Join(inDir, fmt.Sprintf("lulc_pa_%d.tif", year))
			dst := impedancePath(year)
			if err := raster.Reclassify(ctx, tc, table, src, dst); err != nil {
				return eris.Wrapf(err, "pa reclassify: year %d", year)
			}
			fmt.Printf("impedance raster for %d written to %s\n", year, dst)
		}
		return nil
	},
}

func init() { paCmd.AddCommand(paReclassifyCmd) }
