package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ecotone-geo/landprep/internal/protected"
)

var paSumCmd = &cobra.Command{
	Use:   "sum",
	Short: "Fold protected-area rasters into the LULC rasters",
	Long:  "For every configured year, zeroes the LULC raster's nodata and sums it with the matching protected-area raster, shifting protected cells by the +100 class offset.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		paDir := filepath.Join(cfg.Paths.OutputDir, "pas_timeseries")
		outDir := filepath.Join(cfg.Paths.OutputDir, "lulc_pa")

		for _, year := range cfg.Years {
			paRaster := filepath.Join(paDir, fmt.Sprintf("pas_%d.tif", year))
			out, err := protected.SumWithLULC(lulcPath(year), paRaster, outDir, year)
			if err != nil {
				return eris.Wrapf(err, "pa sum: year %d", year)
			}
			fmt.Printf("combined raster for %d written to %s\n", year, out)
		}
		return nil
	},
}

func init() { paCmd.AddCommand(paSumCmd) }
