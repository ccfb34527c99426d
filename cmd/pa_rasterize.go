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

var paRasterizeCmd = &cobra.Command{
	Use:   "rasterize",
	Short: "Rasterize per-year establishment slices",
	Long:  "Filters the merged protected areas by establishment year for every configured LULC year and burns each slice onto the LULC grid.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tc := toolchain()
		md, err := lulcMetadata(ctx, tc, firstYear())
		if err != nil {
			return eris.Wrap(err, "pa rasterize")
		}

		merged := filepath.Join(cfg.Paths.InputDir, "merged_pa.gpkg")
		outDir := filepath.Join(cfg.Paths.OutputDir, "pas_timeseries")
		keepSlices, _ := cmd.Flags().GetBool("keep-slices")

		r := protected.NewRasterizer(tc, merged, md, outDir)
		rasters, err := r.RasterizeAll(ctx, cfg.Years, keepSlices)
		if err != nil {
			return eris.Wrap(err, "pa rasterize")
		}

		fmt.Printf("rasterized %d protected-area year slices into %s\n", len(rasters), outDir)
		return nil
	},
}

func init() {
	paRasterizeCmd.Flags().Bool("keep-slices", false, "keep the intermediate per-year GeoPackage slices")
	paCmd.AddCommand(paRasterizeCmd)
}
