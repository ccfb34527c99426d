package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ecotone-geo/landprep/internal/gdal"
	"github.com/ecotone-geo/landprep/internal/protected"
)

var paFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and merge protected areas",
	Long:  "Determines the ISO3 countries intersecting the LULC extent, fetches their protected areas from the API and merges everything into one GeoPackage. With --skip-fetch, previously staged per-country files are merged as they are.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tc := toolchain()
		year := firstYear()
		stageDir := filepath.Join(cfg.Paths.InputDir, "wdpa")

		skipFetch, _ := cmd.Flags().GetBool("skip-fetch")

		var files []string
		if skipFetch {
			staged, err := protected.StagedGeoJSONs(stageDir)
			if err != nil {
				return eris.Wrap(err, "pa fetch")
			}
			files = staged
		} else {
			md, err := lulcMetadata(ctx, tc, year)
			if err != nil {
				return eris.Wrap(err, "pa fetch")
			}
			corners, err := tc.TransformPoints(ctx, md.EPSG, 4326, []gdal.Point{
				{X: md.XMin, Y: md.YMin},
				{X: md.XMax, Y: md.YMax},
			})
			if err != nil {
				return eris.Wrap(err, "pa fetch")
			}
			extent := protected.Extent{
				MinX: corners[0].X, MinY: corners[0].Y,
				MaxX: corners[1].X, MaxY: corners[1].Y,
			}

			codes, err := protected.CountryCodes(cfg.WDPA.CountryShapefile, extent)
			if err != nil {
				return err
			}

			client := protected.NewClient(cfg.WDPA)
			files, err = client.FetchAll(ctx, codes, stageDir)
			if err != nil {
				return eris.Wrap(err, "pa fetch")
			}
		}

		merged := filepath.Join(cfg.Paths.InputDir, "merged_pa.gpkg")
		if err := protected.MergeGeoJSONs(ctx, tc, files, merged); err != nil {
			return err
		}

		fmt.Printf("merged protected areas written to %s\n", merged)
		return nil
	},
}

func init() {
	paFetchCmd.Flags().Bool("skip-fetch", false, "merge previously staged per-country files without refetching")
	paCmd.AddCommand(paFetchCmd)
}
