package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ecotone-geo/landprep/internal/osm"
)

var osmMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Convert, filter and merge raw extracts",
	Long:  "Runs osmtogeojson over the raw extracts, filters geometries per theme, converts to GeoPackage and merges all themes into one file under the vector directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tc := toolchain()
		year := firstYear()
		osmDir := filepath.Join(cfg.Paths.InputDir, "osm")

		merger := osm.NewMerger(tc, osmDir, cfg.Paths.VectorDir, year)
		merged, err := merger.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "osm merge")
		}

		fmt.Printf("merged OSM extract written to %s\n", merged)
		return nil
	},
}

func init() { osmCmd.AddCommand(osmMergeCmd) }
