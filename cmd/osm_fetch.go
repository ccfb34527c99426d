package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/osm"
)

var osmFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch raw Overpass extracts",
	Long:  "Builds per-theme Overpass queries pinned to the configured year, fetches them and stores the raw JSON responses.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tc := toolchain()
		year := firstYear()
		if len(cfg.Years) > 1 {
			zap.L().Warn("multiple years configured, fetching only the first",
				zap.Int("year", year), zap.Ints("configured", cfg.Years))
		}

		md, err := lulcMetadata(ctx, tc, year)
		if err != nil {
			return eris.Wrap(err, "osm fetch")
		}
		bbox, err := osm.BBoxWGS84(ctx, tc, md)
		if err != nil {
			return eris.Wrap(err, "osm fetch")
		}

		outDir := filepath.Join(cfg.Paths.InputDir, "osm")
		client := osm.NewClient(cfg.OSM)
		written, err := client.FetchAll(ctx, year, bbox, outDir)
		if err != nil {
			return eris.Wrap(err, "osm fetch")
		}

		fmt.Printf("fetched %d overpass extracts into %s\n", len(written), outDir)
		return nil
	},
}

func init() { osmCmd.AddCommand(osmFetchCmd) }
