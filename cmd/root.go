package main

import (
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landprep",
	Short: "Geospatial preprocessing for landscape connectivity",
	Long:  "Prepares LULC rasters, OSM extracts and protected-area polygons for a landscape-connectivity model: fetch, buffer, rasterize, reclassify and accumulate edge effects.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		godal.RegisterAll()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
