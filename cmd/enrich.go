package main

import "github.com/spf13/cobra"

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich the LULC grid with vector stressors",
	Long:  "Buffers linear vector features (roads, railways, waterways) and rasterizes them onto the LULC grid as stressor footprints.",
}

func init() { rootCmd.AddCommand(enrichCmd) }
