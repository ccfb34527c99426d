package main

import "github.com/spf13/cobra"

var osmCmd = &cobra.Command{
	Use:   "osm",
	Short: "Fetch and merge OpenStreetMap extracts",
	Long:  "Queries the Overpass API for infrastructure and water features over the LULC extent and merges them into a single GeoPackage.",
}

func init() { rootCmd.AddCommand(osmCmd) }
