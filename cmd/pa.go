package main

import "github.com/spf13/cobra"

var paCmd = &cobra.Command{
	Use:   "pa",
	Short: "Protected-area pipeline",
	Long:  "Fetches protected-area polygons for the countries the LULC grid touches, rasterizes per-year establishment slices, folds them into the LULC rasters and reclassifies to impedance.",
}

func init() { rootCmd.AddCommand(paCmd) }
