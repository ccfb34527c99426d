package main

import "github.com/spf13/cobra"

var impedanceCmd = &cobra.Command{
	Use:   "impedance",
	Short: "Impedance decay configuration and accumulation",
	Long:  "Builds the per-stressor decay configuration, validates user edits and accumulates distance-decayed edge effects into the final impedance raster.",
}

func init() { rootCmd.AddCommand(impedanceCmd) }
