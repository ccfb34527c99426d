package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ecotone-geo/landprep/internal/impedance"
)

var impedanceInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Discover stressors and seed the decay configuration",
	Long:  "Registers LULC-derived and OSM-derived stressors, extracts LULC class-mask rasters, and writes placeholder decay parameters for every new stressor into the impedance configuration. Tune the written YAML before running calc.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		year := firstYear()

		cfgFile, err := impedance.LoadConfigFile(cfg.Impedance.ConfigPath)
		if err != nil {
			return err
		}
		cfgFile.NormalizeInitialLULC()

		template := impedance.Placeholder(cfg.Impedance.DeclineType, cfg.Impedance.LambdaDecay, cfg.Impedance.KValue)
		reg := impedance.NewRegistry()

		codes, err := cfg.LULC.MappingCodes()
		if err != nil {
			return err
		}

		lulcPA := filepath.Join(cfg.Paths.OutputDir, "lulc_pa", fmt.Sprintf("lulc_pa_%d.tif", year))
		maskDir := filepath.Join(cfg.Paths.OutputDir, "stressor_masks")
		if err := impedance.DiscoverLULC(lulcPA, codes, maskDir, year, reg, cfgFile, template); err != nil {
			return eris.Wrap(err, "impedance init")
		}
		if err := impedance.DiscoverOSM(cfg.Impedance.StressorsPath, reg, cfgFile, template); err != nil {
			return eris.Wrap(err, "impedance init")
		}

		if err := cfgFile.Save(cfg.Impedance.ConfigPath); err != nil {
			return err
		}

		fmt.Printf("registered %d stressors; review decay parameters in %s before running calc\n",
			reg.Len(), cfg.Impedance.ConfigPath)
		return nil
	},
}

func init() { impedanceCmd.AddCommand(impedanceInitCmd) }
