package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecotone-geo/landprep/internal/impedance"
)

// loadStressorRegistry rebuilds the stressor registry from the configured
// LULC codes and the enrichment stage's stressors file, without re-extracting
// masks.
func loadStressorRegistry() (*impedance.Registry, *impedance.ConfigFile, impedance.Params, error) {
	cfgFile, err := impedance.LoadConfigFile(cfg.Impedance.ConfigPath)
	if err != nil {
		return nil, nil, impedance.Params{}, err
	}

	codes, err := cfg.LULC.MappingCodes()
	if err != nil {
		return nil, nil, impedance.Params{}, err
	}

	template := impedance.Placeholder(cfg.Impedance.DeclineType, cfg.Impedance.LambdaDecay, cfg.Impedance.KValue)
	reg := impedance.NewRegistry()
	maskDir := filepath.Join(cfg.Paths.OutputDir, "stressor_masks")

	if err := impedance.RegisterLULC(codes, maskDir, firstYear(), reg, cfgFile, template); err != nil {
		return nil, nil, impedance.Params{}, err
	}
	if err := impedance.DiscoverOSM(cfg.Impedance.StressorsPath, reg, cfgFile, template); err != nil {
		return nil, nil, impedance.Params{}, err
	}
	return reg, cfgFile, template, nil
}

var impedanceValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the decay configuration",
	Long:  "Checks every stressor's parameter block against the required template: exact key set and matching YAML types. All violations are reported before the command fails.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, cfgFile, template, err := loadStressorRegistry()
		if err != nil {
			return err
		}

		if err := impedance.Validate(cfgFile, reg, template); err != nil {
			return err
		}
		fmt.Printf("impedance configuration valid for %d stressors\n", reg.Len())
		return nil
	},
}

func init() { impedanceCmd.AddCommand(impedanceValidateCmd) }
