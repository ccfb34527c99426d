package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/impedance"
	"github.com/ecotone-geo/landprep/internal/raster"
)

var impedanceCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Accumulate edge effects into the impedance raster",
	Long:  "Validates the decay configuration, then per stressor computes a proximity raster, applies the configured decay and folds the effect into a running cell-wise maximum. The accumulator is merged with the base impedance raster and rescaled to its maximum.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg, cfgFile, template, err := loadStressorRegistry()
		if err != nil {
			return err
		}
		if err := impedance.Validate(cfgFile, reg, template); err != nil {
			return err
		}

		year := firstYear()
		basePath := impedancePath(year)
		impedanceMax, err := raster.MaxValue(basePath)
		if err != nil {
			return eris.Wrap(err, "impedance calc")
		}
		zap.L().Info("base impedance raster",
			zap.String("path", basePath), zap.Float64("max", impedanceMax))

		outDir := filepath.Join(cfg.Paths.OutputDir, "impedance")
		engine := impedance.NewEngine(toolchain(), reg, cfgFile, basePath, impedanceMax, outDir)
		out, err := engine.Run(ctx, year)
		if err != nil {
			return eris.Wrap(err, "impedance calc")
		}

		// the stressors file is a hand-off from the enrichment stage; once
		// consumed it would only go stale
		if err := os.Remove(cfg.Impedance.StressorsPath); err != nil && !os.IsNotExist(err) {
			zap.L().Warn("could not remove stressors file",
				zap.String("path", cfg.Impedance.StressorsPath), zap.Error(err))
		}

		fmt.Printf("decay-adjusted impedance written to %s\n", out)
		return nil
	},
}

func init() { impedanceCmd.AddCommand(impedanceCalcCmd) }
