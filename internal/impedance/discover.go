package impedance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ecotone-geo/landprep/internal/raster"
)

// LoadStressors reads the stressors YAML written by the enrichment stage:
// a flat alias to raster-path mapping.
func LoadStressors(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "impedance: read stressors file %s", path)
	}
	var stressors map[string]string
	if err := yaml.Unmarshal(raw, &stressors); err != nil {
		return nil, eris.Wrapf(err, "impedance: parse stressors file %s", path)
	}
	return stressors, nil
}

// WriteStressors persists the alias to raster-path mapping for the impedance
// init stage to pick up.
func WriteStressors(path string, stressors map[string]string) error {
	out, err := yaml.Marshal(stressors)
	if err != nil {
		return eris.Wrap(err, "impedance: encode stressors")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrapf(err, "impedance: write %s", path)
	}
	return nil
}

// DiscoverLULC registers one stressor per configured LULC class code. Each
// class gets a footprint mask extracted from the combined LULC raster so
// the proximity step has something to measure distance to. Aliases are
// processed in sorted order for deterministic registration.
func DiscoverLULC(lulcPath string, codes map[string]int, outDir string, year int,
	reg *Registry, cfg *ConfigFile, template Params) error {

	if len(codes) == 0 {
		zap.L().Warn("no lulc stressor codes configured, skipping lulc discovery")
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "impedance: create %s", outDir)
	}

	aliases := make([]string, 0, len(codes))
	for alias := range codes {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		mask := MaskPath(outDir, alias, year)
		if err := raster.ClassMask(lulcPath, mask, float64(codes[alias])); err != nil {
			return err
		}
		if err := reg.Add(alias, mask); err != nil {
			return err
		}
		cfg.SetStressorParams(alias, template)
		zap.L().Info("registered lulc stressor", zap.String("alias", alias), zap.Int("code", codes[alias]))
	}
	return nil
}

// MaskPath is the location of a LULC class-mask raster.
func MaskPath(outDir, alias string, year int) string {
	return filepath.Join(outDir, fmt.Sprintf("%s_%d.tif", alias, year))
}

// RegisterLULC registers the class-mask rasters a previous init run
// extracted, without rebuilding them. Missing masks surface later as
// per-stressor skips in the engine.
func RegisterLULC(codes map[string]int, outDir string, year int,
	reg *Registry, cfg *ConfigFile, template Params) error {

	aliases := make([]string, 0, len(codes))
	for alias := range codes {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		if err := reg.Add(alias, MaskPath(outDir, alias, year)); err != nil {
			return err
		}
		cfg.SetStressorParams(alias, template)
	}
	return nil
}

// DiscoverOSM registers the stressors the enrichment stage produced, in
// sorted alias order.
func DiscoverOSM(stressorsPath string, reg *Registry, cfg *ConfigFile, template Params) error {
	stressors, err := LoadStressors(stressorsPath)
	if err != nil {
		return err
	}
	if len(stressors) == 0 {
		zap.L().Warn("stressors file has no entries", zap.String("path", stressorsPath))
		return nil
	}

	aliases := make([]string, 0, len(stressors))
	for alias := range stressors {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		if err := reg.Add(alias, stressors[alias]); err != nil {
			return err
		}
		cfg.SetStressorParams(alias, template)
		zap.L().Info("registered osm stressor", zap.String("alias", alias), zap.String("raster", stressors[alias]))
	}
	return nil
}
