package impedance

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the impedance configuration document: stressor aliases
// mapped to decay parameter blocks, plus the initial_lulc switch. Kept as a
// generic document because users hand-edit it between the init and calc
// stages, and validation must see exactly what they wrote.
type ConfigFile struct {
	doc map[string]any
}

// LoadConfigFile reads an impedance configuration YAML. A missing file
// yields an empty document, matching the first run of the init stage.
func LoadConfigFile(path string) (*ConfigFile, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ConfigFile{doc: map[string]any{}}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "impedance: read %s", path)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "impedance: parse %s", path)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return &ConfigFile{doc: doc}, nil
}

// Save writes the document back to disk.
func (c *ConfigFile) Save(path string) error {
	out, err := yaml.Marshal(c.doc)
	if err != nil {
		return eris.Wrap(err, "impedance: encode configuration")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrapf(err, "impedance: write %s", path)
	}
	return nil
}

// NormalizeInitialLULC ensures the initial_lulc block exists with an enabled
// flag, defaulting to "false".
func (c *ConfigFile) NormalizeInitialLULC() {
	block, ok := c.doc["initial_lulc"].(map[string]any)
	if !ok || block == nil {
		c.doc["initial_lulc"] = map[string]any{"enabled": "false"}
		return
	}
	if block["enabled"] == nil {
		block["enabled"] = "false"
	}
}

// InitialLULCEnabled reports whether the base LULC impedance participates in
// the final merge.
func (c *ConfigFile) InitialLULCEnabled() bool {
	block, ok := c.doc["initial_lulc"].(map[string]any)
	if !ok {
		return false
	}
	switch v := block["enabled"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// SetStressorParams writes the parameter block for an alias, leaving an
// existing block untouched so user edits survive re-runs of the init stage.
func (c *ConfigFile) SetStressorParams(alias string, p Params) {
	if _, exists := c.doc[alias]; exists {
		return
	}
	c.doc[alias] = p.asMap()
}

// StressorParams returns the raw parameter block for an alias.
func (c *ConfigFile) StressorParams(alias string) (map[string]any, bool) {
	block, ok := c.doc[alias].(map[string]any)
	return block, ok
}

// DecayParams decodes the parameter block for an alias into typed form.
func (c *ConfigFile) DecayParams(alias string) (Params, error) {
	block, ok := c.StressorParams(alias)
	if !ok {
		return Params{}, eris.Errorf("impedance: no parameters for stressor %q", alias)
	}
	raw, err := yaml.Marshal(block)
	if err != nil {
		return Params{}, eris.Wrapf(err, "impedance: re-encode params for %q", alias)
	}
	var p Params
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Params{}, eris.Wrapf(err, "impedance: decode params for %q", alias)
	}
	return p, nil
}
