package impedance

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Validate checks every registered stressor's parameter block in the
// (possibly user-edited) configuration against the placeholder template:
// the key set must match exactly and each value's YAML type must match the
// template's. Every violation is warned individually so a user sees all
// problems in one run; a single aggregate error is returned at the end.
func Validate(cfg *ConfigFile, reg *Registry, template Params) error {
	templateMap := template.asMap()
	var violations []string

	report := func(msg string, fields ...zap.Field) {
		zap.L().Warn(msg, fields...)
		violations = append(violations, msg)
	}

	for _, alias := range reg.Aliases() {
		block, ok := cfg.StressorParams(alias)
		if !ok {
			report(fmt.Sprintf("stressor %q has no parameter block", alias))
			continue
		}

		for key, value := range block {
			want, known := templateMap[key]
			if !known {
				report(fmt.Sprintf("stressor %q: unexpected parameter %q", alias, key))
				continue
			}
			if !typeMatches(want, value) {
				report(fmt.Sprintf("stressor %q: parameter %q should be %s, got %s",
					alias, key, yamlType(want), yamlType(value)))
			}
		}
		for key := range templateMap {
			if _, present := block[key]; !present {
				report(fmt.Sprintf("stressor %q: parameter %q is missing", alias, key))
			}
		}
	}

	if len(violations) > 0 {
		return eris.Errorf("impedance: configuration validation failed with %d problem(s)", len(violations))
	}
	return nil
}

// typeMatches compares the YAML type of a value against the template's. The
// types key is null in the template but may legitimately hold a string.
func typeMatches(want, got any) bool {
	if want == nil {
		return got == nil || yamlType(got) == "string"
	}
	return yamlType(want) == yamlType(got)
}

func yamlType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int, int64, uint64:
		return "number"
	case float64, float32:
		return "number"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	default:
		return fmt.Sprintf("%T", v)
	}
}
