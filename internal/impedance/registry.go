// Package impedance builds the per-stressor decay configuration and runs the
// edge-effect accumulation that turns stressor rasters into a decay-adjusted
// impedance surface.
package impedance

import (
	"github.com/rotisserie/eris"
)

// Stressor maps a configuration alias to its source raster.
type Stressor struct {
	Alias      string
	RasterPath string
}

// Registry holds stressors in registration order: LULC-derived stressors
// first, then OSM-derived ones. The accumulation engine consumes it in this
// order.
type Registry struct {
	stressors []Stressor
	seen      map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// Add registers a stressor. A duplicate alias is a configuration error: two
// sources claiming one alias would silently shadow each other's decay
// parameters.
func (r *Registry) Add(alias, rasterPath string) error {
	if _, dup := r.seen[alias]; dup {
		return eris.Errorf("impedance: stressor alias %q registered twice", alias)
	}
	r.seen[alias] = struct{}{}
	r.stressors = append(r.stressors, Stressor{Alias: alias, RasterPath: rasterPath})
	return nil
}

// Stressors returns the registered stressors in registration order.
func (r *Registry) Stressors() []Stressor {
	return r.stressors
}

// Aliases returns the aliases in registration order.
func (r *Registry) Aliases() []string {
	out := make([]string, len(r.stressors))
	for i, s := range r.stressors {
		out[i] = s.Alias
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.stressors)
}
