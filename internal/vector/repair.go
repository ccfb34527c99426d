package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	geos "github.com/twpayne/go-geos"
	"go.uber.org/zap"
)

// RepairReport counts geometry repairs in one layer.
type RepairReport struct {
	Layer     string
	Needed    int
	Fixed     int
	Unfixable int
}

// Repair scans every layer for invalid geometries and rewrites the dataset
// with repaired copies where the repair succeeds. Features whose repair
// fails keep their original geometry and are counted as unfixable.
// Reprojection between very different CRSs can leave self-intersecting
// rings behind, which later buffer and rasterize steps reject.
func (p *Preprocessor) Repair(ctx context.Context) ([]RepairReport, error) {
	layers, err := ListLayers(p.source)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(p.source)
	base := p.source[:len(p.source)-len(ext)]
	repaired := fmt.Sprintf("%s_valid%s", base, ext)

	var reports []RepairReport
	for i, layer := range layers {
		gj := fmt.Sprintf("%s_%s_repair.geojson", base, layer)
		if err := p.tc.ExportGeoJSON(ctx, p.source, layer, gj); err != nil {
			return nil, err
		}

		rep, err := repairGeoJSON(gj, layer)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)

		if i == 0 {
			err = p.tc.InitGPKGLayer(ctx, gj, repaired, layer, p.crs)
		} else {
			err = p.tc.AppendGPKGLayer(ctx, gj, repaired, layer, p.crs)
		}
		os.Remove(gj) //nolint:errcheck
		if err != nil {
			return nil, err
		}

		zap.L().Info("repaired layer geometries",
			zap.String("layer", layer),
			zap.Int("needed", rep.Needed),
			zap.Int("fixed", rep.Fixed),
			zap.Int("unfixable", rep.Unfixable),
		)
	}

	if err := os.Rename(repaired, p.source); err != nil {
		return nil, eris.Wrapf(err, "vector: replace %s with repaired copy", p.source)
	}
	return reports, nil
}

type repairFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// repairGeoJSON repairs a layer export in place and reports the counts.
func repairGeoJSON(path, layer string) (RepairReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RepairReport{}, eris.Wrapf(err, "vector: read %s", path)
	}

	var fc struct {
		Type     string          `json:"type"`
		Features []repairFeature `json:"features"`
	}
	if err := json.Unmarshal(raw, &fc); err != nil {
		return RepairReport{}, eris.Wrapf(err, "vector: parse %s", path)
	}

	rep := RepairReport{Layer: layer}
	for i := range fc.Features {
		g, err := geos.NewGeomFromGeoJSON(string(fc.Features[i].Geometry))
		if err != nil || g == nil {
			continue
		}
		if g.IsValid() {
			continue
		}
		rep.Needed++

		fixed := tryMakeValid(g)
		if fixed == nil || !fixed.IsValid() {
			rep.Unfixable++
			continue
		}
		fc.Features[i].Geometry = json.RawMessage(fixed.ToGeoJSON(-1))
		rep.Fixed++
	}

	if rep.Needed == 0 {
		return rep, nil
	}

	out, err := json.Marshal(fc)
	if err != nil {
		return rep, eris.Wrapf(err, "vector: encode %s", path)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return rep, eris.Wrapf(err, "vector: write %s", path)
	}
	return rep, nil
}

// GEOS signals some unrepairable inputs by panicking through the error
// handler rather than returning nil.
func tryMakeValid(g *geos.Geom) (fixed *geos.Geom) {
	defer func() {
		if recover() != nil {
			fixed = nil
		}
	}()
	return g.MakeValid()
}
