// Package raster holds the in-process raster operations: metadata snapshots,
// band statistics, reclassification and raster sums. Array math happens here;
// raster I/O stays inside GDAL (godal bindings or the CLI tools).
package raster

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ecotone-geo/landprep/internal/gdal"
)

// Metadata is an immutable snapshot of a raster file's georeferencing.
type Metadata struct {
	XMin      float64
	XMax      float64
	YMin      float64
	YMax      float64
	CellSize  float64
	XRes      float64
	YRes      float64
	EPSG      int
	Projected bool
}

type infoReport struct {
	Size             []int     `json:"size"`
	GeoTransform     []float64 `json:"geoTransform"`
	CoordinateSystem struct {
		WKT string `json:"wkt"`
	} `json:"coordinateSystem"`
}

var epsgAuthority = regexp.MustCompile(`(?:ID\["EPSG",(\d+)\]|AUTHORITY\["EPSG","(\d+)"\])`)

// ReadMetadata extracts the metadata snapshot from a raster file through
// gdalinfo.
func ReadMetadata(ctx context.Context, tc *gdal.Toolchain, path string) (Metadata, error) {
	raw, err := tc.Info(ctx, path)
	if err != nil {
		return Metadata{}, err
	}
	md, err := ParseInfoJSON(raw)
	if err != nil {
		return Metadata{}, eris.Wrapf(err, "raster: parse gdalinfo report for %s", path)
	}

	zap.L().Info("raster metadata",
		zap.String("path", path),
		zap.Float64("x_min", md.XMin),
		zap.Float64("x_max", md.XMax),
		zap.Float64("y_min", md.YMin),
		zap.Float64("y_max", md.YMax),
		zap.Float64("cell_size", md.CellSize),
		zap.Int("epsg", md.EPSG),
		zap.Bool("projected", md.Projected),
	)
	return md, nil
}

// ParseInfoJSON builds a Metadata snapshot from a gdalinfo -json report.
func ParseInfoJSON(raw []byte) (Metadata, error) {
	var rep infoReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		return Metadata{}, eris.Wrap(err, "raster: unmarshal gdalinfo json")
	}
	if len(rep.Size) != 2 {
		return Metadata{}, eris.New("raster: gdalinfo report missing size")
	}
	if len(rep.GeoTransform) != 6 {
		return Metadata{}, eris.New("raster: gdalinfo report missing geoTransform")
	}

	gt := rep.GeoTransform
	w, h := rep.Size[0], rep.Size[1]

	md := Metadata{
		XMin:     gt[0],
		XMax:     gt[0] + float64(w)*gt[1],
		YMax:     gt[3],
		YMin:     gt[3] + float64(h)*gt[5],
		XRes:     gt[1],
		YRes:     gt[5],
		CellSize: gt[1],
	}

	wkt := strings.TrimSpace(rep.CoordinateSystem.WKT)
	md.Projected = strings.HasPrefix(wkt, "PROJCRS") || strings.HasPrefix(wkt, "PROJCS")

	// The last EPSG authority clause in the WKT identifies the CRS itself;
	// earlier clauses belong to nested datum/axis nodes.
	matches := epsgAuthority.FindAllStringSubmatch(wkt, -1)
	if len(matches) > 0 {
		last := matches[len(matches)-1]
		code := last[1]
		if code == "" {
			code = last[2]
		}
		epsg, err := strconv.Atoi(code)
		if err == nil {
			md.EPSG = epsg
		}
	}
	if md.EPSG == 0 {
		return md, eris.New("raster: no EPSG authority found in CRS WKT")
	}

	return md, nil
}
