package gdal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Point is a coordinate pair in the order the CRS defines.
type Point struct {
	X float64
	Y float64
}

// TransformPoints reprojects coordinate pairs between two CRSes by piping
// them through gdaltransform. Used to express a projected raster extent in
// the geographic coordinates the Overpass API expects.
func (t *Toolchain) TransformPoints(ctx context.Context, srcEPSG, dstEPSG int, pts []Point) ([]Point, error) {
	var in bytes.Buffer
	for _, p := range pts {
		fmt.Fprintf(&in, "%s %s\n", ftoa(p.X), ftoa(p.Y))
	}

	args := []string{"-s_srs", epsg(srcEPSG), "-t_srs", epsg(dstEPSG), "-output_xy"}
	res, err := t.r.Run(ctx, Command{Bin: t.bins.GdalTransform, Args: args, Stdin: &in})
	if err != nil {
		return nil, eris.Wrapf(err, "gdal: transform points %d -> %d", srcEPSG, dstEPSG)
	}

	out, err := parseTransformOutput(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(out) != len(pts) {
		return nil, eris.Errorf("gdal: transform returned %d points, expected %d", len(out), len(pts))
	}
	return out, nil
}

func parseTransformOutput(raw []byte) ([]Point, error) {
	var pts []Point
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, eris.Errorf("gdal: malformed transform output line %q", line)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "gdal: parse transform x %q", fields[0])
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "gdal: parse transform y %q", fields[1])
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "gdal: scan transform output")
	}
	return pts, nil
}
