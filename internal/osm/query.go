// Package osm fetches OpenStreetMap infrastructure and water features from
// the Overpass API for the extent of the land-cover grid, filters the raw
// extracts down to the geometries that matter for connectivity, and merges
// them into a single GeoPackage.
package osm

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Themes returns the feature themes fetched from Overpass, in the order they
// are queried and merged.
func Themes() []string {
	return []string{"roads", "railways", "waterways", "waterbodies"}
}

// Overpass QL bodies per theme. The date clause pins the query to the last
// second of the requested year so extracts are reproducible. Residential
// roads are left out: residential areas are already present in the
// land-cover data.
const (
	roadsQuery = `
	[out:json]
	[maxsize:%d]
	[timeout:%d]
	[date:"%d-12-31T23:59:59Z"]
	[bbox:%s];
	way["highway"~"(motorway|trunk|primary|secondary|tertiary)"];
	/* also includes 'motorway_link', 'trunk_link' etc. because they also restrict habitat connectivity */
	(._;>;);
	out body;
	`

	railwaysQuery = `
	[out:json]
	[maxsize:%d]
	[timeout:%d]
	[date:"%d-12-31T23:59:59Z"]
	[bbox:%s];
	way["railway"~"(rail|light_rail|narrow_gauge|tram|preserved)"];
	(._;>;);
	out;
	`

	waterwaysQuery = `
	[out:json]
	[maxsize:%d]
	[timeout:%d]
	[date:"%d-12-31T23:59:59Z"]
	[bbox:%s];
	(
	way["waterway"~"^(river|canal|flowline|tidal_channel)$"];
	way["water"~"^(river|canal)$"];
	);
	/* ^ and $ symbols to exclude 'riverbank' and 'derelict_canal' */
	(._;>;);
	out;
	`

	waterbodiesQuery = `
	[out:json]
	[maxsize:%d]
	[timeout:%d]
	[date:"%d-12-31T23:59:59Z"]
	[bbox:%s];
	(
	nwr["natural"="water"];
	nwr["water"~"^(cenote|lagoon|lake|oxbow|rapids|river|stream|stream_pool|canal|harbour|pond|reservoir|wastewater|tidal|natural)$"];
	nwr["landuse"="reservoir"];
	nwr["waterway"="riverbank"];
	/* nodes, ways and relations together so complete polygon features come back */
	);
	(._;>;);
	out;
	`
)

// Query builds the Overpass QL statement for a theme, pinned to the end of
// year and clipped to a WGS84 bbox in south,west,north,east order. maxSize
// and timeoutSecs become the query's own resource limits; the server aborts
// rather than truncates when they are hit.
func Query(theme string, year int, bbox string, maxSize int64, timeoutSecs int) (string, error) {
	var tmpl string
	switch theme {
	case "roads":
		tmpl = roadsQuery
	case "railways":
		tmpl = railwaysQuery
	case "waterways":
		tmpl = waterwaysQuery
	case "waterbodies":
		tmpl = waterbodiesQuery
	default:
		return "", eris.Errorf("osm: unknown theme %q", theme)
	}
	return fmt.Sprintf(tmpl, maxSize, timeoutSecs, year, bbox), nil
}
