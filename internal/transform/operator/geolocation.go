package operator

import (
	"context"
	"fmt"
	"math"

	"github.com/tgberrios/datasync/internal/transform"
)

// Geolocation derives columns from a pair of lat/lon columns: the
// great-circle distance in kilometers to a fixed reference point (mode
// "distance", the default, using reference_lat/reference_lon and
// writing target_column), a coarse bucket of a 1-degree grid cell (mode
// "grid_cell", writing target_column as "lat,lon" rounded down), or
// whether the point falls inside a polygon (mode "point_in_polygon",
// using the "polygon" config as a list of [lat, lon] pairs and writing
// a bool to target_column).
type Geolocation struct{}

func (Geolocation) TypeName() string { return "geolocation" }

func (Geolocation) Validate(cfg map[string]any) error {
	if _, ok := configString(cfg, "lat_column"); !ok {
		return fmt.Errorf("geolocation: lat_column is required")
	}
	if _, ok := configString(cfg, "lon_column"); !ok {
		return fmt.Errorf("geolocation: lon_column is required")
	}
	if _, ok := configString(cfg, "target_column"); !ok {
		return fmt.Errorf("geolocation: target_column is required")
	}
	switch mode, _ := configString(cfg, "mode"); mode {
	case "distance", "grid_cell", "":
	case "point_in_polygon":
		if len(parsePolygon(cfg)) < 3 {
			return fmt.Errorf("geolocation: polygon needs at least 3 points")
		}
	default:
		return fmt.Errorf("geolocation: unknown mode %q", mode)
	}
	return nil
}

type point struct{ lat, lon float64 }

func parsePolygon(cfg map[string]any) []point {
	raw, _ := cfg["polygon"].([]any)
	out := make([]point, 0, len(raw))
	for _, item := range raw {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		lat, latOK := asFloat(pair[0])
		lon, lonOK := asFloat(pair[1])
		if latOK && lonOK {
			out = append(out, point{lat: lat, lon: lon})
		}
	}
	return out
}

// pointInPolygon implements the standard ray-casting test.
func pointInPolygon(lat, lon float64, poly []point) bool {
	inside := false
	j := len(poly) - 1
	for i := range poly {
		pi, pj := poly[i], poly[j]
		if (pi.lon > lon) != (pj.lon > lon) &&
			lat < (pj.lat-pi.lat)*(lon-pi.lon)/(pj.lon-pi.lon)+pi.lat {
			inside = !inside
		}
		j = i
	}
	return inside
}

const earthRadiusKM = 6371.0

func (Geolocation) Execute(ctx context.Context, rows []transform.Row, cfg map[string]any) ([]transform.Row, error) {
	latCol, _ := configString(cfg, "lat_column")
	lonCol, _ := configString(cfg, "lon_column")
	target, _ := configString(cfg, "target_column")
	mode, _ := configString(cfg, "mode")
	if mode == "" {
		mode = "distance"
	}
	refLat := configFloat(cfg, "reference_lat", 0)
	refLon := configFloat(cfg, "reference_lon", 0)
	polygon := parsePolygon(cfg)

	out := make([]transform.Row, len(rows))
	for i, r := range rows {
		nr := cloneRow(r)
		lat, latOK := asFloat(r[latCol])
		lon, lonOK := asFloat(r[lonCol])
		if !latOK || !lonOK {
			out[i] = nr
			continue
		}
		switch mode {
		case "grid_cell":
			nr[target] = fmt.Sprintf("%d,%d", int(math.Floor(lat)), int(math.Floor(lon)))
		case "point_in_polygon":
			nr[target] = pointInPolygon(lat, lon, polygon)
		default:
			nr[target] = haversineKM(lat, lon, refLat, refLon)
		}
		out[i] = nr
	}
	return out, nil
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
