package locator

import (
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the position lies within the WGS84 coordinate ranges.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// MapsURL is the external directions link rendered next to live facilities.
func (p Position) MapsURL() string {
	return "https://www.google.com/maps?q=" + formatCoord(p.Lat) + "," + formatCoord(p.Lon)
}

// HaversineKm returns the great-circle distance between a and b in
// kilometres, rounded to two decimals.
func HaversineKm(a, b Position) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h marginally outside [0,1] near antipodes
	h = math.Min(1, math.Max(0, h))
	d := 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return round2(d)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
