package overpass

import "github.com/iliyamo/swasthya/internal/locator"

// response is the subset of the Overpass JSON output the client reads.
type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// toElement keeps a coordinate only when both halves are present.
func (e element) toElement() locator.Element {
	out := locator.Element{Name: e.Tags["name"]}
	if e.Lat != nil && e.Lon != nil {
		out.Point = &locator.Position{Lat: *e.Lat, Lon: *e.Lon}
	}
	if e.Center != nil && e.Center.Lat != nil && e.Center.Lon != nil {
		out.Center = &locator.Position{Lat: *e.Center.Lat, Lon: *e.Center.Lon}
	}
	return out
}
