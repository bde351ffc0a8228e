// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import (
	"math"
	"time"

	"github.com/iliyamo/swasthya/internal/locator"
)

// LookupQueueName is the durable queue lookup events are published to.
const LookupQueueName = "facility.lookup"

// FacilityLookupEvent is published after every hospital lookup.  The
// coordinates are rounded to two decimals (about 1 km) so the audit trail
// never carries a precise caller location.
type FacilityLookupEvent struct {
	State         string   `json:"state"`
	Source        string   `json:"source"`
	FacilityCount int      `json:"facility_count"`
	Lat           *float64 `json:"lat,omitempty"`
	Lon           *float64 `json:"lon,omitempty"`
	ResolvedAt    string   `json:"resolved_at"`
}

// NewLookupEvent summarises res.
func NewLookupEvent(res locator.Result, at time.Time) FacilityLookupEvent {
	ev := FacilityLookupEvent{
		State:         string(res.State),
		Source:        string(locator.SourceOffline),
		FacilityCount: len(res.Facilities),
		ResolvedAt:    at.UTC().Format(time.RFC3339),
	}
	if res.Live() {
		ev.Source = string(locator.SourceLive)
	}
	if res.Position != nil {
		lat := coarse(res.Position.Lat)
		lon := coarse(res.Position.Lon)
		ev.Lat, ev.Lon = &lat, &lon
	}
	return ev
}

func coarse(v float64) float64 { return math.Round(v*100) / 100 }
