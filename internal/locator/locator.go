// Package locator resolves the government health facilities near a caller.
// A resolution either succeeds with live data from a FacilityProvider or
// falls back, as a whole, to the bundled offline table.
package locator

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/swasthya/internal/logging"
)

const (
	// DefaultRadiusMeters is the search radius sent to the provider.
	DefaultRadiusMeters = 8000
	// DefaultTimeout bounds the provider query.
	DefaultTimeout = 10 * time.Second

	defaultFacilityName = "Health Facility"
)

// State describes how a resolution ended.
type State string

const (
	StateLive         State = "LIVE_OK"
	StateNoPermission State = "OFFLINE_NO_PERMISSION"
	StateFetchError   State = "OFFLINE_FETCH_ERROR"
	StateEmpty        State = "OFFLINE_EMPTY"
)

// Source tags where a record came from.
type Source string

const (
	SourceLive    Source = "live"
	SourceOffline Source = "offline"
)

const (
	msgNoPermission = "Location permission denied. Offline mode enabled."
	msgFetchError   = "Unable to fetch hospital data. Offline mode enabled."
	msgEmpty        = "No health facilities found nearby."
)

// ErrPermissionDenied is returned by a PositionSource when the caller
// withheld or could not provide a location.
var ErrPermissionDenied = errors.New("location permission denied")

// PositionSource acquires the caller position once per resolution.
type PositionSource interface {
	Acquire(ctx context.Context) (Position, error)
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func(ctx context.Context) (Position, error)

// Acquire calls f.
func (f PositionFunc) Acquire(ctx context.Context) (Position, error) { return f(ctx) }

// Fixed returns a PositionSource that always yields p.
func Fixed(p Position) PositionSource {
	return PositionFunc(func(context.Context) (Position, error) { return p, nil })
}

// Denied returns a PositionSource that always fails with ErrPermissionDenied.
func Denied() PositionSource {
	return PositionFunc(func(context.Context) (Position, error) { return Position{}, ErrPermissionDenied })
}

// Element is one raw feature returned by a provider. Point is set for
// point features, Center for area features; either may be nil.
type Element struct {
	Name   string
	Point  *Position
	Center *Position
}

// FacilityProvider answers bounded-radius health facility queries.
type FacilityProvider interface {
	Nearby(ctx context.Context, center Position, radiusMeters int) ([]Element, error)
}

// Record is a facility ready for rendering.
type Record struct {
	Name          string       `json:"name"`
	Type          FacilityType `json:"type"`
	Position      *Position    `json:"position,omitempty"`
	DistanceKm    *float64     `json:"distance_km,omitempty"`
	DistanceLabel string       `json:"distance_label,omitempty"`
	MapsURL       string       `json:"maps_url,omitempty"`
	Source        Source       `json:"source"`
}

// Result is what a single resolution produces.
type Result struct {
	State      State     `json:"state"`
	Message    string    `json:"message,omitempty"`
	Position   *Position `json:"position"`
	Facilities []Record  `json:"facilities"`
}

// Live reports whether the facilities came from the provider.
func (r Result) Live() bool { return r.State == StateLive }

// Locator implements the facility resolution. It holds no mutable state,
// so a single Locator serves concurrent resolutions.
type Locator struct {
	provider FacilityProvider
	radius   int
	timeout  time.Duration
	log      logging.Logger
}

// Option customises a Locator.
type Option func(*Locator)

// WithRadius overrides the search radius in meters.
func WithRadius(m int) Option {
	return func(l *Locator) {
		if m > 0 {
			l.radius = m
		}
	}
}

// WithTimeout overrides the provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log logging.Logger) Option {
	return func(l *Locator) {
		if log != nil {
			l.log = log
		}
	}
}

// New returns a Locator backed by provider.
func New(provider FacilityProvider, opts ...Option) *Locator {
	l := &Locator{
		provider: provider,
		radius:   DefaultRadiusMeters,
		timeout:  DefaultTimeout,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve runs one locate attempt. It never fails: every problem is turned
// into an offline Result whose State names the cause.
func (l *Locator) Resolve(ctx context.Context, src PositionSource) Result {
	pos, err := src.Acquire(ctx)
	if err != nil || !pos.Valid() {
		l.log.WithError(err).Debug("locator: no caller position")
		return offlineResult(StateNoPermission, nil)
	}

	qctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	elements, err := l.provider.Nearby(qctx, pos, l.radius)
	if err != nil {
		l.log.WithError(err).WithFields(logging.Fields{
			"lat": pos.Lat,
			"lon": pos.Lon,
		}).Warn("locator: provider query failed")
		return offlineResult(StateFetchError, &pos)
	}

	records := liveRecords(pos, elements)
	if len(records) == 0 {
		l.log.WithField("elements", len(elements)).Info("locator: no usable facilities")
		return offlineResult(StateEmpty, &pos)
	}
	return Result{State: StateLive, Position: &pos, Facilities: records}
}

// liveRecords keeps provider order and drops elements with no coordinate.
func liveRecords(from Position, elements []Element) []Record {
	out := make([]Record, 0, len(elements))
	for _, el := range elements {
		at, ok := effectivePosition(el)
		if !ok {
			continue
		}
		name := el.Name
		if name == "" {
			name = defaultFacilityName
		}
		d := HaversineKm(from, at)
		p := at
		out = append(out, Record{
			Name:       name,
			Type:       Classify(el.Name),
			Position:   &p,
			DistanceKm: &d,
			MapsURL:    at.MapsURL(),
			Source:     SourceLive,
		})
	}
	return out
}

func effectivePosition(el Element) (Position, bool) {
	if el.Point != nil && el.Point.Valid() {
		return *el.Point, true
	}
	if el.Center != nil && el.Center.Valid() {
		return *el.Center, true
	}
	return Position{}, false
}

func offlineResult(state State, pos *Position) Result {
	table := OfflineTable()
	records := make([]Record, 0, len(table))
	for _, f := range table {
		records = append(records, Record{
			Name:          f.Name,
			Type:          f.Type,
			DistanceLabel: f.DistanceLabel,
			Source:        SourceOffline,
		})
	}
	return Result{State: state, Message: messageFor(state), Position: pos, Facilities: records}
}

func messageFor(s State) string {
	switch s {
	case StateNoPermission:
		return msgNoPermission
	case StateFetchError:
		return msgFetchError
	case StateEmpty:
		return msgEmpty
	}
	return ""
}
