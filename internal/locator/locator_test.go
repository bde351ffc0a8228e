package locator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	elements []Element
	err      error
	calls    atomic.Int32
	gotPos   Position
	gotR     int
	mu       sync.Mutex
}

func (s *stubProvider) Nearby(ctx context.Context, center Position, radius int) ([]Element, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.gotPos, s.gotR = center, radius
	s.mu.Unlock()
	return s.elements, s.err
}

type blockingProvider struct{}

func (blockingProvider) Nearby(ctx context.Context, _ Position, _ int) ([]Element, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func pos(lat, lon float64) *Position { return &Position{Lat: lat, Lon: lon} }

func assertOfflineTable(t *testing.T, res Result) {
	t.Helper()
	table := OfflineTable()
	require.Len(t, res.Facilities, len(table))
	for i, f := range table {
		r := res.Facilities[i]
		assert.Equal(t, f.Name, r.Name)
		assert.Equal(t, f.Type, r.Type)
		assert.Equal(t, f.DistanceLabel, r.DistanceLabel)
		assert.Equal(t, SourceOffline, r.Source)
		assert.Nil(t, r.Position)
		assert.Nil(t, r.DistanceKm)
		assert.Empty(t, r.MapsURL)
	}
}

func TestResolvePermissionDenied(t *testing.T) {
	p := &stubProvider{}
	res := New(p).Resolve(context.Background(), Denied())

	assert.Equal(t, StateNoPermission, res.State)
	assert.Equal(t, msgNoPermission, res.Message)
	assert.Nil(t, res.Position)
	assert.Zero(t, p.calls.Load())
	assertOfflineTable(t, res)
}

func TestResolveInvalidPositionTreatedAsDenied(t *testing.T) {
	p := &stubProvider{}
	res := New(p).Resolve(context.Background(), Fixed(Position{Lat: 120, Lon: 0}))

	assert.Equal(t, StateNoPermission, res.State)
	assert.Zero(t, p.calls.Load())
}

func TestResolveProviderFailure(t *testing.T) {
	for _, at := range []Position{{Lat: 28.61, Lon: 77.23}, {Lat: 12.97, Lon: 77.59}, {Lat: 0, Lon: 0}} {
		p := &stubProvider{err: errors.New("connection refused")}
		res := New(p).Resolve(context.Background(), Fixed(at))

		assert.Equal(t, StateFetchError, res.State)
		assert.Equal(t, msgFetchError, res.Message)
		require.NotNil(t, res.Position)
		assert.Equal(t, at, *res.Position)
		assertOfflineTable(t, res)
	}
}

func TestResolveTimeoutIsFetchError(t *testing.T) {
	l := New(blockingProvider{}, WithTimeout(20*time.Millisecond))
	start := time.Now()
	res := l.Resolve(context.Background(), Fixed(Position{Lat: 28.61, Lon: 77.23}))

	assert.Equal(t, StateFetchError, res.State)
	assert.Less(t, time.Since(start), 2*time.Second)
	assertOfflineTable(t, res)
}

func TestResolveEmptyResponse(t *testing.T) {
	p := &stubProvider{}
	res := New(p).Resolve(context.Background(), Fixed(Position{Lat: 28.61, Lon: 77.23}))

	assert.Equal(t, StateEmpty, res.State)
	assert.Equal(t, msgEmpty, res.Message)
	assertOfflineTable(t, res)
}

func TestResolveAllElementsWithoutCoordinates(t *testing.T) {
	p := &stubProvider{elements: []Element{
		{Name: "Ghost PHC"},
		{Name: "Nameless way"},
	}}
	res := New(p).Resolve(context.Background(), Fixed(Position{Lat: 28.61, Lon: 77.23}))

	assert.Equal(t, StateEmpty, res.State)
	assertOfflineTable(t, res)
}

func TestResolveSingleLiveElement(t *testing.T) {
	p := &stubProvider{elements: []Element{{Name: "AIIMS", Point: pos(28.70, 77.10)}}}
	caller := Position{Lat: 28.61, Lon: 77.23}
	res := New(p).Resolve(context.Background(), Fixed(caller))

	require.Equal(t, StateLive, res.State)
	assert.Empty(t, res.Message)
	require.Len(t, res.Facilities, 1)
	r := res.Facilities[0]
	assert.Equal(t, SourceLive, r.Source)
	require.NotNil(t, r.DistanceKm)
	assert.Equal(t, HaversineKm(caller, Position{Lat: 28.70, Lon: 77.10}), *r.DistanceKm)
	assert.InDelta(t, 16.16, *r.DistanceKm, 0.001)
	assert.Equal(t, "https://www.google.com/maps?q=28.7,77.1", r.MapsURL)
}

func TestResolveBangaloreScenario(t *testing.T) {
	p := &stubProvider{elements: []Element{
		{Name: "Govt PHC Whitefield", Point: pos(12.98, 77.75)},
		{Name: "City CHC", Center: pos(12.90, 77.50)},
	}}
	res := New(p).Resolve(context.Background(), Fixed(Position{Lat: 12.97, Lon: 77.59}))

	require.Equal(t, StateLive, res.State)
	require.Len(t, res.Facilities, 2)

	first, second := res.Facilities[0], res.Facilities[1]
	assert.Equal(t, "Govt PHC Whitefield", first.Name)
	assert.Equal(t, TypePHC, first.Type)
	assert.Equal(t, "City CHC", second.Name)
	assert.Equal(t, TypeCHC, second.Type)
	for _, r := range res.Facilities {
		assert.Equal(t, SourceLive, r.Source)
		require.NotNil(t, r.DistanceKm)
		assert.Greater(t, *r.DistanceKm, 0.0)
	}
	assert.Equal(t, 17.37, *first.DistanceKm)
	assert.Equal(t, 12.48, *second.DistanceKm)
	assert.Equal(t, Position{Lat: 12.90, Lon: 77.50}, *second.Position)
}

func TestResolveDropsMalformedAndKeepsOrder(t *testing.T) {
	p := &stubProvider{elements: []Element{
		{Name: "Far Hospital", Point: pos(13.10, 77.59)},
		{Name: "No coords PHC"},
		{Name: "", Point: pos(12.971, 77.591)},
		{Name: "Area CHC", Point: nil, Center: pos(12.95, 77.60)},
	}}
	res := New(p).Resolve(context.Background(), Fixed(Position{Lat: 12.97, Lon: 77.59}))

	require.Equal(t, StateLive, res.State)
	require.Len(t, res.Facilities, 3)
	assert.Equal(t, "Far Hospital", res.Facilities[0].Name)
	assert.Equal(t, "Health Facility", res.Facilities[1].Name)
	assert.Equal(t, TypeHospital, res.Facilities[1].Type)
	assert.Equal(t, "Area CHC", res.Facilities[2].Name)
	assert.Greater(t, *res.Facilities[0].DistanceKm, *res.Facilities[1].DistanceKm)
}

func TestResolvePointPreferredOverCenter(t *testing.T) {
	p := &stubProvider{elements: []Element{
		{Name: "Both", Point: pos(12.98, 77.75), Center: pos(12.90, 77.50)},
	}}
	res := New(p).Resolve(context.Background(), Fixed(Position{Lat: 12.97, Lon: 77.59}))

	require.Len(t, res.Facilities, 1)
	assert.Equal(t, Position{Lat: 12.98, Lon: 77.75}, *res.Facilities[0].Position)
}

func TestResolvePassesRadius(t *testing.T) {
	p := &stubProvider{}
	at := Position{Lat: 12.97, Lon: 77.59}
	New(p).Resolve(context.Background(), Fixed(at))
	assert.Equal(t, DefaultRadiusMeters, p.gotR)
	assert.Equal(t, at, p.gotPos)

	New(p, WithRadius(5000)).Resolve(context.Background(), Fixed(at))
	assert.Equal(t, 5000, p.gotR)
}

func TestResolveConcurrent(t *testing.T) {
	p := &stubProvider{elements: []Element{{Name: "Govt PHC", Point: pos(12.98, 77.75)}}}
	l := New(p)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Resolve(context.Background(), Fixed(Position{Lat: 12.97, Lon: 77.59}))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, StateLive, r.State)
		require.Len(t, r.Facilities, 1)
	}
	assert.EqualValues(t, 16, p.calls.Load())
}

func TestOfflineTableIsCopy(t *testing.T) {
	a := OfflineTable()
	a[0].Name = "mutated"
	assert.NotEqual(t, "mutated", OfflineTable()[0].Name)
}
