package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/swasthya/internal/locator"
	q "github.com/iliyamo/swasthya/internal/queue"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func call(e *echo.Echo, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

// ----- health -----

func TestHealth(t *testing.T) {
	e := newEcho()
	e.GET("/healthz", Health)
	rec := call(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReady(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	e := newEcho()
	e.GET("/readyz", (&ReadyHandler{DB: db, Redis: rdb}).Ready)
	e.GET("/readyz-noredis", (&ReadyHandler{DB: db}).Ready)

	mock.ExpectPing()
	rec := call(e, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mysql":"up","redis":"up"}`, rec.Body.String())

	mock.ExpectPing()
	rec = call(e, http.MethodGet, "/readyz-noredis", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mysql":"up","redis":"disabled"}`, rec.Body.String())

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	mr.Close()
	rec = call(e, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"mysql":"down","redis":"down"}`, rec.Body.String())
}

// ----- hospitals -----

type stubProvider struct {
	mu    sync.Mutex
	calls int
	els   []locator.Element
	err   error
}

func (s *stubProvider) Nearby(context.Context, locator.Position, int) ([]locator.Element, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.els, s.err
}

type chanPublisher chan q.FacilityLookupEvent

func (p chanPublisher) PublishLookup(_ context.Context, ev q.FacilityLookupEvent) error {
	p <- ev
	return nil
}

func TestHospitalsLive(t *testing.T) {
	prov := &stubProvider{els: []locator.Element{
		{Name: "Rural PHC", Point: &locator.Position{Lat: 12.9800, Lon: 77.6000}},
	}}
	events := make(chanPublisher, 1)
	h := NewHospitalHandler(locator.New(prov), events, nil)

	e := newEcho()
	e.GET("/v1/hospitals", h.Nearby)
	rec := call(e, http.MethodGet, "/v1/hospitals?lat=12.97&lon=77.59", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res locator.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, locator.StateLive, res.State)
	require.Len(t, res.Facilities, 1)
	assert.Equal(t, locator.TypePHC, res.Facilities[0].Type)
	assert.Equal(t, locator.SourceLive, res.Facilities[0].Source)

	select {
	case ev := <-events:
		assert.Equal(t, "LIVE_OK", ev.State)
		assert.Equal(t, 1, ev.FacilityCount)
	case <-time.After(2 * time.Second):
		t.Fatal("lookup event not published")
	}
}

type stateCounter struct {
	mu     sync.Mutex
	states []string
}

func (s *stateCounter) ObserveLookup(state string) {
	s.mu.Lock()
	s.states = append(s.states, state)
	s.mu.Unlock()
}

func TestHospitalsRecordsLookupState(t *testing.T) {
	rec := &stateCounter{}
	h := NewHospitalHandler(locator.New(&stubProvider{}), nil, nil).WithMetrics(rec)
	e := newEcho()
	e.GET("/v1/hospitals", h.Nearby)

	call(e, http.MethodGet, "/v1/hospitals?denied=1", "")
	call(e, http.MethodGet, "/v1/hospitals?lat=12.97&lon=77.59", "")
	assert.Equal(t, []string{"OFFLINE_NO_PERMISSION", "OFFLINE_EMPTY"}, rec.states)
}

func TestHospitalsNoPermission(t *testing.T) {
	prov := &stubProvider{}
	h := NewHospitalHandler(locator.New(prov), nil, nil)
	e := newEcho()
	e.GET("/v1/hospitals", h.Nearby)

	for _, target := range []string{
		"/v1/hospitals?denied=1",
		"/v1/hospitals?denied=true&lat=12.97&lon=77.59",
		"/v1/hospitals",
		"/v1/hospitals?lat=12.97",
		"/v1/hospitals?lat=abc&lon=77.59",
		"/v1/hospitals?lat=123&lon=77.59",
	} {
		rec := call(e, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		m := decode(t, rec)
		assert.Equal(t, "OFFLINE_NO_PERMISSION", m["state"], target)
		assert.Equal(t, "Location permission denied. Offline mode enabled.", m["message"], target)
		assert.Nil(t, m["position"], target)
		assert.Len(t, m["facilities"], len(locator.OfflineTable()), target)
	}
	assert.Equal(t, 0, prov.calls)
}

func TestHospitalsFetchErrorAcceptsLng(t *testing.T) {
	prov := &stubProvider{err: context.DeadlineExceeded}
	h := NewHospitalHandler(locator.New(prov), nil, nil)
	e := newEcho()
	e.GET("/v1/hospitals", h.Nearby)

	rec := call(e, http.MethodGet, "/v1/hospitals?lat=28.61&lng=77.23", "")
	m := decode(t, rec)
	assert.Equal(t, "OFFLINE_FETCH_ERROR", m["state"])
	assert.Equal(t, map[string]any{"lat": 28.61, "lon": 77.23}, m["position"])
	assert.Equal(t, 1, prov.calls)
}

// ----- guidance -----

func guidanceEcho() *echo.Echo {
	h := NewGuidanceHandler()
	e := newEcho()
	e.POST("/v1/symptoms/analyze", h.AnalyzeSymptoms)
	e.GET("/v1/first-aid", h.FirstAid)
	e.GET("/v1/maternal-child", h.MaternalChild)
	e.GET("/v1/schemes", h.Schemes)
	e.GET("/v1/schemes/:id", h.Scheme)
	e.POST("/v1/schemes/eligibility", h.Eligibility)
	return e
}

func TestAnalyzeSymptoms(t *testing.T) {
	e := guidanceEcho()

	rec := call(e, http.MethodPost, "/v1/symptoms/analyze", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please speak or type your health issue", decode(t, rec)["error"])

	rec = call(e, http.MethodPost, "/v1/symptoms/analyze", `{"text":"Mujhe BUKHAR hai","lang":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, "Fever / Infection", m["category"])
	assert.Equal(t, "hi", m["lang"])
	assert.Equal(t, "पानी पिएं, आराम करें और हल्का भोजन लें।", m["advice"])

	rec = call(e, http.MethodPost, "/v1/symptoms/analyze?lang=xx", `{"text":"headache"}`)
	m = decode(t, rec)
	assert.Equal(t, "General Health Advice", m["category"])
	assert.Equal(t, "en", m["lang"])
	assert.True(t, strings.HasPrefix(m["speech"].(string), "General Health Advice. "))
}

func TestStaticGuidance(t *testing.T) {
	e := guidanceEcho()

	rec := call(e, http.MethodGet, "/v1/first-aid?lang=hi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, "hi", m["lang"])
	assert.Len(t, m["cards"], 4)

	rec = call(e, http.MethodGet, "/v1/maternal-child", "")
	require.Equal(t, http.StatusOK, rec.Code)
	m = decode(t, rec)
	assert.NotEmpty(t, m["pregnancy"])
	assert.NotEmpty(t, m["child"])

	rec = call(e, http.MethodGet, "/v1/schemes", "")
	m = decode(t, rec)
	require.Len(t, m["schemes"], 2)

	rec = call(e, http.MethodGet, "/v1/schemes/PMJAY", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "14555", decode(t, rec)["helpline"])

	rec = call(e, http.MethodGet, "/v1/schemes/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEligibility(t *testing.T) {
	e := guidanceEcho()

	rec := call(e, http.MethodPost, "/v1/schemes/eligibility", `{"income":"LOW"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode(t, rec)
	assert.Equal(t, true, m["eligible"])
	assert.Equal(t, "You may be eligible for government schemes.", m["message"])

	rec = call(e, http.MethodPost, "/v1/schemes/eligibility", `{"income":"high","pregnant":true}`)
	assert.Equal(t, true, decode(t, rec)["eligible"])

	rec = call(e, http.MethodPost, "/v1/schemes/eligibility", `{"income":"high"}`)
	m = decode(t, rec)
	assert.Equal(t, false, m["eligible"])
	assert.Equal(t, "Eligibility not confirmed. Visit nearest PHC for details.", m["message"])

	rec = call(e, http.MethodPost, "/v1/schemes/eligibility", `{"income":"rich"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []any{"income"}, decode(t, rec)["fields"])
}
