package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swasthya/internal/locator"
	"github.com/iliyamo/swasthya/internal/logging"
	q "github.com/iliyamo/swasthya/internal/queue"
	"github.com/iliyamo/swasthya/internal/service"
)

// LookupRecorder counts resolutions by state.
type LookupRecorder interface {
	ObserveLookup(state string)
}

// HospitalHandler serves the nearby facility lookup.
type HospitalHandler struct {
	Locator *locator.Locator
	Events  service.LookupPublisher
	Metrics LookupRecorder
	Log     logging.Logger
}

func NewHospitalHandler(l *locator.Locator, events service.LookupPublisher, log logging.Logger) *HospitalHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &HospitalHandler{Locator: l, Events: events, Log: log}
}

// WithMetrics attaches a recorder for lookup outcomes.
func (h *HospitalHandler) WithMetrics(m LookupRecorder) *HospitalHandler {
	h.Metrics = m
	return h
}

// Nearby handles GET /v1/hospitals?lat=&lon=.  The browser obtains the
// position and forwards it; a client that was refused permission sends
// denied=1 or no coordinates.  The response is always 200: offline results
// are a normal outcome and their state tells the frontend which banner to
// show.
func (h *HospitalHandler) Nearby(c echo.Context) error {
	res := h.Locator.Resolve(c.Request().Context(), positionFromQuery(c))
	if h.Metrics != nil {
		h.Metrics.ObserveLookup(string(res.State))
	}
	service.PublishAsync(h.Events, q.NewLookupEvent(res, time.Now()), h.Log)
	return c.JSON(http.StatusOK, res)
}

// positionFromQuery turns the query parameters into a one-shot position
// source.  Anything other than two parseable numbers counts as a refusal.
func positionFromQuery(c echo.Context) locator.PositionSource {
	denied := strings.ToLower(strings.TrimSpace(c.QueryParam("denied")))
	if denied == "1" || denied == "true" {
		return locator.Denied()
	}
	latS, lonS := strings.TrimSpace(c.QueryParam("lat")), strings.TrimSpace(c.QueryParam("lon"))
	if lonS == "" {
		lonS = strings.TrimSpace(c.QueryParam("lng"))
	}
	return locator.PositionFunc(func(context.Context) (locator.Position, error) {
		if latS == "" || lonS == "" {
			return locator.Position{}, locator.ErrPermissionDenied
		}
		lat, err := strconv.ParseFloat(latS, 64)
		if err != nil {
			return locator.Position{}, locator.ErrPermissionDenied
		}
		lon, err := strconv.ParseFloat(lonS, 64)
		if err != nil {
			return locator.Position{}, locator.ErrPermissionDenied
		}
		return locator.Position{Lat: lat, Lon: lon}, nil
	})
}
