// Package overpass queries the public OpenStreetMap Overpass interpreter
// for health facilities around a point.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/iliyamo/swasthya/internal/locator"
	"github.com/iliyamo/swasthya/internal/logging"
)

const (
	DefaultURL = "https://overpass-api.de/api/interpreter"

	userAgent = "swasthya-api/1.0"

	// Connection pool settings
	maxIdleConns        = 10
	maxConnsPerHost     = 4
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second

	// Circuit breaker defaults
	defaultBreakerFailures = 5
	defaultBreakerDelay    = 30 * time.Second

	maxResponseBytes = 8 << 20
)

// ErrUnavailable wraps every failure that reaches the caller.
var ErrUnavailable = errors.New("overpass unavailable")

// amenity filters sent with every query. Points for all three, areas for
// hospitals only; areas come back with their centroid.
var (
	nodeAmenities = []string{"hospital", "clinic", "doctors"}
	wayAmenities  = []string{"hospital"}
)

// Client implements locator.FacilityProvider against an Overpass endpoint.
type Client struct {
	url     string
	http    *http.Client
	breaker circuitbreaker.CircuitBreaker[[]locator.Element]
	cbCfg   BreakerConfig
	log     logging.Logger
}

// BreakerConfig tunes the client circuit breaker. Failures consecutive
// failed queries open it; Delay is how long it stays open.
type BreakerConfig struct {
	Failures uint
	Delay    time.Duration
}

// NewClient returns a client for DefaultURL with pooled connections.
func NewClient() *Client {
	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxConnsPerHost:     maxConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}
	c := &Client{
		url:  DefaultURL,
		http: &http.Client{Transport: transport},
		log:  logging.Discard(),
	}
	c.breaker = newBreaker(BreakerConfig{}, c.log)
	return c
}

// WithURL points the client at another interpreter, e.g. a mirror or a test server.
func (c *Client) WithURL(u string) *Client {
	if u != "" {
		c.url = u
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// WithLogger sets the logger; the breaker is rebuilt so state changes are logged.
func (c *Client) WithLogger(log logging.Logger) *Client {
	if log != nil {
		c.log = log
		c.breaker = newBreaker(c.cbCfg, log)
	}
	return c
}

// WithBreaker replaces the circuit breaker settings.
func (c *Client) WithBreaker(cfg BreakerConfig) *Client {
	c.cbCfg = cfg
	c.breaker = newBreaker(cfg, c.log)
	return c
}

func newBreaker(cfg BreakerConfig, log logging.Logger) circuitbreaker.CircuitBreaker[[]locator.Element] {
	if cfg.Failures == 0 {
		cfg.Failures = defaultBreakerFailures
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultBreakerDelay
	}
	return circuitbreaker.NewBuilder[[]locator.Element]().
		WithFailureThresholdRatio(cfg.Failures, cfg.Failures).
		WithDelay(cfg.Delay).
		WithSuccessThreshold(1).
		HandleIf(func(_ []locator.Element, err error) bool {
			// a caller hanging up says nothing about the upstream
			return err != nil && !errors.Is(err, context.Canceled)
		}).
		OnStateChanged(func(ev circuitbreaker.StateChangedEvent) {
			log.WithFields(logging.Fields{
				"from_state": stateName(ev.OldState),
				"to_state":   stateName(ev.NewState),
			}).Warn("overpass: circuit breaker state change")
		}).
		Build()
}

// BuildQuery renders the Overpass QL query for center and radius.
func BuildQuery(center locator.Position, radiusMeters int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radiusMeters, coord(center.Lat), coord(center.Lon))
	var b strings.Builder
	b.WriteString("[out:json];\n(\n")
	for _, a := range nodeAmenities {
		fmt.Fprintf(&b, "  node[\"amenity\"=%q]%s;\n", a, around)
	}
	for _, a := range wayAmenities {
		fmt.Fprintf(&b, "  way[\"amenity\"=%q]%s;\n", a, around)
	}
	b.WriteString(");\nout center;\n")
	return b.String()
}

// Nearby runs one query. It is not retried; an open breaker fails fast.
func (c *Client) Nearby(ctx context.Context, center locator.Position, radiusMeters int) ([]locator.Element, error) {
	els, err := failsafe.With[[]locator.Element](c.breaker).
		WithContext(ctx).
		Get(func() ([]locator.Element, error) {
			return c.fetch(ctx, BuildQuery(center, radiusMeters))
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return els, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]locator.Element, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.log.WithFields(logging.Fields{
		"elements":   len(body.Elements),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("overpass: query ok")

	out := make([]locator.Element, 0, len(body.Elements))
	for _, el := range body.Elements {
		out = append(out, el.toElement())
	}
	return out, nil
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	default:
		return "unknown"
	}
}

func coord(v float64) string { return fmt.Sprintf("%.6f", v) }
