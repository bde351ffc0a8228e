package config

import "time"

// LocatorConfig controls the hospital locator and its Overpass client.
type LocatorConfig struct {
	OverpassURL     string
	RadiusMeters    int
	Timeout         time.Duration
	BreakerFailures int
	BreakerDelay    time.Duration
}

// LoadLocatorConfig reads LOCATOR_* and OVERPASS_URL.  Out of range values
// are clamped back to the defaults.
func LoadLocatorConfig() LocatorConfig {
	c := LocatorConfig{
		OverpassURL:     envStr("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		RadiusMeters:    envInt("LOCATOR_RADIUS_M", 8000),
		Timeout:         envDur("LOCATOR_TIMEOUT", 10*time.Second),
		BreakerFailures: envInt("LOCATOR_CB_FAILURES", 5),
		BreakerDelay:    envDur("LOCATOR_CB_DELAY", 30*time.Second),
	}
	if c.RadiusMeters <= 0 || c.RadiusMeters > 50000 {
		c.RadiusMeters = 8000
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.BreakerFailures < 1 {
		c.BreakerFailures = 5
	}
	if c.BreakerDelay <= 0 {
		c.BreakerDelay = 30 * time.Second
	}
	return c
}
