package config

import (
	"strings"
	"time"
)

// Rate limit bucket names.  Each protected endpoint family spends from its
// own bucket so a burst of hospital lookups never locks a citizen out of
// the symptom checker or sign-in.
const (
	BucketHospitals = "hospitals"
	BucketSymptoms  = "symptoms"
	BucketAuth      = "auth"
)

// Bucket sizes one token bucket: Capacity tokens, refilled by RefillTokens
// every RefillInterval.
type Bucket struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
}

// RateLimitConfig configures the Redis token buckets.  PerUser keys signed
// in callers by user id as well as IP.
type RateLimitConfig struct {
	Enabled bool
	Prefix  string
	TTL     time.Duration
	PerUser bool
	Debug   bool
	Buckets map[string]Bucket
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Per bucket overrides
// use the bucket name, e.g. RATE_LIMIT_HOSPITALS_CAPACITY.
func LoadRateLimitConfig() RateLimitConfig {
	refill := envDur("RATE_LIMIT_REFILL_INTERVAL", 2*time.Second)
	c := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "swasthya:rl"),
		TTL:     envDur("RATE_LIMIT_TTL", 10*time.Minute),
		PerUser: envBool("RATE_LIMIT_PER_USER", false),
		Debug:   envBool("RATE_LIMIT_DEBUG", false),
		Buckets: map[string]Bucket{
			BucketHospitals: loadBucket(BucketHospitals, 30, refill),
			BucketSymptoms:  loadBucket(BucketSymptoms, 20, refill),
			// OTP and password endpoints refill ten times slower
			BucketAuth: loadBucket(BucketAuth, 5, 10*refill),
		},
	}
	var longest time.Duration
	for _, b := range c.Buckets {
		if b.RefillInterval > longest {
			longest = b.RefillInterval
		}
	}
	// a key must outlive a full refill cycle or an idle caller would reset early
	if c.TTL < 5*longest {
		c.TTL = 5 * longest
	}
	return c
}

func loadBucket(name string, capacity int, interval time.Duration) Bucket {
	env := "RATE_LIMIT_" + strings.ToUpper(name) + "_"
	b := Bucket{
		Capacity:       envInt(env+"CAPACITY", capacity),
		RefillTokens:   envInt(env+"REFILL_TOKENS", 1),
		RefillInterval: envDur(env+"REFILL_INTERVAL", interval),
	}
	if b.Capacity < 1 {
		b.Capacity = 1
	}
	if b.RefillTokens < 1 {
		b.RefillTokens = 1
	}
	if b.RefillInterval <= 0 {
		b.RefillInterval = time.Second
	}
	return b
}

// Bucket returns the named bucket.  An unknown name gets the hospitals
// sizing so a typo never disables limiting.
func (c RateLimitConfig) Bucket(name string) Bucket {
	if b, ok := c.Buckets[name]; ok {
		return b
	}
	if b, ok := c.Buckets[BucketHospitals]; ok {
		return b
	}
	return Bucket{Capacity: 30, RefillTokens: 1, RefillInterval: 2 * time.Second}
}
