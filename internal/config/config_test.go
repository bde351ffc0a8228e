package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocatorConfigDefaults(t *testing.T) {
	c := LoadLocatorConfig()
	assert.Equal(t, "https://overpass-api.de/api/interpreter", c.OverpassURL)
	assert.Equal(t, 8000, c.RadiusMeters)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Equal(t, 5, c.BreakerFailures)
}

func TestLoadLocatorConfigOverrides(t *testing.T) {
	t.Setenv("OVERPASS_URL", "http://mirror.local/api/interpreter")
	t.Setenv("LOCATOR_RADIUS_M", "5000")
	t.Setenv("LOCATOR_TIMEOUT", "3s")
	t.Setenv("LOCATOR_CB_FAILURES", "0")

	c := LoadLocatorConfig()
	assert.Equal(t, "http://mirror.local/api/interpreter", c.OverpassURL)
	assert.Equal(t, 5000, c.RadiusMeters)
	assert.Equal(t, 3*time.Second, c.Timeout)
	assert.Equal(t, 5, c.BreakerFailures)
}

func TestLoadLocatorConfigClampsRadius(t *testing.T) {
	t.Setenv("LOCATOR_RADIUS_M", "900000")
	assert.Equal(t, 8000, LoadLocatorConfig().RadiusMeters)
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_HOSPITALS_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_SYMPTOMS_CAPACITY", "12")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Bucket(BucketHospitals).Capacity)
	assert.Equal(t, 12, c.Bucket(BucketSymptoms).Capacity)
	assert.Equal(t, time.Minute, c.Bucket(BucketSymptoms).RefillInterval)

	auth := c.Bucket(BucketAuth)
	assert.Equal(t, 5, auth.Capacity)
	assert.Equal(t, 10*time.Minute, auth.RefillInterval)
	// TTL is raised to five of the slowest refill intervals
	assert.Equal(t, 50*time.Minute, c.TTL)

	assert.Equal(t, c.Bucket(BucketHospitals), c.Bucket("unknown"))
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_ENABLED", "off")

	c := LoadCacheConfig()
	assert.False(t, c.Enabled)
	assert.True(t, c.Methods["GET"])
	assert.True(t, c.Methods["HEAD"])
	assert.False(t, c.Methods["POST"])
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_USER", "swasthya")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "swasthya")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("RABBITMQ_URL", "amqp://u:p@mq:5672/")

	c := Load()
	assert.Equal(t, "4000", c.Port)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, 15, c.AccessTTLMin)
	assert.Equal(t, "123456", c.DemoOTP)
	assert.Equal(t, "http://localhost:5173", c.CORSOrigin)
	assert.Equal(t, "amqp://u:p@mq:5672/", c.AMQPURL)
	assert.False(t, c.LookupEvents)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SWASTHYA_TEST_KEY=base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("SWASTHYA_TEST_KEY=local\n"), 0o600))
	t.Setenv("SWASTHYA_TEST_KEY", "")

	loaded, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{".env", ".env.local"}, loaded)
	assert.Equal(t, "local", os.Getenv("SWASTHYA_TEST_KEY"))
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "2")
	o := RedisOptions()
	assert.Equal(t, "cache:6380", o.Addr)
	assert.Equal(t, 2, o.DB)
	assert.Nil(t, o.TLSConfig)

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	o = RedisOptions()
	assert.Equal(t, "redis:6379", o.Addr)
	assert.NotNil(t, o.TLSConfig)
}
