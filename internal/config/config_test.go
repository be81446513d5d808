package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"API_PORT", "JWT_TTL", "BCRYPT_COST", "CORS_ALLOWED_ORIGINS", "CLINIC_HOLIDAYS", "EMAIL_PROVIDER"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.ClinicHolidays)
	assert.Equal(t, "stub", cfg.EmailProvider)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("ENV", "Production")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("SLOT_LOCK_WAIT", "not-a-duration")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("CLINIC_HOLIDAYS", "2030-11-28, ,2030-12-24")
	t.Setenv("EMAIL_PROVIDER", "SendGrid")
	t.Setenv("RATE_LIMIT_RPS", "1.5")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3*time.Second, cfg.SlotLockWait)
	assert.True(t, cfg.UseMemoryStore)
	assert.Equal(t, []string{"2030-11-28", "2030-12-24"}, cfg.ClinicHolidays)
	assert.Equal(t, "sendgrid", cfg.EmailProvider)
	assert.InDelta(t, 1.5, cfg.RateLimitRPS, 0.0001)
}

func TestClinicLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{ClinicTimezone: "Mars/Olympus_Mons"}
	assert.Equal(t, time.UTC, cfg.ClinicLocation())
}
