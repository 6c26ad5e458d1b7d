package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 3, cfg.Booking.AutoBookAttempts)
	assert.Equal(t, 14, cfg.Booking.HorizonDays)
	assert.Equal(t, 7, cfg.Booking.WeekDays)
	assert.Equal(t, 5*time.Minute, cfg.Booking.SweepInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Booking.RetryDelay)
	assert.Equal(t, []string{"kerala"}, cfg.Booking.RestrictedRegions)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BOOKING_AUTO_ATTEMPTS", "5")
	t.Setenv("BOOKING_RETRY_DELAY", "1s")
	t.Setenv("BOOKING_RESTRICTED_REGIONS", " Kerala , Goa ,")
	t.Setenv("BOOKING_TIMEZONE", "UTC")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Booking.AutoBookAttempts)
	assert.Equal(t, time.Second, cfg.Booking.RetryDelay)
	assert.Equal(t, []string{"kerala", "goa"}, cfg.Booking.RestrictedRegions)
	assert.Equal(t, time.UTC, cfg.Booking.Location())
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9090\nDB_NAME=bookings\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "bookings", cfg.DB.Name)
	assert.Contains(t, cfg.DB.MigrationURL(), "/bookings?sslmode=disable")
}

func TestBookingConfig_LocationFallsBackToUTC(t *testing.T) {
	cfg := BookingConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
