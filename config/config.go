package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Booking   BookingConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port        string
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	RunMigrations bool
}

// MigrationURL returns the pgx5 URL understood by golang-migrate.
func (c DBConfig) MigrationURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Name)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// JWTConfig must match the auth service that signs access tokens.
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// BookingConfig tunes the slot allocation engine.
type BookingConfig struct {
	Timezone             string
	AutoBookAttempts     int
	RetryDelay           time.Duration
	HorizonDays          int
	WeekDays             int
	SweepInterval        time.Duration
	RestrictedRegions    []string
	AvailabilityCacheTTL time.Duration
}

// Location resolves the booking timezone, falling back to UTC.
func (c BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type RateLimitConfig struct {
	BookingPerMinute int
	BookingBurst     int
}

// LoadConfig reads configuration from the given env file (if present) and the process environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	config := &Config{
		App: AppConfig{
			Port:        v.GetString("APP_PORT"),
			Env:         v.GetString("APP_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			CORSOrigins: splitList(v.GetString("APP_CORS_ORIGINS")),
		},
		DB: DBConfig{
			Host:          v.GetString("DB_HOST"),
			Port:          v.GetString("DB_PORT"),
			User:          v.GetString("DB_USER"),
			Password:      v.GetString("DB_PASSWORD"),
			Name:          v.GetString("DB_NAME"),
			RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: parseDuration(v.GetString("JWT_ACCESS_EXPIRY"), 15*time.Minute),
		},
		Booking: BookingConfig{
			Timezone:             v.GetString("BOOKING_TIMEZONE"),
			AutoBookAttempts:     v.GetInt("BOOKING_AUTO_ATTEMPTS"),
			RetryDelay:           parseDuration(v.GetString("BOOKING_RETRY_DELAY"), 250*time.Millisecond),
			HorizonDays:          v.GetInt("BOOKING_HORIZON_DAYS"),
			WeekDays:             v.GetInt("BOOKING_WEEK_DAYS"),
			SweepInterval:        parseDuration(v.GetString("BOOKING_SWEEP_INTERVAL"), 5*time.Minute),
			RestrictedRegions:    splitList(v.GetString("BOOKING_RESTRICTED_REGIONS")),
			AvailabilityCacheTTL: parseDuration(v.GetString("BOOKING_AVAILABILITY_CACHE_TTL"), 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			BookingPerMinute: v.GetInt("RATE_LIMIT_BOOKING_PER_MINUTE"),
			BookingBurst:     v.GetInt("RATE_LIMIT_BOOKING_BURST"),
		},
	}

	if config.Booking.AutoBookAttempts <= 0 {
		config.Booking.AutoBookAttempts = 3
	}
	if config.Booking.HorizonDays <= 0 {
		config.Booking.HorizonDays = 14
	}
	if config.Booking.WeekDays <= 0 {
		config.Booking.WeekDays = 7
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_RUN_MIGRATIONS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BOOKING_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("BOOKING_AUTO_ATTEMPTS", 3)
	v.SetDefault("BOOKING_HORIZON_DAYS", 14)
	v.SetDefault("BOOKING_WEEK_DAYS", 7)
	v.SetDefault("BOOKING_RESTRICTED_REGIONS", "kerala")
	v.SetDefault("RATE_LIMIT_BOOKING_PER_MINUTE", 20)
	v.SetDefault("RATE_LIMIT_BOOKING_BURST", 5)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
