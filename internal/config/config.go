// README: Config loader with env defaults for HTTP, stores, brokers, maps, auth and support.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type MapsConfig struct {
	APIKey   string
	Language string
	Region   string
	MinLat   float64
	MaxLat   float64
	MinLng   float64
	MaxLng   float64
}

type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	FirebaseProjectID   string
	FirebaseCredentials string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	HTTP  HTTPConfig
	Mongo struct {
		URI      string
		Database string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		Channel  string
	}
	Kafka struct {
		Brokers []string
		Topic   string
	}
	Rabbit struct {
		URL      string
		Exchange string
	}
	Maps MapsConfig
	Auth AuthConfig
	OTP  struct {
		TTL  time.Duration
		SMTP SMTPConfig
	}
	AI struct {
		GeminiKey string
	}
	LogLevel string
	Seed     bool
}

// Load reads FLASH_* variables. Optional backends stay disabled when their
// address is empty.
func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("FLASH_HTTP_ADDR", ":5000")
	cfg.HTTP.ReadTimeout = envOrDefaultDuration("FLASH_HTTP_READ_TIMEOUT", 15*time.Second)
	cfg.HTTP.WriteTimeout = envOrDefaultDuration("FLASH_HTTP_WRITE_TIMEOUT", 15*time.Second)
	cfg.HTTP.IdleTimeout = envOrDefaultDuration("FLASH_HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.HTTP.ShutdownTimeout = envOrDefaultDuration("FLASH_SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg.Mongo.URI = os.Getenv("FLASH_MONGO_URI")
	cfg.Mongo.Database = envOrDefault("FLASH_MONGO_DB", "flashtaxi")
	cfg.DB.DSN = os.Getenv("FLASH_DB_DSN")
	cfg.Redis.Addr = os.Getenv("FLASH_REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("FLASH_REDIS_PASSWORD")
	cfg.Redis.Channel = envOrDefault("FLASH_REDIS_CHANNEL", "flashtaxi:realtime")
	cfg.Kafka.Brokers = envList("FLASH_KAFKA_BROKERS")
	cfg.Kafka.Topic = envOrDefault("FLASH_KAFKA_TOPIC", "ride-events")
	cfg.Rabbit.URL = os.Getenv("FLASH_RABBIT_URL")
	cfg.Rabbit.Exchange = envOrDefault("FLASH_RABBIT_EXCHANGE", "ride.events")

	cfg.Maps.APIKey = os.Getenv("FLASH_MAPS_API_KEY")
	cfg.Maps.Language = envOrDefault("FLASH_MAPS_LANGUAGE", "en")
	cfg.Maps.Region = envOrDefault("FLASH_MAPS_REGION", "in")
	cfg.Maps.MinLat = envOrDefaultFloat("FLASH_BOUNDS_MIN_LAT", 8)
	cfg.Maps.MaxLat = envOrDefaultFloat("FLASH_BOUNDS_MAX_LAT", 37)
	cfg.Maps.MinLng = envOrDefaultFloat("FLASH_BOUNDS_MIN_LNG", 68)
	cfg.Maps.MaxLng = envOrDefaultFloat("FLASH_BOUNDS_MAX_LNG", 97)

	cfg.Auth.JWTSecret = os.Getenv("FLASH_JWT_SECRET")
	cfg.Auth.TokenTTL = envOrDefaultDuration("FLASH_TOKEN_TTL", 7*24*time.Hour)
	cfg.Auth.FirebaseProjectID = os.Getenv("FLASH_FIREBASE_PROJECT_ID")
	cfg.Auth.FirebaseCredentials = os.Getenv("FLASH_FIREBASE_CREDENTIALS")

	cfg.OTP.TTL = envOrDefaultDuration("FLASH_OTP_TTL", 5*time.Minute)
	cfg.OTP.SMTP.Host = os.Getenv("FLASH_SMTP_HOST")
	cfg.OTP.SMTP.Port = envOrDefaultInt("FLASH_SMTP_PORT", 587)
	cfg.OTP.SMTP.Username = os.Getenv("FLASH_SMTP_USER")
	cfg.OTP.SMTP.Password = os.Getenv("FLASH_SMTP_PASSWORD")
	cfg.OTP.SMTP.From = os.Getenv("FLASH_SMTP_FROM")

	cfg.AI.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.LogLevel = envOrDefault("FLASH_LOG_LEVEL", "info")
	cfg.Seed = envOrDefaultBool("FLASH_SEED_DRIVERS", true)

	return cfg, cfg.Validate()
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Maps.APIKey == "" {
		errs = append(errs, errors.New("FLASH_MAPS_API_KEY is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("FLASH_JWT_SECRET must be at least 16 characters"))
	}
	if c.Maps.MinLat >= c.Maps.MaxLat || c.Maps.MinLng >= c.Maps.MaxLng {
		errs = append(errs, fmt.Errorf("service bounds are empty: lat %v..%v lng %v..%v",
			c.Maps.MinLat, c.Maps.MaxLat, c.Maps.MinLng, c.Maps.MaxLng))
	}
	for name, d := range map[string]time.Duration{
		"FLASH_HTTP_READ_TIMEOUT":  c.HTTP.ReadTimeout,
		"FLASH_HTTP_WRITE_TIMEOUT": c.HTTP.WriteTimeout,
		"FLASH_HTTP_IDLE_TIMEOUT":  c.HTTP.IdleTimeout,
		"FLASH_SHUTDOWN_TIMEOUT":   c.HTTP.ShutdownTimeout,
		"FLASH_TOKEN_TTL":          c.Auth.TokenTTL,
		"FLASH_OTP_TTL":            c.OTP.TTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.OTP.SMTP.Host != "" && c.OTP.SMTP.From == "" {
		errs = append(errs, errors.New("FLASH_SMTP_FROM is required when FLASH_SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
