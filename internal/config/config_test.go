// README: Config defaults, overrides and validation tests.
package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FLASH_MAPS_API_KEY", "maps-key")
	t.Setenv("FLASH_JWT_SECRET", "0123456789abcdef")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Addr != ":5000" || cfg.Kafka.Topic != "ride-events" || cfg.Rabbit.Exchange != "ride.events" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.OTP.TTL != 5*time.Minute || !cfg.Seed || cfg.Maps.MinLat != 8 || cfg.Maps.MaxLng != 97 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 0 || cfg.Mongo.URI != "" {
		t.Fatal("optional backends should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FLASH_KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("FLASH_OTP_TTL", "90s")
	t.Setenv("FLASH_SEED_DRIVERS", "false")
	t.Setenv("FLASH_SMTP_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(cfg.Kafka.Brokers, "|") != "k1:9092|k2:9092" {
		t.Fatalf("brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.OTP.TTL != 90*time.Second || cfg.Seed {
		t.Fatalf("overrides not applied: %+v", cfg.OTP)
	}
	if cfg.OTP.SMTP.Port != 587 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.OTP.SMTP.Port)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Setenv("FLASH_MAPS_API_KEY", "")
	t.Setenv("FLASH_JWT_SECRET", "short")
	t.Setenv("FLASH_BOUNDS_MIN_LAT", "40")
	t.Setenv("FLASH_SMTP_HOST", "smtp.example.com")
	t.Setenv("FLASH_SMTP_FROM", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"FLASH_MAPS_API_KEY", "FLASH_JWT_SECRET", "bounds", "FLASH_SMTP_FROM"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
