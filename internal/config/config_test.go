package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE",
		"JWT_SECRET", "AMQP_URL", "MENU_CACHE_TTL", "ALLOWED_ORIGINS",
		"LOG_LEVEL", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("port: got %q, want 8081", cfg.Port)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("store driver: got %q, want %q", cfg.StoreDriver, DriverPostgres)
	}
	if cfg.MenuCacheTTL != time.Minute {
		t.Errorf("menu cache ttl: got %s, want 1m", cfg.MenuCacheTTL)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("amqp url: got %q, want empty", cfg.AMQPURL)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("allowed origins: got %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", DriverMongo)
	t.Setenv("MENU_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("port: got %q, want 9000", cfg.Port)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("store driver: got %q, want mongo", cfg.StoreDriver)
	}
	if cfg.MenuCacheTTL != 30*time.Second {
		t.Errorf("menu cache ttl: got %s, want 30s", cfg.MenuCacheTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("allowed origins: got %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("invalid shutdown timeout should fall back to 10s, got %s", cfg.ShutdownTimeout)
	}
}
