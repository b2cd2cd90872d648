package config

import (
	"log/slog"
	"testing"
)

func setBase(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_URL_ANON_KEY", "anon")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_PASSWORD", "")
	t.Setenv("MONGODB_TRANSACTIONS", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("NOTIFICATION_CHANNEL", "")
	t.Setenv("LOG_LEVEL", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBase(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != StoreMongo {
		t.Fatalf("unexpected defaults: port %q driver %q", cfg.Port, cfg.StoreDriver)
	}
	if cfg.NotificationChannel != "eventhub.notifications" {
		t.Fatalf("channel = %q", cfg.NotificationChannel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.MongoDBTransactions {
		t.Fatal("transactions should default to off")
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("level = %v", cfg.SlogLevel())
	}
}

func TestLoadConfigMemoryDriverNeedsNoMongo(t *testing.T) {
	setBase(t)
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("driver = %q", cfg.StoreDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("level = %v", cfg.SlogLevel())
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing supabase url": {"SUPABASE_URL": "", "MONGODB_URI": "mongodb://h"},
		"missing mongo uri":    {},
		"missing password":     {"MONGODB_URI": "mongodb+srv://u:<password>@h"},
		"unknown driver":       {"STORE_DRIVER": "postgres"},
		"bad transactions":     {"MONGODB_URI": "mongodb://h", "MONGODB_TRANSACTIONS": "maybe"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBase(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
