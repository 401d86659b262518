package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOCAL_DEV_MODE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StateBackend != "file" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.AnalyticsInterval != time.Hour {
		t.Errorf("analytics interval = %v", cfg.AnalyticsInterval)
	}
	if cfg.Mode() != ModeLocalDev {
		t.Errorf("mode = %s", cfg.Mode())
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		name     string
		localDev bool
		dbURL    string
		want     Mode
	}{
		{"no database", false, "", ModeLocalDev},
		{"database", false, "postgres://squad@db/squad", ModeDatabase},
		{"forced local dev", true, "postgres://squad@db/squad", ModeLocalDev},
		{"forced without database", true, "", ModeLocalDev},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{LocalDevMode: tt.localDev, DatabaseURL: tt.dbURL}
			if got := c.Mode(); got != tt.want {
				t.Errorf("Mode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LOCAL_DEV_MODE", "true")
	t.Setenv("DATABASE_URL", "postgres://squad@db/squad")
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ANALYTICS_INTERVAL", "15m")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode() != ModeLocalDev || cfg.StateBackend != "sqlite" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AnalyticsInterval != 15*time.Minute {
		t.Errorf("analytics interval = %v", cfg.AnalyticsInterval)
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("STATE_BACKEND", "redis")
	if _, err := Load(); err == nil {
		t.Error("unknown state backend accepted")
	}
	t.Setenv("STATE_BACKEND", "file")
	t.Setenv("BLOB_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "")
	if _, err := Load(); err == nil {
		t.Error("s3 without bucket accepted")
	}
}
