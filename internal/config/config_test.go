package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("playback defaults", func(t *testing.T) {
		if cfg.Player.Command != "mpv" {
			t.Errorf("player command = %q, want mpv", cfg.Player.Command)
		}
		if cfg.Playback.RecentLimit != 25 {
			t.Errorf("recent limit = %d, want 25", cfg.Playback.RecentLimit)
		}
	})

	t.Run("ui defaults", func(t *testing.T) {
		if cfg.UI.EntryLimit != 100 {
			t.Errorf("entry limit = %d, want 100", cfg.UI.EntryLimit)
		}
		if cfg.UI.CacheMaxAge != 300 {
			t.Errorf("cache max age = %d, want 300", cfg.UI.CacheMaxAge)
		}
	})

	t.Run("logging defaults", func(t *testing.T) {
		if cfg.Logging.Level != "INFO" {
			t.Errorf("log level = %q, want INFO", cfg.Logging.Level)
		}
	})
}

func TestIsConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsConfigured() {
		t.Fatal("fresh config should not be configured")
	}

	cfg.Server.URL = "https://reader.example.com"
	if cfg.IsConfigured() {
		t.Fatal("URL alone is not enough")
	}

	cfg.Server.Token = "tok"
	if !cfg.IsConfigured() {
		t.Fatal("URL plus token should be configured")
	}
}
