package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != "8000" {
		t.Errorf("Port = %q", s.Port)
	}
	if s.CacheBackend != "memory" {
		t.Errorf("CacheBackend = %q", s.CacheBackend)
	}
	if s.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", s.CacheTTL)
	}
	if !s.ScraperHeadless || !s.ScraperAutoClose {
		t.Errorf("scraper defaults = headless %v autoclose %v", s.ScraperHeadless, s.ScraperAutoClose)
	}
	if s.USDJPYRate != 150.0 {
		t.Errorf("USDJPYRate = %v", s.USDJPYRate)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AUTOTICKET_PORT", "9100")
	t.Setenv("AUTOTICKET_CACHE_BACKEND", "redis")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != "9100" {
		t.Errorf("Port = %q", s.Port)
	}
	if s.CacheBackend != "redis" {
		t.Errorf("CacheBackend = %q", s.CacheBackend)
	}
	if s.AIAPIKey != "sk-test" {
		t.Errorf("AIAPIKey = %q", s.AIAPIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autoticket.yaml")
	body := "port: \"9200\"\ncache:\n  backend: none\nselector:\n  dir: /tmp/selectors\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Port != "9200" {
		t.Errorf("Port = %q", s.Port)
	}
	if s.CacheBackend != "none" {
		t.Errorf("CacheBackend = %q", s.CacheBackend)
	}
	if s.SelectorDir != "/tmp/selectors" {
		t.Errorf("SelectorDir = %q", s.SelectorDir)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
