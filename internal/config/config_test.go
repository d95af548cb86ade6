package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Theme.Active != "default" {
		t.Fatalf("unexpected active theme: %q", cfg.Theme.Active)
	}
	if cfg.Search.RadiusM != 1000 {
		t.Fatalf("unexpected radius: %d", cfg.Search.RadiusM)
	}
	if cfg.Map.CenterLat != 37.5665 || cfg.Map.CenterLng != 126.9780 {
		t.Fatalf("unexpected center: %v,%v", cfg.Map.CenterLat, cfg.Map.CenterLng)
	}
	p := filepath.Join(home, ".config", "pharmamap", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	cfg.Theme.Active = "mint"
	cfg.Kakao.APIKey = "abc"
	cfg.Search.RadiusM = 2500
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Theme.Active != "mint" {
		t.Fatalf("active theme mismatch: %q", loaded.Theme.Active)
	}
	if loaded.Kakao.APIKey != "abc" || loaded.Search.RadiusM != 2500 {
		t.Fatalf("fields not preserved: %+v", loaded)
	}
	if loaded.Kakao.Timeout != 10*time.Second {
		t.Fatalf("timeout mismatch: %v", loaded.Kakao.Timeout)
	}
}

func TestEnsureDefaultsClampsRadius(t *testing.T) {
	cfg := Config{Search: SearchConfig{RadiusM: 90000}}
	EnsureDefaults(&cfg)
	if cfg.Search.RadiusM != 20000 {
		t.Fatalf("expected clamp to 20000, got %d", cfg.Search.RadiusM)
	}
	if cfg.Version != CurrentVersion {
		t.Fatalf("expected version default")
	}
}

func TestLoadFileFillsMissingSections(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("kakao:\n  api_key: k1\nsearch:\n  radius_m: 500\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Kakao.APIKey != "k1" || cfg.Search.RadiusM != 500 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.Kakao.BaseURL != "https://dapi.kakao.com" {
		t.Fatalf("base url default missing: %q", cfg.Kakao.BaseURL)
	}
	if cfg.Subscription.Price != "990원/월" {
		t.Fatalf("price default missing: %q", cfg.Subscription.Price)
	}
}

func TestKakaoKeyPrefersEnv(t *testing.T) {
	cfg := Default()
	cfg.Kakao.APIKey = "file-key"
	t.Setenv(KakaoKeyEnv, "env-key")
	if got := cfg.KakaoKey(); got != "env-key" {
		t.Fatalf("expected env key, got %q", got)
	}
	t.Setenv(KakaoKeyEnv, "")
	if got := cfg.KakaoKey(); got != "file-key" {
		t.Fatalf("expected file key, got %q", got)
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte("version: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(p, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); err != ErrWatcherStarted {
		t.Fatalf("expected ErrWatcherStarted, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("version: 1\ndebug: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}
}
