package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pharmamap/internal/app"
)

const CurrentVersion = 1

const KakaoKeyEnv = "PHARMAMAP_KAKAO_KEY"

type Config struct {
	Version      int                `yaml:"version"`
	Kakao        KakaoConfig        `yaml:"kakao"`
	Map          MapConfig          `yaml:"map"`
	Search       SearchConfig       `yaml:"search"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Locate       LocateConfig       `yaml:"locate"`
	Theme        ThemeConfig        `yaml:"theme"`
	Debug        bool               `yaml:"debug"`
}

type KakaoConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MapConfig struct {
	CenterLat    float64 `yaml:"center_lat"`
	CenterLng    float64 `yaml:"center_lng"`
	Zoom         int     `yaml:"zoom"`
	CellPxW      int     `yaml:"cell_px_w"`
	CellPxH      int     `yaml:"cell_px_h"`
	PopupShiftPx float64 `yaml:"popup_shift_px"`
}

type SearchConfig struct {
	RadiusM  int `yaml:"radius_m"`
	MaxPages int `yaml:"max_pages"`
}

type SubscriptionConfig struct {
	Price string `yaml:"price"`
	Trial string `yaml:"trial"`
}

// LocateConfig pins the "my location" position. When Lat/Lng are zero the
// locator falls back to IP geolocation.
type LocateConfig struct {
	Lat         float64 `yaml:"lat"`
	Lng         float64 `yaml:"lng"`
	IPLookupURL string  `yaml:"ip_lookup_url"`
}

type ThemeConfig struct {
	Active   string `yaml:"active"`
	IndexURL string `yaml:"index_url"`
}

func Default() Config {
	return Config{
		Version: CurrentVersion,
		Kakao: KakaoConfig{
			BaseURL: "https://dapi.kakao.com",
			Timeout: 10 * time.Second,
		},
		Map: MapConfig{
			CenterLat:    37.5665,
			CenterLng:    126.9780,
			Zoom:         5,
			CellPxW:      8,
			CellPxH:      16,
			PopupShiftPx: 96,
		},
		Search: SearchConfig{
			RadiusM:  1000,
			MaxPages: 3,
		},
		Subscription: SubscriptionConfig{
			Price: "990원/월",
			Trial: "7일 무료 체험",
		},
		Locate: LocateConfig{
			IPLookupURL: "http://ip-api.com/json/",
		},
		Theme: ThemeConfig{
			Active:   "default",
			IndexURL: "https://raw.githubusercontent.com/pharmamap/pharmamap/main/themes/index.json",
		},
	}
}

func EnsureDefaults(cfg *Config) {
	d := Default()
	if cfg.Version <= 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Kakao.BaseURL == "" {
		cfg.Kakao.BaseURL = d.Kakao.BaseURL
	}
	if cfg.Kakao.Timeout <= 0 {
		cfg.Kakao.Timeout = d.Kakao.Timeout
	}
	if cfg.Map.CenterLat == 0 && cfg.Map.CenterLng == 0 {
		cfg.Map.CenterLat = d.Map.CenterLat
		cfg.Map.CenterLng = d.Map.CenterLng
	}
	if cfg.Map.Zoom <= 0 {
		cfg.Map.Zoom = d.Map.Zoom
	}
	if cfg.Map.CellPxW <= 0 {
		cfg.Map.CellPxW = d.Map.CellPxW
	}
	if cfg.Map.CellPxH <= 0 {
		cfg.Map.CellPxH = d.Map.CellPxH
	}
	if cfg.Map.PopupShiftPx < 0 {
		cfg.Map.PopupShiftPx = 0
	}
	if cfg.Search.RadiusM <= 0 {
		cfg.Search.RadiusM = d.Search.RadiusM
	}
	if cfg.Search.RadiusM > 20000 {
		cfg.Search.RadiusM = 20000
	}
	if cfg.Search.MaxPages <= 0 {
		cfg.Search.MaxPages = d.Search.MaxPages
	}
	if cfg.Subscription.Price == "" {
		cfg.Subscription.Price = d.Subscription.Price
	}
	if cfg.Subscription.Trial == "" {
		cfg.Subscription.Trial = d.Subscription.Trial
	}
	if cfg.Locate.IPLookupURL == "" {
		cfg.Locate.IPLookupURL = d.Locate.IPLookupURL
	}
	if cfg.Theme.Active == "" {
		cfg.Theme.Active = "default"
	}
	if cfg.Theme.IndexURL == "" {
		cfg.Theme.IndexURL = d.Theme.IndexURL
	}
}

// KakaoKey returns the API key, preferring the environment over the file.
func (c Config) KakaoKey() string {
	if v := strings.TrimSpace(os.Getenv(KakaoKeyEnv)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Kakao.APIKey)
}

func Dir() (string, error) {
	return app.ConfigDir()
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func ThemesDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes"), nil
}

func Load() (Config, error) {
	cfgPath, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	return LoadFile(cfgPath)
}

func LoadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	EnsureDefaults(&cfg)
	return cfg, nil
}

func Save(cfg Config) error {
	EnsureDefaults(&cfg)
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	themesDir := filepath.Join(dir, "themes")
	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, "config.yaml.tmp")
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, "config.yaml"))
}
