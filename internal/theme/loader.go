package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"pharmamap/internal/config"
)

const DefaultID = "default"

// LoadActivePaletteHex returns the palette named by the config. Any problem
// with the installed file falls back to the default palette, with the error
// returned so callers can surface it.
func LoadActivePaletteHex(cfg config.Config) (PaletteHex, string, error) {
	if cfg.Theme.Active == "" || cfg.Theme.Active == DefaultID {
		return DefaultPaletteHex(), DefaultID, nil
	}
	themeFile, err := LoadLocalTheme(cfg.Theme.Active)
	if err != nil {
		return DefaultPaletteHex(), DefaultID, err
	}
	if themeFile.ID != cfg.Theme.Active {
		return DefaultPaletteHex(), DefaultID, fmt.Errorf("theme id mismatch: expected %q got %q", cfg.Theme.Active, themeFile.ID)
	}
	return themeFile.Colors, themeFile.ID, nil
}

func LoadLocalTheme(id string) (ThemeFile, error) {
	themesDir, err := config.ThemesDir()
	if err != nil {
		return ThemeFile{}, err
	}
	b, err := os.ReadFile(filepath.Join(themesDir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ThemeFile{}, fmt.Errorf("theme not installed: %s", id)
		}
		return ThemeFile{}, err
	}
	return ParseThemeFile(b)
}

func SaveThemeFile(theme ThemeFile) error {
	if theme.ID == "" || theme.ID == DefaultID {
		return fmt.Errorf("invalid theme id: %q", theme.ID)
	}
	if err := theme.Colors.Validate(); err != nil {
		return err
	}
	themesDir, err := config.ThemesDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(theme, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(themesDir, theme.ID+".json"), out, 0o644)
}

func ListLocalThemeIDs() ([]string, error) {
	themesDir, err := config.ThemesDir()
	if err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(themesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(ents))
	for _, ent := range ents {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-5])
	}
	sort.Strings(ids)
	return ids, nil
}

// Apply makes id the active theme and persists the config. The default
// theme is always available; anything else must be installed first.
func Apply(cfg *config.Config, id string) error {
	if id == "" {
		return fmt.Errorf("theme id is required")
	}
	if id != DefaultID {
		if _, err := LoadLocalTheme(id); err != nil {
			return err
		}
	}
	cfg.Theme.Active = id
	return config.Save(*cfg)
}

// RemoveLocalTheme deletes an installed theme. Removing the active theme
// resets the config to the default one.
func RemoveLocalTheme(cfg *config.Config, id string) error {
	if id == "" || id == DefaultID {
		return fmt.Errorf("cannot uninstall theme %q", id)
	}
	themesDir, err := config.ThemesDir()
	if err != nil {
		return err
	}
	path := filepath.Join(themesDir, id+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("theme not installed: %s", id)
		}
		return err
	}
	if cfg != nil && cfg.Theme.Active == id {
		cfg.Theme.Active = DefaultID
		return config.Save(*cfg)
	}
	return nil
}
