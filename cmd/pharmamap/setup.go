package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	configpkg "pharmamap/internal/config"
	themepkg "pharmamap/internal/theme"
)

// setupAnswers holds the wizard fields as text so huh inputs can bind to
// them directly.
type setupAnswers struct {
	APIKey    string
	CenterLat string
	CenterLng string
	RadiusM   string
	Theme     string
	Confirm   bool
}

func answersFromConfig(cfg configpkg.Config) setupAnswers {
	return setupAnswers{
		APIKey:    cfg.Kakao.APIKey,
		CenterLat: strconv.FormatFloat(cfg.Map.CenterLat, 'f', 6, 64),
		CenterLng: strconv.FormatFloat(cfg.Map.CenterLng, 'f', 6, 64),
		RadiusM:   strconv.Itoa(cfg.Search.RadiusM),
		Theme:     cfg.Theme.Active,
		Confirm:   true,
	}
}

// apply copies validated answers into cfg.
func (a setupAnswers) apply(cfg *configpkg.Config) error {
	lat, err := parseCoordinate(a.CenterLat, 90)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	lng, err := parseCoordinate(a.CenterLng, 180)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	radius, err := parseRadius(a.RadiusM)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}
	cfg.Kakao.APIKey = strings.TrimSpace(a.APIKey)
	cfg.Map.CenterLat = lat
	cfg.Map.CenterLng = lng
	cfg.Search.RadiusM = radius
	if a.Theme != "" {
		cfg.Theme.Active = a.Theme
	}
	return nil
}

func parseCoordinate(s string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("must be within ±%g", limit)
	}
	return v, nil
}

func parseRadius(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("not a whole number")
	}
	if v < 100 || v > 20000 {
		return 0, errors.New("must be between 100 and 20000 meters")
	}
	return v, nil
}

func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeCharm())
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

func runSetup() error {
	cfg, err := configpkg.Load()
	if err != nil {
		return err
	}
	a := answersFromConfig(cfg)

	themeOptions := []huh.Option[string]{huh.NewOption("default", themepkg.DefaultID)}
	if ids, err := themepkg.ListLocalThemeIDs(); err == nil {
		for _, id := range ids {
			themeOptions = append(themeOptions, huh.NewOption(id, id))
		}
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kakao REST API key").
				Description("Leave empty to search the built-in offline catalog. "+configpkg.KakaoKeyEnv+" overrides it.").
				EchoMode(huh.EchoModePassword).
				Value(&a.APIKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Map center latitude").
				Validate(func(s string) error { _, err := parseCoordinate(s, 90); return err }).
				Value(&a.CenterLat),
			huh.NewInput().
				Title("Map center longitude").
				Validate(func(s string) error { _, err := parseCoordinate(s, 180); return err }).
				Value(&a.CenterLng),
			huh.NewInput().
				Title("Search radius (meters)").
				Validate(func(s string) error { _, err := parseRadius(s); return err }).
				Value(&a.RadiusM),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(themeOptions...).
				Value(&a.Theme),
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&a.Confirm),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !a.Confirm {
		fmt.Println("setup canceled")
		return nil
	}
	if err := a.apply(&cfg); err != nil {
		return err
	}
	if err := configpkg.Save(cfg); err != nil {
		return err
	}
	path, _ := configpkg.Path()
	fmt.Printf("config saved: %s\n", path)
	return nil
}
