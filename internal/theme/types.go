package theme

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

type Hex string

type PaletteHex struct {
	PaneBorderActive   Hex `json:"pane_border_active"`
	PaneBorderInactive Hex `json:"pane_border_inactive"`
	PopupBorder        Hex `json:"popup_border"`
	Danger             Hex `json:"danger"`
	Warning            Hex `json:"warning"`
	Success            Hex `json:"success"`
	Info               Hex `json:"info"`
	TextPrimary        Hex `json:"text_primary"`
	TextMuted          Hex `json:"text_muted"`
	SelectionBg        Hex `json:"selection_bg"`
	SelectionFg        Hex `json:"selection_fg"`
	Brand              Hex `json:"brand"`
	HeaderText         Hex `json:"header_text"`
	HelpText           Hex `json:"help_text"`
	StatusText         Hex `json:"status_text"`
	MapGrid            Hex `json:"map_grid"`
	MarkerNormal       Hex `json:"marker_normal"`
	MarkerHighlight    Hex `json:"marker_highlight"`
	MarkerSelf         Hex `json:"marker_self"`
	MarkerLabel        Hex `json:"marker_label"`
	TableHeader        Hex `json:"table_header"`
	ColName            Hex `json:"col_name"`
	ColDistance        Hex `json:"col_distance"`
	ColAddress         Hex `json:"col_address"`
	ColPhone           Hex `json:"col_phone"`
	DetailsLabel       Hex `json:"details_label"`
	DetailsValue       Hex `json:"details_value"`
}

type ThemeFile struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Version int        `json:"version"`
	Colors  PaletteHex `json:"colors"`
}

type PaletteResolved struct {
	PaneBorderActive   string
	PaneBorderInactive string
	PopupBorder        string
	Danger             string
	Warning            string
	Success            string
	Info               string
	TextPrimary        string
	TextMuted          string
	SelectionBg        string
	SelectionFg        string
	Brand              string
	HeaderText         string
	HelpText           string
	StatusText         string
	MapGrid            string
	MarkerNormal       string
	MarkerHighlight    string
	MarkerSelf         string
	MarkerLabel        string
	TableHeader        string
	ColName            string
	ColDistance        string
	ColAddress         string
	ColPhone           string
	DetailsLabel       string
	DetailsValue       string
}

type ThemeIndex struct {
	Version int               `json:"version"`
	Themes  []ThemeIndexEntry `json:"themes"`
}

type ThemeIndexEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

var (
	hexRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	varRe = regexp.MustCompile(`^var\(--([A-Za-z0-9_-]+)\)$`)
)

// fields maps every json key to its slot so parsing, validation and
// variable resolution share one list.
func (p *PaletteHex) fields() map[string]*Hex {
	return map[string]*Hex{
		"pane_border_active":   &p.PaneBorderActive,
		"pane_border_inactive": &p.PaneBorderInactive,
		"popup_border":         &p.PopupBorder,
		"danger":               &p.Danger,
		"warning":              &p.Warning,
		"success":              &p.Success,
		"info":                 &p.Info,
		"text_primary":         &p.TextPrimary,
		"text_muted":           &p.TextMuted,
		"selection_bg":         &p.SelectionBg,
		"selection_fg":         &p.SelectionFg,
		"brand":                &p.Brand,
		"header_text":          &p.HeaderText,
		"help_text":            &p.HelpText,
		"status_text":          &p.StatusText,
		"map_grid":             &p.MapGrid,
		"marker_normal":        &p.MarkerNormal,
		"marker_highlight":     &p.MarkerHighlight,
		"marker_self":          &p.MarkerSelf,
		"marker_label":         &p.MarkerLabel,
		"table_header":         &p.TableHeader,
		"col_name":             &p.ColName,
		"col_distance":         &p.ColDistance,
		"col_address":          &p.ColAddress,
		"col_phone":            &p.ColPhone,
		"details_label":        &p.DetailsLabel,
		"details_value":        &p.DetailsValue,
	}
}

func (p PaletteHex) Validate() error {
	fields := p.fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if val := *fields[key]; !hexRe.MatchString(string(val)) {
			return fmt.Errorf("invalid hex color for %s: %q", key, string(val))
		}
	}
	return nil
}

type rawThemeFile struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Version int               `json:"version"`
	Vars    map[string]string `json:"vars"`
	Colors  map[string]string `json:"colors"`
}

// ParseThemeFile reads a theme, resolving var(--name) references against
// the file's vars block. Colors the file leaves out keep their defaults.
func ParseThemeFile(b []byte) (ThemeFile, error) {
	var raw rawThemeFile
	if err := json.Unmarshal(b, &raw); err != nil {
		return ThemeFile{}, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return ThemeFile{}, fmt.Errorf("theme id is required")
	}
	t := ThemeFile{
		ID:      raw.ID,
		Name:    raw.Name,
		Version: raw.Version,
		Colors:  DefaultPaletteHex(),
	}
	if t.Version == 0 {
		t.Version = 1
	}
	slots := t.Colors.fields()
	for key, val := range raw.Colors {
		slot, ok := slots[key]
		if !ok {
			return ThemeFile{}, fmt.Errorf("unknown color key: %s", key)
		}
		resolved, err := resolveVar(val, raw.Vars, nil)
		if err != nil {
			return ThemeFile{}, fmt.Errorf("%s: %w", key, err)
		}
		*slot = Hex(resolved)
	}
	if err := t.Colors.Validate(); err != nil {
		return ThemeFile{}, err
	}
	return t, nil
}

func resolveVar(val string, vars map[string]string, seen []string) (string, error) {
	val = strings.TrimSpace(val)
	if !strings.HasPrefix(val, "var(") {
		return val, nil
	}
	m := varRe.FindStringSubmatch(val)
	if m == nil {
		return "", fmt.Errorf("invalid variable reference %q", val)
	}
	name := m[1]
	for _, s := range seen {
		if s == name {
			return "", fmt.Errorf("circular variable reference: %s", strings.Join(append(seen, name), " -> "))
		}
	}
	next, ok := vars[name]
	if !ok {
		return "", fmt.Errorf("unknown color variable %q", name)
	}
	return resolveVar(next, vars, append(seen, name))
}

func DefaultPaletteHex() PaletteHex {
	return PaletteHex{
		PaneBorderActive:   "#2fbf71",
		PaneBorderInactive: "#585858",
		PopupBorder:        "#2fbf71",
		Danger:             "#e5484d",
		Warning:            "#f5a524",
		Success:            "#2fbf71",
		Info:               "#4ea8de",
		TextPrimary:        "#e6e6e6",
		TextMuted:          "#9a9a9a",
		SelectionBg:        "#2fbf71",
		SelectionFg:        "#0b0b0b",
		Brand:              "#2fbf71",
		HeaderText:         "#f0f0f0",
		HelpText:           "#b8b8b8",
		StatusText:         "#8fe3b5",
		MapGrid:            "#3a3a3a",
		MarkerNormal:       "#4ea8de",
		MarkerHighlight:    "#e5484d",
		MarkerSelf:         "#f5a524",
		MarkerLabel:        "#f0f0f0",
		TableHeader:        "#8fe3b5",
		ColName:            "#f0f0f0",
		ColDistance:        "#f5a524",
		ColAddress:         "#bdbdbd",
		ColPhone:           "#9fd0d0",
		DetailsLabel:       "#8fe3b5",
		DetailsValue:       "#dcdcdc",
	}
}
