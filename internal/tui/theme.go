package tui

import (
	"github.com/charmbracelet/lipgloss"

	"pharmamap/internal/mapview"
	"pharmamap/internal/notify"
	"pharmamap/internal/theme"
)

type UITheme struct {
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

type ThemeOption struct {
	ID          string
	Name        string
	Description string
}

func defaultUITheme() UITheme {
	resolved := theme.ResolveForTerminal(theme.DefaultPaletteHex(), theme.DetectTrueColor())
	return uiThemeFromResolved(resolved)
}

// ThemeFromPalette resolves a palette for the current terminal.
func ThemeFromPalette(p theme.PaletteHex) UITheme {
	return uiThemeFromResolved(theme.ResolveForTerminal(p, theme.DetectTrueColor()))
}

func uiThemeFromResolved(r theme.PaletteResolved) UITheme {
	return UITheme{
		PaneBorderActive:   r.PaneBorderActive,
		PaneBorderInactive: r.PaneBorderInactive,
		PopupBorder:        r.PopupBorder,
		Danger:             r.Danger,
		Warning:            r.Warning,
		Success:            r.Success,
		Info:               r.Info,
		TextPrimary:        r.TextPrimary,
		TextMuted:          r.TextMuted,
		SelectionBg:        r.SelectionBg,
		SelectionFg:        r.SelectionFg,
		Brand:              r.Brand,
		HeaderText:         r.HeaderText,
		HelpText:           r.HelpText,
		StatusText:         r.StatusText,
		MapGrid:            r.MapGrid,
		MarkerNormal:       r.MarkerNormal,
		MarkerHighlight:    r.MarkerHighlight,
		MarkerSelf:         r.MarkerSelf,
		MarkerLabel:        r.MarkerLabel,
		TableHeader:        r.TableHeader,
		ColName:            r.ColName,
		ColDistance:        r.ColDistance,
		ColAddress:         r.ColAddress,
		ColPhone:           r.ColPhone,
		DetailsLabel:       r.DetailsLabel,
		DetailsValue:       r.DetailsValue,
	}
}

// withDefaults fills colours a caller left empty.
func (t UITheme) withDefaults() UITheme {
	d := defaultUITheme()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.PaneBorderActive, d.PaneBorderActive)
	fill(&t.PaneBorderInactive, d.PaneBorderInactive)
	fill(&t.PopupBorder, d.PopupBorder)
	fill(&t.Danger, d.Danger)
	fill(&t.Warning, d.Warning)
	fill(&t.Success, d.Success)
	fill(&t.Info, d.Info)
	fill(&t.TextPrimary, d.TextPrimary)
	fill(&t.TextMuted, d.TextMuted)
	fill(&t.SelectionBg, d.SelectionBg)
	fill(&t.SelectionFg, d.SelectionFg)
	fill(&t.Brand, d.Brand)
	fill(&t.HeaderText, d.HeaderText)
	fill(&t.HelpText, d.HelpText)
	fill(&t.StatusText, d.StatusText)
	fill(&t.MapGrid, d.MapGrid)
	fill(&t.MarkerNormal, d.MarkerNormal)
	fill(&t.MarkerHighlight, d.MarkerHighlight)
	fill(&t.MarkerSelf, d.MarkerSelf)
	fill(&t.MarkerLabel, d.MarkerLabel)
	fill(&t.TableHeader, d.TableHeader)
	fill(&t.ColName, d.ColName)
	fill(&t.ColDistance, d.ColDistance)
	fill(&t.ColAddress, d.ColAddress)
	fill(&t.ColPhone, d.ColPhone)
	fill(&t.DetailsLabel, d.DetailsLabel)
	fill(&t.DetailsValue, d.DetailsValue)
	return t
}

func (t UITheme) mapStyles() mapview.Styles {
	return mapview.Styles{
		Grid:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.MapGrid)),
		Marker:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.MarkerNormal)),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color(t.MarkerHighlight)).Bold(true),
		Self:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.MarkerSelf)).Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.MarkerLabel)).
			Background(lipgloss.Color(t.MarkerHighlight)),
	}
}

func (t UITheme) toastColor(kind notify.Kind) lipgloss.Color {
	switch kind {
	case notify.Success:
		return lipgloss.Color(t.Success)
	case notify.Warning:
		return lipgloss.Color(t.Warning)
	case notify.Error:
		return lipgloss.Color(t.Danger)
	default:
		return lipgloss.Color(t.Info)
	}
}
