package theme

import (
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

// fallbackColor is used for anything that does not parse as #rrggbb.
const fallbackColor = "7"

// ColorProfile is termenv's detected profile, upgraded to TrueColor when COLORTERM or
// TERM advertise it. Some multiplexers hide the capability from that check.
func ColorProfile() termenv.Profile {
	if p := termenv.EnvColorProfile(); p == termenv.TrueColor {
		return p
	}
	ct := strings.ToLower(os.Getenv("COLORTERM"))
	if strings.Contains(ct, "truecolor") || strings.Contains(ct, "24bit") {
		return termenv.TrueColor
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "direct") || strings.Contains(term, "truecolor") {
		return termenv.TrueColor
	}
	return termenv.ANSI256
}

func DetectTrueColor() bool {
	return ColorProfile() == termenv.TrueColor
}

// ResolveForTerminal turns hex colours into what lipgloss should get: the
// hex itself on truecolor terminals, an xterm-256 index otherwise.
func ResolveForTerminal(p PaletteHex, trueColor bool) PaletteResolved {
	profile := termenv.ANSI256
	if trueColor {
		profile = termenv.TrueColor
	}
	r := func(h Hex) string { return resolveHex(profile, h) }
	return PaletteResolved{
		PaneBorderActive:   r(p.PaneBorderActive),
		PaneBorderInactive: r(p.PaneBorderInactive),
		PopupBorder:        r(p.PopupBorder),
		Danger:             r(p.Danger),
		Warning:            r(p.Warning),
		Success:            r(p.Success),
		Info:               r(p.Info),
		TextPrimary:        r(p.TextPrimary),
		TextMuted:          r(p.TextMuted),
		SelectionBg:        r(p.SelectionBg),
		SelectionFg:        r(p.SelectionFg),
		Brand:              r(p.Brand),
		HeaderText:         r(p.HeaderText),
		HelpText:           r(p.HelpText),
		StatusText:         r(p.StatusText),
		MapGrid:            r(p.MapGrid),
		MarkerNormal:       r(p.MarkerNormal),
		MarkerHighlight:    r(p.MarkerHighlight),
		MarkerSelf:         r(p.MarkerSelf),
		MarkerLabel:        r(p.MarkerLabel),
		TableHeader:        r(p.TableHeader),
		ColName:            r(p.ColName),
		ColDistance:        r(p.ColDistance),
		ColAddress:         r(p.ColAddress),
		ColPhone:           r(p.ColPhone),
		DetailsLabel:       r(p.DetailsLabel),
		DetailsValue:       r(p.DetailsValue),
	}
}

func resolveHex(profile termenv.Profile, h Hex) string {
	if !hexRe.MatchString(string(h)) {
		return fallbackColor
	}
	switch c := profile.Color(string(h)).(type) {
	case termenv.RGBColor:
		return string(c)
	case termenv.ANSI256Color:
		return strconv.Itoa(int(c))
	case termenv.ANSIColor:
		return strconv.Itoa(int(c))
	default:
		return fallbackColor
	}
}
