package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

func stripANSI(s string) string {
	return ansi.Strip(s)
}

// shrink subtracts a border allowance, never going below one cell.
func shrink(v, by int) int {
	if v-by < 1 {
		return 1
	}
	return v - by
}

// fitBlock cuts or pads styled lines to exactly w by h cells.
func fitBlock(lines []string, w, h int) []string {
	out := make([]string, h)
	for i := range out {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		if ansi.StringWidth(line) > w {
			line = ansi.Truncate(line, w, "")
		}
		if pad := w - ansi.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		out[i] = line
	}
	return out
}

// fitAndWrapLines wraps to maxWidth and keeps at most maxLines, marking a
// cut with "~" on the last row.
func fitAndWrapLines(lines []string, maxLines, maxWidth int) []string {
	if maxLines <= 0 {
		return nil
	}
	wrapped := wrapStyled(lines, maxWidth)
	if len(wrapped) <= maxLines {
		return wrapped
	}
	out := append([]string(nil), wrapped[:maxLines-1]...)
	return append(out, "~")
}

// overlayAt draws overlay on top of base with its top-left corner at
// (x, y). Styling on both sides of the overlay is kept.
func overlayAt(base, overlay string, x, y int) string {
	rows := strings.Split(base, "\n")
	x = max(x, 0)
	for i, ol := range strings.Split(overlay, "\n") {
		row := y + i
		if row < 0 || row >= len(rows) {
			continue
		}
		bl := rows[row]
		if w := ansi.StringWidth(bl); w < x {
			bl += strings.Repeat(" ", x-w)
		}
		rows[row] = ansi.Truncate(bl, x, "") + ol + ansi.TruncateLeft(bl, x+ansi.StringWidth(ol), "")
	}
	return strings.Join(rows, "\n")
}

func overlayCentered(base, overlay string, width, height int) string {
	ow, oh := blockSize(overlay)
	return overlayAt(base, overlay, max((width-ow)/2, 0), max((height-oh)/2, 0))
}

func blockSize(s string) (w, h int) {
	lines := strings.Split(s, "\n")
	for _, l := range lines {
		w = max(w, ansi.StringWidth(l))
	}
	return w, len(lines)
}

// dashed swaps solid box lines for dashed ones behind a modal.
var dashed = strings.NewReplacer(
	"│", "┆", "┃", "┆",
	"─", "┄", "━", "┄",
	"╭", "┍", "┌", "┍",
	"╮", "┑", "┐", "┑",
	"╰", "┕", "└", "┕",
	"╯", "┙", "┘", "┙",
)

// applyBackdrop flattens the screen behind a modal: colours are dropped
// and box lines are drawn dashed.
func applyBackdrop(base string, width, height int) string {
	lines := strings.Split(stripANSI(base), "\n")
	width = max(width, 1)
	if height < 1 {
		height = max(len(lines), 1)
	}
	out := make([]string, height)
	for i := range out {
		var l string
		if i < len(lines) {
			l = lines[i]
		}
		l = ansi.Truncate(l, width, "")
		if pad := width - ansi.StringWidth(l); pad > 0 {
			l += strings.Repeat(" ", pad)
		}
		out[i] = dashed.Replace(l)
	}
	return strings.Join(out, "\n")
}

// clampInt prefers lo when the range is empty.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	return min(v, hi)
}

func formatVersionLabel(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "vdev"
	case strings.HasPrefix(v, "v"):
		return v
	default:
		return "v" + v
	}
}
