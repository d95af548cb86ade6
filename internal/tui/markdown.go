package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"pharmamap/internal/debug"
)

var (
	markdownMu       sync.Mutex
	markdownRenderer *glamour.TermRenderer
	markdownWrap     int
)

// renderMarkdown returns glamour output wrapped at width. On renderer
// errors the raw markdown is shown instead.
func renderMarkdown(content string, width int) string {
	r := ensureMarkdownRenderer(width)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		debug.Log("tui: markdown: %v", err)
		return content
	}
	return strings.Trim(out, "\n")
}

func ensureMarkdownRenderer(width int) *glamour.TermRenderer {
	markdownMu.Lock()
	defer markdownMu.Unlock()
	if width < 20 {
		width = 20
	}
	if markdownRenderer != nil && markdownWrap == width {
		return markdownRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		debug.Log("tui: markdown renderer: %v", err)
		return nil
	}
	markdownRenderer = r
	markdownWrap = width
	return r
}
