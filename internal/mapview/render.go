package mapview

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	glyphMarker    = '●'
	glyphHighlight = '◆'
	glyphSelf      = '◎'
)

// Styles colour the map layers.
type Styles struct {
	Grid      lipgloss.Style
	Marker    lipgloss.Style
	Highlight lipgloss.Style
	Self      lipgloss.Style
	Label     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Grid:      lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3F4B")),
		Marker:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5252")).Bold(true),
		Self:      lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Bold(true),
		Label:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#FF5252")),
	}
}

type layer int

const (
	layerBlank layer = iota
	layerGrid
	layerMarker
	layerHighlight
	layerSelf
	layerLabel
)

type cell struct {
	r    rune
	l    layer
	cont bool
}

// Render draws the viewport as rows of exactly cols cells.
func (v *View) Render(st Styles) string {
	return strings.Join(v.Lines(st), "\n")
}

func (v *View) Lines(st Styles) []string {
	grid := v.cells()
	out := make([]string, v.rows)
	for y, row := range grid {
		var b strings.Builder
		var run []rune
		cur := layerBlank
		flush := func() {
			if len(run) == 0 {
				return
			}
			b.WriteString(styleFor(st, cur).Render(string(run)))
			run = run[:0]
		}
		for _, c := range row {
			if c.cont {
				continue
			}
			if c.l != cur {
				flush()
				cur = c.l
			}
			run = append(run, c.r)
		}
		flush()
		out[y] = b.String()
	}
	return out
}

func styleFor(st Styles, l layer) lipgloss.Style {
	switch l {
	case layerGrid:
		return st.Grid
	case layerMarker:
		return st.Marker
	case layerHighlight:
		return st.Highlight
	case layerSelf:
		return st.Self
	case layerLabel:
		return st.Label
	}
	return lipgloss.NewStyle()
}

func (v *View) cells() [][]cell {
	br := newBrailleBuf(v.cols, v.rows)
	v.drawGrid(br)
	grid := make([][]cell, v.rows)
	for y := range grid {
		grid[y] = make([]cell, v.cols)
		for x := range grid[y] {
			if mask := br.m[y][x]; mask != 0 {
				grid[y][x] = cell{r: rune(0x2800 + int(mask)), l: layerGrid}
			} else {
				grid[y][x] = cell{r: ' '}
			}
		}
	}

	var hl *marker
	for _, h := range v.order {
		m := v.markers[h]
		if m.highlighted {
			hl = m
			continue
		}
		v.put(grid, m.lat, m.lng, glyphMarker, layerMarker)
	}
	if v.hasSelf {
		v.put(grid, v.selfLat, v.selfLng, glyphSelf, layerSelf)
	}
	if hl != nil {
		if col, row, ok := v.put(grid, hl.lat, hl.lng, glyphHighlight, layerHighlight); ok && hl.label != "" {
			v.label(grid, col, row, " "+hl.label+" ")
		}
	}
	return grid
}

func (v *View) put(grid [][]cell, lat, lng float64, r rune, l layer) (int, int, bool) {
	col, row, ok := v.ToCell(lat, lng)
	if !ok {
		return col, row, false
	}
	w := runewidth.RuneWidth(r)
	if w == 2 && col+1 >= v.cols {
		col--
	}
	if col < 0 {
		return col, row, false
	}
	grid[row][col] = cell{r: r, l: l}
	if w == 2 {
		grid[row][col+1] = cell{l: l, cont: true}
	}
	return col, row, true
}

// label writes text after col, clipped to the viewport.
func (v *View) label(grid [][]cell, col, row int, text string) {
	x := col + runewidth.RuneWidth(grid[row][col].r)
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > v.cols {
			return
		}
		grid[row][x] = cell{r: r, l: layerLabel}
		if w == 2 {
			grid[row][x+1] = cell{l: layerLabel, cont: true}
		}
		x += w
	}
}

var gridSpacingsM = []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000, 50000, 100000, 200000}

// GridSpacing picks the graticule step so lines land roughly a dozen
// cells apart.
func (v *View) GridSpacing() float64 {
	want := MetersPerPixel(v.level) * float64(v.cellW) * 12
	for _, s := range gridSpacingsM {
		if s >= want {
			return s
		}
	}
	return gridSpacingsM[len(gridSpacingsM)-1]
}

func (v *View) drawGrid(br *brailleBuf) {
	mpp := MetersPerPixel(v.level)
	spacing := v.GridSpacing()
	wMic, hMic := v.cols*2, v.rows*4
	halfW, halfH := v.widthPx()/2, v.heightPx()/2

	east := func(mx int) float64 {
		x := (float64(mx) + 0.5) * float64(v.cellW) / 2
		return v.centerLng*metersPerDegLng + (x-halfW+v.panX)*mpp
	}
	north := func(my int) float64 {
		y := (float64(my) + 0.5) * float64(v.cellH) / 4
		return v.centerLat*metersPerDegLat - (y-halfH+v.panY)*mpp
	}
	for mx := 1; mx < wMic; mx++ {
		if math.Floor(east(mx-1)/spacing) != math.Floor(east(mx)/spacing) {
			for my := 0; my < hMic; my += 3 {
				br.setPixel(mx, my)
			}
		}
	}
	for my := 1; my < hMic; my++ {
		if math.Floor(north(my-1)/spacing) != math.Floor(north(my)/spacing) {
			for mx := 0; mx < wMic; mx += 3 {
				br.setPixel(mx, my)
			}
		}
	}
}
