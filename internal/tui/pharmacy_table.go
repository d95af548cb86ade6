package tui

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pharmamap/internal/pharmacy"
)

type sortField int

type sortDirection int

const (
	sortFieldDistance sortField = iota
	sortFieldName
)

const (
	sortAsc sortDirection = iota
	sortDesc
)

type columnSpec struct {
	title  string
	min    int
	max    int
	weight int
}

// pharmacyTable is the list section: the current search results, filtered
// and sorted for display.
type pharmacyTable struct {
	entries  []pharmacy.Entity
	filtered []int
	cursor   int
	scroll   int
	filter   string
	sortBy   sortField
	sortDir  sortDirection
	height   int
}

func newPharmacyTable(entries []pharmacy.Entity) pharmacyTable {
	t := pharmacyTable{
		entries: append([]pharmacy.Entity(nil), entries...),
		sortBy:  sortFieldDistance,
		sortDir: sortAsc,
		height:  20,
	}
	t.recompute()
	return t
}

// replaceEntries swaps in new results and keeps the cursor on the same
// pharmacy when it is still present.
func (t *pharmacyTable) replaceEntries(entries []pharmacy.Entity) {
	prev, hadPrev := t.current()
	t.entries = append([]pharmacy.Entity(nil), entries...)
	t.recompute()
	if !hadPrev {
		return
	}
	for i, idx := range t.filtered {
		if t.entries[idx].ID == prev.ID {
			t.cursor = i
			t.ensureVisible()
			return
		}
	}
}

func (t *pharmacyTable) sameEntries(entries []pharmacy.Entity) bool {
	if len(entries) != len(t.entries) {
		return false
	}
	for i := range entries {
		if entries[i].ID != t.entries[i].ID {
			return false
		}
	}
	return true
}

func (t *pharmacyTable) setHeight(h int) {
	t.height = h
	t.ensureVisible()
}

func (t *pharmacyTable) moveCursor(delta int) {
	if len(t.filtered) == 0 {
		return
	}
	t.cursor = clampInt(t.cursor+delta, 0, len(t.filtered)-1)
	t.ensureVisible()
}

func (t *pharmacyTable) pageMove(delta int) {
	t.moveCursor(delta * t.bodyRows())
}

func (t *pharmacyTable) setFilter(f string) {
	t.filter = f
	t.recompute()
}

func (t *pharmacyTable) setSortField(field sortField) {
	if t.sortBy == field {
		if t.sortDir == sortAsc {
			t.sortDir = sortDesc
		} else {
			t.sortDir = sortAsc
		}
	} else {
		t.sortBy = field
		t.sortDir = sortAsc
	}
	t.recompute()
}

func (t *pharmacyTable) cycleSort() {
	if t.sortBy == sortFieldDistance {
		t.setSortField(sortFieldName)
		return
	}
	t.setSortField(sortFieldDistance)
}

func (t *pharmacyTable) current() (pharmacy.Entity, bool) {
	if len(t.filtered) == 0 || t.cursor < 0 || t.cursor >= len(t.filtered) {
		return pharmacy.Entity{}, false
	}
	return t.entries[t.filtered[t.cursor]], true
}

// rowAt maps a body row on screen to an entry, for mouse clicks.
func (t *pharmacyTable) rowAt(bodyRow int) (int, bool) {
	i := t.scroll + bodyRow
	if bodyRow < 0 || bodyRow >= t.bodyRows() || i >= len(t.filtered) {
		return 0, false
	}
	return i, true
}

func (t *pharmacyTable) recompute() {
	indexes := make([]int, 0, len(t.entries))
	needle := strings.ToLower(strings.TrimSpace(t.filter))
	for i, e := range t.entries {
		hay := strings.ToLower(strings.Join([]string{e.Name, e.Address, e.Phone}, " "))
		if needle == "" || strings.Contains(hay, needle) {
			indexes = append(indexes, i)
		}
	}
	sort.SliceStable(indexes, func(i, j int) bool {
		a := t.entries[indexes[i]]
		b := t.entries[indexes[j]]
		cmp := compareEntries(a, b, t.sortBy)
		if cmp == 0 {
			return a.ID < b.ID
		}
		if t.sortDir == sortAsc {
			return cmp < 0
		}
		return cmp > 0
	})
	t.filtered = indexes
	if t.cursor >= len(t.filtered) {
		t.cursor = len(t.filtered) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureVisible()
}

func compareEntries(a, b pharmacy.Entity, field sortField) int {
	switch field {
	case sortFieldName:
		return strings.Compare(a.Name, b.Name)
	default:
		switch {
		case a.DistanceM < b.DistanceM:
			return -1
		case a.DistanceM > b.DistanceM:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	}
}

func (t *pharmacyTable) ensureVisible() {
	if len(t.filtered) == 0 {
		t.cursor = 0
		t.scroll = 0
		return
	}
	rows := t.bodyRows()
	if t.cursor < t.scroll {
		t.scroll = t.cursor
	}
	if t.cursor >= t.scroll+rows {
		t.scroll = t.cursor - rows + 1
	}
	maxScroll := len(t.filtered) - rows
	if maxScroll < 0 {
		maxScroll = 0
	}
	t.scroll = clampInt(t.scroll, 0, maxScroll)
}

func (t pharmacyTable) bodyRows() int {
	height := t.height
	if height <= 0 {
		height = 20
	}
	// top border, header row, header separator, bottom border
	rows := height - 4
	if rows < 1 {
		rows = 1
	}
	return rows
}

// tableHeaderRows is how many lines sit above the first body row.
const tableHeaderRows = 3

func (t pharmacyTable) render(totalWidth int, theme UITheme, now time.Time) string {
	cols := []columnSpec{
		{title: "약국", min: 10, max: 24, weight: 3},
		{title: "거리", min: 6, max: 7, weight: 0},
		{title: "영업", min: 6, max: 22, weight: 1},
		{title: "주소", min: 8, max: 40, weight: 3},
		{title: "전화", min: 8, max: 14, weight: 1},
	}
	widths := allocateColumnWidths(totalWidth-2, cols)
	rowLimit := t.bodyRows()
	start := t.scroll
	end := start + rowLimit
	if end > len(t.filtered) {
		end = len(t.filtered)
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	lines := make([]string, 0, rowLimit+4)
	lines = append(lines, drawBorder("┌", "┬", "┐", widths))
	lines = append(lines, drawRow(titles, widths, false, theme, true))
	lines = append(lines, drawBorder("├", "┼", "┤", widths))
	for i := start; i < end; i++ {
		e := t.entries[t.filtered[i]]
		lines = append(lines, drawRow([]string{
			e.Name,
			pharmacy.FormatDistance(e.DistanceM),
			pharmacy.ParseHours(e.Hours, now).Badge(),
			e.Address,
			e.Phone,
		}, widths, i == t.cursor, theme, false))
	}
	if len(t.filtered) == 0 {
		lines = append(lines, drawRow([]string{"검색 결과가 없습니다"}, []int{sum(widths) + len(widths) - 1}, false, theme, false))
		end = start + 1
	}
	for i := end; i < start+rowLimit; i++ {
		lines = append(lines, drawRow(make([]string, len(widths)), widths, false, theme, false))
	}
	lines = append(lines, drawBorder("└", "┴", "┘", widths))
	return strings.Join(lines, "\n")
}

func sortLabel(field sortField, dir sortDirection) string {
	name := "distance"
	if field == sortFieldName {
		name = "name"
	}
	direction := "asc"
	if dir == sortDesc {
		direction = "desc"
	}
	return name + " " + direction
}

func drawBorder(left, mid, right string, widths []int) string {
	parts := make([]string, 0, len(widths)+2)
	parts = append(parts, left)
	for i, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
		if i != len(widths)-1 {
			parts = append(parts, mid)
		}
	}
	parts = append(parts, right)
	return strings.Join(parts, "")
}

func drawRow(values []string, widths []int, selected bool, theme UITheme, isHeader bool) string {
	parts := make([]string, 0, len(widths)+2)
	parts = append(parts, "│")
	columnColors := []string{
		theme.ColName,
		theme.ColDistance,
		theme.TextMuted,
		theme.ColAddress,
		theme.ColPhone,
	}
	for i := range widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		cell := pad(truncate(v, widths[i]), widths[i])
		color := theme.TextPrimary
		if i < len(columnColors) {
			color = columnColors[i]
		}
		cellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		if isHeader {
			cellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.TableHeader)).Bold(true)
		}
		if selected {
			cellStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(theme.SelectionFg)).
				Background(lipgloss.Color(theme.SelectionBg))
		}
		parts = append(parts, cellStyle.Render(cell))
		if i != len(widths)-1 {
			parts = append(parts, "│")
		}
	}
	parts = append(parts, "│")
	return strings.Join(parts, "")
}

func allocateColumnWidths(total int, cols []columnSpec) []int {
	if total < 10 {
		total = 10
	}
	sep := len(cols) - 1
	available := total - sep
	widths := make([]int, len(cols))
	used := 0
	for i, c := range cols {
		widths[i] = c.min
		used += c.min
	}
	remaining := available - used
	for remaining > 0 {
		changed := false
		for i, c := range cols {
			if remaining == 0 {
				break
			}
			if widths[i] >= c.max || c.weight == 0 {
				continue
			}
			widths[i]++
			remaining--
			changed = true
		}
		if !changed {
			break
		}
	}
	return widths
}

// truncate cuts s to a display width, marking the cut with "~". Hangul
// takes two cells, so widths are measured with runewidth.
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max == 1 {
		return "~"
	}
	return runewidth.Truncate(s, max, "~")
}

func pad(s string, width int) string {
	if runewidth.StringWidth(s) >= width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.FillRight(s, width)
}

func sum(v []int) int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}
