package tui

import (
	"pharmamap/internal/debug"
	"pharmamap/internal/mapview"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
)

const (
	headerRows    = 1
	footerRows    = 2
	minPanelWidth = 40
	maxPanelWidth = 72
	popupHeight   = 9
	popupMaxWidth = 60
)

// screen is what the controllers draw into. Model copies share it by
// pointer, so deferred callbacks see the latest terminal size.
type screen struct {
	width  int
	height int

	mapView *mapview.View

	panelVisible bool
	scrollLocked bool
	panelInert   bool

	activityLoading bool
	activities      []storage.Activity
	subscribed      bool
	fetchActivities func() []storage.Activity
	fetchSubscribed func() bool

	popupVisible bool
	popupEntity  pharmacy.Entity
	popupDragPx  float64

	layoutRefreshes int
	drugsRendered   map[int]string
}

func newScreen(v *mapview.View) *screen {
	return &screen{
		width:         100,
		height:        30,
		mapView:       v,
		panelInert:    true,
		drugsRendered: map[int]string{},
	}
}

// panel.Surface

func (s *screen) SetVisible(on bool) { s.panelVisible = on }
func (s *screen) LockScroll(on bool) { s.scrollLocked = on }
func (s *screen) SetInert(on bool)   { s.panelInert = on }

// panel.Content

func (s *screen) ShowLoading() {
	s.activityLoading = true
}

func (s *screen) RenderActivity() {
	s.activityLoading = false
	if s.fetchActivities == nil {
		s.activities = nil
		return
	}
	s.activities = s.fetchActivities()
}

func (s *screen) RenderSubscription() {
	s.subscribed = s.fetchSubscribed != nil && s.fetchSubscribed()
}

// popup.View

func (s *screen) Show(e pharmacy.Entity) {
	s.popupVisible = true
	s.popupEntity = e
	s.popupDragPx = 0
}

func (s *screen) Hide() {
	s.popupVisible = false
	s.popupDragPx = 0
}

func (s *screen) SetDragOffset(px float64) {
	s.popupDragPx = px
}

// RefreshLayout fits the map canvas to the space left by the panel.
func (s *screen) RefreshLayout() {
	s.layoutRefreshes++
	if s.mapView == nil {
		debug.Log("tui: no map view, layout refresh skipped")
		return
	}
	cols, rows := s.mapArea()
	s.mapView.Resize(cols, rows)
}

func (s *screen) bodyRows() int {
	rows := s.height - headerRows - footerRows
	if rows < 6 {
		rows = 6
	}
	return rows
}

func (s *screen) panelWidth() int {
	return s.panelWidthFor(s.panelVisible)
}

func (s *screen) panelWidthFor(visible bool) int {
	if !visible {
		return 0
	}
	w := s.width * 2 / 5
	w = clampInt(w, minPanelWidth, maxPanelWidth)
	if w > s.width-10 {
		w = s.width - 10
	}
	if w < 0 {
		w = 0
	}
	return w
}

// mapArea is the space the map gets on screen right now.
func (s *screen) mapArea() (cols, rows int) {
	cols = s.width - s.panelWidth()
	if cols < 10 {
		cols = 10
	}
	return cols, s.bodyRows()
}

// popupRect is the popup box in screen cells, drag offset included.
func (s *screen) popupRect() (x, y, w, h int) {
	cols, rows := s.mapArea()
	w = cols - 4
	if w > popupMaxWidth {
		w = popupMaxWidth
	}
	if w < 20 {
		w = 20
	}
	h = popupHeight
	if h > rows-1 {
		h = rows - 1
	}
	x = (cols - w) / 2
	if x < 0 {
		x = 0
	}
	y = headerRows + rows - h - 1
	if s.mapView != nil {
		_, cellH := s.mapView.CellSize()
		if cellH > 0 {
			y += int(s.popupDragPx) / cellH
		}
	}
	return x, y, w, h
}
