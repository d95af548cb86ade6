package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pharmamap/internal/config"
	"pharmamap/internal/loop"
	"pharmamap/internal/panel"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/viewstate"
)

type fakeSearcher struct {
	entities []pharmacy.Entity
	calls    int
}

func (s *fakeSearcher) SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]pharmacy.Entity, error) {
	s.calls++
	return s.entities, nil
}

type fakeLocator struct {
	lat, lng float64
	calls    int
}

func (l *fakeLocator) Locate(ctx context.Context) (float64, float64, error) {
	l.calls++
	return l.lat, l.lng, nil
}

type harness struct {
	m        appModel
	sched    *loop.Manual
	searcher *fakeSearcher
	locator  *fakeLocator
	local    *storage.Local
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	db, err := storage.Open(filepath.Join(t.TempDir(), "pharmamap.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Default()
	h := &harness{
		sched: loop.NewManual(),
		searcher: &fakeSearcher{entities: []pharmacy.Entity{
			{ID: "p1", Name: "온누리약국", Address: "서울 중구 1", Phone: "02-111-1111", Hours: "09:00-21:00", Lat: cfg.Map.CenterLat + 0.002, Lng: cfg.Map.CenterLng, DistanceM: 220},
			{ID: "p2", Name: "가나약국", Address: "서울 중구 2", Lat: cfg.Map.CenterLat - 0.002, Lng: cfg.Map.CenterLng + 0.003, DistanceM: 400},
		}},
		locator: &fakeLocator{lat: 37.5, lng: 127.0},
		local:   storage.NewLocal(db),
	}
	opts := Options{
		Config:    cfg,
		Local:     h.local,
		Searcher:  h.searcher,
		Locator:   h.locator,
		Scheduler: h.sched,
		Clipboard: func(string) error { return nil },
		Version:   "0.1.0",
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.m = newAppModel(opts)
	h.send(tea.WindowSizeMsg{Width: 120, Height: 36})
	h.m.Init()
	h.sched.Flush()
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	updated, cmd := h.m.Update(msg)
	h.m = updated.(appModel)
	return cmd
}

func (h *harness) keys(values ...string) {
	for _, v := range values {
		h.send(keyMsg(v))
	}
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func keyMsg(v string) tea.KeyMsg {
	switch v {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(v)}
}

func mouse(x, y int, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func TestInitSearchesAroundCenter(t *testing.T) {
	h := newHarness(t, nil)
	if h.searcher.calls != 1 {
		t.Fatalf("expected one search on init, got %d", h.searcher.calls)
	}
	if got := h.m.router.Markers().Len(); got != 2 {
		t.Fatalf("expected 2 markers, got %d", got)
	}
}

func TestMenuOpensListWithResults(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("2")
	if h.m.router.State().Panel != viewstate.SectionList {
		t.Fatalf("expected list section, got %s", h.m.router.State().Panel)
	}
	if len(h.m.table.filtered) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(h.m.table.filtered))
	}
	view := stripANSI(h.m.View())
	if !strings.Contains(view, "주변 약국") || !strings.Contains(view, "온누리약국") {
		t.Fatalf("expected list in view:\n%s", view)
	}
}

func TestListEnterOpensPopupOnMarker(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("2", "enter")
	st := h.m.router.State()
	if !st.PopupOpen {
		t.Fatalf("expected popup open")
	}
	cur, _ := h.m.table.current()
	if h.m.scr.popupEntity.ID != cur.ID || st.PopupEntityID != cur.ID {
		t.Fatalf("popup shows %q, want %q", h.m.scr.popupEntity.ID, cur.ID)
	}
	if st.Highlighted != h.m.router.Markers().IndexOf(cur.ID) {
		t.Fatalf("highlight %d does not match marker of %s", st.Highlighted, cur.ID)
	}

	h.keys("esc")
	st = h.m.router.State()
	if st.PopupOpen || st.Panel != viewstate.SectionNone {
		t.Fatalf("esc should close popup and panel: %+v", st)
	}
	if st.PanOffsetPx != 0 {
		t.Fatalf("pan offset should be restored, got %v", st.PanOffsetPx)
	}
}

func TestConsentPromptTakesKeys(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("L")
	if !h.m.consent.Asking() {
		t.Fatalf("expected consent prompt")
	}
	if !strings.Contains(stripANSI(h.m.View()), "위치 정보 사용 동의") {
		t.Fatalf("expected consent modal in view")
	}
	h.keys("2")
	if h.m.router.State().Panel != viewstate.SectionNone {
		t.Fatalf("menu keys must be blocked while asking")
	}
	h.keys("y")
	h.sched.Flush()
	if h.locator.calls != 1 {
		t.Fatalf("expected locate after consent, got %d calls", h.locator.calls)
	}
	lat, lng := h.m.mapView.Center()
	if lat != 37.5 || lng != 127.0 {
		t.Fatalf("map not centered on location: %v,%v", lat, lng)
	}
	if _, _, ok := h.m.mapView.SelfMarker(); !ok {
		t.Fatalf("expected self marker")
	}
}

func TestAddressInputGeocodesAndSearches(t *testing.T) {
	var asked string
	h := newHarness(t, func(o *Options) {
		o.Callbacks.Geocode = func(ctx context.Context, address string) (float64, float64, error) {
			asked = address
			return 35.1, 129.0, nil
		}
	})
	h.keys("/")
	if h.m.inputMode != inputAddress {
		t.Fatalf("expected address input")
	}
	h.keys("2")
	if h.m.router.State().Panel != viewstate.SectionNone {
		t.Fatalf("typing must not trigger shortcuts")
	}
	h.typeText("부산")
	h.keys("enter")
	h.sched.Flush()
	if asked != "2부산" {
		t.Fatalf("geocode got %q", asked)
	}
	if lat, lng := h.m.mapView.Center(); lat != 35.1 || lng != 129.0 {
		t.Fatalf("map not moved: %v,%v", lat, lng)
	}
	if h.searcher.calls != 2 {
		t.Fatalf("expected a search after geocode, got %d", h.searcher.calls)
	}
}

func TestCommentFromDetail(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("2", "d")
	if h.m.router.State().Panel != viewstate.SectionDetail {
		t.Fatalf("expected detail section")
	}
	h.keys("c")
	h.typeText("친절해요")
	h.keys("enter")
	if len(h.m.comments) != 1 || h.m.comments[0].Text != "친절해요" {
		t.Fatalf("comments = %+v", h.m.comments)
	}
	if !strings.Contains(stripANSI(h.m.viewport.View()), "친절해요") {
		t.Fatalf("comment missing from detail view")
	}
}

func TestActivityReplayOpensPopupWithoutHighlight(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("2", "enter", "4")
	if !h.m.scr.activityLoading {
		t.Fatalf("expected loader before render delay")
	}
	h.sched.Advance(panel.ActivityRenderDelay)
	if h.m.scr.activityLoading || len(h.m.scr.activities) == 0 {
		t.Fatalf("expected activities rendered, got %d", len(h.m.scr.activities))
	}
	if h.m.scr.activities[0].Type != storage.ActivityVisit {
		t.Fatalf("newest activity should be the visit, got %s", h.m.scr.activities[0].Type)
	}
	h.keys("enter")
	st := h.m.router.State()
	if !st.PopupOpen || st.Highlighted != -1 {
		t.Fatalf("replay state = %+v", st)
	}

	h.keys("x")
	if len(h.m.scr.activities) != 0 {
		t.Fatalf("expected cleared log")
	}
}

func TestMouseClickOnMarkerOpensPopup(t *testing.T) {
	h := newHarness(t, nil)
	e := h.searcher.entities[0]
	col, row, ok := h.m.mapView.ToCell(e.Lat, e.Lng)
	if !ok {
		t.Fatalf("marker not on screen")
	}
	h.send(mouse(col, row+headerRows, tea.MouseActionPress))
	st := h.m.router.State()
	if !st.PopupOpen || st.Highlighted < 0 {
		t.Fatalf("expected popup on marker click: %+v", st)
	}
}

func TestPopupDragPastThresholdCloses(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("tab")
	if !h.m.router.State().PopupOpen {
		t.Fatalf("tab should open the first marker")
	}
	x, y, _, _ := h.m.scr.popupRect()
	h.send(mouse(x+1, y+1, tea.MouseActionPress))
	if !h.m.router.Popup().Dragging() {
		t.Fatalf("expected drag to start")
	}
	h.send(mouse(x+1, y+2, tea.MouseActionMotion))
	if h.m.scr.popupDragPx <= 0 {
		t.Fatalf("drag offset should follow the pointer")
	}
	h.send(mouse(x+1, y+11, tea.MouseActionMotion))
	h.send(mouse(x+1, y+11, tea.MouseActionRelease))
	if h.m.router.State().PopupOpen {
		t.Fatalf("drag past threshold should close popup")
	}
}

func TestEscapeMidDragReleasesGesture(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("tab")
	x, y, _, _ := h.m.scr.popupRect()
	h.send(mouse(x+1, y+1, tea.MouseActionPress))
	if !h.m.dragging {
		t.Fatalf("expected drag to start")
	}
	h.keys("esc")
	if h.m.router.State().PopupOpen {
		t.Fatalf("escape should close the popup")
	}
	e := h.searcher.entities[0]
	col, row, ok := h.m.mapView.ToCell(e.Lat, e.Lng)
	if !ok {
		t.Fatalf("marker not on screen")
	}
	h.send(mouse(col, row+headerRows, tea.MouseActionPress))
	if h.m.dragging {
		t.Fatalf("drag survived the closed popup")
	}
	if !h.m.router.State().PopupOpen {
		t.Fatalf("marker press after escape was swallowed")
	}
}

func TestPopupCopyUsesClipboard(t *testing.T) {
	var copied string
	h := newHarness(t, func(o *Options) {
		o.Clipboard = func(s string) error { copied = s; return nil }
	})
	h.keys("tab", "y")
	if copied == "" || copied != h.m.scr.popupEntity.KakaoLink() {
		t.Fatalf("copied %q", copied)
	}
}

func TestSubscribeToggle(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("5", "enter")
	if !h.m.scr.subscribed || !h.local.IsSubscribed() {
		t.Fatalf("expected subscribed")
	}
	h.keys("enter")
	if h.m.scr.subscribed {
		t.Fatalf("expected unsubscribed")
	}
}

func TestDrugModalSuppressesShortcuts(t *testing.T) {
	h := newHarness(t, nil)
	h.keys("3", "j", "enter")
	if h.m.modalKind != modalDrug || h.m.drugCursor != 1 {
		t.Fatalf("expected drug modal for second drug, got kind=%v cursor=%d", h.m.modalKind, h.m.drugCursor)
	}
	h.keys("2")
	if h.m.router.State().Panel != viewstate.SectionDrugs {
		t.Fatalf("menu key must not switch while modal open")
	}
	view := stripANSI(h.m.View())
	if !strings.Contains(view, pharmacy.Drugs[1].Name) {
		t.Fatalf("expected drug name in modal")
	}
	if !strings.Contains(view, "pharmamap") {
		t.Fatalf("expected base UI to remain visible behind modal")
	}
	h.keys("esc")
	if h.m.modalKind != modalNone {
		t.Fatalf("esc should close modal")
	}
}

func TestSettingsApplyUpdatesThemeLive(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Callbacks.ThemeApply = func(id string) (UITheme, string, error) {
			return UITheme{PaneBorderActive: "#ff00ff"}, "applied theme: " + id, nil
		}
	})
	h.keys("t")
	if h.m.modalKind != modalSettings {
		t.Fatalf("expected settings modal")
	}
	h.m.settings = settingsState{
		stage:       settingsStageLocalList,
		mode:        settingsModeApply,
		localThemes: []string{"mint"},
	}
	m2, cmd := h.m.updateSettingsModal("enter")
	if cmd == nil {
		t.Fatalf("expected apply command")
	}
	h.m = m2
	h.send(cmd())
	if h.m.theme.PaneBorderActive != "#ff00ff" {
		t.Fatalf("expected live-updated theme, got %q", h.m.theme.PaneBorderActive)
	}
	if h.m.settings.status != "applied theme: mint" {
		t.Fatalf("status = %q", h.m.settings.status)
	}
}

func TestConfigReloadUpdatesRadius(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.Callbacks.ReloadConfig = func() (config.Config, error) {
			cfg := config.Default()
			cfg.Search.RadiusM = 500
			return cfg, nil
		}
	})
	h.send(configChangedMsg{})
	if h.m.router.Radius() != 500 {
		t.Fatalf("radius = %d", h.m.router.Radius())
	}
	h.keys("s")
	h.sched.Flush()
	if h.searcher.calls != 2 {
		t.Fatalf("expected search after reload, got %d", h.searcher.calls)
	}
}

func TestSortToggleBySameKey(t *testing.T) {
	tb := newPharmacyTable([]pharmacy.Entity{{ID: "b", Name: "나"}, {ID: "a", Name: "가"}})
	if tb.sortBy != sortFieldDistance || tb.sortDir != sortAsc {
		t.Fatalf("unexpected initial sort: %v %v", tb.sortBy, tb.sortDir)
	}
	tb.setSortField(sortFieldName)
	if cur, _ := tb.current(); cur.ID != "a" {
		t.Fatalf("expected name order, got %s first", cur.ID)
	}
	tb.setSortField(sortFieldName)
	if tb.sortDir != sortDesc {
		t.Fatalf("expected desc after toggle, got %v", tb.sortDir)
	}
}

func TestTableFilterMatchesAddress(t *testing.T) {
	tb := newPharmacyTable([]pharmacy.Entity{
		{ID: "a", Name: "가", Address: "서울 중구"},
		{ID: "b", Name: "나", Address: "부산 해운대구"},
	})
	tb.setFilter("해운대")
	if len(tb.filtered) != 1 {
		t.Fatalf("filtered = %v", tb.filtered)
	}
	if cur, _ := tb.current(); cur.ID != "b" {
		t.Fatalf("expected b, got %s", cur.ID)
	}
}

func TestAllocateColumnWidths(t *testing.T) {
	cols := []columnSpec{
		{title: "a", min: 3, max: 3, weight: 0},
		{title: "b", min: 8, max: 20, weight: 2},
		{title: "c", min: 8, max: 20, weight: 2},
	}

	narrow := allocateColumnWidths(24, cols)
	if len(narrow) != 3 || narrow[0] != 3 {
		t.Fatalf("bad narrow widths: %#v", narrow)
	}
	wide := allocateColumnWidths(80, cols)
	if wide[1] <= narrow[1] || wide[2] <= narrow[2] {
		t.Fatalf("expected wider columns in wide layout: narrow=%#v wide=%#v", narrow, wide)
	}
}

func TestEnsureVisible(t *testing.T) {
	tb := pharmacyTable{
		filtered: make([]int, 200),
		height:   20,
	}
	tb.cursor = 120
	tb.ensureVisible()
	if tb.scroll == 0 {
		t.Fatalf("expected scroll to move for deep cursor")
	}
	tb.cursor = 0
	tb.ensureVisible()
	if tb.scroll != 0 {
		t.Fatalf("expected scroll reset near top, got %d", tb.scroll)
	}
}

func TestOverlayKeepsWideRunes(t *testing.T) {
	base := "약국약국약국\nabcdefghijkl"
	out := overlayAt(base, "XX", 2, 1)
	lines := strings.Split(out, "\n")
	if lines[1] != "abXXefghijkl" {
		t.Fatalf("overlay = %q", lines[1])
	}
	if lines[0] != "약국약국약국" {
		t.Fatalf("untouched row changed: %q", lines[0])
	}
}

func TestFormatVersionLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "vdev"},
		{"0.1.0", "v0.1.0"},
		{"v0.1.0", "v0.1.0"},
		{" dev ", "vdev"},
	}
	for _, tc := range cases {
		if got := formatVersionLabel(tc.in); got != tc.want {
			t.Fatalf("formatVersionLabel(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}
