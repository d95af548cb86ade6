package popup

import (
	"testing"

	"pgregory.net/rapid"

	"pharmamap/internal/markers"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/viewstate"
)

type recordView struct {
	shown   []string
	hidden  int
	offsets []float64
}

func (v *recordView) Show(e pharmacy.Entity)   { v.shown = append(v.shown, e.ID) }
func (v *recordView) Hide()                    { v.hidden++ }
func (v *recordView) SetDragOffset(px float64) { v.offsets = append(v.offsets, px) }

type recordPan struct{ dy float64 }

func (p *recordPan) PanBy(dx, dy float64) { p.dy += dy }

type recordActivities struct{ items []storage.Activity }

func (r *recordActivities) AddActivity(a storage.Activity) { r.items = append(r.items, a) }

type harness struct {
	store *viewstate.Store
	reg   *markers.Registry
	view  *recordView
	pan   *recordPan
	acts  *recordActivities
	ctrl  *Controller
}

var fixtures = []pharmacy.Entity{
	{ID: "1", Name: "온누리약국", Lat: 37.50, Lng: 127.00},
	{ID: "2", Name: "햇살약국", Lat: 37.51, Lng: 127.01},
}

func newHarness() *harness {
	h := &harness{
		reg:  markers.NewRegistry(nil),
		view: &recordView{},
		pan:  &recordPan{},
		acts: &recordActivities{},
	}
	h.store = viewstate.NewStore(h.reg)
	h.reg.LoadMarkers(fixtures)
	h.ctrl = New(Options{Markers: h.reg, View: h.view, Map: h.pan, Activities: h.acts, ShiftPx: DefaultShiftPx})
	return h
}

func (h *harness) do(t *testing.T, fn func(tx *viewstate.Txn)) {
	t.Helper()
	if err := h.store.Update(fn); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func TestShowHighlightsAndRecordsVisit(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[1], 1) })
	st := h.store.State()
	if !st.PopupOpen || st.PopupEntityID != "2" || st.Highlighted != 1 {
		t.Fatalf("unexpected state: %#v", st)
	}
	if h.reg.Highlighted() != 1 {
		t.Fatalf("registry not highlighted")
	}
	if len(h.acts.items) != 1 {
		t.Fatalf("expected one activity")
	}
	a := h.acts.items[0]
	if a.Type != storage.ActivityVisit || a.EntityID != "2" || a.Text != "약국 검색: 햇살약국" {
		t.Fatalf("unexpected activity: %#v", a)
	}
}

func TestShowWithoutMarkerUsesVisitText(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[0], -1) })
	if h.store.State().Highlighted != -1 {
		t.Fatalf("no marker should be highlighted")
	}
	if h.acts.items[0].Text != "방문: 온누리약국" {
		t.Fatalf("unexpected text %q", h.acts.items[0].Text)
	}
}

func TestShowPansOncePerSession(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[0], 0) })
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[1], 1) })
	if h.pan.dy != DefaultShiftPx || h.store.State().PanOffsetPx != DefaultShiftPx {
		t.Fatalf("expected a single shift, dy=%v", h.pan.dy)
	}
	if h.reg.Highlighted() != 1 {
		t.Fatalf("second show should move highlight")
	}
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Close(tx) })
	st := h.store.State()
	if h.pan.dy != 0 || st.PanOffsetPx != 0 || st.PopupOpen || st.Highlighted != -1 || h.reg.Highlighted() != -1 {
		t.Fatalf("close did not restore: dy=%v state=%#v", h.pan.dy, st)
	}
}

func TestCloseWhenClosedIsNoop(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Close(tx) })
	if h.view.hidden != 0 {
		t.Fatalf("hide should not run for a closed popup")
	}
}

func TestDragSnapsBackBelowThreshold(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[0], 0) })
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.DragStart(tx, 100) })
	h.ctrl.DragMove(140)
	h.ctrl.DragMove(180)
	var dismissed bool
	h.do(t, func(tx *viewstate.Txn) { dismissed = h.ctrl.DragEnd(tx) })
	if dismissed || !h.store.State().PopupOpen {
		t.Fatalf("80px drag should snap back")
	}
	if last := h.view.offsets[len(h.view.offsets)-1]; last != 0 {
		t.Fatalf("expected offset reset to 0, got %v", last)
	}
	if h.ctrl.Dragging() || h.ctrl.DragOffset() != 0 {
		t.Fatalf("gesture state not reset")
	}
}

func TestDragPastThresholdCloses(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[0], 0) })
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.DragStart(tx, 100) })
	h.ctrl.DragMove(250)
	var dismissed bool
	h.do(t, func(tx *viewstate.Txn) { dismissed = h.ctrl.DragEnd(tx) })
	if !dismissed || h.store.State().PopupOpen {
		t.Fatalf("150px drag should close the popup")
	}
	if h.ctrl.Dragging() {
		t.Fatalf("gesture state not reset")
	}
}

func TestDragUpwardIsClamped(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.Show(tx, fixtures[0], 0) })
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.DragStart(tx, 200) })
	h.ctrl.DragMove(20)
	if h.ctrl.DragOffset() != 0 {
		t.Fatalf("upward drag must clamp to 0, got %v", h.ctrl.DragOffset())
	}
}

func TestDragIgnoredWhenClosed(t *testing.T) {
	h := newHarness()
	h.do(t, func(tx *viewstate.Txn) { h.ctrl.DragStart(tx, 0) })
	h.ctrl.DragMove(500)
	if h.ctrl.Dragging() || h.ctrl.DragOffset() != 0 {
		t.Fatalf("gesture should not start without a popup")
	}
}

func TestShowCloseRestoresPan(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := newHarness()
		cycles := rapid.IntRange(1, 5).Draw(t, "cycles")
		for c := 0; c < cycles; c++ {
			before := h.pan.dy
			beforeOffset := h.store.State().PanOffsetPx
			shows := rapid.IntRange(1, 4).Draw(t, "shows")
			for i := 0; i < shows; i++ {
				idx := rapid.IntRange(-1, len(fixtures)-1).Draw(t, "idx")
				e := fixtures[rapid.IntRange(0, len(fixtures)-1).Draw(t, "entity")]
				if idx >= 0 {
					e = fixtures[idx]
				}
				if err := h.store.Update(func(tx *viewstate.Txn) { h.ctrl.Show(tx, e, idx) }); err != nil {
					t.Fatalf("show: %v", err)
				}
			}
			if err := h.store.Update(func(tx *viewstate.Txn) { h.ctrl.Close(tx) }); err != nil {
				t.Fatalf("close: %v", err)
			}
			if h.pan.dy != before || h.store.State().PanOffsetPx != beforeOffset {
				t.Fatalf("pan drift: dy %v -> %v, offset %v -> %v", before, h.pan.dy, beforeOffset, h.store.State().PanOffsetPx)
			}
		}
	})
}
