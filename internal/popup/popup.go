// Package popup shows the single-pharmacy detail popup over the map and
// handles its drag-to-dismiss gesture.
package popup

import (
	"pharmamap/internal/debug"
	"pharmamap/internal/markers"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/viewstate"
)

const (
	// DismissThresholdPx is the downward drag that closes the popup.
	DismissThresholdPx = 120
	DefaultShiftPx     = 96
)

// View is the popup surface.
type View interface {
	Show(e pharmacy.Entity)
	Hide()
	SetDragOffset(px float64)
}

type Panner interface {
	PanBy(dxPx, dyPx float64)
}

// Recorder receives visit activities.
type Recorder interface {
	AddActivity(a storage.Activity)
}

type Options struct {
	Markers    *markers.Registry
	View       View
	Map        Panner
	Activities Recorder
	// ShiftPx is how far the map pans up when the popup opens so the
	// marker stays visible above it.
	ShiftPx float64
}

type Controller struct {
	markers  *markers.Registry
	view     View
	pan      Panner
	recorder Recorder
	shift    float64

	entity pharmacy.Entity

	dragging bool
	startY   float64
	delta    float64
}

func New(opts Options) *Controller {
	return &Controller{
		markers:  opts.Markers,
		view:     opts.View,
		pan:      opts.Map,
		recorder: opts.Activities,
		shift:    opts.ShiftPx,
	}
}

// Show binds e to the popup. markerIndex < 0 means the entity has no
// marker in the current set; an index bound to another entity is treated
// the same way. Surface effects run only once the commit is accepted.
func (c *Controller) Show(tx *viewstate.Txn, e pharmacy.Entity, markerIndex int) {
	if c.view == nil {
		debug.Log("popup: no view, show %s ignored", e.ID)
		return
	}
	prev := tx.View()
	highlighted := c.markerFor(e, markerIndex)
	tx.SetHighlighted(highlighted)
	pans := !prev.PopupOpen && c.shift != 0 && c.pan != nil
	if pans {
		tx.SetPanOffset(prev.PanOffsetPx + c.shift)
	}
	tx.SetPopup(true, e.ID)

	tx.AfterCommit(func() {
		c.view.Show(e)
		c.view.SetDragOffset(0)
		if c.markers != nil {
			if highlighted >= 0 {
				c.markers.Highlight(highlighted)
			} else {
				c.markers.ResetHighlight()
			}
		}
		if pans {
			c.pan.PanBy(0, c.shift)
		}
		c.entity = e
		c.resetDrag()
		c.record(e, markerIndex >= 0)
	})
}

// markerFor returns i when it is a live marker bound to e, otherwise -1.
func (c *Controller) markerFor(e pharmacy.Entity, i int) int {
	if c.markers == nil || i < 0 {
		return -1
	}
	if id, ok := c.markers.EntityAt(i); !ok || id != e.ID {
		debug.Log("popup: marker %d is not bound to %s, showing without highlight", i, e.ID)
		return -1
	}
	return i
}

func (c *Controller) record(e pharmacy.Entity, fromMarker bool) {
	if c.recorder == nil {
		return
	}
	text := "방문: " + e.Name
	if fromMarker {
		text = "약국 검색: " + e.Name
	}
	c.recorder.AddActivity(storage.Activity{
		Type:        storage.ActivityVisit,
		Text:        text,
		HasPosition: e.HasPosition(),
		Lat:         e.Lat,
		Lng:         e.Lng,
		EntityID:    e.ID,
	})
}

// Close hides the popup and undoes the pan applied while it was open.
func (c *Controller) Close(tx *viewstate.Txn) {
	c.resetDrag()
	prev := tx.View()
	if !prev.PopupOpen {
		return
	}
	off := prev.PanOffsetPx
	if off != 0 {
		tx.SetPanOffset(0)
	}
	tx.SetHighlighted(-1)
	tx.SetPopup(false, "")

	tx.AfterCommit(func() {
		if c.view != nil {
			c.view.Hide()
		}
		if off != 0 && c.pan != nil {
			c.pan.PanBy(0, -off)
		}
		if c.markers != nil {
			c.markers.ResetHighlight()
		}
		c.entity = pharmacy.Entity{}
	})
}

// Entity returns the bound entity. It is only meaningful while the
// committed state has the popup open.
func (c *Controller) Entity() pharmacy.Entity {
	return c.entity
}

func (c *Controller) DragStart(tx *viewstate.Txn, y float64) {
	if !tx.View().PopupOpen {
		return
	}
	c.dragging = true
	c.startY = y
	c.delta = 0
}

// DragMove follows the pointer downward only.
func (c *Controller) DragMove(y float64) {
	if !c.dragging {
		return
	}
	d := y - c.startY
	if d < 0 {
		d = 0
	}
	c.delta = d
	if c.view != nil {
		c.view.SetDragOffset(d)
	}
}

// DragEnd closes the popup past the threshold and otherwise snaps it
// back. It reports whether the popup was dismissed.
func (c *Controller) DragEnd(tx *viewstate.Txn) bool {
	if !c.dragging {
		c.resetDrag()
		return false
	}
	d := c.delta
	c.resetDrag()
	if d > DismissThresholdPx {
		c.Close(tx)
		return true
	}
	if c.view != nil {
		c.view.SetDragOffset(0)
	}
	return false
}

func (c *Controller) Dragging() bool {
	return c.dragging
}

func (c *Controller) DragOffset() float64 {
	return c.delta
}

func (c *Controller) resetDrag() {
	c.dragging = false
	c.startY = 0
	c.delta = 0
}
