// Package panel drives the side panel: which section is showing and the
// surface effects of opening and closing it.
package panel

import (
	"time"

	"pharmamap/internal/debug"
	"pharmamap/internal/loop"
	"pharmamap/internal/viewstate"
)

// ActivityRenderDelay is how long the activity loader shows before the
// list is rendered.
const ActivityRenderDelay = 250 * time.Millisecond

// Surface is the panel container.
type Surface interface {
	SetVisible(on bool)
	LockScroll(on bool)
	SetInert(on bool)
}

// Content renders section bodies that depend on stored data.
type Content interface {
	ShowLoading()
	RenderActivity()
	RenderSubscription()
}

// Panner reverts map pans made by the popup.
type Panner interface {
	PanBy(dxPx, dyPx float64)
}

type Options struct {
	Store     *viewstate.Store
	Surface   Surface
	Content   Content
	Map       Panner
	Scheduler loop.Scheduler
}

type Controller struct {
	store   *viewstate.Store
	surface Surface
	content Content
	pan     Panner
	sched   loop.Scheduler
	gen     int
}

func New(opts Options) *Controller {
	return &Controller{
		store:   opts.Store,
		surface: opts.Surface,
		content: opts.Content,
		pan:     opts.Map,
		sched:   opts.Scheduler,
	}
}

// Open shows sec. It is allowed from any state. Surface effects run only
// once the commit is accepted.
func (c *Controller) Open(tx *viewstate.Txn, sec viewstate.Section) {
	if c.surface == nil {
		debug.Log("panel: no surface, open %s ignored", sec)
		return
	}
	if sec == viewstate.SectionNone {
		c.Close(tx)
		return
	}
	tx.AfterCommit(func() {
		c.surface.SetVisible(true)
		c.surface.LockScroll(true)
		c.surface.SetInert(false)
	})
	c.enter(tx, sec)
}

// SwitchSection changes the section of an already visible panel without
// repeating the surface effects.
func (c *Controller) SwitchSection(tx *viewstate.Txn, sec viewstate.Section) {
	if c.surface == nil {
		debug.Log("panel: no surface, switch to %s ignored", sec)
		return
	}
	if tx.View().Panel == viewstate.SectionNone || sec == viewstate.SectionNone {
		c.Open(tx, sec)
		return
	}
	c.enter(tx, sec)
}

// Close hides the panel. Closing a closed panel does nothing.
func (c *Controller) Close(tx *viewstate.Txn) {
	if c.surface == nil {
		debug.Log("panel: no surface, close ignored")
		return
	}
	if tx.View().Panel == viewstate.SectionNone {
		return
	}
	tx.SetPanel(viewstate.SectionNone)
	tx.AfterCommit(func() {
		c.surface.SetVisible(false)
		c.surface.LockScroll(false)
		c.surface.SetInert(true)
		c.gen++
	})
}

func (c *Controller) enter(tx *viewstate.Txn, sec viewstate.Section) {
	off := tx.View().PanOffsetPx
	if off != 0 {
		tx.SetPanOffset(0)
	}
	tx.SetPanel(sec)
	tx.AfterCommit(func() {
		if off != 0 && c.pan != nil {
			c.pan.PanBy(0, -off)
		}
		c.gen++
		c.renderContent(sec)
	})
}

// renderContent runs after the section is committed, so the deferred
// activity render can compare against the live state.
func (c *Controller) renderContent(sec viewstate.Section) {
	if c.content == nil {
		return
	}
	switch sec {
	case viewstate.SectionActivity:
		c.content.ShowLoading()
		gen := c.gen
		render := func() {
			if gen != c.gen {
				return
			}
			if c.store != nil && c.store.State().Panel != viewstate.SectionActivity {
				return
			}
			c.content.RenderActivity()
		}
		if c.sched == nil {
			render()
			return
		}
		c.sched.Defer(ActivityRenderDelay, render)
	case viewstate.SectionSubscribe:
		c.content.RenderSubscription()
	}
}
