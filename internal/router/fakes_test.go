package router

import (
	"context"
	"errors"
	"strings"

	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
)

type fakeMap struct {
	lat, lng   float64
	zoom       int
	dy         float64
	self       bool
	selfLat    float64
	selfLng    float64
	centerSets int
}

func (m *fakeMap) SetCenter(lat, lng float64) { m.lat, m.lng = lat, lng; m.centerSets++ }
func (m *fakeMap) SetZoom(level int)          { m.zoom = level }
func (m *fakeMap) PanBy(dx, dy float64)       { m.dy += dy }
func (m *fakeMap) Center() (float64, float64) { return m.lat, m.lng }
func (m *fakeMap) SetSelfMarker(lat, lng float64) {
	m.self, m.selfLat, m.selfLng = true, lat, lng
}

type fakeSearcher struct {
	results []pharmacy.Entity
	err     error
	calls   int
}

func (s *fakeSearcher) SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]pharmacy.Entity, error) {
	s.calls++
	return s.results, s.err
}

type memPersistence struct {
	activities []storage.Activity
	subscribed bool
	comments   map[string][]storage.Comment
}

func newMemPersistence() *memPersistence {
	return &memPersistence{comments: map[string][]storage.Comment{}}
}

func (p *memPersistence) GetActivities() []storage.Activity { return p.activities }
func (p *memPersistence) AddActivity(a storage.Activity) {
	p.activities = append([]storage.Activity{a}, p.activities...)
}
func (p *memPersistence) ClearActivities()      { p.activities = nil }
func (p *memPersistence) IsSubscribed() bool    { return p.subscribed }
func (p *memPersistence) SetSubscribed(on bool) { p.subscribed = on }
func (p *memPersistence) GetComments(id string) []storage.Comment {
	return p.comments[id]
}
func (p *memPersistence) AddComment(id, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	p.comments[id] = append(p.comments[id], storage.Comment{PharmacyID: id, Text: text})
	return true
}

type fakeConsent struct {
	granted bool
	pending func()
	asked   int
}

func (c *fakeConsent) HasConsent() bool { return c.granted }
func (c *fakeConsent) RequestConsent(fn func()) {
	c.asked++
	c.pending = fn
}
func (c *fakeConsent) grant() {
	c.granted = true
	if c.pending != nil {
		fn := c.pending
		c.pending = nil
		fn()
	}
}

type fakeLocator struct {
	lat, lng float64
	err      error
}

func (l *fakeLocator) Locate(ctx context.Context) (float64, float64, error) {
	return l.lat, l.lng, l.err
}

type countLayout struct{ n int }

func (c *countLayout) RefreshLayout() { c.n++ }

type recordSurface struct{ calls []string }

func (s *recordSurface) SetVisible(on bool) { s.add("visible", on) }
func (s *recordSurface) LockScroll(on bool) { s.add("lock", on) }
func (s *recordSurface) SetInert(on bool)   { s.add("inert", on) }
func (s *recordSurface) add(name string, on bool) {
	if on {
		s.calls = append(s.calls, name+"+")
	} else {
		s.calls = append(s.calls, name+"-")
	}
}

type recordContent struct{ loading, activity, subscription int }

func (c *recordContent) ShowLoading()        { c.loading++ }
func (c *recordContent) RenderActivity()     { c.activity++ }
func (c *recordContent) RenderSubscription() { c.subscription++ }

type recordView struct {
	shown  []pharmacy.Entity
	hidden int
}

func (v *recordView) Show(e pharmacy.Entity)   { v.shown = append(v.shown, e) }
func (v *recordView) Hide()                    { v.hidden++ }
func (v *recordView) SetDragOffset(px float64) {}

var errOffline = errors.New("offline")
