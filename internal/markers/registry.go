// Package markers tracks the pharmacy markers placed by the last search
// and guarantees that at most one of them is highlighted.
package markers

import (
	"pharmamap/internal/debug"
	"pharmamap/internal/pharmacy"
)

// Canvas is the drawing surface that shows markers. Handles are owned by
// the canvas.
type Canvas interface {
	AddMarker(lat, lng float64, label string) int
	RemoveMarker(handle int)
	SetMarkerHighlighted(handle int, on bool)
}

type Visual int

const (
	Normal Visual = iota
	Highlighted
)

func (v Visual) String() string {
	if v == Highlighted {
		return "highlighted"
	}
	return "normal"
}

type Marker struct {
	Index  int
	Lat    float64
	Lng    float64
	Entity pharmacy.Entity
	State  Visual
	handle int
}

func (m Marker) EntityID() string {
	return m.Entity.ID
}

type Registry struct {
	canvas      Canvas
	markers     []Marker
	highlighted int
}

// NewRegistry returns an empty registry. canvas may be nil, in which case
// markers are tracked without being drawn.
func NewRegistry(canvas Canvas) *Registry {
	return &Registry{canvas: canvas, highlighted: -1}
}

// LoadMarkers replaces the marker set with one marker per entity, indexed
// in input order.
func (r *Registry) LoadMarkers(entities []pharmacy.Entity) {
	r.Clear()
	r.markers = make([]Marker, 0, len(entities))
	for i, e := range entities {
		m := Marker{Index: i, Lat: e.Lat, Lng: e.Lng, Entity: e, State: Normal, handle: -1}
		if r.canvas != nil {
			m.handle = r.canvas.AddMarker(e.Lat, e.Lng, e.Name)
		}
		r.markers = append(r.markers, m)
	}
	debug.Log("markers: loaded %d", len(r.markers))
}

// Highlight makes i the only highlighted marker. Out-of-range indexes are
// logged and ignored.
func (r *Registry) Highlight(i int) {
	if i < 0 || i >= len(r.markers) {
		debug.Log("markers: highlight index %d out of range (%d markers)", i, len(r.markers))
		return
	}
	if r.highlighted == i {
		return
	}
	r.ResetHighlight()
	r.markers[i].State = Highlighted
	r.highlighted = i
	if r.canvas != nil {
		r.canvas.SetMarkerHighlighted(r.markers[i].handle, true)
	}
}

func (r *Registry) ResetHighlight() {
	if r.highlighted < 0 {
		return
	}
	m := &r.markers[r.highlighted]
	m.State = Normal
	if r.canvas != nil {
		r.canvas.SetMarkerHighlighted(m.handle, false)
	}
	r.highlighted = -1
}

// Clear destroys every marker.
func (r *Registry) Clear() {
	r.ResetHighlight()
	if r.canvas != nil {
		for _, m := range r.markers {
			r.canvas.RemoveMarker(m.handle)
		}
	}
	r.markers = nil
}

func (r *Registry) Len() int {
	return len(r.markers)
}

func (r *Registry) EntityAt(i int) (string, bool) {
	if i < 0 || i >= len(r.markers) {
		return "", false
	}
	return r.markers[i].Entity.ID, true
}

// Entity returns the entity behind marker i.
func (r *Registry) Entity(i int) (pharmacy.Entity, bool) {
	if i < 0 || i >= len(r.markers) {
		return pharmacy.Entity{}, false
	}
	return r.markers[i].Entity, true
}

// IndexOf finds the marker bound to entityID, or -1.
func (r *Registry) IndexOf(entityID string) int {
	for i, m := range r.markers {
		if m.Entity.ID == entityID {
			return i
		}
	}
	return -1
}

// IndexForHandle maps a canvas handle back to a marker index, or -1.
func (r *Registry) IndexForHandle(handle int) int {
	for i, m := range r.markers {
		if m.handle == handle {
			return i
		}
	}
	return -1
}

func (r *Registry) Highlighted() int {
	return r.highlighted
}

// Markers returns a copy of the current set.
func (r *Registry) Markers() []Marker {
	out := make([]Marker, len(r.markers))
	copy(out, r.markers)
	return out
}
