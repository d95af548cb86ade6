package markers

import (
	"testing"

	"pgregory.net/rapid"

	"pharmamap/internal/pharmacy"
)

type recordCanvas struct {
	next        int
	live        map[int]bool
	highlighted map[int]bool
}

func newRecordCanvas() *recordCanvas {
	return &recordCanvas{live: map[int]bool{}, highlighted: map[int]bool{}}
}

func (c *recordCanvas) AddMarker(lat, lng float64, label string) int {
	c.next++
	c.live[c.next] = true
	return c.next
}

func (c *recordCanvas) RemoveMarker(handle int) {
	delete(c.live, handle)
	delete(c.highlighted, handle)
}

func (c *recordCanvas) SetMarkerHighlighted(handle int, on bool) {
	if on {
		c.highlighted[handle] = true
	} else {
		delete(c.highlighted, handle)
	}
}

func entities(n int) []pharmacy.Entity {
	out := make([]pharmacy.Entity, n)
	for i := range out {
		out[i] = pharmacy.Entity{ID: string(rune('a' + i)), Name: "p", Lat: 37.5 + float64(i)*0.01, Lng: 127}
	}
	return out
}

func countHighlighted(r *Registry) int {
	n := 0
	for _, m := range r.Markers() {
		if m.State == Highlighted {
			n++
		}
	}
	return n
}

func TestLoadMarkersIndexesInOrderAndReplaces(t *testing.T) {
	c := newRecordCanvas()
	r := NewRegistry(c)
	r.LoadMarkers(entities(3))
	r.Highlight(2)
	r.LoadMarkers(entities(2))
	if r.Len() != 2 || len(c.live) != 2 {
		t.Fatalf("expected 2 markers, registry=%d canvas=%d", r.Len(), len(c.live))
	}
	if r.Highlighted() != -1 || len(c.highlighted) != 0 {
		t.Fatalf("reload must clear highlight")
	}
	for i, m := range r.Markers() {
		if m.Index != i {
			t.Fatalf("marker %d has index %d", i, m.Index)
		}
	}
	if id, _ := r.EntityAt(1); id != "b" {
		t.Fatalf("unexpected entity at 1: %q", id)
	}
}

func TestHighlightOutOfRangeIsIgnored(t *testing.T) {
	r := NewRegistry(nil)
	r.LoadMarkers(entities(2))
	r.Highlight(1)
	r.Highlight(7)
	r.Highlight(-3)
	if r.Highlighted() != 1 {
		t.Fatalf("out of range calls must not change highlight, got %d", r.Highlighted())
	}
}

func TestResetHighlightIdempotent(t *testing.T) {
	c := newRecordCanvas()
	r := NewRegistry(c)
	r.LoadMarkers(entities(2))
	r.Highlight(0)
	r.ResetHighlight()
	r.ResetHighlight()
	if r.Highlighted() != -1 || countHighlighted(r) != 0 || len(c.highlighted) != 0 {
		t.Fatalf("expected no highlight")
	}
}

func TestClearRemovesEverything(t *testing.T) {
	c := newRecordCanvas()
	r := NewRegistry(c)
	r.LoadMarkers(entities(4))
	r.Highlight(3)
	r.Clear()
	if r.Len() != 0 || len(c.live) != 0 || r.Highlighted() != -1 {
		t.Fatalf("clear left state behind")
	}
}

func TestIndexLookups(t *testing.T) {
	c := newRecordCanvas()
	r := NewRegistry(c)
	r.LoadMarkers(entities(3))
	if r.IndexOf("c") != 2 || r.IndexOf("zz") != -1 {
		t.Fatalf("IndexOf mismatch")
	}
	m := r.Markers()[1]
	if r.IndexForHandle(m.handle) != 1 {
		t.Fatalf("IndexForHandle mismatch")
	}
	if _, ok := r.Entity(9); ok {
		t.Fatalf("expected missing entity")
	}
}

func TestAtMostOneHighlighted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		c := newRecordCanvas()
		r := NewRegistry(c)
		r.LoadMarkers(entities(n))
		ops := rapid.SliceOf(rapid.IntRange(-3, 15)).Draw(t, "ops")
		for _, i := range ops {
			if i == -3 {
				r.ResetHighlight()
			} else {
				r.Highlight(i)
			}
			if got := countHighlighted(r); got > 1 {
				t.Fatalf("%d markers highlighted", got)
			}
			if len(c.highlighted) > 1 {
				t.Fatalf("canvas shows %d highlights", len(c.highlighted))
			}
			if h := r.Highlighted(); h >= 0 && r.Markers()[h].State != Highlighted {
				t.Fatalf("highlight index %d not reflected on marker", h)
			}
		}
	})
}
