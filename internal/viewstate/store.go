package viewstate

import (
	"fmt"

	"pharmamap/internal/debug"
)

// MarkerIndex is the view of the marker set needed to validate a
// highlight.
type MarkerIndex interface {
	Len() int
	EntityAt(i int) (string, bool)
}

// Listener runs after every commit that changed the state.
type Listener func(prev, next State)

type Store struct {
	state     State
	markers   MarkerIndex
	listeners []Listener
}

func NewStore(markers MarkerIndex) *Store {
	return &Store{state: Initial(), markers: markers}
}

// State returns the last committed state.
func (s *Store) State() State {
	return s.state
}

func (s *Store) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	s.listeners = append(s.listeners, fn)
}

// Validate checks next against the state rules and the live marker set.
func (s *Store) Validate(next State) error {
	switch {
	case next.Highlighted < -1:
		return &ConflictError{Reason: fmt.Sprintf("highlight index %d below -1", next.Highlighted), Next: next}
	case next.Panel < SectionNone || next.Panel > SectionSubscribe:
		return &ConflictError{Reason: "unknown panel " + next.Panel.String(), Next: next}
	case !next.PopupOpen && next.PopupEntityID != "":
		return &ConflictError{Reason: "entity bound to a closed popup", Next: next}
	}
	if next.Highlighted < 0 {
		return nil
	}
	if s.markers == nil || next.Highlighted >= s.markers.Len() {
		return &ConflictError{Reason: fmt.Sprintf("highlight index %d has no marker", next.Highlighted), Next: next}
	}
	if next.PopupOpen {
		entity, _ := s.markers.EntityAt(next.Highlighted)
		if entity != next.PopupEntityID {
			return &ConflictError{
				Reason: fmt.Sprintf("marker %d is bound to %q, popup shows %q", next.Highlighted, entity, next.PopupEntityID),
				Next:   next,
			}
		}
	}
	return nil
}

// Commit is the single mutation entry point. The whole next state is
// validated before anything is applied.
func (s *Store) Commit(p Patch) error {
	if p.Empty() {
		return nil
	}
	prev := s.state
	next := p.Apply(prev)
	if err := s.Validate(next); err != nil {
		debug.Log("viewstate: rejected commit: %v", err)
		return err
	}
	if next == prev {
		return nil
	}
	s.state = next
	debug.Log("viewstate: %s", describe(prev, next))
	for _, fn := range s.listeners {
		fn(prev, next)
	}
	return nil
}

// Begin opens a transaction over the current state.
func (s *Store) Begin() *Txn {
	return &Txn{store: s}
}

// Update runs fn inside one transaction and commits once at the end.
func (s *Store) Update(fn func(tx *Txn)) error {
	tx := s.Begin()
	fn(tx)
	return tx.Commit()
}

func describe(prev, next State) string {
	return fmt.Sprintf("panel %s->%s popup %t->%t entity %q->%q highlight %d->%d pan %.0f->%.0f",
		prev.Panel, next.Panel, prev.PopupOpen, next.PopupOpen, prev.PopupEntityID, next.PopupEntityID,
		prev.Highlighted, next.Highlighted, prev.PanOffsetPx, next.PanOffsetPx)
}
