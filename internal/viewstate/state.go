// Package viewstate holds the one authoritative view state of the map
// screen: which panel section is showing, whether the detail popup is
// open, which marker is highlighted and how far the map is panned.
package viewstate

import "fmt"

type Section int

const (
	SectionNone Section = iota
	SectionList
	SectionDetail
	SectionDrugs
	SectionActivity
	SectionSubscribe
)

var sectionNames = map[Section]string{
	SectionNone:      "none",
	SectionList:      "list",
	SectionDetail:    "detail",
	SectionDrugs:     "drugs",
	SectionActivity:  "activity",
	SectionSubscribe: "subscribe",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

type State struct {
	Panel         Section
	PopupOpen     bool
	PopupEntityID string
	Highlighted   int
	PanOffsetPx   float64
}

// Initial is the state of a fresh screen: nothing open, nothing highlighted.
func Initial() State {
	return State{Panel: SectionNone, Highlighted: -1}
}

// Patch lists the fields a commit changes. Nil fields are left alone.
type Patch struct {
	Panel         *Section
	PopupOpen     *bool
	PopupEntityID *string
	Highlighted   *int
	PanOffsetPx   *float64
}

func (p Patch) Empty() bool {
	return p.Panel == nil && p.PopupOpen == nil && p.PopupEntityID == nil &&
		p.Highlighted == nil && p.PanOffsetPx == nil
}

func (p Patch) Apply(s State) State {
	if p.Panel != nil {
		s.Panel = *p.Panel
	}
	if p.PopupOpen != nil {
		s.PopupOpen = *p.PopupOpen
	}
	if p.PopupEntityID != nil {
		s.PopupEntityID = *p.PopupEntityID
	}
	if p.Highlighted != nil {
		s.Highlighted = *p.Highlighted
	}
	if p.PanOffsetPx != nil {
		s.PanOffsetPx = *p.PanOffsetPx
	}
	return s
}

// ConflictError reports a rejected commit. The store keeps its previous
// state when one is returned.
type ConflictError struct {
	Reason string
	Next   State
}

func (e *ConflictError) Error() string {
	return "view state conflict: " + e.Reason
}
