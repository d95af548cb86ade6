package router

import (
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/viewstate"
)

// Intent is anything that can be dispatched through Navigate.
type Intent interface {
	intent()
}

type Page string

const (
	PageMap       Page = "map"
	PageList      Page = "list"
	PageDrugs     Page = "drugs"
	PageActivity  Page = "activity"
	PageSubscribe Page = "subscribe"
)

// Section maps a menu page onto its panel section. The map page has none.
func (p Page) Section() (viewstate.Section, bool) {
	switch p {
	case PageList:
		return viewstate.SectionList, true
	case PageDrugs:
		return viewstate.SectionDrugs, true
	case PageActivity:
		return viewstate.SectionActivity, true
	case PageSubscribe:
		return viewstate.SectionSubscribe, true
	}
	return viewstate.SectionNone, false
}

type (
	Escape struct{}
	Menu   struct{ Page Page }

	MarkerClick struct {
		Index  int
		Entity pharmacy.Entity
	}

	ListItemClick  struct{ Entity pharmacy.Entity }
	ActivityReplay struct{ Entry storage.Activity }
	Locate         struct{}

	// Search looks for pharmacies around a point.
	Search struct{ Lat, Lng float64 }

	// ShowDetail opens the detail section with comments for one entity.
	ShowDetail struct{ Entity pharmacy.Entity }

	AddComment struct {
		EntityID string
		Text     string
	}

	Subscribe       struct{ On bool }
	ClearActivities struct{}

	DragStart struct{ Y float64 }
	DragMove  struct{ Y float64 }
	DragEnd   struct{}
)

func (Escape) intent()          {}
func (Menu) intent()            {}
func (MarkerClick) intent()     {}
func (ListItemClick) intent()   {}
func (ActivityReplay) intent()  {}
func (Locate) intent()          {}
func (Search) intent()          {}
func (ShowDetail) intent()      {}
func (AddComment) intent()      {}
func (Subscribe) intent()       {}
func (ClearActivities) intent() {}
func (DragStart) intent()       {}
func (DragMove) intent()        {}
func (DragEnd) intent()         {}
