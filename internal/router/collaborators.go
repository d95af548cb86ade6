package router

import (
	"context"

	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
)

// Map is the map surface the router moves around.
type Map interface {
	SetCenter(lat, lng float64)
	SetZoom(level int)
	PanBy(dxPx, dyPx float64)
	Center() (lat, lng float64)
	SetSelfMarker(lat, lng float64)
}

type Searcher interface {
	SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]pharmacy.Entity, error)
}

// Persistence is the local user store. Calls never fail from the router's
// point of view.
type Persistence interface {
	GetActivities() []storage.Activity
	AddActivity(a storage.Activity)
	ClearActivities()
	IsSubscribed() bool
	SetSubscribed(on bool)
	GetComments(entityID string) []storage.Comment
	AddComment(entityID, text string) bool
}

type Consent interface {
	HasConsent() bool
	RequestConsent(onGranted func())
}

type LayoutRefresher interface {
	RefreshLayout()
}

type Locator interface {
	Locate(ctx context.Context) (lat, lng float64, err error)
}

// Resolver finds entities that are not part of the current results.
type Resolver interface {
	GetByID(id string) (pharmacy.Entity, bool)
}
