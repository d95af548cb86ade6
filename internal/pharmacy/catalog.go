package pharmacy

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/spatial/kdtree"
)

//go:embed catalog.json
var seedCatalog []byte

// Catalog is the offline pharmacy list. It backs search when no Kakao key is
// configured and resolves ids for activity replay.
type Catalog struct {
	entries []Entity
	byID    map[string]int
	tree    *kdtree.Tree
	byPoint map[[2]float64][]int
}

func NewCatalog(entries []Entity) *Catalog {
	c := &Catalog{
		entries: append([]Entity(nil), entries...),
		byID:    make(map[string]int, len(entries)),
		byPoint: make(map[[2]float64][]int, len(entries)),
	}
	pts := make(kdtree.Points, 0, len(c.entries))
	for i, e := range c.entries {
		c.byID[e.ID] = i
		key := project(e.Lat, e.Lng)
		if _, seen := c.byPoint[key]; !seen {
			pts = append(pts, kdtree.Point{key[0], key[1]})
		}
		c.byPoint[key] = append(c.byPoint[key], i)
	}
	if len(pts) > 0 {
		c.tree = kdtree.New(pts, false)
	}
	return c
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(seedCatalog)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var entries []Entity
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalog entry %d: id and name are required", i)
		}
	}
	return NewCatalog(entries), nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(b)
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

func (c *Catalog) All() []Entity {
	return append([]Entity(nil), c.entries...)
}

// Search matches name, address or phone case-insensitively. An empty query
// returns every entry.
func (c *Catalog) Search(query string) []Entity {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}
	out := make([]Entity, 0)
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Address), q) ||
			strings.Contains(e.Phone, q) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Catalog) GetByID(id string) (Entity, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entity{}, false
	}
	return c.entries[i], true
}

// FindNearby returns entries within radiusKm sorted by distance, with
// DistanceM filled in.
func (c *Catalog) FindNearby(lat, lng, radiusKm float64) []Entity {
	if c.tree == nil || radiusKm <= 0 {
		return []Entity{}
	}
	q := project(lat, lng)
	keeper := kdtree.NewDistKeeper(radiusKm * radiusKm)
	c.tree.NearestSet(keeper, kdtree.Point{q[0], q[1]})

	out := make([]Entity, 0, keeper.Len())
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		p := cd.Comparable.(kdtree.Point)
		for _, idx := range c.byPoint[[2]float64{p[0], p[1]}] {
			e := c.entries[idx]
			d := FlatDistanceKm(lat, lng, e.Lat, e.Lng)
			if d > radiusKm {
				continue
			}
			e.DistanceM = d * 1000
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceM == out[j].DistanceM {
			return out[i].ID < out[j].ID
		}
		return out[i].DistanceM < out[j].DistanceM
	})
	return out
}

func (c *Catalog) SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.FindNearby(lat, lng, float64(radiusM)/1000), nil
}

func project(lat, lng float64) [2]float64 {
	return [2]float64{lng * KmPerDegLng, lat * KmPerDegLat}
}
