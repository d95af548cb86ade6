// Package mapview is the terminal map: a braille canvas with pharmacy
// markers, a self marker and pixel panning, plus SVG/PNG snapshots of the
// same scene.
package mapview

import (
	"math"

	"pharmamap/internal/pharmacy"
)

const (
	MinLevel = 1
	MaxLevel = 14
)

const (
	metersPerDegLng = pharmacy.KmPerDegLng * 1000
	metersPerDegLat = pharmacy.KmPerDegLat * 1000
)

// MetersPerPixel approximates Kakao map levels: level 3 is about one
// meter per pixel and each level doubles the scale.
func MetersPerPixel(level int) float64 {
	return 0.25 * math.Pow(2, float64(level-1))
}

type marker struct {
	lat, lng    float64
	label       string
	highlighted bool
}

// View holds the camera and the drawn markers. Sizes are in terminal
// cells; pixel math uses the configured cell size.
type View struct {
	centerLat, centerLng float64
	level                int
	panX, panY           float64

	cols, rows   int
	cellW, cellH int

	markers    map[int]*marker
	order      []int
	nextHandle int

	hasSelf          bool
	selfLat, selfLng float64
}

func New(lat, lng float64, level, cellW, cellH int) *View {
	if cellW <= 0 {
		cellW = 8
	}
	if cellH <= 0 {
		cellH = 16
	}
	v := &View{
		centerLat: lat,
		centerLng: lng,
		cellW:     cellW,
		cellH:     cellH,
		cols:      80,
		rows:      24,
		markers:   map[int]*marker{},
	}
	v.SetZoom(level)
	return v
}

func (v *View) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	v.cols, v.rows = cols, rows
}

func (v *View) Size() (cols, rows int) {
	return v.cols, v.rows
}

func (v *View) CellSize() (w, h int) {
	return v.cellW, v.cellH
}

func (v *View) SetCenter(lat, lng float64) {
	v.centerLat, v.centerLng = lat, lng
}

func (v *View) Center() (float64, float64) {
	return v.centerLat, v.centerLng
}

func (v *View) SetZoom(level int) {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	v.level = level
}

func (v *View) Zoom() int {
	return v.level
}

// PanBy shifts the viewport by pixels without moving the center. A
// positive dy moves the content up.
func (v *View) PanBy(dxPx, dyPx float64) {
	v.panX += dxPx
	v.panY += dyPx
}

func (v *View) Pan() (dxPx, dyPx float64) {
	return v.panX, v.panY
}

// Move shifts the center by whole cells, for keyboard navigation.
func (v *View) Move(dCols, dRows int) {
	mpp := MetersPerPixel(v.level)
	v.centerLng += float64(dCols*v.cellW) * mpp / metersPerDegLng
	v.centerLat -= float64(dRows*v.cellH) * mpp / metersPerDegLat
}

func (v *View) SetSelfMarker(lat, lng float64) {
	v.hasSelf = true
	v.selfLat, v.selfLng = lat, lng
}

func (v *View) SelfMarker() (lat, lng float64, ok bool) {
	return v.selfLat, v.selfLng, v.hasSelf
}

func (v *View) AddMarker(lat, lng float64, label string) int {
	v.nextHandle++
	v.markers[v.nextHandle] = &marker{lat: lat, lng: lng, label: label}
	v.order = append(v.order, v.nextHandle)
	return v.nextHandle
}

func (v *View) RemoveMarker(handle int) {
	if _, ok := v.markers[handle]; !ok {
		return
	}
	delete(v.markers, handle)
	for i, h := range v.order {
		if h == handle {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

func (v *View) SetMarkerHighlighted(handle int, on bool) {
	if m, ok := v.markers[handle]; ok {
		m.highlighted = on
	}
}

func (v *View) MarkerCount() int {
	return len(v.markers)
}

func (v *View) widthPx() float64  { return float64(v.cols * v.cellW) }
func (v *View) heightPx() float64 { return float64(v.rows * v.cellH) }

// ToPixel projects a coordinate into viewport pixels.
func (v *View) ToPixel(lat, lng float64) (x, y float64) {
	mpp := MetersPerPixel(v.level)
	x = v.widthPx()/2 + (lng-v.centerLng)*metersPerDegLng/mpp - v.panX
	y = v.heightPx()/2 - (lat-v.centerLat)*metersPerDegLat/mpp - v.panY
	return x, y
}

// FromPixel is the inverse of ToPixel.
func (v *View) FromPixel(x, y float64) (lat, lng float64) {
	mpp := MetersPerPixel(v.level)
	lng = v.centerLng + (x-v.widthPx()/2+v.panX)*mpp/metersPerDegLng
	lat = v.centerLat - (y-v.heightPx()/2+v.panY)*mpp/metersPerDegLat
	return lat, lng
}

// ToCell maps a coordinate to the terminal cell it falls in.
func (v *View) ToCell(lat, lng float64) (col, row int, ok bool) {
	x, y := v.ToPixel(lat, lng)
	col = int(math.Floor(x / float64(v.cellW)))
	row = int(math.Floor(y / float64(v.cellH)))
	return col, row, col >= 0 && col < v.cols && row >= 0 && row < v.rows
}

// CellCenter returns the coordinate under the middle of a cell.
func (v *View) CellCenter(col, row int) (lat, lng float64) {
	return v.FromPixel((float64(col)+0.5)*float64(v.cellW), (float64(row)+0.5)*float64(v.cellH))
}

// HitTest finds the marker drawn nearest to a cell, within one cell.
// Highlighted markers win ties.
func (v *View) HitTest(col, row int) (handle int, ok bool) {
	best := -1
	bestD := math.MaxInt
	for _, h := range v.order {
		m := v.markers[h]
		c, r, visible := v.ToCell(m.lat, m.lng)
		if !visible {
			continue
		}
		dc, dr := c-col, r-row
		if dc < -1 || dc > 1 || dr < -1 || dr > 1 {
			continue
		}
		d := dc*dc + dr*dr
		if d < bestD || (d == bestD && m.highlighted) {
			best, bestD = h, d
		}
	}
	return best, best >= 0
}
