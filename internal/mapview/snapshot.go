package mapview

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

const snapshotHeader = 40

var (
	colorBackdrop  = color.RGBA{0xf4, 0xf1, 0xea, 0xff}
	colorGrid      = color.RGBA{0xd6, 0xd0, 0xc4, 0xff}
	colorHeaderBG  = color.RGBA{0x2b, 0x2f, 0x3a, 0xff}
	colorHeaderTxt = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorMarker    = color.RGBA{0x4c, 0xaf, 0x50, 0xff}
	colorHighlight = color.RGBA{0xff, 0x52, 0x52, 0xff}
	colorSelf      = color.RGBA{0x21, 0x96, 0xf3, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
)

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SaveSnapshot writes the current scene to path. format is "svg" or "png";
// when empty it is taken from the extension.
func (v *View) SaveSnapshot(path, format, title string) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if format == "png" {
		err = v.WritePNG(f, title)
	} else {
		err = v.WriteSVG(f, title)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

type sceneMarker struct {
	x, y        float64
	label       string
	number      int
	highlighted bool
}

type scene struct {
	width, height int
	xs, ys        []float64
	markers       []sceneMarker
	self          *[2]float64
}

func (v *View) scene() scene {
	s := scene{width: v.cols * v.cellW, height: v.rows * v.cellH}
	mpp := MetersPerPixel(v.level)
	spacing := v.GridSpacing()
	halfW, halfH := v.widthPx()/2, v.heightPx()/2

	leftM := v.centerLng*metersPerDegLng + (0-halfW+v.panX)*mpp
	rightM := v.centerLng*metersPerDegLng + (v.widthPx()-halfW+v.panX)*mpp
	for k := math.Ceil(leftM / spacing); k*spacing <= rightM; k++ {
		s.xs = append(s.xs, (k*spacing-v.centerLng*metersPerDegLng)/mpp+halfW-v.panX)
	}
	topM := v.centerLat*metersPerDegLat - (0-halfH+v.panY)*mpp
	bottomM := v.centerLat*metersPerDegLat - (v.heightPx()-halfH+v.panY)*mpp
	for k := math.Ceil(bottomM / spacing); k*spacing <= topM; k++ {
		s.ys = append(s.ys, halfH-v.panY-(k*spacing-v.centerLat*metersPerDegLat)/mpp)
	}

	for i, h := range v.order {
		m := v.markers[h]
		x, y := v.ToPixel(m.lat, m.lng)
		s.markers = append(s.markers, sceneMarker{x: x, y: y, label: m.label, number: i + 1, highlighted: m.highlighted})
	}
	if v.hasSelf {
		x, y := v.ToPixel(v.selfLat, v.selfLng)
		s.self = &[2]float64{x, y}
	}
	return s
}

func (s scene) headerText(title string, v *View) string {
	if strings.TrimSpace(title) == "" {
		title = "pharmamap"
	}
	lat, lng := v.Center()
	return fmt.Sprintf("%s  (%.5f, %.5f)  level %d  markers %d", title, lat, lng, v.Zoom(), len(s.markers))
}

func (v *View) WriteSVG(w io.Writer, title string) error {
	s := v.scene()
	total := s.height + snapshotHeader
	canvas := svg.New(w)
	canvas.Start(s.width, total)
	canvas.Rect(0, 0, s.width, total, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Rect(0, 0, s.width, snapshotHeader, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(12, 26, s.headerText(title, v), fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace", css(colorHeaderTxt)))

	canvas.Gtransform(fmt.Sprintf("translate(0,%d)", snapshotHeader))
	gridStyle := fmt.Sprintf("stroke:%s;stroke-width:1;stroke-dasharray:4,4", css(colorGrid))
	for _, x := range s.xs {
		canvas.Line(int(x), 0, int(x), s.height, gridStyle)
	}
	for _, y := range s.ys {
		canvas.Line(0, int(y), s.width, int(y), gridStyle)
	}
	for _, m := range s.markers {
		if m.highlighted {
			continue
		}
		canvas.Circle(int(m.x), int(m.y), 6, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorMarker), css(colorStroke)))
	}
	if s.self != nil {
		canvas.Circle(int(s.self[0]), int(s.self[1]), 8, fmt.Sprintf("fill:none;stroke:%s;stroke-width:3", css(colorSelf)))
		canvas.Circle(int(s.self[0]), int(s.self[1]), 3, fmt.Sprintf("fill:%s", css(colorSelf)))
	}
	for _, m := range s.markers {
		if !m.highlighted {
			continue
		}
		canvas.Circle(int(m.x), int(m.y), 9, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5", css(colorHighlight), css(colorStroke)))
		canvas.Text(int(m.x)+14, int(m.y)+5, m.label, fmt.Sprintf("fill:%s;font-size:13px;font-weight:bold", css(colorText)))
	}
	canvas.Gend()
	canvas.End()
	return nil
}

func (v *View) WritePNG(w io.Writer, title string) error {
	s := v.scene()
	dc := gg.NewContext(s.width, s.height+snapshotHeader)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorHeaderBG)
	dc.DrawRectangle(0, 0, float64(s.width), snapshotHeader)
	dc.Fill()
	dc.SetColor(colorHeaderTxt)
	dc.DrawStringAnchored(asciiOnly(s.headerText(title, v)), 12, snapshotHeader/2, 0, 0.5)

	dc.Translate(0, snapshotHeader)
	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	for _, x := range s.xs {
		dc.DrawLine(x, 0, x, float64(s.height))
		dc.Stroke()
	}
	for _, y := range s.ys {
		dc.DrawLine(0, y, float64(s.width), y)
		dc.Stroke()
	}
	dc.SetDash()

	for _, m := range s.markers {
		if !m.highlighted {
			drawPin(dc, m, colorMarker, 6)
		}
	}
	if s.self != nil {
		dc.SetColor(colorSelf)
		dc.SetLineWidth(3)
		dc.DrawCircle(s.self[0], s.self[1], 8)
		dc.Stroke()
		dc.DrawCircle(s.self[0], s.self[1], 3)
		dc.Fill()
	}
	for _, m := range s.markers {
		if m.highlighted {
			drawPin(dc, m, colorHighlight, 9)
			label := asciiOnly(m.label)
			if strings.TrimSpace(label) == "" {
				label = "#" + strconv.Itoa(m.number)
			}
			dc.SetColor(colorText)
			dc.DrawStringAnchored(label, m.x+14, m.y, 0, 0.5)
		}
	}
	return dc.EncodePNG(w)
}

func drawPin(dc *gg.Context, m sceneMarker, c color.RGBA, r float64) {
	dc.SetColor(c)
	dc.DrawCircle(m.x, m.y, r)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawCircle(m.x, m.y, r)
	dc.Stroke()
}

// asciiOnly drops runes the bitmap font cannot draw.
func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}
