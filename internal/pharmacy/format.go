package pharmacy

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Flat-earth scale factors used for every distance on the map.
const (
	KmPerDegLng = 111.32
	KmPerDegLat = 110.57
)

func sqrt(v float64) float64 { return math.Sqrt(v) }

const (
	HoursUnknown = "정보 없음"
	BadgeOpen    = "영업중"
	BadgeClosed  = "영업종료"
)

var hoursRe = regexp.MustCompile(`(\d{1,2}:\d{2})\s*[-~–]\s*(\d{1,2}:\d{2})`)

type Hours struct {
	Raw   string
	Start string
	End   string
	// Parsed is false when Raw has no HH:MM range; Open is meaningless then.
	Parsed bool
	Open   bool
}

func ParseHours(raw string, now time.Time) Hours {
	h := Hours{Raw: strings.TrimSpace(raw)}
	m := hoursRe.FindStringSubmatch(h.Raw)
	if m == nil {
		return h
	}
	start, okStart := minutesOf(m[1])
	end, okEnd := minutesOf(m[2])
	if !okStart || !okEnd {
		return h
	}
	h.Start = m[1]
	h.End = m[2]
	h.Parsed = true
	cur := now.Hour()*60 + now.Minute()
	h.Open = start <= cur && cur <= end
	return h
}

func (h Hours) Badge() string {
	if !h.Parsed {
		return ""
	}
	if h.Open {
		return BadgeOpen
	}
	return BadgeClosed
}

func (h Hours) Label() string {
	switch {
	case h.Raw == "":
		return "영업시간: " + HoursUnknown
	case !h.Parsed:
		return "영업시간: " + h.Raw
	default:
		return fmt.Sprintf("영업시간: %s - %s", h.Start, h.End)
	}
}

func FormatHours(raw string, now time.Time) string {
	h := ParseHours(raw, now)
	if b := h.Badge(); b != "" {
		return h.Label() + " " + b
	}
	return h.Label()
}

func minutesOf(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hh*60 + mm, true
}

func FormatDistance(meters float64) string {
	if meters < 0 || math.IsNaN(meters) {
		return "거리 계산 불가"
	}
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

func TimeAgo(ts, now time.Time) string {
	secs := int(now.Sub(ts) / time.Second)
	if secs < 60 {
		return "방금 전"
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("%d분 전", mins)
	}
	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%d시간 전", hours)
	}
	return fmt.Sprintf("%d일 전", hours/24)
}
