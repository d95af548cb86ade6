package pharmacy

import (
	"net/url"
	"strings"
)

type Entity struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Hours     string  `json:"hours,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	DistanceM float64 `json:"distance_m,omitempty"`
	Refs      Refs    `json:"refs"`
}

type Refs struct {
	KakaoURL string `json:"kakao_url,omitempty"`
	NaverURL string `json:"naver_url,omitempty"`
}

func (e Entity) HasPosition() bool {
	return e.Lat != 0 || e.Lng != 0
}

// KakaoLink falls back to a name search when the place URL is unknown.
func (e Entity) KakaoLink() string {
	if strings.TrimSpace(e.Refs.KakaoURL) != "" {
		return e.Refs.KakaoURL
	}
	return "https://map.kakao.com/search?q=" + url.QueryEscape(e.Name)
}

func (e Entity) NaverLink() string {
	if strings.TrimSpace(e.Refs.NaverURL) != "" {
		return e.Refs.NaverURL
	}
	return "https://search.naver.com/search.naver?query=" + url.QueryEscape(e.Name)
}

// FlatDistanceKm is the small-area approximation used for nearby filtering.
func FlatDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dx := (lng2 - lng1) * KmPerDegLng
	dy := (lat2 - lat1) * KmPerDegLat
	return sqrt(dx*dx + dy*dy)
}
