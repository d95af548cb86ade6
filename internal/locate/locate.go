// Package locate answers "where am I" for the terminal: a pinned position
// from config, otherwise a best-effort IP geolocation lookup.
package locate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"pharmamap/internal/config"
	"pharmamap/internal/debug"
)

var ErrUnavailable = errors.New("location unavailable")

type Locator struct {
	fixed     bool
	lat, lng  float64
	lookupURL string
	client    *http.Client
}

func New(cfg config.LocateConfig) *Locator {
	return &Locator{
		fixed:     cfg.Lat != 0 || cfg.Lng != 0,
		lat:       cfg.Lat,
		lng:       cfg.Lng,
		lookupURL: cfg.IPLookupURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithClient swaps the HTTP client used for lookups.
func (l *Locator) WithClient(c *http.Client) *Locator {
	l.client = c
	return l
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

func (l *Locator) Locate(ctx context.Context) (float64, float64, error) {
	if l.fixed {
		return l.lat, l.lng, nil
	}
	if l.lookupURL == "" {
		return 0, 0, ErrUnavailable
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.lookupURL, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("ip lookup: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("ip lookup: status %d: %w", resp.StatusCode, ErrUnavailable)
	}
	var r ipResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return 0, 0, fmt.Errorf("ip lookup: %w", err)
	}
	if r.Status != "" && r.Status != "success" {
		return 0, 0, fmt.Errorf("ip lookup: %s: %w", r.Message, ErrUnavailable)
	}
	if r.Lat == 0 && r.Lon == 0 {
		return 0, 0, ErrUnavailable
	}
	debug.Log("locate: ip lookup placed us in %s (%.4f, %.4f)", r.City, r.Lat, r.Lon)
	return r.Lat, r.Lon, nil
}
