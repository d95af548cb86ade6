// Package places talks to the Kakao Local API: nearby pharmacy search and
// address geocoding.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"pharmamap/internal/debug"
	"pharmamap/internal/pharmacy"
)

const (
	DefaultBaseURL = "https://dapi.kakao.com"
	// CategoryPharmacy is Kakao's category group code for pharmacies.
	CategoryPharmacy = "PM9"
	PageSize         = 15
	// Kakao serves at most 45 results per query.
	maxKakaoPages = 3
)

var (
	ErrNoAPIKey = errors.New("kakao api key not configured")
	ErrNotFound = errors.New("address not found")
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kakao api error [%d]: %s", e.Code, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	maxPages   int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRetry sets the attempt count and the base delay. Attempt i waits
// delay*(i+1) before the next try.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = attempts
		c.retryDelay = delay
	}
}

func WithMaxPages(n int) Option {
	return func(c *Client) { c.maxPages = n }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retries:    3,
		retryDelay: time.Second,
		maxPages:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retries < 1 {
		c.retries = 1
	}
	if c.maxPages < 1 {
		c.maxPages = 1
	}
	if c.maxPages > maxKakaoPages {
		c.maxPages = maxKakaoPages
	}
	return c
}

type meta struct {
	TotalCount    int  `json:"total_count"`
	PageableCount int  `json:"pageable_count"`
	IsEnd         bool `json:"is_end"`
}

type placeDocument struct {
	ID                string `json:"id"`
	PlaceName         string `json:"place_name"`
	CategoryGroupCode string `json:"category_group_code"`
	Phone             string `json:"phone"`
	AddressName       string `json:"address_name"`
	RoadAddressName   string `json:"road_address_name"`
	X                 string `json:"x"`
	Y                 string `json:"y"`
	PlaceURL          string `json:"place_url"`
	Distance          string `json:"distance"`
}

type categoryResponse struct {
	Meta      meta            `json:"meta"`
	Documents []placeDocument `json:"documents"`
}

type addressDocument struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type addressResponse struct {
	Meta      meta              `json:"meta"`
	Documents []addressDocument `json:"documents"`
}

// SearchNearby returns pharmacies within radiusM of the point, nearest
// first. Extra pages are fetched concurrently up to the page limit.
func (c *Client) SearchNearby(ctx context.Context, lat, lng float64, radiusM int) ([]pharmacy.Entity, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if radiusM <= 0 {
		radiusM = 1000
	}
	if radiusM > 20000 {
		radiusM = 20000
	}

	first, err := c.categoryPage(ctx, lat, lng, radiusM, 1)
	if err != nil {
		return nil, err
	}
	pages := [][]placeDocument{first.Documents}
	if !first.Meta.IsEnd && c.maxPages > 1 {
		total := int(math.Ceil(float64(first.Meta.PageableCount) / PageSize))
		if total > c.maxPages {
			total = c.maxPages
		}
		if total > 1 {
			rest := make([][]placeDocument, total-1)
			g, gctx := errgroup.WithContext(ctx)
			for p := 2; p <= total; p++ {
				page := p
				g.Go(func() error {
					resp, err := c.categoryPage(gctx, lat, lng, radiusM, page)
					if err != nil {
						return err
					}
					rest[page-2] = resp.Documents
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			pages = append(pages, rest...)
		}
	}

	seen := map[string]bool{}
	out := make([]pharmacy.Entity, 0, len(first.Documents))
	for _, docs := range pages {
		for _, d := range docs {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, d.entity())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceM < out[j].DistanceM })
	debug.Log("places: %d pharmacies near (%.6f, %.6f) r=%dm", len(out), lat, lng, radiusM)
	return out, nil
}

func (c *Client) categoryPage(ctx context.Context, lat, lng float64, radiusM, page int) (categoryResponse, error) {
	q := url.Values{}
	q.Set("category_group_code", CategoryPharmacy)
	q.Set("x", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusM))
	q.Set("sort", "distance")
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(PageSize))
	var resp categoryResponse
	if err := c.getJSON(ctx, "/v2/local/search/category.json", q, &resp); err != nil {
		return categoryResponse{}, fmt.Errorf("search page %d: %w", page, err)
	}
	return resp, nil
}

// Location is a geocoded address.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

func (c *Client) Geocode(ctx context.Context, address string) (Location, error) {
	if c.apiKey == "" {
		return Location{}, ErrNoAPIKey
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, ErrNotFound
	}
	q := url.Values{}
	q.Set("query", address)
	var resp addressResponse
	if err := c.getJSON(ctx, "/v2/local/search/address.json", q, &resp); err != nil {
		return Location{}, fmt.Errorf("geocode: %w", err)
	}
	if len(resp.Documents) == 0 {
		return Location{}, ErrNotFound
	}
	d := resp.Documents[0]
	lat, lerr := strconv.ParseFloat(d.Y, 64)
	lng, gerr := strconv.ParseFloat(d.X, 64)
	if err := errors.Join(lerr, gerr); err != nil {
		return Location{}, fmt.Errorf("geocode coordinates: %w", err)
	}
	return Location{Lat: lat, Lng: lng, Address: d.AddressName}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + q.Encode()
	var lastErr error
	for i := 0; i < c.retries; i++ {
		body, err := c.get(ctx, endpoint)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
		lastErr = err
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		if i < c.retries-1 {
			debug.Log("places: attempt %d failed: %v", i+1, err)
			select {
			case <-ctx.Done():
				return err
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return lastErr
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func (d placeDocument) entity() pharmacy.Entity {
	lat, _ := strconv.ParseFloat(d.Y, 64)
	lng, _ := strconv.ParseFloat(d.X, 64)
	dist, _ := strconv.ParseFloat(d.Distance, 64)
	addr := d.RoadAddressName
	if addr == "" {
		addr = d.AddressName
	}
	return pharmacy.Entity{
		ID:        d.ID,
		Name:      d.PlaceName,
		Address:   addr,
		Phone:     d.Phone,
		Lat:       lat,
		Lng:       lng,
		DistanceM: dist,
		Refs:      pharmacy.Refs{KakaoURL: d.PlaceURL},
	}
}
