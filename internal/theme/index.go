package theme

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// FetchTimeout bounds a single index or theme download.
const FetchTimeout = 15 * time.Second

// location is where an index or theme file lives: an http(s) URL, a
// file:// URL or a plain path.
type location struct {
	raw    string
	remote bool
	path   string
}

func parseLocation(raw string) (location, error) {
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return location{raw: raw, remote: true}, nil
	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return location{}, fmt.Errorf("parse %s: %w", raw, err)
		}
		return location{raw: raw, path: u.Path}, nil
	default:
		return location{raw: raw, path: raw}, nil
	}
}

// resolve returns ref relative to l, unless ref is already absolute.
func (l location) resolve(ref string) string {
	if target, err := parseLocation(ref); err == nil && (target.remote || strings.HasPrefix(ref, "file://")) {
		return ref
	}
	if !l.remote {
		return filepath.Join(filepath.Dir(l.path), ref)
	}
	base, err := url.Parse(l.raw)
	if err != nil {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(rel).String()
}

func (l location) read(ctx context.Context) ([]byte, error) {
	if !l.remote {
		return os.ReadFile(l.path)
	}
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.raw, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s failed: %s", l.raw, res.Status)
	}
	return io.ReadAll(res.Body)
}

func FetchIndex(ctx context.Context, indexURL string) (ThemeIndex, error) {
	loc, err := parseLocation(indexURL)
	if err != nil {
		return ThemeIndex{}, err
	}
	b, err := loc.read(ctx)
	if err != nil {
		return ThemeIndex{}, err
	}
	var idx ThemeIndex
	if err := json.Unmarshal(b, &idx); err != nil {
		return ThemeIndex{}, fmt.Errorf("parse theme index: %w", err)
	}
	if idx.Version == 0 {
		idx.Version = 1
	}
	return idx, nil
}

// FetchThemeByID looks id up in the index and downloads the theme file it
// points at. Relative entry URLs resolve against the index location.
func FetchThemeByID(ctx context.Context, indexURL, id string) (ThemeFile, error) {
	idx, err := FetchIndex(ctx, indexURL)
	if err != nil {
		return ThemeFile{}, err
	}
	base, err := parseLocation(indexURL)
	if err != nil {
		return ThemeFile{}, err
	}
	var entryURL string
	for _, entry := range idx.Themes {
		if entry.ID == id {
			entryURL = entry.URL
			break
		}
	}
	if entryURL == "" {
		return ThemeFile{}, fmt.Errorf("theme not found in index: %s", id)
	}
	loc, err := parseLocation(base.resolve(entryURL))
	if err != nil {
		return ThemeFile{}, err
	}
	b, err := loc.read(ctx)
	if err != nil {
		return ThemeFile{}, err
	}
	return ParseThemeFile(b)
}
