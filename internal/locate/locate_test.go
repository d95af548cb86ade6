package locate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pharmamap/internal/config"
)

func TestFixedPositionWins(t *testing.T) {
	l := New(config.LocateConfig{Lat: 37.1, Lng: 127.2, IPLookupURL: "http://127.0.0.1:1"})
	lat, lng, err := l.Locate(context.Background())
	if err != nil || lat != 37.1 || lng != 127.2 {
		t.Fatalf("unexpected result %v %v %v", lat, lng, err)
	}
}

func TestIPLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","lat":37.57,"lon":126.98,"city":"Seoul"}`)
	}))
	defer srv.Close()
	l := New(config.LocateConfig{IPLookupURL: srv.URL})
	lat, lng, err := l.Locate(context.Background())
	if err != nil || lat != 37.57 || lng != 126.98 {
		t.Fatalf("unexpected result %v %v %v", lat, lng, err)
	}
}

func TestIPLookupFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"fail status": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"fail","message":"private range"}`)
		},
		"http error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"zero position": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"success"}`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, _, err := New(config.LocateConfig{IPLookupURL: srv.URL}).Locate(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestNoLookupURL(t *testing.T) {
	if _, _, err := New(config.LocateConfig{}).Locate(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
