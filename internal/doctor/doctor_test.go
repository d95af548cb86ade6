package doctor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pharmamap/internal/config"
)

func findResult(t *testing.T, results []Result, name string) Result {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result named %q in %+v", name, results)
	return Result{}
}

func TestCheckHealthy(t *testing.T) {
	t.Setenv(config.KakaoKeyEnv, "")
	cfg := config.Default()
	cfg.Kakao.APIKey = "k"
	pinged := false
	results, err := Check(context.Background(), Options{
		Config: cfg,
		DBPath: filepath.Join(t.TempDir(), "db.sqlite"),
		Ping: func(context.Context) error {
			pinged = true
			return nil
		},
		LookPath: func(string) (string, error) { return "/usr/bin/xdg-open", nil },
	})
	if err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
	if !pinged {
		t.Fatal("expected ping to run")
	}
	for _, r := range results {
		if !r.OK {
			t.Fatalf("unexpected failed check: %+v", r)
		}
	}
}

func TestCheckMissingKeyFailsAndSkipsPing(t *testing.T) {
	t.Setenv(config.KakaoKeyEnv, "")
	results, err := Check(context.Background(), Options{
		Config: config.Default(),
		DBPath: filepath.Join(t.TempDir(), "db.sqlite"),
		Ping: func(context.Context) error {
			t.Fatal("ping must not run without a key")
			return nil
		},
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
	})
	if !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}
	if r := findResult(t, results, "kakao api key"); r.OK {
		t.Fatal("expected key check to fail")
	}
	if r := findResult(t, results, "url opener"); r.OK || r.Required {
		t.Fatalf("expected advisory opener failure, got %+v", r)
	}
	if r := findResult(t, results, "local store"); !r.OK {
		t.Fatalf("expected store check to pass, got %+v", r)
	}
}

func TestCheckPingFailure(t *testing.T) {
	t.Setenv(config.KakaoKeyEnv, "env-key")
	results, err := Check(context.Background(), Options{
		Config:   config.Default(),
		DBPath:   filepath.Join(t.TempDir(), "db.sqlite"),
		Ping:     func(context.Context) error { return errors.New("401 unauthorized") },
		LookPath: func(string) (string, error) { return "/bin/open", nil },
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if r := findResult(t, results, "kakao api"); r.OK || r.Detail != "401 unauthorized" {
		t.Fatalf("unexpected ping result: %+v", r)
	}
}
