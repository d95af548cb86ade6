package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"pharmamap/internal/config"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/userdata"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv(config.KakaoKeyEnv, "")
	return home
}

func TestSearchOfflineJSON(t *testing.T) {
	isolateHome(t)
	var out bytes.Buffer
	if err := runSearch(context.Background(), []string{"--radius", "500", "--json"}, &out); err != nil {
		t.Fatalf("search: %v", err)
	}
	var found []pharmacy.Entity
	if err := json.Unmarshal(out.Bytes(), &found); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(found) == 0 {
		t.Fatalf("expected catalog pharmacies near the default center")
	}
	for i := 1; i < len(found); i++ {
		if found[i].DistanceM < found[i-1].DistanceM {
			t.Fatalf("results not sorted by distance: %v", found)
		}
	}
}

func TestSearchAddressNeedsKey(t *testing.T) {
	isolateHome(t)
	err := runSearch(context.Background(), []string{"--address", "서울"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestPrintEntitiesAlignsWideNames(t *testing.T) {
	var out bytes.Buffer
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	printEntities(&out, []pharmacy.Entity{
		{Name: "약국", DistanceM: 120, Hours: "09:00-18:00", Phone: "02-1"},
		{Name: "Longer Pharmacy", DistanceM: 1500},
	}, now, 0)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "120m") || !strings.Contains(lines[1], "1.5km") {
		t.Fatalf("distances missing: %q", lines)
	}

	out.Reset()
	printEntities(&out, nil, now, 0)
	if !strings.Contains(out.String(), "no pharmacies") {
		t.Fatalf("expected empty message, got %q", out.String())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src, err := storage.Open(filepath.Join(dir, "src.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()
	if _, err := src.AddActivity(ctx, storage.Activity{Type: storage.ActivitySearch, Text: "주변 약국 검색: 3곳"}); err != nil {
		t.Fatalf("add activity: %v", err)
	}
	if _, err := src.AddComment(ctx, "p1", "친절해요"); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	secret, err := userdata.EnsureSecret(dir)
	if err != nil {
		t.Fatalf("secret: %v", err)
	}
	path := filepath.Join(dir, "export.json")
	n, err := exportTo(ctx, src, secret, path, time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n.activities != 1 || n.comments != 1 {
		t.Fatalf("counts = %+v", n)
	}

	dst, err := storage.Open(filepath.Join(dir, "dst.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dst.Close()
	if err := importFrom(ctx, dst, secret, path, true); err != nil {
		t.Fatalf("import: %v", err)
	}
	acts, _ := dst.ListActivities(ctx)
	comments, _ := dst.ListComments(ctx, "p1")
	if len(acts) != 1 || len(comments) != 1 || comments[0].Text != "친절해요" {
		t.Fatalf("imported acts=%v comments=%v", acts, comments)
	}
}

func TestImportRejectsTamperedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "a.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.AddComment(ctx, "p1", "원본"); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	secret, _ := userdata.EnsureSecret(dir)
	path := filepath.Join(dir, "export.json")
	if _, err := exportTo(ctx, db, secret, path, time.Now()); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, _ := os.ReadFile(path)
	if err := os.WriteFile(path, bytes.Replace(b, []byte("원본"), []byte("변조"), 1), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err = importFrom(ctx, db, secret, path, true)
	if !errors.Is(err, userdata.ErrSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
	comments, _ := db.ListComments(ctx, "p1")
	if len(comments) != 1 || comments[0].Text != "원본" {
		t.Fatalf("rejected import must not touch data: %v", comments)
	}
}

func TestSetupAnswersValidate(t *testing.T) {
	cfg := config.Default()
	a := answersFromConfig(cfg)
	a.APIKey = "  key  "
	a.RadiusM = "1500"
	if err := a.apply(&cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Kakao.APIKey != "key" || cfg.Search.RadiusM != 1500 {
		t.Fatalf("cfg = %+v", cfg)
	}

	bad := answersFromConfig(cfg)
	bad.CenterLat = "91"
	if err := bad.apply(&cfg); err == nil {
		t.Fatalf("expected latitude error")
	}
	bad = answersFromConfig(cfg)
	bad.RadiusM = "50"
	if err := bad.apply(&cfg); err == nil {
		t.Fatalf("expected radius error")
	}
}

func TestThemeListAndApplyDefault(t *testing.T) {
	isolateHome(t)
	var out bytes.Buffer
	if err := runTheme(context.Background(), []string{"list"}, &out); err != nil {
		t.Fatalf("theme list: %v", err)
	}
	if !strings.Contains(out.String(), "* default") {
		t.Fatalf("expected default marked active:\n%s", out.String())
	}
	if err := runTheme(context.Background(), []string{"apply", "missing"}, &out); err == nil {
		t.Fatalf("expected error applying a theme that is not installed")
	}
	if err := runTheme(context.Background(), []string{"uninstall", "default"}, &out); err == nil {
		t.Fatalf("expected error uninstalling the built-in theme")
	}
}

func TestActivityCommandListsAndClears(t *testing.T) {
	isolateHome(t)
	db, err := openStore()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.AddActivity(context.Background(), storage.Activity{Type: storage.ActivityVisit, Text: "방문: 시청온누리약국"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	db.Close()

	var out bytes.Buffer
	if err := runActivity(nil, &out); err != nil {
		t.Fatalf("activity: %v", err)
	}
	if !strings.Contains(out.String(), "방문: 시청온누리약국") {
		t.Fatalf("missing entry:\n%s", out.String())
	}
	out.Reset()
	if err := runActivity([]string{"--clear"}, &out); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out.Reset()
	if err := runActivity(nil, &out); err != nil {
		t.Fatalf("activity: %v", err)
	}
	if !strings.Contains(out.String(), "no activity") {
		t.Fatalf("expected empty log, got %q", out.String())
	}
}

func TestSnapshotWritesSVG(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "map.svg")
	var out bytes.Buffer
	if err := runSnapshot(context.Background(), []string{"--svg", path}, &out); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(b, []byte("<svg")) {
		t.Fatalf("not an svg: %.80s", b)
	}
}
