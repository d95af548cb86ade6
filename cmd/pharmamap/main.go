package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pharmamap/internal/app"
	configpkg "pharmamap/internal/config"
	"pharmamap/internal/debug"
	"pharmamap/internal/doctor"
	"pharmamap/internal/locate"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/places"
	"pharmamap/internal/router"
	"pharmamap/internal/storage"
	"pharmamap/internal/tui"
	"pharmamap/internal/version"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		if err := runApp(ctx); err != nil {
			fatal(err)
		}
		return
	}

	var err error
	switch os.Args[1] {
	case "doctor":
		err = runDoctor(ctx, os.Stdout)
	case "version":
		fmt.Println(version.Value)
	case "setup":
		err = runSetup()
	case "search":
		err = runSearch(ctx, os.Args[2:], os.Stdout)
	case "activity":
		err = runActivity(os.Args[2:], os.Stdout)
	case "export":
		err = runExport(ctx, os.Args[2:], os.Stdout)
	case "import":
		err = runImport(ctx, os.Args[2:], os.Stdout)
	case "theme":
		err = runTheme(ctx, os.Args[2:], os.Stdout)
	case "snapshot":
		err = runSnapshot(ctx, os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

// backends are the data sources shared by the TUI and the CLI commands.
type backends struct {
	cfg      configpkg.Config
	searcher router.Searcher
	client   *places.Client
	catalog  *pharmacy.Catalog
}

func loadBackends() (backends, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return backends{}, err
	}
	if cfg.Debug {
		debug.SetEnabled(true)
	}
	catalog, err := pharmacy.DefaultCatalog()
	if err != nil {
		return backends{}, fmt.Errorf("load catalog: %w", err)
	}
	b := backends{cfg: cfg, searcher: catalog, catalog: catalog}
	if key := cfg.KakaoKey(); key != "" {
		b.client = newPlacesClient(cfg, key)
		b.searcher = b.client
	} else {
		debug.Log("main: no kakao key, using the offline catalog")
	}
	return b, nil
}

func newPlacesClient(cfg configpkg.Config, key string) *places.Client {
	return places.NewClient(key,
		places.WithBaseURL(cfg.Kakao.BaseURL),
		places.WithMaxPages(cfg.Search.MaxPages),
	)
}

func openStore() (*storage.DB, error) {
	path, err := storage.DefaultPath()
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

func runApp(ctx context.Context) error {
	b, err := loadBackends()
	if err != nil {
		return err
	}
	cfg := b.cfg

	// The TUI owns the terminal; debug output goes to a file instead.
	if debug.Enabled() {
		if dir, err := app.DataDir(); err == nil {
			if f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
				defer f.Close()
				debug.SetOutput(f)
			}
		}
	}

	db, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: local store unavailable, history will not be kept: %v\n", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	opts := tui.Options{
		Config:   cfg,
		Local:    storage.NewLocal(db),
		Searcher: b.searcher,
		Resolver: b.catalog,
		Locator:  locate.New(cfg.Locate),
		Runner:   app.ExecRunner{},
		Theme:    resolveUITheme(os.Stderr),
		Version:  version.Value,
		Now:      time.Now,
		Callbacks: tui.AppCallbacks{
			ReloadConfig:    configpkg.Load,
			ThemeListLocal:  themeListLocal,
			ThemeListRemote: func() ([]tui.ThemeOption, string, error) { return themeListRemote(ctx) },
			ThemeInstall:    func(id string) (string, error) { return themeInstall(ctx, id) },
			ThemeApply:      themeApply,
			ThemeUninstall:  themeUninstall,
		},
	}
	if b.client != nil {
		client := b.client
		opts.Callbacks.Geocode = func(ctx context.Context, address string) (float64, float64, error) {
			loc, err := client.Geocode(ctx, address)
			return loc.Lat, loc.Lng, err
		}
	}

	if path, err := configpkg.Path(); err == nil {
		w, err := configpkg.NewWatcher(path, configpkg.WithOnError(func(err error) {
			debug.Log("main: config watch: %v", err)
		}))
		if err == nil {
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			if err := w.Start(watchCtx); err == nil {
				defer w.Stop()
				opts.ConfigChanged = w.Changed()
			} else {
				debug.Log("main: config watch: %v", err)
			}
		}
	}
	return tui.RunApp(opts)
}

func runDoctor(ctx context.Context, out *os.File) error {
	cfg, err := configpkg.Load()
	if err != nil {
		return err
	}
	dbPath, err := storage.DefaultPath()
	if err != nil {
		return err
	}
	opts := doctor.Options{Config: cfg, DBPath: dbPath}
	if key := cfg.KakaoKey(); key != "" {
		client := newPlacesClient(cfg, key)
		opts.Ping = func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, cfg.Kakao.Timeout)
			defer cancel()
			_, err := client.SearchNearby(ctx, cfg.Map.CenterLat, cfg.Map.CenterLng, 100)
			return err
		}
	}
	results, err := doctor.Check(ctx, opts)
	for _, r := range results {
		mark := "ok  "
		if !r.OK {
			mark = "FAIL"
			if !r.Required {
				mark = "warn"
			}
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", mark, r.Name, r.Detail)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "doctor: ok")
	return nil
}

func usage() {
	fmt.Println("pharmamap")
	fmt.Println("Runs the interactive map when no command is provided.")
	fmt.Println("pharmamap <command>")
	fmt.Println("Commands: setup, search, activity, export, import, theme, snapshot, doctor, version")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
