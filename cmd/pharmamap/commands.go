package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"pharmamap/internal/app"
	"pharmamap/internal/mapview"
	"pharmamap/internal/pharmacy"
	"pharmamap/internal/storage"
	"pharmamap/internal/userdata"
	"pharmamap/internal/version"
)

type searchConfig struct {
	Lat     float64
	Lng     float64
	RadiusM int
	Address string
	JSON    bool
}

func runSearch(ctx context.Context, args []string, out io.Writer) error {
	b, err := loadBackends()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var sc searchConfig
	fs.Float64Var(&sc.Lat, "lat", b.cfg.Map.CenterLat, "Latitude of the search center")
	fs.Float64Var(&sc.Lng, "lng", b.cfg.Map.CenterLng, "Longitude of the search center")
	fs.IntVar(&sc.RadiusM, "radius", b.cfg.Search.RadiusM, "Search radius in meters")
	fs.StringVar(&sc.Address, "address", "", "Search around an address instead of lat/lng")
	fs.BoolVar(&sc.JSON, "json", false, "Print results as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Kakao.Timeout)
	defer cancel()
	if strings.TrimSpace(sc.Address) != "" {
		if b.client == nil {
			return errors.New("--address needs a kakao api key; run pharmamap setup")
		}
		loc, err := b.client.Geocode(ctx, sc.Address)
		if err != nil {
			return err
		}
		sc.Lat, sc.Lng = loc.Lat, loc.Lng
	}
	found, err := b.searcher.SearchNearby(ctx, sc.Lat, sc.Lng, sc.RadiusM)
	if err != nil {
		return err
	}
	if sc.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(found)
	}
	printEntities(out, found, time.Now(), outputWidth(out))
	return nil
}

// outputWidth is the terminal width, or 0 when out is not a terminal.
func outputWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func printEntities(out io.Writer, found []pharmacy.Entity, now time.Time, width int) {
	if len(found) == 0 {
		fmt.Fprintln(out, "no pharmacies found")
		return
	}
	nameW := 4
	for _, e := range found {
		if w := runewidth.StringWidth(e.Name); w > nameW {
			nameW = w
		}
	}
	if nameW > 24 {
		nameW = 24
	}
	for _, e := range found {
		line := fmt.Sprintf("%s  %7s  %-4s  %s  %s",
			runewidth.FillRight(runewidth.Truncate(e.Name, nameW, "…"), nameW),
			pharmacy.FormatDistance(e.DistanceM),
			pharmacy.ParseHours(e.Hours, now).Badge(),
			e.Phone,
			e.Address,
		)
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

func runActivity(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	clearLog := fs.Bool("clear", false, "Delete the activity log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := context.Background()
	if *clearLog {
		if err := db.ClearActivities(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "activity log cleared")
		return nil
	}
	acts, err := db.ListActivities(ctx)
	if err != nil {
		return err
	}
	printActivities(out, acts, time.Now())
	return nil
}

func printActivities(out io.Writer, acts []storage.Activity, now time.Time) {
	if len(acts) == 0 {
		fmt.Fprintln(out, "no activity yet")
		return
	}
	for _, a := range acts {
		fmt.Fprintf(out, "%-12s %-8s %s\n", pharmacy.TimeAgo(a.Timestamp, now), a.Type, a.Text)
	}
}

func runExport(ctx context.Context, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: pharmamap export <file>")
	}
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	secret, err := exportSecret()
	if err != nil {
		return err
	}
	n, err := exportTo(ctx, db, secret, args[0], time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d activities and %d comments to %s\n", n.activities, n.comments, args[0])
	return nil
}

type exportCounts struct {
	activities int
	comments   int
}

func exportTo(ctx context.Context, db *storage.DB, secret []byte, path string, now time.Time) (exportCounts, error) {
	dump, err := db.Dump(ctx)
	if err != nil {
		return exportCounts{}, err
	}
	host, _ := os.Hostname()
	e := userdata.New(host, version.Value, dump, now)
	if err := e.Sign(secret); err != nil {
		return exportCounts{}, err
	}
	if err := userdata.Write(path, e); err != nil {
		return exportCounts{}, err
	}
	return exportCounts{activities: len(dump.Activities), comments: len(dump.Comments)}, nil
}

func runImport(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	merge := fs.Bool("merge", false, "Keep existing data and add the imported entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: pharmamap import [--merge] <file>")
	}
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	secret, err := exportSecret()
	if err != nil {
		return err
	}
	if err := importFrom(ctx, db, secret, fs.Arg(0), !*merge); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %s\n", fs.Arg(0))
	return nil
}

func importFrom(ctx context.Context, db *storage.DB, secret []byte, path string, replace bool) error {
	e, err := userdata.Read(path)
	if err != nil {
		return err
	}
	if err := e.Validate(secret); err != nil {
		return err
	}
	return db.Restore(ctx, e.Data, replace)
}

func exportSecret() ([]byte, error) {
	dir, err := app.DataDir()
	if err != nil {
		return nil, err
	}
	return userdata.EnsureSecret(dir)
}

func runSnapshot(ctx context.Context, args []string, out io.Writer) error {
	b, err := loadBackends()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	svg := fs.Bool("svg", false, "Write SVG")
	png := fs.Bool("png", false, "Write PNG")
	lat := fs.Float64("lat", b.cfg.Map.CenterLat, "Latitude of the map center")
	lng := fs.Float64("lng", b.cfg.Map.CenterLng, "Longitude of the map center")
	zoom := fs.Int("zoom", b.cfg.Map.Zoom, "Map level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *svg && *png {
		return errors.New("choose one of --svg and --png")
	}
	format := ""
	switch {
	case *svg:
		format = "svg"
	case *png:
		format = "png"
	}
	path := fs.Arg(0)
	if path == "" {
		ext := format
		if ext == "" {
			ext = "svg"
		}
		path, err = app.DefaultSnapshotPath(time.Now(), ext)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Kakao.Timeout)
	defer cancel()
	found, err := b.searcher.SearchNearby(ctx, *lat, *lng, b.cfg.Search.RadiusM)
	if err != nil {
		return err
	}
	v := mapview.New(*lat, *lng, *zoom, b.cfg.Map.CellPxW, b.cfg.Map.CellPxH)
	v.Resize(120, 40)
	for _, e := range found {
		v.AddMarker(e.Lat, e.Lng, e.Name)
	}
	title := fmt.Sprintf("pharmamap %.5f,%.5f (%d)", *lat, *lng, len(found))
	if err := v.SaveSnapshot(path, format, title); err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot saved: %s (%d pharmacies)\n", path, len(found))
	return nil
}
