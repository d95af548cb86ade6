package doctor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"pharmamap/internal/app"
	"pharmamap/internal/config"
	"pharmamap/internal/storage"
)

type Result struct {
	Name   string
	OK     bool
	Detail string
	// Required checks make Check fail; the rest are advisory.
	Required bool
}

type Options struct {
	Config config.Config
	DBPath string
	// Ping, when set, performs one live request against the places API.
	Ping     func(ctx context.Context) error
	LookPath func(file string) (string, error)
}

var ErrUnhealthy = errors.New("doctor found problems")

func Check(ctx context.Context, opts Options) ([]Result, error) {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	var results []Result

	key := opts.Config.KakaoKey()
	if key == "" {
		results = append(results, Result{Name: "kakao api key", Required: true,
			Detail: fmt.Sprintf("set kakao.api_key in the config or %s", config.KakaoKeyEnv)})
	} else {
		results = append(results, Result{Name: "kakao api key", Required: true, OK: true, Detail: "configured"})
		if opts.Ping != nil {
			if err := opts.Ping(ctx); err != nil {
				results = append(results, Result{Name: "kakao api", Required: true, Detail: err.Error()})
			} else {
				results = append(results, Result{Name: "kakao api", Required: true, OK: true, Detail: "reachable"})
			}
		}
	}

	results = append(results, checkStore(ctx, opts.DBPath))

	opener := app.OpenerCommand()
	if _, err := lookPath(opener); err != nil {
		results = append(results, Result{Name: "url opener",
			Detail: fmt.Sprintf("missing dependency %q in PATH; links will only be copied", opener)})
	} else {
		results = append(results, Result{Name: "url opener", OK: true, Detail: opener})
	}

	failed := 0
	for _, r := range results {
		if r.Required && !r.OK {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d required check(s) failed", ErrUnhealthy, failed)
	}
	return results, nil
}

func checkStore(ctx context.Context, path string) Result {
	r := Result{Name: "local store", Required: true}
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			r.Detail = err.Error()
			return r
		}
		path = p
	}
	db, err := storage.Open(path)
	if err != nil {
		r.Detail = fmt.Sprintf("open %s: %v", path, err)
		return r
	}
	defer db.Close()
	acts, err := db.ListActivities(ctx)
	if err != nil {
		r.Detail = fmt.Sprintf("read %s: %v", path, err)
		return r
	}
	r.OK = true
	r.Detail = fmt.Sprintf("%s (%d activities)", path, len(acts))
	return r
}
