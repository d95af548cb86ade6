package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	configpkg "pharmamap/internal/config"
	themepkg "pharmamap/internal/theme"
	"pharmamap/internal/tui"
)

func resolveUITheme(w io.Writer) tui.UITheme {
	cfg, err := configpkg.Load()
	if err != nil {
		fmt.Fprintf(w, "warning: loading config failed, using default theme: %v\n", err)
		return tui.UITheme{}
	}
	palette, _, err := themepkg.LoadActivePaletteHex(cfg)
	if err != nil {
		fmt.Fprintf(w, "warning: loading theme %q failed, using default: %v\n", cfg.Theme.Active, err)
	}
	return tui.ThemeFromPalette(palette)
}

const themeUsage = "usage: pharmamap theme list [--remote] | current | apply|install|uninstall <theme-id>"

func runTheme(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(themeUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return runThemeList(ctx, rest, out)
	case "current":
		cfg, err := configpkg.Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "active theme: %s\n", cfg.Theme.Active)
		return nil
	}

	actions := map[string]func(id string) (string, error){
		"apply": func(id string) (string, error) {
			_, msg, err := themeApply(id)
			return msg, err
		},
		"install": func(id string) (string, error) {
			return themeInstall(ctx, id)
		},
		"uninstall": func(id string) (string, error) {
			_, msg, err := themeUninstall(id)
			return msg, err
		},
	}
	action, ok := actions[sub]
	if !ok {
		return fmt.Errorf("unknown theme subcommand %q; %s", sub, themeUsage)
	}
	if len(rest) == 0 || strings.TrimSpace(rest[0]) == "" {
		return fmt.Errorf("usage: pharmamap theme %s <theme-id>", sub)
	}
	msg, err := action(strings.TrimSpace(rest[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, msg)
	return nil
}

func runThemeList(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("theme list", flag.ContinueOnError)
	remote := fs.Bool("remote", false, "List installable themes from the index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *remote {
		options, sourceURL, err := themeListRemote(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "installable themes (%s):\n", sourceURL)
		for _, o := range options {
			line := fmt.Sprintf("- %s: %s", o.ID, o.Name)
			if o.Description != "" {
				line += " (" + o.Description + ")"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	}
	ids, active, err := themeListLocal()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "local themes (active: %s):\n", active)
	for _, id := range append([]string{themepkg.DefaultID}, ids...) {
		mark := "-"
		if id == active {
			mark = "*"
		}
		fmt.Fprintln(out, mark, id)
	}
	return nil
}

// themeListLocal returns installed theme ids, without the built-in one.
func themeListLocal() ([]string, string, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return nil, "", err
	}
	ids, err := themepkg.ListLocalThemeIDs()
	if err != nil {
		return nil, "", err
	}
	return ids, cfg.Theme.Active, nil
}

func themeListRemote(ctx context.Context) ([]tui.ThemeOption, string, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return nil, "", err
	}
	idx, sourceURL, err := fetchThemeIndexWithLocalFallback(ctx, cfg.Theme.IndexURL)
	if err != nil {
		return nil, "", err
	}
	out := make([]tui.ThemeOption, 0, len(idx.Themes))
	for _, th := range idx.Themes {
		out = append(out, tui.ThemeOption{ID: th.ID, Name: th.Name, Description: th.Description})
	}
	return out, sourceURL, nil
}

func themeInstall(ctx context.Context, id string) (string, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return "", err
	}
	_, sourceURL, err := fetchThemeIndexWithLocalFallback(ctx, cfg.Theme.IndexURL)
	if err != nil {
		return "", err
	}
	themeFile, err := themepkg.FetchThemeByID(ctx, sourceURL, id)
	if err != nil {
		return "", err
	}
	if err := themepkg.SaveThemeFile(themeFile); err != nil {
		return "", err
	}
	return fmt.Sprintf("installed theme: %s", themeFile.ID), nil
}

func themeApply(id string) (tui.UITheme, string, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return tui.UITheme{}, "", err
	}
	if err := themepkg.Apply(&cfg, id); err != nil {
		return tui.UITheme{}, "", err
	}
	palette, _, err := themepkg.LoadActivePaletteHex(cfg)
	if err != nil {
		return tui.UITheme{}, "", err
	}
	return tui.ThemeFromPalette(palette), fmt.Sprintf("applied theme: %s", id), nil
}

func themeUninstall(id string) (tui.UITheme, string, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return tui.UITheme{}, "", err
	}
	wasActive := cfg.Theme.Active == id
	if err := themepkg.RemoveLocalTheme(&cfg, id); err != nil {
		return tui.UITheme{}, "", err
	}
	msg := fmt.Sprintf("uninstalled theme: %s", id)
	if wasActive {
		msg += "; applied theme: " + themepkg.DefaultID
	}
	palette, _, err := themepkg.LoadActivePaletteHex(cfg)
	if err != nil {
		return tui.UITheme{}, "", err
	}
	return tui.ThemeFromPalette(palette), msg, nil
}

// fetchThemeIndexWithLocalFallback tries the configured index, then a
// themes/index.json next to the working directory.
func fetchThemeIndexWithLocalFallback(ctx context.Context, primaryURL string) (themepkg.ThemeIndex, string, error) {
	idx, err := themepkg.FetchIndex(ctx, primaryURL)
	if err == nil {
		return idx, primaryURL, nil
	}
	localPath := filepath.Join("themes", "index.json")
	localIdx, localErr := themepkg.FetchIndex(ctx, localPath)
	if localErr != nil {
		return themepkg.ThemeIndex{}, "", fmt.Errorf("fetch theme index failed (%s): %w", primaryURL, err)
	}
	return localIdx, localPath, nil
}
