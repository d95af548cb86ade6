package app

import (
	"os"
	"path/filepath"
	"time"
)

const Name = "pharmamap"

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", Name), nil
}

// DataDir holds the sqlite store, the debug log and the export secret.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, Name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", Name), nil
}

func DefaultSnapshotPath(now time.Time, ext string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, Name+"-map-"+now.Format("2006-01-02-150405")+"."+ext), nil
}
