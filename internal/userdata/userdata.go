package userdata

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"pharmamap/internal/storage"
)

const SchemaVersion = "v1"

var ErrSignature = errors.New("invalid export signature")

// ExportV1 is a signed snapshot of the local store. The signature only
// proves the file came from this machine's secret; it is not encryption.
type ExportV1 struct {
	SchemaVersion string       `json:"schemaVersion"`
	ID            string       `json:"id"`
	CreatedAt     string       `json:"createdAt"`
	Host          string       `json:"host"`
	ToolVersion   string       `json:"toolVersion"`
	Data          storage.Dump `json:"data"`
	Fingerprint   string       `json:"fingerprint"`
	Signature     string       `json:"signature"`
}

type setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type canonicalExport struct {
	SchemaVersion string             `json:"schemaVersion"`
	ID            string             `json:"id"`
	CreatedAt     string             `json:"createdAt"`
	Host          string             `json:"host"`
	ToolVersion   string             `json:"toolVersion"`
	Activities    []canonicalEntry   `json:"activities"`
	Comments      []canonicalComment `json:"comments"`
	Settings      []setting          `json:"settings"`
}

type canonicalEntry struct {
	Type        string  `json:"type"`
	Text        string  `json:"text"`
	TS          int64   `json:"ts"`
	HasPosition bool    `json:"hasPosition"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	EntityID    string  `json:"entityId"`
}

type canonicalComment struct {
	ID         string `json:"id"`
	PharmacyID string `json:"pharmacyId"`
	Text       string `json:"text"`
	Date       int64  `json:"date"`
}

func New(host, toolVersion string, d storage.Dump, now time.Time) ExportV1 {
	return ExportV1{
		SchemaVersion: SchemaVersion,
		ID:            uuid.NewString(),
		CreatedAt:     now.UTC().Format(time.RFC3339),
		Host:          host,
		ToolVersion:   toolVersion,
		Data:          d,
	}
}

func (e *ExportV1) Sign(secret []byte) error {
	if len(secret) == 0 {
		return errors.New("empty signing secret")
	}
	fp, err := e.ComputeFingerprint()
	if err != nil {
		return err
	}
	e.Fingerprint = fp
	e.Signature = sign(secret, fp)
	return nil
}

func (e ExportV1) Validate(secret []byte) error {
	if e.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schemaVersion: %s", e.SchemaVersion)
	}
	if _, err := time.Parse(time.RFC3339, e.CreatedAt); err != nil {
		return fmt.Errorf("invalid createdAt: %w", err)
	}
	if len(e.Data.Activities) > storage.MaxActivities {
		return fmt.Errorf("too many activities: %d", len(e.Data.Activities))
	}
	fp, err := e.ComputeFingerprint()
	if err != nil {
		return err
	}
	if e.Fingerprint != fp {
		return fmt.Errorf("%w: fingerprint mismatch", ErrSignature)
	}
	if !hmac.Equal([]byte(sign(secret, fp)), []byte(strings.ToLower(e.Signature))) {
		return ErrSignature
	}
	return nil
}

// ComputeFingerprint hashes a canonical form of the export: timestamps as
// unix millis, comments and settings sorted, so the same data always
// yields the same fingerprint after a JSON round trip.
func (e ExportV1) ComputeFingerprint() (string, error) {
	canon := canonicalExport{
		SchemaVersion: e.SchemaVersion,
		ID:            e.ID,
		CreatedAt:     e.CreatedAt,
		Host:          e.Host,
		ToolVersion:   e.ToolVersion,
		Activities:    make([]canonicalEntry, 0, len(e.Data.Activities)),
		Comments:      make([]canonicalComment, 0, len(e.Data.Comments)),
		Settings:      make([]setting, 0, len(e.Data.Settings)),
	}
	for _, a := range e.Data.Activities {
		canon.Activities = append(canon.Activities, canonicalEntry{
			Type:        string(a.Type),
			Text:        a.Text,
			TS:          a.Timestamp.UnixMilli(),
			HasPosition: a.HasPosition,
			Lat:         a.Lat,
			Lng:         a.Lng,
			EntityID:    a.EntityID,
		})
	}
	for _, c := range e.Data.Comments {
		canon.Comments = append(canon.Comments, canonicalComment{
			ID:         c.ID,
			PharmacyID: c.PharmacyID,
			Text:       c.Text,
			Date:       c.Date.UnixMilli(),
		})
	}
	sort.Slice(canon.Comments, func(i, j int) bool {
		return canon.Comments[i].ID < canon.Comments[j].ID
	})
	for k, v := range e.Data.Settings {
		canon.Settings = append(canon.Settings, setting{Key: k, Value: v})
	}
	sort.Slice(canon.Settings, func(i, j int) bool {
		return canon.Settings[i].Key < canon.Settings[j].Key
	})
	b, err := json.Marshal(canon)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:]), nil
}

func sign(secret []byte, fp string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(fp))
	return hex.EncodeToString(h.Sum(nil))
}

func Write(path string, e ExportV1) error {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}

func Read(path string) (ExportV1, error) {
	var e ExportV1
	b, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("parse export: %w", err)
	}
	return e, nil
}

// EnsureSecret returns the signing key kept in dir, creating it on first use.
func EnsureSecret(dir string) ([]byte, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	secretPath := filepath.Join(dir, "export-secret.hex")
	if b, err := os.ReadFile(secretPath); err == nil {
		raw, decErr := hex.DecodeString(strings.TrimSpace(string(b)))
		if decErr != nil {
			return nil, fmt.Errorf("invalid secret format: %w", decErr)
		}
		if len(raw) < 32 {
			return nil, errors.New("secret too short")
		}
		return raw, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	enc := []byte(hex.EncodeToString(raw) + "\n")
	if err := os.WriteFile(secretPath, enc, 0o600); err != nil {
		return nil, err
	}
	return raw, nil
}
