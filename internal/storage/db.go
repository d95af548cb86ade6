package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pharmamap/internal/app"
)

const MaxActivities = 200

var ErrClosed = errors.New("storage closed")

type ActivityType string

const (
	ActivityVisit        ActivityType = "visit"
	ActivitySearch       ActivityType = "search"
	ActivityLocation     ActivityType = "location"
	ActivitySubscription ActivityType = "subscription"
)

type Activity struct {
	Seq         int64        `json:"seq"`
	Type        ActivityType `json:"type"`
	Text        string       `json:"text"`
	Timestamp   time.Time    `json:"ts"`
	HasPosition bool         `json:"has_position"`
	Lat         float64      `json:"lat,omitempty"`
	Lng         float64      `json:"lng,omitempty"`
	EntityID    string       `json:"entity_id,omitempty"`
}

type Comment struct {
	ID         string    `json:"id"`
	PharmacyID string    `json:"pharmacy_id"`
	Text       string    `json:"text"`
	Date       time.Time `json:"date"`
}

// DB is the sqlite-backed store for everything the app keeps locally.
type DB struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func DefaultPath() (string, error) {
	dir, err := app.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pharmamap.sqlite"), nil
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, path: path, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	statements := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=2000;`,
		`CREATE TABLE IF NOT EXISTS activities (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			text TEXT NOT NULL,
			ts INTEGER NOT NULL,
			has_position INTEGER NOT NULL DEFAULT 0,
			lat REAL NOT NULL DEFAULT 0,
			lng REAL NOT NULL DEFAULT 0,
			entity_id TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			pharmacy_id TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS comments_by_pharmacy ON comments(pharmacy_id, created_at);`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("storage migration failed: %w", err)
		}
	}
	return nil
}

func (s *DB) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *DB) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *DB) conn() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// AddActivity inserts a at the head of the log and evicts anything past
// MaxActivities.
func (s *DB) AddActivity(ctx context.Context, a Activity) (Activity, error) {
	db, err := s.conn()
	if err != nil {
		return Activity{}, err
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Activity{}, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO activities (type, text, ts, has_position, lat, lng, entity_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.Type), a.Text, a.Timestamp.UnixMilli(), boolInt(a.HasPosition), a.Lat, a.Lng, a.EntityID)
	if err != nil {
		_ = tx.Rollback()
		return Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE seq NOT IN (SELECT seq FROM activities ORDER BY seq DESC LIMIT ?)`, MaxActivities); err != nil {
		_ = tx.Rollback()
		return Activity{}, fmt.Errorf("trim activities: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Activity{}, err
	}
	a.Seq, _ = res.LastInsertId()
	return a, nil
}

// ListActivities returns the log newest first.
func (s *DB) ListActivities(ctx context.Context) ([]Activity, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT seq, type, text, ts, has_position, lat, lng, entity_id FROM activities ORDER BY seq DESC LIMIT ?`, MaxActivities)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Activity, 0)
	for rows.Next() {
		var (
			a      Activity
			typ    string
			ts     int64
			hasPos int
		)
		if err := rows.Scan(&a.Seq, &typ, &a.Text, &ts, &hasPos, &a.Lat, &a.Lng, &a.EntityID); err != nil {
			return nil, err
		}
		a.Type = ActivityType(typ)
		a.Timestamp = time.UnixMilli(ts)
		a.HasPosition = hasPos != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *DB) ClearActivities(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM activities`)
	return err
}

func (s *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	db, err := s.conn()
	if err != nil {
		return "", false, err
	}
	var v string
	err = db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *DB) SetSetting(ctx context.Context, key, value string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *DB) AddComment(ctx context.Context, pharmacyID, text string) (Comment, error) {
	db, err := s.conn()
	if err != nil {
		return Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, errors.New("comment text is empty")
	}
	c := Comment{
		ID:         uuid.NewString(),
		PharmacyID: pharmacyID,
		Text:       text,
		Date:       s.now(),
	}
	_, err = db.ExecContext(ctx, `INSERT INTO comments (id, pharmacy_id, text, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.PharmacyID, c.Text, c.Date.UnixMilli())
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return c, nil
}

// ListComments returns comments for one pharmacy, oldest first.
func (s *DB) ListComments(ctx context.Context, pharmacyID string) ([]Comment, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT id, pharmacy_id, text, created_at FROM comments WHERE pharmacy_id = ? ORDER BY created_at ASC, rowid ASC`, pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Comment, 0)
	for rows.Next() {
		var (
			c  Comment
			ts int64
		)
		if err := rows.Scan(&c.ID, &c.PharmacyID, &c.Text, &ts); err != nil {
			return nil, err
		}
		c.Date = time.UnixMilli(ts)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *DB) ClearComments(ctx context.Context, pharmacyID string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM comments WHERE pharmacy_id = ?`, pharmacyID)
	return err
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
