package storage

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Dump is a full copy of the user's local data.
type Dump struct {
	Activities []Activity        `json:"activities"`
	Comments   []Comment         `json:"comments"`
	Settings   map[string]string `json:"settings"`
}

func (s *DB) Dump(ctx context.Context) (Dump, error) {
	db, err := s.conn()
	if err != nil {
		return Dump{}, err
	}
	acts, err := s.ListActivities(ctx)
	if err != nil {
		return Dump{}, err
	}
	d := Dump{Activities: acts, Comments: []Comment{}, Settings: map[string]string{}}

	rows, err := db.QueryContext(ctx, `SELECT id, pharmacy_id, text, created_at FROM comments ORDER BY pharmacy_id ASC, created_at ASC, rowid ASC`)
	if err != nil {
		return Dump{}, err
	}
	for rows.Next() {
		var (
			c  Comment
			ts int64
		)
		if err := rows.Scan(&c.ID, &c.PharmacyID, &c.Text, &ts); err != nil {
			rows.Close()
			return Dump{}, err
		}
		c.Date = time.UnixMilli(ts)
		d.Comments = append(d.Comments, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dump{}, err
	}

	srows, err := db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Dump{}, err
	}
	defer srows.Close()
	for srows.Next() {
		var k, v string
		if err := srows.Scan(&k, &v); err != nil {
			return Dump{}, err
		}
		d.Settings[k] = v
	}
	return d, srows.Err()
}

// Restore merges d into the store. With replace set, existing data is
// dropped first. Activities keep their timestamps and are re-sequenced
// oldest first so the newest-first order survives.
func (s *DB) Restore(ctx context.Context, d Dump, replace bool) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	fail := func(stage string, err error) error {
		_ = tx.Rollback()
		return fmt.Errorf("restore %s: %w", stage, err)
	}
	if replace {
		for _, stmt := range []string{`DELETE FROM activities`, `DELETE FROM comments`, `DELETE FROM settings`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fail("clear", err)
			}
		}
	}
	acts := append([]Activity(nil), d.Activities...)
	sort.SliceStable(acts, func(i, j int) bool {
		return acts[i].Timestamp.Before(acts[j].Timestamp)
	})
	for _, a := range acts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO activities (type, text, ts, has_position, lat, lng, entity_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(a.Type), a.Text, a.Timestamp.UnixMilli(), boolInt(a.HasPosition), a.Lat, a.Lng, a.EntityID); err != nil {
			return fail("activities", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE seq NOT IN (SELECT seq FROM activities ORDER BY seq DESC LIMIT ?)`, MaxActivities); err != nil {
		return fail("trim", err)
	}
	for _, c := range d.Comments {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO comments (id, pharmacy_id, text, created_at) VALUES (?, ?, ?, ?)`,
			c.ID, c.PharmacyID, c.Text, c.Date.UnixMilli()); err != nil {
			return fail("comments", err)
		}
	}
	for k, v := range d.Settings {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fail("settings", err)
		}
	}
	return tx.Commit()
}
