package storage

import (
	"context"
	"time"

	"pharmamap/internal/debug"
)

const (
	keySubscribed = "is_subscribed"
	keyConsent    = "location_consent"
)

const opTimeout = 2 * time.Second

// Local is the always-available face of the store used by the UI. Failures
// are logged and swallowed: reads fall back to defaults and writes are
// dropped. A nil DB behaves like an empty store.
type Local struct {
	db *DB
}

func NewLocal(db *DB) *Local {
	return &Local{db: db}
}

func (l *Local) DB() *DB {
	return l.db
}

func (l *Local) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

func (l *Local) GetActivities() []Activity {
	ctx, cancel := l.ctx()
	defer cancel()
	acts, err := l.db.ListActivities(ctx)
	if err != nil {
		debug.Log("storage: list activities: %v", err)
		return []Activity{}
	}
	return acts
}

func (l *Local) AddActivity(a Activity) {
	ctx, cancel := l.ctx()
	defer cancel()
	if _, err := l.db.AddActivity(ctx, a); err != nil {
		debug.Log("storage: add activity %q dropped: %v", a.Text, err)
	}
}

func (l *Local) ClearActivities() {
	ctx, cancel := l.ctx()
	defer cancel()
	if err := l.db.ClearActivities(ctx); err != nil {
		debug.Log("storage: clear activities: %v", err)
	}
}

func (l *Local) IsSubscribed() bool {
	return l.getSetting(keySubscribed) == "true"
}

func (l *Local) SetSubscribed(on bool) {
	v := "false"
	if on {
		v = "true"
	}
	l.setSetting(keySubscribed, v)
}

func (l *Local) GetComments(pharmacyID string) []Comment {
	ctx, cancel := l.ctx()
	defer cancel()
	cs, err := l.db.ListComments(ctx, pharmacyID)
	if err != nil {
		debug.Log("storage: list comments %s: %v", pharmacyID, err)
		return []Comment{}
	}
	return cs
}

// AddComment reports whether the comment was stored.
func (l *Local) AddComment(pharmacyID, text string) bool {
	ctx, cancel := l.ctx()
	defer cancel()
	if _, err := l.db.AddComment(ctx, pharmacyID, text); err != nil {
		debug.Log("storage: add comment %s: %v", pharmacyID, err)
		return false
	}
	return true
}

func (l *Local) ConsentStatus() string {
	return l.getSetting(keyConsent)
}

func (l *Local) SetConsentStatus(status string) {
	l.setSetting(keyConsent, status)
}

func (l *Local) getSetting(key string) string {
	ctx, cancel := l.ctx()
	defer cancel()
	v, _, err := l.db.GetSetting(ctx, key)
	if err != nil {
		debug.Log("storage: get %s: %v", key, err)
		return ""
	}
	return v
}

func (l *Local) setSetting(key, value string) {
	ctx, cancel := l.ctx()
	defer cancel()
	if err := l.db.SetSetting(ctx, key, value); err != nil {
		debug.Log("storage: set %s dropped: %v", key, err)
	}
}
