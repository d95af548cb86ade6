package notify

import (
	"testing"
	"time"

	"pharmamap/internal/loop"
)

func TestQueueExpiresAfterLifetime(t *testing.T) {
	sched := loop.NewManual()
	q := NewQueue(sched)
	q.Notify("hello", Success)
	if len(q.Visible()) != 1 {
		t.Fatalf("expected visible toast")
	}
	sched.Advance(2 * time.Second)
	if len(q.Visible()) != 1 {
		t.Fatalf("toast expired early")
	}
	sched.Advance(time.Second)
	if len(q.Visible()) != 0 {
		t.Fatalf("toast should expire after %v", DefaultLifetime)
	}
}

func TestQueueCapsVisible(t *testing.T) {
	q := NewQueue(nil)
	for _, msg := range []string{"a", "b", "c", "d"} {
		q.Notify(msg, "")
	}
	got := q.Visible()
	if len(got) != MaxVisible || got[0].Text != "b" || got[2].Text != "d" {
		t.Fatalf("unexpected toasts: %#v", got)
	}
	if got[0].Kind != Info {
		t.Fatalf("empty kind should default to info")
	}
}

func TestDismissAfterEvictionIsNoop(t *testing.T) {
	sched := loop.NewManual()
	q := NewQueue(sched)
	for _, msg := range []string{"a", "b", "c", "d"} {
		q.Notify(msg, Info)
	}
	q.Notify("", Error)
	sched.Advance(DefaultLifetime)
	if len(q.Visible()) != 0 {
		t.Fatalf("expected all toasts gone")
	}
}
