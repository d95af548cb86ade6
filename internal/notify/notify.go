// Package notify provides short-lived toast notifications.
package notify

import (
	"time"

	"pharmamap/internal/loop"
)

type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

const (
	DefaultLifetime = 3 * time.Second
	MaxVisible      = 3
)

// Notifier accepts fire-and-forget user messages.
type Notifier interface {
	Notify(msg string, kind Kind)
}

type Toast struct {
	ID   int
	Text string
	Kind Kind
}

// Queue keeps the visible toasts, newest last. Each toast expires after
// Lifetime through the scheduler.
type Queue struct {
	Lifetime time.Duration
	sched    loop.Scheduler
	toasts   []Toast
	nextID   int
}

func NewQueue(sched loop.Scheduler) *Queue {
	return &Queue{Lifetime: DefaultLifetime, sched: sched}
}

func (q *Queue) Notify(msg string, kind Kind) {
	if msg == "" {
		return
	}
	if kind == "" {
		kind = Info
	}
	q.nextID++
	t := Toast{ID: q.nextID, Text: msg, Kind: kind}
	q.toasts = append(q.toasts, t)
	if len(q.toasts) > MaxVisible {
		q.toasts = q.toasts[len(q.toasts)-MaxVisible:]
	}
	if q.sched != nil {
		id := t.ID
		q.sched.Defer(q.Lifetime, func() { q.Dismiss(id) })
	}
}

// Dismiss removes a toast. Unknown ids are ignored.
func (q *Queue) Dismiss(id int) {
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return
		}
	}
}

func (q *Queue) Visible() []Toast {
	out := make([]Toast, len(q.toasts))
	copy(out, q.toasts)
	return out
}

// Recorder collects notifications in memory.
type Recorder struct {
	Messages []Toast
}

func (r *Recorder) Notify(msg string, kind Kind) {
	r.Messages = append(r.Messages, Toast{ID: len(r.Messages) + 1, Text: msg, Kind: kind})
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Toast, bool) {
	if len(r.Messages) == 0 {
		return Toast{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}
