// Package loop models the single UI event loop: deferred callbacks and
// background work whose continuation runs back on the loop.
package loop

import (
	"sort"
	"time"
)

// Scheduler is the only way core code leaves the current dispatch.
type Scheduler interface {
	// Defer runs fn on the loop once d has elapsed.
	Defer(d time.Duration, fn func())
	// Go runs work off the loop. The returned continuation, if any, runs
	// on the loop.
	Go(work func() func())
}

// Manual is a Scheduler driven by hand. Timers fire on Advance and
// background work runs on Flush, both on the caller's goroutine.
type Manual struct {
	now    time.Duration
	timers []timer
	jobs   []func() func()
	seq    int
}

type timer struct {
	at  time.Duration
	seq int
	fn  func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Defer(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	m.seq++
	m.timers = append(m.timers, timer{at: m.now + d, seq: m.seq, fn: fn})
}

func (m *Manual) Go(work func() func()) {
	if work == nil {
		return
	}
	m.jobs = append(m.jobs, work)
}

// Pending reports queued timers and jobs.
func (m *Manual) Pending() (timers, jobs int) {
	return len(m.timers), len(m.jobs)
}

// Advance moves the clock forward and fires every timer due, in order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		idx := m.nextDue(target)
		if idx < 0 {
			break
		}
		t := m.timers[idx]
		m.timers = append(m.timers[:idx], m.timers[idx+1:]...)
		m.now = t.at
		t.fn()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Duration) int {
	if len(m.timers) == 0 {
		return -1
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at == m.timers[j].at {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at < m.timers[j].at
	})
	if m.timers[0].at > target {
		return -1
	}
	return 0
}

// Flush runs queued jobs and their continuations until none remain.
func (m *Manual) Flush() {
	for len(m.jobs) > 0 {
		work := m.jobs[0]
		m.jobs = m.jobs[1:]
		if next := work(); next != nil {
			next()
		}
	}
}

// TakeJobs removes queued jobs without running them so a test can
// complete them out of order.
func (m *Manual) TakeJobs() []func() func() {
	jobs := m.jobs
	m.jobs = nil
	return jobs
}
