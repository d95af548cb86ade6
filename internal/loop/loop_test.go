package loop

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestManualAdvanceFiresInOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.Defer(300*time.Millisecond, func() { got = append(got, "late") })
	m.Defer(100*time.Millisecond, func() { got = append(got, "early") })
	m.Defer(100*time.Millisecond, func() { got = append(got, "early2") })

	m.Advance(50 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("nothing should fire yet, got %v", got)
	}
	m.Advance(60 * time.Millisecond)
	if len(got) != 2 || got[0] != "early" || got[1] != "early2" {
		t.Fatalf("unexpected order: %v", got)
	}
	m.Advance(time.Second)
	if len(got) != 3 || got[2] != "late" {
		t.Fatalf("late timer missing: %v", got)
	}
}

func TestManualTimerScheduledFromTimer(t *testing.T) {
	m := NewManual()
	fired := false
	m.Defer(10*time.Millisecond, func() {
		m.Defer(10*time.Millisecond, func() { fired = true })
	})
	m.Advance(25 * time.Millisecond)
	if !fired {
		t.Fatalf("expected chained timer to fire within window")
	}
}

func TestManualFlushRunsContinuations(t *testing.T) {
	m := NewManual()
	var order []string
	m.Go(func() func() {
		order = append(order, "work")
		return func() { order = append(order, "cont") }
	})
	m.Go(func() func() { return nil })
	m.Flush()
	if len(order) != 2 || order[0] != "work" || order[1] != "cont" {
		t.Fatalf("unexpected order: %v", order)
	}
	if _, jobs := m.Pending(); jobs != 0 {
		t.Fatalf("expected empty job queue")
	}
}

func TestTeaGoProducesRunMsg(t *testing.T) {
	s := NewTea()
	ran := false
	s.Go(func() func() { return func() { ran = true } })
	cmd := s.Drain()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	var run RunMsg
	switch msg := cmd().(type) {
	case RunMsg:
		run = msg
	case tea.BatchMsg:
		if len(msg) != 1 {
			t.Fatalf("expected one command, got %d", len(msg))
		}
		run, _ = msg[0]().(RunMsg)
	default:
		t.Fatalf("unexpected message %#v", msg)
	}
	Run(run)
	if !ran {
		t.Fatalf("continuation did not run")
	}
	if s.Drain() != nil {
		t.Fatalf("queue should be empty after drain")
	}
}
