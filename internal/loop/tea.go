package loop

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunMsg carries a callback back into the bubbletea Update goroutine.
type RunMsg struct {
	Fn func()
}

// Tea queues commands for a bubbletea program. The model drains the
// queue at the end of each Update and executes RunMsg callbacks when
// they arrive.
type Tea struct {
	pending []tea.Cmd
}

func NewTea() *Tea {
	return &Tea{}
}

func (t *Tea) Defer(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	t.pending = append(t.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return RunMsg{Fn: fn}
	}))
}

func (t *Tea) Go(work func() func()) {
	if work == nil {
		return
	}
	t.pending = append(t.pending, func() tea.Msg {
		return RunMsg{Fn: work()}
	})
}

// Drain returns every queued command as one batch.
func (t *Tea) Drain() tea.Cmd {
	if len(t.pending) == 0 {
		return nil
	}
	cmds := t.pending
	t.pending = nil
	return tea.Batch(cmds...)
}

// Run executes a RunMsg callback. Nil callbacks are ignored.
func Run(msg RunMsg) {
	if msg.Fn != nil {
		msg.Fn()
	}
}
