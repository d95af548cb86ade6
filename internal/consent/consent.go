// Package consent gates location lookups behind an explicit user answer
// that is remembered across sessions.
package consent

import (
	"pharmamap/internal/debug"
	"pharmamap/internal/notify"
)

type Status string

const (
	Unknown Status = ""
	Granted Status = "granted"
	Denied  Status = "denied"
)

// Store persists the answer.
type Store interface {
	ConsentStatus() string
	SetConsentStatus(status string)
}

// Manager holds at most one pending action waiting for an answer.
type Manager struct {
	store    Store
	notifier notify.Notifier
	status   Status
	pending  func()
	asking   bool
}

func NewManager(store Store, notifier notify.Notifier) *Manager {
	m := &Manager{store: store, notifier: notifier}
	if store != nil {
		m.status = Status(store.ConsentStatus())
	}
	return m
}

func (m *Manager) Status() Status {
	return m.status
}

func (m *Manager) HasConsent() bool {
	return m.status == Granted
}

// RequestConsent runs onGranted immediately when consent exists. Otherwise
// it parks onGranted and raises the prompt; a later request replaces the
// parked action.
func (m *Manager) RequestConsent(onGranted func()) {
	if m.HasConsent() {
		if onGranted != nil {
			onGranted()
		}
		return
	}
	m.pending = onGranted
	m.asking = true
	debug.Log("consent: prompt raised (status %q)", m.status)
}

// Asking reports whether the prompt should be visible.
func (m *Manager) Asking() bool {
	return m.asking
}

func (m *Manager) Accept() {
	m.setStatus(Granted)
	m.asking = false
	action := m.pending
	m.pending = nil
	if action != nil {
		action()
	}
}

func (m *Manager) Decline() {
	m.setStatus(Denied)
	m.asking = false
	m.pending = nil
	if m.notifier != nil {
		m.notifier.Notify("위치 정보 사용에 동의하지 않으셨습니다.", notify.Warning)
	}
}

// Reset forgets the stored answer.
func (m *Manager) Reset() {
	m.setStatus(Unknown)
}

func (m *Manager) setStatus(s Status) {
	m.status = s
	if m.store != nil {
		m.store.SetConsentStatus(string(s))
	}
}
