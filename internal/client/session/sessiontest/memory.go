// Package sessiontest provides an in-memory session.Manager for tests.
package sessiontest

import (
	"context"
	"sync"

	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/client/session"
)

type Memory struct {
	// SetErr, when set, is returned by Set without storing anything.
	SetErr error

	mu        sync.Mutex
	current   *models.Session
	lastEmail string
	sets      int
	subs      []chan session.Event
}

var _ session.Manager = (*Memory)(nil)

func (m *Memory) Get(context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *Memory) Set(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.current = s
	m.sets++
	if s != nil && s.User.Email != "" {
		m.lastEmail = s.User.Email
	}
	m.publish(session.Event{Session: s})
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.publish(session.Event{})
	return nil
}

func (m *Memory) LastEmail(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEmail, nil
}

func (m *Memory) Subscribe() (<-chan session.Event, func()) {
	ch := make(chan session.Event, 8)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch, func() {}
}

// Sets returns how many times Set stored a session.
func (m *Memory) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func (m *Memory) publish(ev session.Event) {
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
