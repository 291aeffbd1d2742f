package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/wricardo/duel-lobby/game/engine"
)

// Option configures a Manager
type Option func(*Manager)

// WithCodeGenerator replaces the random lobby code generator
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(m *Manager) {
		m.generateCode = gen
	}
}

// WithClock replaces the time source used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager holds the one live lobby
type Manager struct {
	lobby        *engine.Lobby
	generateCode func() (string, error)
	now          func() time.Time
	mu           sync.RWMutex
}

// NewManager creates a manager with no lobby
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		generateCode: GenerateCode,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create replaces any existing lobby with a fresh one hosted by hostName
func (m *Manager) Create(hostName string) (*engine.Lobby, error) {
	code, err := m.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate lobby code: %w", err)
	}

	lobby := engine.NewLobby(code, hostName, m.now())

	m.mu.Lock()
	m.lobby = lobby
	m.mu.Unlock()

	return lobby.Clone(), nil
}

// Get returns a copy of the live lobby if its code matches
func (m *Manager) Get(code string) (*engine.Lobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.matches(code) {
		return nil, engine.ErrLobbyNotFound
	}
	return m.lobby.Clone(), nil
}

// Current returns a copy of the live lobby, if any
func (m *Manager) Current() (*engine.Lobby, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lobby == nil {
		return nil, false
	}
	return m.lobby.Clone(), true
}

// Update runs fn against the live lobby under the write lock.
// fn must leave the lobby untouched when it returns an error.
func (m *Manager) Update(code string, fn func(*engine.Lobby) error) (*engine.Lobby, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.matches(code) {
		return nil, engine.ErrLobbyNotFound
	}
	if err := fn(m.lobby); err != nil {
		return nil, err
	}
	return m.lobby.Clone(), nil
}

// matches must be called with the lock held
func (m *Manager) matches(code string) bool {
	return m.lobby != nil && m.lobby.Code == code
}

// GenerateCode returns a random lobby code of engine.CodeLength characters
func GenerateCode() (string, error) {
	limit := big.NewInt(int64(len(engine.CodeAlphabet)))

	code := make([]byte, engine.CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = engine.CodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
