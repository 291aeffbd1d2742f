package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/duel-lobby/game/engine"
	"github.com/wricardo/duel-lobby/game/registry"
)

// Option configures the lobby service
type Option func(*lobbyServiceImpl)

// WithRedirect sets the target carried by start_game events
func WithRedirect(path string) Option {
	return func(s *lobbyServiceImpl) {
		if path != "" {
			s.redirect = path
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *lobbyServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// lobbyServiceImpl implements the LobbyService interface
type lobbyServiceImpl struct {
	sessions SessionManager
	registry Registry
	redirect string
	logger   *zap.Logger

	// Serializes mutations with their broadcasts and with Attach
	mu sync.Mutex
}

// NewLobbyService creates a new lobby service instance
func NewLobbyService(sessions SessionManager, reg Registry, opts ...Option) LobbyService {
	s := &lobbyServiceImpl{
		sessions: sessions,
		registry: reg,
		redirect: DefaultRedirect,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLobby replaces any existing lobby with a new one
func (s *lobbyServiceImpl) CreateLobby(ctx context.Context, hostName string) (*LobbyInfo, error) {
	hostName = normalizeName(hostName, engine.DefaultHostName)

	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, err := s.sessions.Create(hostName)
	if err != nil {
		return nil, fmt.Errorf("failed to create lobby: %w", err)
	}

	s.logger.Info("lobby created", zap.String("code", lobby.Code), zap.String("host", hostName))
	s.broadcastSlots(lobby)

	return newLobbyInfo(lobby), nil
}

// JoinLobby seats a player in the first empty slot
func (s *lobbyServiceImpl) JoinLobby(ctx context.Context, code, name string) (*LobbyInfo, error) {
	name = normalizeName(name, engine.DefaultPlayerName)

	s.mu.Lock()
	defer s.mu.Unlock()

	slot := -1
	lobby, err := s.sessions.Update(code, func(l *engine.Lobby) error {
		idx, err := l.Seat(name)
		slot = idx
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player joined",
		zap.String("code", lobby.Code),
		zap.String("name", name),
		zap.Int("slot", slot))
	s.broadcastSlots(lobby)

	return newLobbyInfo(lobby), nil
}

// GetLobby returns the live lobby if the code matches
func (s *lobbyServiceImpl) GetLobby(ctx context.Context, code string) (*LobbyInfo, error) {
	lobby, err := s.sessions.Get(code)
	if err != nil {
		return nil, err
	}
	return newLobbyInfo(lobby), nil
}

// SetAttributes records a player's allocation and marks them ready
func (s *lobbyServiceImpl) SetAttributes(ctx context.Context, code, name string, attrs engine.Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.sessions.Update(code, func(l *engine.Lobby) error {
		p, ok := l.Player(name)
		if !ok {
			return engine.ErrPlayerNotFound
		}
		return p.Assign(attrs)
	})
	if err != nil {
		return err
	}

	s.logger.Info("attributes assigned",
		zap.String("code", code),
		zap.String("name", name),
		zap.Int("strength", attrs.Strength),
		zap.Int("speed", attrs.Speed),
		zap.Int("capacity", attrs.Capacity))
	return nil
}

// StartGame tells every subscriber to move on once all slots are filled.
// Player readiness is not checked and no lobby state changes.
func (s *lobbyServiceImpl) StartGame(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, err := s.sessions.Get(code)
	if err != nil {
		return err
	}
	if !lobby.IsFull() {
		return engine.ErrNotEnoughPlayers
	}

	delivered := s.registry.Broadcast(lobby.Code, registry.StartGame(s.redirect))
	s.logger.Info("game started",
		zap.String("code", lobby.Code),
		zap.Int("subscribers", delivered))
	return nil
}

// Attach registers sub under code and sends it the current slots when the
// code names the live lobby. Unknown codes still register; such a
// subscriber only hears about a later lobby that reuses the code.
func (s *lobbyServiceImpl) Attach(ctx context.Context, code string, sub registry.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var initial *registry.Event
	if lobby, err := s.sessions.Get(code); err == nil {
		ev := registry.LobbyUpdate(lobby.Snapshot())
		initial = &ev
	}

	s.registry.Subscribe(code, sub, initial)
	return nil
}

// Detach removes sub; calling it more than once is harmless
func (s *lobbyServiceImpl) Detach(code string, sub registry.Subscriber) {
	s.registry.Unsubscribe(code, sub)
}

// broadcastSlots must be called with s.mu held
func (s *lobbyServiceImpl) broadcastSlots(lobby *engine.Lobby) {
	delivered := s.registry.Broadcast(lobby.Code, registry.LobbyUpdate(lobby.Snapshot()))
	s.logger.Debug("lobby update broadcast",
		zap.String("code", lobby.Code),
		zap.Int("subscribers", delivered))
}

func normalizeName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return name
}
