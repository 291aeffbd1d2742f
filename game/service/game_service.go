package service

import (
	"context"

	"github.com/wricardo/duel-lobby/game/engine"
	"github.com/wricardo/duel-lobby/game/registry"
)

// DefaultRedirect is where start_game sends clients unless configured otherwise
const DefaultRedirect = "/game.html"

// LobbyService defines all lobby operations
type LobbyService interface {
	// Lobby lifecycle
	CreateLobby(ctx context.Context, hostName string) (*LobbyInfo, error)
	JoinLobby(ctx context.Context, code, name string) (*LobbyInfo, error)
	GetLobby(ctx context.Context, code string) (*LobbyInfo, error)

	// Pre-game
	SetAttributes(ctx context.Context, code, name string, attrs engine.Attributes) error
	StartGame(ctx context.Context, code string) error

	// Live connections
	Attach(ctx context.Context, code string, sub registry.Subscriber) error
	Detach(code string, sub registry.Subscriber)
}

// SessionManager defines lobby storage operations
type SessionManager interface {
	Create(hostName string) (*engine.Lobby, error)
	Get(code string) (*engine.Lobby, error)
	Current() (*engine.Lobby, bool)
	Update(code string, fn func(*engine.Lobby) error) (*engine.Lobby, error)
}

// Registry defines subscriber fan-out operations
type Registry interface {
	Subscribe(code string, sub registry.Subscriber, initial *registry.Event)
	Unsubscribe(code string, sub registry.Subscriber)
	Broadcast(code string, ev registry.Event) int
}
