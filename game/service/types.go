package service

import (
	"time"

	"github.com/wricardo/duel-lobby/game/engine"
)

// LobbyInfo is the public view of the live lobby
type LobbyInfo struct {
	Code      string             `json:"code"`
	Slots     []*engine.Occupant `json:"slots"`
	Phase     engine.Phase       `json:"phase"`
	Players   []*engine.Player   `json:"players,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

func newLobbyInfo(l *engine.Lobby) *LobbyInfo {
	players := make([]*engine.Player, 0, len(l.Players))
	for _, p := range l.Players {
		if p != nil {
			players = append(players, p)
		}
	}

	return &LobbyInfo{
		Code:      l.Code,
		Slots:     l.Snapshot(),
		Phase:     l.Phase(),
		Players:   players,
		CreatedAt: l.CreatedAt,
	}
}
