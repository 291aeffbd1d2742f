package engine

import "errors"

var (
	ErrLobbyNotFound     = errors.New("lobby not found")
	ErrLobbyFull         = errors.New("lobby full")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidAllocation = errors.New("attributes must sum to 10")
	ErrNotEnoughPlayers  = errors.New("not enough players")
)
