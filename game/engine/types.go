package engine

import "time"

// Role identifies how a participant entered the lobby
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

const (
	// Lobby layout
	SlotCount = 2

	// Player defaults
	StartingHitPoints = 10
	AttributeBudget   = 10

	// Lobby codes
	CodeLength   = 6
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultHostName   = "Host"
	DefaultPlayerName = "Player"
)

// Phase is the lobby state derived from its slots and players
type Phase string

const (
	PhaseEmpty               Phase = "empty"
	PhaseOpen                Phase = "open"
	PhaseFull                Phase = "full"
	PhaseAttributeAssignment Phase = "attribute_assignment"
)

// Occupant is the public view of a filled slot
type Occupant struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Attributes is a player's stat allocation
type Attributes struct {
	Strength int `json:"strength"`
	Speed    int `json:"speed"`
	Capacity int `json:"capacity"`
}

// Player is the mutable per-player record
type Player struct {
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	HitPoints  int        `json:"hit_points"`
	Attributes Attributes `json:"attributes"`
	Ready      bool       `json:"ready"`
}

// Lobby is the authoritative state of the live session.
// Players[i] belongs to the occupant of Slots[i] and is nil for empty slots.
type Lobby struct {
	Code      string      `json:"code"`
	Slots     []*Occupant `json:"slots"`
	Players   []*Player   `json:"players"`
	CreatedAt time.Time   `json:"created_at"`
}
