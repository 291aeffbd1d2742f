// Package engine provides the lobby data model and its rules.
//
// The engine package implements:
//   - Fixed-size slot layout with the host seated in slot 0
//   - Player records with hit points, attribute allocation and readiness
//   - Attribute budget validation
//   - First-empty-slot seating
//   - Derived lobby phases
//
// Core Types:
//
// Lobby holds the code, the ordered slots and the player roster of the one
// live session. Occupant is what clients see in a slot; Player is the full
// per-player record kept next to it. Lobby is not safe for concurrent use;
// callers (game/session) serialize access.
//
// Usage:
//
//	lobby := engine.NewLobby("AB12CD", "Host", time.Now())
//	idx, err := lobby.Seat("Player")
//	if errors.Is(err, engine.ErrLobbyFull) {
//		// every slot is taken
//	}
//
//	p, _ := lobby.Player("Player")
//	err = p.Assign(engine.Attributes{Strength: 4, Speed: 3, Capacity: 3})
package engine
