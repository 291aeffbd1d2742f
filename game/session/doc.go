// Package session owns the single live lobby.
//
// The session package implements:
//   - Thread-safe storage of at most one lobby
//   - Random lobby code generation
//   - Wholesale replacement of the lobby on every create
//   - Serialized in-place mutation through Update
//
// Core Types:
//
// Manager holds the live *engine.Lobby behind a mutex. Every read returns a
// deep copy, so callers never share memory with the stored lobby; every write
// goes through Create or Update.
//
// Lobby Codes:
//
// Codes are 6 characters drawn from uppercase letters and digits using
// crypto/rand. Codes are not checked against earlier lobbies; only one lobby
// is live at a time, so a repeated code simply names the new lobby. Lookups
// ignore case.
//
// Usage:
//
//	manager := session.NewManager()
//
//	lobby, err := manager.Create("Host")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	lobby, err = manager.Update(lobby.Code, func(l *engine.Lobby) error {
//		_, err := l.Seat("Player")
//		return err
//	})
package session
