// Package service provides the lobby coordinator.
//
// The service package implements:
//   - Lobby creation, joining, attribute assignment and game start
//   - Subscriber attach/detach with an immediate snapshot
//   - Serialization of every mutation together with the broadcast it triggers
//
// Core Interfaces:
//
// LobbyService is the main service interface used by the transport layers
// (REST, WebSocket, MCP). SessionManager stores the single live lobby and
// Registry fans events out to attached subscribers; both are satisfied by
// game/session.Manager and game/registry.Registry.
//
// Architecture:
//
// The service sits between the transports and the lobby model. It holds one
// mutex for the whole coordinator: a join's slot scan and occupation, the
// lobby_update that follows it and any concurrent Attach are ordered, so a
// subscriber never sees an older snapshot after a newer one and two joins
// racing for the last slot cannot both succeed.
//
// Usage:
//
//	lobbies := service.NewLobbyService(session.NewManager(), registry.New(logger))
//
//	info, err := lobbies.CreateLobby(ctx, "Host")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, err = lobbies.JoinLobby(ctx, info.Code, "Player")
//	err = lobbies.StartGame(ctx, info.Code)
//
// Readiness:
//
// StartGame only requires every slot to be occupied. Attribute assignment is
// tracked per player but is not a start precondition.
package service
