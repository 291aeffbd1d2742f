// Package api provides HTTP REST API handlers for the duel lobby.
//
// Endpoints:
//
// Lobby Operations:
//   - POST /api/create_lobby - Create the lobby (form/query "name", default Host)
//   - POST /api/join_lobby/{code} - Take the first empty slot (form/query "name", default Player)
//   - POST /api/set_attributes/{code}/{name} - Assign strength/speed/capacity (form integers)
//   - POST /api/start_game/{code} - Broadcast start_game once every slot is filled
//
// Read Views:
//   - GET /api/lobby/{code} - Code, slots, derived phase and player roster
//   - GET /api/lobby/{code}/qr.png?size=N - PNG QR code of the join page
//   - GET /api/health - Liveness probe
//
// WebSocket:
//   - GET /ws/lobby/{code} - lobby_update and start_game event stream
//
// Static Pages:
//   - /, /lobby.html, /game.html, /attributes.html and /static/* from the static directory
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status derived from the error kind:
//
//	404 {"error": "Lobby not found"}     unknown or replaced code
//	404 {"error": "Player not found"}    set_attributes for an unknown name
//	409 {"error": "Lobby full"}          join with no empty slot
//	409 {"error": "Not enough players"}  start with an empty slot
//	422 {"error": "Attributes must sum to 10"}
//	400 {"error": "strength must be an integer"}
//
// Usage:
//
//	hub := websocket.NewHub(lobbies, logger)
//	server := api.NewServer(lobbies, hub, api.WithStaticDir("static"))
//	http.ListenAndServe(":8080", server)
package api
