// Package websocket provides the live lobby channel.
//
// The websocket package implements:
//   - Upgrading /ws/lobby/{code} requests with gorilla/websocket
//   - A Client per connection that satisfies registry.Subscriber
//   - Read and write pumps with ping/pong keepalive
//
// Architecture:
//
// The Hub owns no subscriber state of its own. Each upgraded connection is
// wrapped in a Client and attached to the lobby service, which registers it
// in the registry and pushes the current slots. The registry later calls
// Client.Send for every broadcast; Send only enqueues, so a stalled peer
// shows up as a full queue and is evicted on that broadcast.
//
// Message Protocol:
//
// Outgoing frames are single JSON events:
//   - {"event":"lobby_update","slots":[{"name":"Host","role":"host"},null]}
//   - {"event":"start_game","redirect":"/game.html"}
//
// Incoming frames are read and discarded; they only keep the connection
// alive. A read error or close frame detaches the client.
//
// Usage:
//
//	hub := websocket.NewHub(lobbyService, logger)
//	router.HandleFunc("/ws/lobby/{code}", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, mux.Vars(r)["code"])
//	})
package websocket
