// Package mcp exposes the duel lobby as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, so agents and browsers share the same lobby and the same
// WebSocket broadcasts.
//
// MCP Tools:
//   - create_lobby: Create the lobby, replacing any existing one
//   - join_lobby: Take the first empty slot
//   - set_attributes: Spend the attribute budget for one player
//   - start_game: Redirect connected clients once both slots are filled
//   - get_lobby: Slots, phase and player roster
//
// REST errors come back as tool errors carrying the API's message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	mux.Handle("/mcp", client.HTTPHandler())
package mcp
