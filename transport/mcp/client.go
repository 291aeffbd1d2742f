package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/duel-lobby/game/engine"
	"github.com/wricardo/duel-lobby/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Duel Lobby",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Duel Lobby - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A single two-seat lobby exists at a time. Slot 0 is the host, slot 1 the
challenger. Creating a lobby replaces the previous one.

FLOW:
1. create_lobby - returns the 6-character lobby code
2. join_lobby - takes the first empty slot (fails when the lobby is full)
3. set_attributes - each player spends exactly 10 points across
   strength, speed and capacity
4. start_game - needs both slots filled; readiness is not checked

AVAILABLE TOOLS:
- create_lobby, join_lobby, set_attributes, start_game, get_lobby`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	codeProperty := map[string]interface{}{
		"type":        "string",
		"description": "Lobby code returned by create_lobby",
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_lobby",
		Description: "Create a new lobby, replacing any existing one. The caller becomes the host in slot 0.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Host display name (default Host)",
				},
			},
		},
	}, c.handleCreateLobby)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_lobby",
		Description: "Join the lobby in the first empty slot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": codeProperty,
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Player display name (default Player)",
				},
			},
			Required: []string{"code"},
		},
	}, c.handleJoinLobby)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_attributes",
		Description: fmt.Sprintf("Assign a player's attributes. Strength, speed and capacity must sum to %d.", engine.AttributeBudget),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": codeProperty,
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name of a player already in the lobby",
				},
				"strength": map[string]interface{}{
					"type":        "integer",
					"description": "Points in strength",
				},
				"speed": map[string]interface{}{
					"type":        "integer",
					"description": "Points in speed",
				},
				"capacity": map[string]interface{}{
					"type":        "integer",
					"description": "Points in capacity",
				},
			},
			Required: []string{"code", "name", "strength", "speed", "capacity"},
		},
	}, c.handleSetAttributes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start the game once every slot is filled; connected clients are redirected",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": codeProperty,
			},
			Required: []string{"code"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_lobby",
		Description: "Show the lobby's slots, phase and player attributes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": codeProperty,
			},
			Required: []string{"code"},
		},
	}, c.handleGetLobby)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler serves single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, form url.Values, result interface{}) error {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	name, _ := args["name"].(string)

	form := url.Values{}
	if name != "" {
		form.Set("name", name)
	}

	var lobby service.LobbyInfo
	if err := c.apiCall(ctx, "POST", "/api/create_lobby", form, &lobby); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created lobby: %s\n\n%s", lobby.Code, formatSlots(lobby.Slots))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleJoinLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	code, _ := args["code"].(string)
	name, _ := args["name"].(string)

	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	form := url.Values{}
	if name != "" {
		form.Set("name", name)
	}

	var lobby service.LobbyInfo
	if err := c.apiCall(ctx, "POST", "/api/join_lobby/"+url.PathEscape(code), form, &lobby); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Joined lobby %s\n\n%s", lobby.Code, formatSlots(lobby.Slots))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSetAttributes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	code, _ := args["code"].(string)
	name, _ := args["name"].(string)

	if code == "" || name == "" {
		return mcp.NewToolResultError("code and name are required"), nil
	}

	form := url.Values{"name": {name}}
	for _, key := range []string{"strength", "speed", "capacity"} {
		n, err := intArg(args, key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		form.Set(key, strconv.Itoa(n))
	}

	if err := c.apiCall(ctx, "POST", "/api/set_attributes/"+url.PathEscape(code), form, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s is ready: strength %s, speed %s, capacity %s",
		name, form.Get("strength"), form.Get("speed"), form.Get("capacity"))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	code, _ := args["code"].(string)

	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	if err := c.apiCall(ctx, "POST", "/api/start_game/"+url.PathEscape(code), url.Values{}, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Game started in lobby %s", code)), nil
}

func (c *Client) handleGetLobby(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	code, _ := args["code"].(string)

	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	var lobby service.LobbyInfo
	if err := c.apiCall(ctx, "GET", "/api/lobby/"+url.PathEscape(code), nil, &lobby); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLobby(&lobby)), nil
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func formatSlots(slots []*engine.Occupant) string {
	var b strings.Builder
	for i, slot := range slots {
		if slot == nil {
			fmt.Fprintf(&b, "Slot %d: <empty>\n", i)
			continue
		}
		fmt.Fprintf(&b, "Slot %d: %s (%s)\n", i, slot.Name, slot.Role)
	}
	return b.String()
}

func formatLobby(lobby *service.LobbyInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lobby %s (%s)\n\n", lobby.Code, lobby.Phase)
	b.WriteString(formatSlots(lobby.Slots))

	if len(lobby.Players) > 0 {
		b.WriteString("\nPlayers:\n")
		for _, p := range lobby.Players {
			status := "assigning"
			if p.Ready {
				status = "ready"
			}
			fmt.Fprintf(&b, "- %s: HP %d, STR %d, SPD %d, CAP %d [%s]\n",
				p.Name, p.HitPoints, p.Attributes.Strength, p.Attributes.Speed, p.Attributes.Capacity, status)
		}
	}
	return b.String()
}
