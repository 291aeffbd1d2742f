package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/duel-lobby/api"
	"github.com/wricardo/duel-lobby/game/engine"
	"github.com/wricardo/duel-lobby/game/registry"
	"github.com/wricardo/duel-lobby/game/service"
	"github.com/wricardo/duel-lobby/game/session"
	"github.com/wricardo/duel-lobby/transport/websocket"
)

func TestLobbyURL(t *testing.T) {
	tests := []struct {
		server  string
		code    string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "abc123", "ws://localhost:8080/ws/lobby/abc123", false},
		{"https://duel.example.com/", "ABC123", "wss://duel.example.com/ws/lobby/ABC123", false},
		{"ws://127.0.0.1:9000", "XYZ999", "ws://127.0.0.1:9000/ws/lobby/XYZ999", false},
		{"ftp://example.com", "ABC123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := lobbyURL(tt.server, tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lobbyURL error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("lobbyURL = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   registry.Event
		want string
	}{
		{
			name: "lobby update",
			ev:   registry.LobbyUpdate([]*engine.Occupant{{Name: "Host", Role: engine.RoleHost}, nil}),
			want: "lobby: [0] Host (host)  [1] empty",
		},
		{
			name: "start",
			ev:   registry.StartGame("/game.html"),
			want: "game started -> /game.html",
		},
		{
			name: "unknown",
			ev:   registry.Event{Event: "chat"},
			want: "unknown event chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEvent(tt.ev); got != tt.want {
				t.Errorf("formatEvent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWatch_PrintsUntilStart(t *testing.T) {
	reg := registry.New(nil)
	lobbies := service.NewLobbyService(session.NewManager(), reg)
	server := httptest.NewServer(api.NewServer(lobbies, websocket.NewHub(lobbies, nil)))
	defer server.Close()

	ctx := context.Background()
	info, err := lobbies.CreateLobby(ctx, "Host")
	if err != nil {
		t.Fatalf("CreateLobby failed: %v", err)
	}

	wsURL, _ := lobbyURL(server.URL, info.Code)
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, wsURL, &out)
	}()

	deadline := time.Now().Add(time.Second)
	for reg.Count(info.Code) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	lobbies.JoinLobby(ctx, info.Code, "Bob")
	if err := lobbies.StartGame(ctx, info.Code); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after start_game")
	}

	want := []string{
		"lobby: [0] Host (host)  [1] empty",
		"lobby: [0] Host (host)  [1] Bob (player)",
		"game started -> /game.html",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWatch_CancelStops(t *testing.T) {
	reg := registry.New(nil)
	lobbies := service.NewLobbyService(session.NewManager(), reg)
	server := httptest.NewServer(api.NewServer(lobbies, websocket.NewHub(lobbies, nil)))
	defer server.Close()

	wsURL, _ := lobbyURL(server.URL, "NOPE00")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, wsURL, &bytes.Buffer{})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil after cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_DialError(t *testing.T) {
	if err := watch(context.Background(), "ws://127.0.0.1:1/ws/lobby/ABC123", &bytes.Buffer{}); err == nil {
		t.Error("Expected dial error")
	}
}
