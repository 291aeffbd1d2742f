// Command watch follows a lobby from the terminal. It subscribes to the
// lobby's WebSocket, prints every slot update and exits once the game starts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/duel-lobby/game/registry"
)

func main() {
	cmd := &cli.Command{
		Name:      "watch",
		Usage:     "Print live lobby updates until the game starts",
		ArgsUsage: "<code>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", Usage: "Lobby server base URL"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			code := cmd.Args().First()
			if code == "" {
				return errors.New("lobby code is required")
			}

			wsURL, err := lobbyURL(cmd.String("server"), code)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, wsURL, os.Stdout)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}
}

// lobbyURL turns an http(s) server URL into the lobby's WebSocket URL
func lobbyURL(server, code string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/ws/lobby/" + url.PathEscape(code)
	return u.String(), nil
}

// watch prints events from wsURL to out. It returns nil after start_game or
// when ctx is cancelled.
func watch(ctx context.Context, wsURL string, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		}

		var ev registry.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			fmt.Fprintf(out, "unreadable event: %s\n", message)
			continue
		}

		fmt.Fprintln(out, formatEvent(ev))
		if ev.Event == registry.EventStartGame {
			return nil
		}
	}
}

func formatEvent(ev registry.Event) string {
	switch ev.Event {
	case registry.EventLobbyUpdate:
		parts := make([]string, len(ev.Slots))
		for i, slot := range ev.Slots {
			if slot == nil {
				parts[i] = fmt.Sprintf("[%d] empty", i)
				continue
			}
			parts[i] = fmt.Sprintf("[%d] %s (%s)", i, slot.Name, slot.Role)
		}
		return "lobby: " + strings.Join(parts, "  ")
	case registry.EventStartGame:
		return "game started -> " + ev.Redirect
	default:
		return "unknown event " + ev.Event
	}
}
