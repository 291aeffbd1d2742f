// Command duel-lobby runs the two-player duel lobby server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, the lobby WebSocket, static pages and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (and an optional .env file); flags
// override them. An ngrok tunnel can expose the server for phones on other
// networks during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/duel-lobby/api"
	"github.com/wricardo/duel-lobby/config"
	"github.com/wricardo/duel-lobby/game/registry"
	"github.com/wricardo/duel-lobby/game/service"
	"github.com/wricardo/duel-lobby/game/session"
	"github.com/wricardo/duel-lobby/transport/mcp"
	"github.com/wricardo/duel-lobby/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "duel-lobby"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newApp builds the command tree; serve is the default action
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "Two-player duel lobby with live WebSocket updates",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (DUEL_HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (DUEL_PORT)"},
			&cli.StringFlag{Name: "static-dir", Usage: "Directory with lobby pages (DUEL_STATIC_DIR)"},
			&cli.StringFlag{Name: "start-redirect", Usage: "Page clients open on start_game (DUEL_START_REDIRECT)"},
			&cli.StringFlag{Name: "public-url", Usage: "Base URL encoded in join QR codes (DUEL_PUBLIC_URL)"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging (DUEL_DEBUG)"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (NGROK_ENABLED)"},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (NGROK_DOMAIN)"},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with API, WebSocket and MCP endpoint",
				Action: serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp"},
				Usage:   "Run an MCP stdio server backed by the HTTP API",
				Action:  mcpAction,
			},
		},
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServer(ctx, cfg, logger)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return runStdioMCP(ctx, cfg, logger)
}

func setup(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// loadConfig reads the environment and applies any flags that were set
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("static-dir") {
		cfg.StaticDir = cmd.String("static-dir")
	}
	if cmd.IsSet("start-redirect") {
		cfg.StartRedirect = cmd.String("start-redirect")
	}
	if cmd.IsSet("public-url") {
		cfg.PublicURL = cmd.String("public-url")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newHandler wires the lobby services behind the API router and mounts /mcp
// pointing back at baseURL.
func newHandler(cfg *config.Config, baseURL string, logger *zap.Logger) http.Handler {
	reg := registry.New(logger.Named("registry"))
	lobbies := service.NewLobbyService(
		session.NewManager(),
		reg,
		service.WithRedirect(cfg.StartRedirect),
		service.WithLogger(logger.Named("lobby")),
	)
	hub := websocket.NewHub(lobbies, logger.Named("websocket"))

	apiServer := api.NewServer(lobbies, hub,
		api.WithStaticDir(cfg.StaticDir),
		api.WithPublicURL(cfg.PublicURL),
		api.WithLogger(logger.Named("api")),
	)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcpClient.HTTPHandler())
	return mainRouter
}

// runServer serves HTTP (and the ngrok tunnel when enabled) until ctx is done
func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}
	addr := listener.Addr().String()

	handler := newHandler(cfg, "http://"+addr, logger)
	httpServer := &http.Server{
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws/lobby/<code>"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Ngrok.Enabled {
		g.Go(func() error {
			return runNgrok(gctx, cfg.Ngrok, handler, logger.Named("ngrok"))
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// runNgrok exposes handler through an ngrok tunnel until ctx is done.
// A missing auth token disables the tunnel without stopping the server.
func runNgrok(ctx context.Context, cfg config.Ngrok, handler http.Handler, logger *zap.Logger) error {
	if cfg.AuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	logger.Info("ngrok tunnel established",
		zap.String("url", tun.URL()),
		zap.String("lobby", tun.URL()+"/lobby.html"))

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
	return nil
}

// runStdioMCP runs an MCP stdio server.
// It reuses an API already listening on the configured address; otherwise it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	baseURL := "http://" + cfg.Addr()

	if apiAvailable(ctx, baseURL) {
		logger.Info("using external API server", zap.String("url", baseURL))
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		httpServer := &http.Server{Handler: newHandler(cfg, baseURL, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		logger.Info("started internal API server", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a lobby API answers its health check at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
