package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/wricardo/duel-lobby/game/engine"
	"github.com/wricardo/duel-lobby/game/service"
	"github.com/wricardo/duel-lobby/transport/websocket"
)

const (
	defaultStaticDir = "static"
	defaultQRSize    = 256
	maxQRSize        = 1024
)

// Pages served from the static directory by fixed path
var pages = map[string]string{
	"/":                "index.html",
	"/lobby.html":      "lobby.html",
	"/game.html":       "game.html",
	"/attributes.html": "attributes.html",
}

// Server represents the REST API server
type Server struct {
	service   service.LobbyService
	hub       *websocket.Hub
	router    *mux.Router
	logger    *zap.Logger
	staticDir string
	publicURL string
}

// Option configures the server
type Option func(*Server)

// WithStaticDir sets the directory pages and /static/ assets are served from
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.staticDir = dir
		}
	}
}

// WithPublicURL sets the base URL encoded in join QR codes.
// When empty the URL is derived from the request.
func WithPublicURL(base string) Option {
	return func(s *Server) {
		s.publicURL = strings.TrimRight(base, "/")
	}
}

// WithLogger sets the server logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new API server
func NewServer(lobbies service.LobbyService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:   lobbies,
		hub:       hub,
		router:    mux.NewRouter(),
		logger:    zap.NewNop(),
		staticDir: defaultStaticDir,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Lobby operations
	api.HandleFunc("/create_lobby", s.handleCreateLobby).Methods("POST")
	api.HandleFunc("/join_lobby/{code}", s.handleJoinLobby).Methods("POST")
	api.HandleFunc("/set_attributes/{code}/{name}", s.handleSetAttributes).Methods("POST")
	api.HandleFunc("/set_attributes/{code}", s.handleSetAttributes).Methods("POST")
	api.HandleFunc("/start_game/{code}", s.handleStartGame).Methods("POST")

	// Read views
	api.HandleFunc("/lobby/{code}", s.handleGetLobby).Methods("GET")
	api.HandleFunc("/lobby/{code}/qr.png", s.handleLobbyQR).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws/lobby/{code}", s.handleWebSocket)

	// Static files
	for path, file := range pages {
		s.router.Handle(path, s.servePage(file)).Methods("GET", "HEAD")
	}
	s.router.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))),
	)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a lobby error to its status and payload message
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, errorStatus(err), errorMessage(err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrLobbyNotFound), errors.Is(err, engine.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrLobbyFull), errors.Is(err, engine.ErrNotEnoughPlayers):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInvalidAllocation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrLobbyNotFound):
		return "Lobby not found"
	case errors.Is(err, engine.ErrLobbyFull):
		return "Lobby full"
	case errors.Is(err, engine.ErrPlayerNotFound):
		return "Player not found"
	case errors.Is(err, engine.ErrInvalidAllocation):
		return fmt.Sprintf("Attributes must sum to %d", engine.AttributeBudget)
	case errors.Is(err, engine.ErrNotEnoughPlayers):
		return "Not enough players"
	default:
		return err.Error()
	}
}

// slotsResponse is the payload of create and join
type slotsResponse struct {
	Code  string             `json:"code"`
	Slots []*engine.Occupant `json:"slots"`
}

// Lobby Handlers

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	lobby, err := s.service.CreateLobby(r.Context(), r.FormValue("name"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, slotsResponse{Code: lobby.Code, Slots: lobby.Slots})
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	lobby, err := s.service.JoinLobby(r.Context(), code, r.FormValue("name"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, slotsResponse{Code: lobby.Code, Slots: lobby.Slots})
}

// handleSetAttributes takes the player name from the path or, for names
// that cannot sit in a path segment, from the name form field
func (s *Server) handleSetAttributes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, ok := vars["name"]
	if !ok {
		name = r.FormValue("name")
	}

	attrs, err := parseAttributes(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.SetAttributes(r.Context(), vars["code"], name, attrs); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if err := s.service.StartGame(r.Context(), code); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "game started"})
}

func (s *Server) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	lobby, err := s.service.GetLobby(r.Context(), code)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lobby)
}

func (s *Server) handleLobbyQR(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	lobby, err := s.service.GetLobby(r.Context(), code)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxQRSize {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("size must be between 1 and %d", maxQRSize))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(s.joinURL(r, lobby.Code), qrcode.Medium, size)
	if err != nil {
		s.logger.Error("qr generation failed", zap.String("code", lobby.Code), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "QR generation failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WebSocket handler
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, mux.Vars(r)["code"])
}

func (s *Server) servePage(file string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.staticDir, file))
	})
}

// joinURL is the lobby page a scanned code opens
func (s *Server) joinURL(r *http.Request, code string) string {
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/lobby.html?code=" + url.QueryEscape(code)
}

// parseAttributes reads the three form-encoded allocation fields
func parseAttributes(r *http.Request) (engine.Attributes, error) {
	var attrs engine.Attributes
	fields := []struct {
		name string
		dst  *int
	}{
		{"strength", &attrs.Strength},
		{"speed", &attrs.Speed},
		{"capacity", &attrs.Capacity},
	}

	for _, f := range fields {
		raw := strings.TrimSpace(r.FormValue(f.name))
		n, err := strconv.Atoi(raw)
		if err != nil {
			return attrs, fmt.Errorf("%s must be an integer", f.name)
		}
		*f.dst = n
	}
	return attrs, nil
}
