// Package registry tracks live lobby subscribers and fans events out to them.
//
// Subscribers are grouped by the lobby code they attached under. Broadcast
// doubles as the liveness sweep: a subscriber whose Send fails is removed and
// closed in the same pass, and the failure never reaches the caller.
package registry

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/duel-lobby/game/engine"
)

const (
	EventLobbyUpdate = "lobby_update"
	EventStartGame   = "start_game"
)

// Event is the payload pushed to subscribers
type Event struct {
	Event    string             `json:"event"`
	Slots    []*engine.Occupant `json:"slots,omitempty"`
	Redirect string             `json:"redirect,omitempty"`
}

// LobbyUpdate builds a lobby_update event carrying the slots snapshot
func LobbyUpdate(slots []*engine.Occupant) Event {
	return Event{Event: EventLobbyUpdate, Slots: slots}
}

// StartGame builds a start_game event pointing clients at redirect
func StartGame(redirect string) Event {
	return Event{Event: EventStartGame, Redirect: redirect}
}

// Subscriber is a long-lived connection that receives events.
// Send must not block; an error marks the subscriber as dead.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close()
}

// Registry maintains the set of live subscribers
type Registry struct {
	// Subscribers by lobby code
	lobbies map[string]map[Subscriber]bool

	logger *zap.Logger
	mu     sync.Mutex
}

// New creates an empty registry
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		lobbies: make(map[string]map[Subscriber]bool),
		logger:  logger,
	}
}

// Subscribe adds sub under code and pushes initial to it when non-nil.
// A failed initial push evicts the subscriber right away.
func (r *Registry) Subscribe(code string, sub Subscriber, initial *Event) {
	var data []byte
	if initial != nil {
		var err error
		data, err = json.Marshal(initial)
		if err != nil {
			r.logger.Error("failed to marshal initial event", zap.String("code", code), zap.Error(err))
			data = nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lobbies[code] == nil {
		r.lobbies[code] = make(map[Subscriber]bool)
	}
	r.lobbies[code][sub] = true

	r.logger.Debug("subscriber registered",
		zap.String("code", code),
		zap.String("subscriber", sub.ID()),
		zap.Int("subscribers", len(r.lobbies[code])))

	if data == nil {
		return
	}
	if err := sub.Send(data); err != nil {
		r.evict(code, sub, err)
	}
}

// Unsubscribe removes sub from code. Removing an absent subscriber is a no-op.
func (r *Registry) Unsubscribe(code string, sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remove(code, sub) {
		r.logger.Debug("subscriber unregistered",
			zap.String("code", code),
			zap.String("subscriber", sub.ID()),
			zap.Int("subscribers", len(r.lobbies[code])))
	}
}

// Broadcast pushes ev to every subscriber of code and returns how many
// accepted it. Subscribers that fail are evicted during the sweep.
func (r *Registry) Broadcast(code string, ev Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("failed to marshal broadcast event", zap.String("code", code), zap.Error(err))
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for sub := range r.lobbies[code] {
		if err := sub.Send(data); err != nil {
			r.evict(code, sub, err)
			continue
		}
		delivered++
	}
	return delivered
}

// Count returns the number of subscribers attached under code
func (r *Registry) Count(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies[code])
}

// Total returns the number of subscribers across all codes
func (r *Registry) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, subs := range r.lobbies {
		total += len(subs)
	}
	return total
}

// evict must be called with the lock held
func (r *Registry) evict(code string, sub Subscriber, cause error) {
	if r.remove(code, sub) {
		r.logger.Debug("subscriber evicted",
			zap.String("code", code),
			zap.String("subscriber", sub.ID()),
			zap.Error(cause))
	}
}

// remove must be called with the lock held
func (r *Registry) remove(code string, sub Subscriber) bool {
	subs, ok := r.lobbies[code]
	if !ok || !subs[sub] {
		return false
	}

	delete(subs, sub)
	sub.Close()

	// Clean up empty lobbies
	if len(subs) == 0 {
		delete(r.lobbies, code)
	}
	return true
}
