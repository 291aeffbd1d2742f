package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/wricardo/duel-lobby/game/engine"
)

// fakeSubscriber records pushes and can be told to fail
type fakeSubscriber struct {
	id       string
	mu       sync.Mutex
	messages [][]byte
	fail     bool
	closed   int
}

func newFake(id string) *fakeSubscriber {
	return &fakeSubscriber{id: id}
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection reset")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeSubscriber) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeSubscriber) events(t *testing.T) []Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]Event, 0, len(f.messages))
	for _, m := range f.messages {
		var ev Event
		if err := json.Unmarshal(m, &ev); err != nil {
			t.Fatalf("Failed to unmarshal event: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func hostSlots() []*engine.Occupant {
	return []*engine.Occupant{{Name: "Host", Role: engine.RoleHost}, nil}
}

func TestNew(t *testing.T) {
	r := New(nil)
	if r == nil {
		t.Fatal("New() returned nil")
	}
	if r.lobbies == nil {
		t.Error("Registry lobbies map is nil")
	}
	if r.logger == nil {
		t.Error("Registry logger should default to a no-op logger")
	}
}

func TestSubscribe_PushesInitialSnapshot(t *testing.T) {
	r := New(nil)
	sub := newFake("a")

	initial := LobbyUpdate(hostSlots())
	r.Subscribe("CODE01", sub, &initial)

	events := sub.events(t)
	if len(events) != 1 {
		t.Fatalf("Expected 1 initial event, got %d", len(events))
	}
	if events[0].Event != EventLobbyUpdate {
		t.Errorf("Expected %s, got %s", EventLobbyUpdate, events[0].Event)
	}
	if len(events[0].Slots) != 2 || events[0].Slots[0].Name != "Host" || events[0].Slots[1] != nil {
		t.Errorf("Unexpected slots %+v", events[0].Slots)
	}
	if r.Count("CODE01") != 1 {
		t.Errorf("Expected 1 subscriber, got %d", r.Count("CODE01"))
	}
}

func TestSubscribe_WithoutInitial(t *testing.T) {
	r := New(nil)
	sub := newFake("a")

	r.Subscribe("CODE01", sub, nil)

	if len(sub.events(t)) != 0 {
		t.Error("No event expected without an initial snapshot")
	}
	if r.Count("CODE01") != 1 {
		t.Errorf("Expected subscriber to be registered, got %d", r.Count("CODE01"))
	}
}

func TestSubscribe_FailedInitialPushEvicts(t *testing.T) {
	r := New(nil)
	sub := newFake("a")
	sub.setFail(true)

	initial := LobbyUpdate(hostSlots())
	r.Subscribe("CODE01", sub, &initial)

	if r.Count("CODE01") != 0 {
		t.Errorf("Dead subscriber should be evicted, got %d", r.Count("CODE01"))
	}
	if sub.closed != 1 {
		t.Errorf("Evicted subscriber should be closed once, got %d", sub.closed)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	r := New(nil)
	sub := newFake("a")

	r.Subscribe("CODE01", sub, nil)
	r.Unsubscribe("CODE01", sub)
	r.Unsubscribe("CODE01", sub)
	r.Unsubscribe("OTHER1", sub)

	if r.Total() != 0 {
		t.Errorf("Expected no subscribers, got %d", r.Total())
	}
	if sub.closed != 1 {
		t.Errorf("Expected a single close, got %d", sub.closed)
	}
	if _, exists := r.lobbies["CODE01"]; exists {
		t.Error("Lobby entry should be cleaned up after last subscriber left")
	}
}

func TestBroadcast_ReachesOnlyMatchingCode(t *testing.T) {
	r := New(nil)
	a, b, other := newFake("a"), newFake("b"), newFake("other")

	r.Subscribe("CODE01", a, nil)
	r.Subscribe("CODE01", b, nil)
	r.Subscribe("CODE02", other, nil)

	delivered := r.Broadcast("CODE01", StartGame("/game.html"))
	if delivered != 2 {
		t.Errorf("Expected 2 deliveries, got %d", delivered)
	}

	for _, sub := range []*fakeSubscriber{a, b} {
		events := sub.events(t)
		if len(events) != 1 {
			t.Fatalf("Subscriber %s: expected 1 event, got %d", sub.id, len(events))
		}
		if events[0].Event != EventStartGame || events[0].Redirect != "/game.html" {
			t.Errorf("Subscriber %s: unexpected event %+v", sub.id, events[0])
		}
	}
	if len(other.events(t)) != 0 {
		t.Error("Subscriber of another code must not receive the event")
	}
}

func TestBroadcast_EvictsFailedSubscribers(t *testing.T) {
	r := New(nil)
	alive, dead := newFake("alive"), newFake("dead")

	r.Subscribe("CODE01", alive, nil)
	r.Subscribe("CODE01", dead, nil)
	dead.setFail(true)

	if delivered := r.Broadcast("CODE01", LobbyUpdate(hostSlots())); delivered != 1 {
		t.Errorf("Expected 1 delivery, got %d", delivered)
	}
	if r.Count("CODE01") != 1 {
		t.Fatalf("Expected dead subscriber to be evicted, got %d subscribers", r.Count("CODE01"))
	}
	if dead.closed != 1 {
		t.Errorf("Dead subscriber should be closed, got %d", dead.closed)
	}

	// The evicted subscriber is not tried again even if it recovers
	dead.setFail(false)
	r.Broadcast("CODE01", LobbyUpdate(hostSlots()))
	if len(dead.events(t)) != 0 {
		t.Error("Evicted subscriber must not receive later events")
	}
	if len(alive.events(t)) != 2 {
		t.Errorf("Live subscriber should get both events, got %d", len(alive.events(t)))
	}
}

func TestBroadcast_NoSubscribers(t *testing.T) {
	r := New(nil)
	if delivered := r.Broadcast("CODE01", StartGame("/game.html")); delivered != 0 {
		t.Errorf("Expected 0 deliveries, got %d", delivered)
	}
}

func TestEventJSON(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "lobby update",
			event:    LobbyUpdate(hostSlots()),
			expected: `{"event":"lobby_update","slots":[{"name":"Host","role":"host"},null]}`,
		},
		{
			name:     "start game",
			event:    StartGame("/game.html"),
			expected: `{"event":"start_game","redirect":"/game.html"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, data)
			}
		})
	}
}

func TestConcurrentSubscribeAndBroadcast(t *testing.T) {
	r := New(nil)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		sub := newFake(fmt.Sprintf("s%d", i))
		go func() {
			defer wg.Done()
			r.Subscribe("CODE01", sub, nil)
		}()
		go func() {
			defer wg.Done()
			r.Broadcast("CODE01", LobbyUpdate(hostSlots()))
		}()
		go func() {
			defer wg.Done()
			r.Unsubscribe("CODE01", sub)
		}()
	}
	wg.Wait()

	if r.Total() > 50 {
		t.Errorf("Registry holds more subscribers than were ever added: %d", r.Total())
	}
}
