package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/duel-lobby/game/engine"
)

// sequentialCodes returns a generator yielding CODE01, CODE02, ...
func sequentialCodes() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("CODE%02d", n), nil
	}
}

func TestManager_Create(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	manager := NewManager(WithCodeGenerator(sequentialCodes()), WithClock(func() time.Time { return now }))

	lobby, err := manager.Create("Alice")
	if err != nil {
		t.Fatalf("Failed to create lobby: %v", err)
	}
	if lobby.Code != "CODE01" {
		t.Errorf("Expected code CODE01, got %s", lobby.Code)
	}
	if lobby.Slots[0] == nil || lobby.Slots[0].Name != "Alice" || lobby.Slots[0].Role != engine.RoleHost {
		t.Errorf("Expected Alice as host, got %+v", lobby.Slots[0])
	}
	if !lobby.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt from injected clock, got %v", lobby.CreatedAt)
	}
}

func TestManager_CreateReplacesLobby(t *testing.T) {
	manager := NewManager(WithCodeGenerator(sequentialCodes()))

	first, _ := manager.Create("Alice")
	if _, err := manager.Update(first.Code, func(l *engine.Lobby) error {
		_, err := l.Seat("Bob")
		return err
	}); err != nil {
		t.Fatalf("Seat failed: %v", err)
	}

	second, err := manager.Create("Carol")
	if err != nil {
		t.Fatalf("Failed to create second lobby: %v", err)
	}

	if _, err := manager.Get(first.Code); !errors.Is(err, engine.ErrLobbyNotFound) {
		t.Errorf("Old code should be gone, got %v", err)
	}

	got, err := manager.Get(second.Code)
	if err != nil {
		t.Fatalf("Failed to get new lobby: %v", err)
	}
	if got.Slots[1] != nil {
		t.Error("New lobby should not inherit occupants")
	}
}

func TestManager_Get(t *testing.T) {
	manager := NewManager(WithCodeGenerator(sequentialCodes()))

	t.Run("no lobby", func(t *testing.T) {
		if _, err := manager.Get("CODE01"); !errors.Is(err, engine.ErrLobbyNotFound) {
			t.Errorf("Expected ErrLobbyNotFound, got %v", err)
		}
		if _, ok := manager.Current(); ok {
			t.Error("Current should report no lobby")
		}
	})

	created, _ := manager.Create("Host")

	t.Run("matching code", func(t *testing.T) {
		lobby, err := manager.Get(created.Code)
		if err != nil {
			t.Fatalf("Failed to get lobby: %v", err)
		}
		if lobby.Code != created.Code {
			t.Errorf("Expected %s, got %s", created.Code, lobby.Code)
		}
	})

	t.Run("code in other case", func(t *testing.T) {
		if _, err := manager.Get(strings.ToLower(created.Code)); !errors.Is(err, engine.ErrLobbyNotFound) {
			t.Errorf("Codes match exactly, got %v", err)
		}
		if _, err := manager.Update(strings.ToLower(created.Code), func(*engine.Lobby) error { return nil }); !errors.Is(err, engine.ErrLobbyNotFound) {
			t.Errorf("Update should match codes exactly, got %v", err)
		}
	})

	t.Run("mismatched code", func(t *testing.T) {
		if _, err := manager.Get("NOPE00"); !errors.Is(err, engine.ErrLobbyNotFound) {
			t.Errorf("Expected ErrLobbyNotFound, got %v", err)
		}
	})

	t.Run("returned lobby is a copy", func(t *testing.T) {
		lobby, _ := manager.Get(created.Code)
		lobby.Slots[0].Name = "Mallory"

		again, _ := manager.Get(created.Code)
		if again.Slots[0].Name != "Host" {
			t.Error("Mutating a returned lobby changed the stored one")
		}
	})
}

func TestManager_UpdateErrorLeavesLobby(t *testing.T) {
	manager := NewManager(WithCodeGenerator(sequentialCodes()))
	created, _ := manager.Create("Host")

	boom := errors.New("boom")
	if _, err := manager.Update(created.Code, func(l *engine.Lobby) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected update error to propagate, got %v", err)
	}

	if _, err := manager.Update("WRONG1", func(l *engine.Lobby) error {
		t.Error("fn must not run for a mismatched code")
		return nil
	}); !errors.Is(err, engine.ErrLobbyNotFound) {
		t.Errorf("Expected ErrLobbyNotFound, got %v", err)
	}
}

func TestManager_CreateGeneratorError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	manager := NewManager(WithCodeGenerator(func() (string, error) { return "", boom }))

	if _, err := manager.Create("Host"); !errors.Is(err, boom) {
		t.Errorf("Expected generator error, got %v", err)
	}
	if _, ok := manager.Current(); ok {
		t.Error("Failed create must not install a lobby")
	}
}

func TestManager_ConcurrentSeating(t *testing.T) {
	manager := NewManager(WithCodeGenerator(sequentialCodes()))
	created, _ := manager.Create("Host")

	const joiners = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	seated, full := 0, 0

	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := manager.Update(created.Code, func(l *engine.Lobby) error {
				_, err := l.Seat(fmt.Sprintf("p%d", i))
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				seated++
			case errors.Is(err, engine.ErrLobbyFull):
				full++
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if seated != engine.SlotCount-1 {
		t.Errorf("Expected %d seated, got %d", engine.SlotCount-1, seated)
	}
	if full != joiners-seated {
		t.Errorf("Expected %d full errors, got %d", joiners-seated, full)
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		if len(code) != engine.CodeLength {
			t.Fatalf("Expected length %d, got %d (%s)", engine.CodeLength, len(code), code)
		}
		for _, c := range code {
			if !strings.ContainsRune(engine.CodeAlphabet, c) {
				t.Fatalf("Unexpected character %q in %s", c, code)
			}
		}
	}
}
