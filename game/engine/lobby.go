package engine

import (
	"math/big"
	"time"
)

// NewPlayer creates a player with default attributes who is not ready yet
func NewPlayer(name string, role Role) *Player {
	return &Player{
		Name:      name,
		Role:      role,
		HitPoints: StartingHitPoints,
	}
}

// Sum returns the exact total points allocated; it never wraps
func (a Attributes) Sum() *big.Int {
	total := new(big.Int)
	for _, v := range []int{a.Strength, a.Speed, a.Capacity} {
		total.Add(total, big.NewInt(int64(v)))
	}
	return total
}

// Validate checks the allocation against the attribute budget.
// Only the sum is checked; individual components may be negative.
func (a Attributes) Validate() error {
	if a.Sum().Cmp(big.NewInt(AttributeBudget)) != 0 {
		return ErrInvalidAllocation
	}
	return nil
}

// Assign overwrites the player's attributes and marks them ready
func (p *Player) Assign(attrs Attributes) error {
	if err := attrs.Validate(); err != nil {
		return err
	}
	p.Attributes = attrs
	p.Ready = true
	return nil
}

// NewLobby creates a lobby with the host seated in slot 0
func NewLobby(code, hostName string, now time.Time) *Lobby {
	if hostName == "" {
		hostName = DefaultHostName
	}

	l := &Lobby{
		Code:      code,
		Slots:     make([]*Occupant, SlotCount),
		Players:   make([]*Player, SlotCount),
		CreatedAt: now,
	}
	l.occupy(0, hostName, RoleHost)
	return l
}

// FirstEmptySlot returns the lowest empty slot index
func (l *Lobby) FirstEmptySlot() (int, bool) {
	for i, slot := range l.Slots {
		if slot == nil {
			return i, true
		}
	}
	return -1, false
}

// Seat places a new player in the first empty slot.
// Names are not required to be unique; a repeated name gets its own record.
func (l *Lobby) Seat(name string) (int, error) {
	if name == "" {
		name = DefaultPlayerName
	}

	idx, ok := l.FirstEmptySlot()
	if !ok {
		return -1, ErrLobbyFull
	}
	l.occupy(idx, name, RolePlayer)
	return idx, nil
}

func (l *Lobby) occupy(idx int, name string, role Role) {
	l.Slots[idx] = &Occupant{Name: name, Role: role}
	l.Players[idx] = NewPlayer(name, role)
}

// Player looks up a player by name; with duplicate names the lowest slot wins
func (l *Lobby) Player(name string) (*Player, bool) {
	for _, p := range l.Players {
		if p != nil && p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// IsFull reports whether every slot is occupied
func (l *Lobby) IsFull() bool {
	_, ok := l.FirstEmptySlot()
	return !ok
}

// Phase derives the lobby phase from its slots and readiness
func (l *Lobby) Phase() Phase {
	if !l.IsFull() {
		return PhaseOpen
	}
	for _, p := range l.Players {
		if p != nil && p.Ready {
			return PhaseAttributeAssignment
		}
	}
	return PhaseFull
}

// Snapshot returns a copy of the slots safe to hand to other goroutines
func (l *Lobby) Snapshot() []*Occupant {
	slots := make([]*Occupant, len(l.Slots))
	for i, slot := range l.Slots {
		if slot != nil {
			occ := *slot
			slots[i] = &occ
		}
	}
	return slots
}

// Clone returns a deep copy of the lobby
func (l *Lobby) Clone() *Lobby {
	c := &Lobby{
		Code:      l.Code,
		Slots:     l.Snapshot(),
		Players:   make([]*Player, len(l.Players)),
		CreatedAt: l.CreatedAt,
	}
	for i, p := range l.Players {
		if p != nil {
			cp := *p
			c.Players[i] = &cp
		}
	}
	return c
}
