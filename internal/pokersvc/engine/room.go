package engine

import (
	"fmt"
	"time"
)

// Room is one table and the hand being played on it. It is not safe for
// concurrent use; the registry serializes access per room.
type Room struct {
	ID      string
	Players map[string]*Player
	// Seats keeps join order, the default turn order for the next hand.
	Seats []string
	// TurnOrder is fixed when a hand starts and only shrinks on removal.
	TurnOrder   []string
	Phase       Phase
	CurrentTurn string
	Pot         int64
	CurrentBet  int64
	DealerIndex int

	Seq            uint64
	HandNumber     int
	CreatedAt      time.Time
	LastActionTime time.Time
	History        []HandRecord
	RoundHistory   []ActionRecord

	cfg Config
	now func() time.Time
}

type Option func(*Room)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Room) { r.now = now }
}

func NewRoom(id string, cfg Config, opts ...Option) *Room {
	r := &Room{
		ID:      id,
		Players: make(map[string]*Player),
		Phase:   PhaseWaiting,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.CreatedAt = r.now()
	r.LastActionTime = r.CreatedAt
	return r
}

func (r *Room) Config() Config { return r.cfg }

func (r *Room) Player(id string) (*Player, bool) {
	p, ok := r.Players[id]
	return p, ok
}

func (r *Room) PlayerCount() int { return len(r.Seats) }

// AddPlayer seats a new player with the configured starting balance. A player
// joining mid-hand sits out until the next hand starts.
func (r *Room) AddPlayer(id, name string) (*Player, error) {
	if _, ok := r.Players[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerExists, id)
	}
	if len(r.Seats) >= r.cfg.MaxPlayers {
		return nil, fmt.Errorf("%w: %d/%d", ErrRoomFull, len(r.Seats), r.cfg.MaxPlayers)
	}
	clean, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	p := NewPlayer(id, clean, r.cfg.StartingBalance)
	r.Players[id] = p
	r.Seats = append(r.Seats, id)
	r.touch()
	return p, nil
}

// RemovePlayer drops a player from the room. Inside a hand the player is
// folded first and whatever they committed this round stays in the pot.
func (r *Room) RemovePlayer(id string) error {
	p, ok := r.Players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}

	if r.Phase.InHand() {
		if idx := indexOf(r.TurnOrder, id); idx >= 0 {
			hadTurn := r.CurrentTurn == id
			p.Folded = true
			r.Pot += p.CurrentBet
			p.CurrentBet = 0

			r.TurnOrder = append(r.TurnOrder[:idx], r.TurnOrder[idx+1:]...)
			// a departing dealer hands the button back one seat, so the
			// seat after the dealer is still the one that followed them
			if idx <= r.DealerIndex {
				r.DealerIndex--
			}
			if n := len(r.TurnOrder); n > 0 {
				r.DealerIndex = (r.DealerIndex%n + n) % n
			} else {
				r.DealerIndex = 0
			}

			switch {
			case r.Phase == PhaseShowdown:
			case r.unfoldedCount() < 2:
				r.toShowdown()
			case hadTurn:
				// the seat after the leaver slid into idx
				r.advanceFrom(idx - 1)
			}
			r.Seq++
		}
	}

	delete(r.Players, id)
	r.Seats = removeID(r.Seats, id)

	if !r.Phase.InHand() && len(r.Seats) < r.minPlayers() {
		r.Reset()
	}
	r.touch()
	return nil
}

// Disconnect marks the session as gone. A player holding the turn is folded so
// the hand keeps moving; the seat stays until RemovePlayer.
func (r *Room) Disconnect(id string) error {
	p, ok := r.Players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	p.Connected = false
	if r.Phase.Betting() && r.CurrentTurn == id {
		_, err := r.ProcessAction(id, ActionFold, 0)
		return err
	}
	return nil
}

// ConnectedCount counts players whose session is alive.
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// SetReady records that a player opted into the next hand and starts it once
// everyone is ready. It reports whether a hand was started.
func (r *Room) SetReady(id string) (bool, error) {
	p, ok := r.Players[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	p.IsReady = true
	r.touch()

	if r.Phase != PhaseWaiting && r.Phase != PhaseReady {
		return false, nil
	}
	if !r.AllReady() || len(r.Seats) < r.minPlayers() {
		return false, nil
	}
	r.Phase = PhaseReady
	if err := r.StartHand(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Room) AllReady() bool {
	if len(r.Seats) == 0 {
		return false
	}
	for _, id := range r.Seats {
		if !r.Players[id].IsReady {
			return false
		}
	}
	return true
}

// StartHand deals a new hand: turn order, roles, blinds and the first actor.
func (r *Room) StartHand() error {
	if r.Phase.InHand() {
		return ErrHandInProgress
	}
	if !r.AllReady() {
		return ErrNotAllReady
	}

	order := make([]string, 0, len(r.Seats))
	for _, id := range r.Seats {
		if r.Players[id].Balance > 0 {
			order = append(order, id)
		}
	}
	if len(order) < r.minPlayers() {
		return fmt.Errorf("%w: %d with chips, need %d", ErrNotEnoughPlayers, len(order), r.minPlayers())
	}

	r.Pot = 0
	r.CurrentBet = 0
	r.RoundHistory = nil
	r.TurnOrder = order
	r.DealerIndex %= len(order)
	for _, p := range r.Players {
		p.ResetForNewHand()
	}
	for _, id := range order {
		r.Players[id].Stats.HandsPlayed++
	}

	r.HandNumber++
	r.Phase = PhasePreFlop
	pos := r.assignRoles()
	r.postBlinds(pos)

	record := HandRecord{
		Number:         r.HandNumber,
		StartedAt:      r.now(),
		DealerPosition: r.DealerIndex,
	}
	for _, id := range order {
		p := r.Players[id]
		record.Players = append(record.Players, SeatBalance{ID: p.ID, Name: p.Name, Balance: p.Balance + p.CurrentBet})
	}
	r.History = append(r.History, record)

	r.openStreet()
	r.touch()
	return nil
}

// Reset abandons any staged hand and returns the table to waiting. It is used
// between hands, so no chips are outstanding.
func (r *Room) Reset() {
	r.Phase = PhaseWaiting
	r.CurrentTurn = ""
	r.Pot = 0
	r.CurrentBet = 0
	r.RoundHistory = nil
	for _, p := range r.Players {
		p.Folded = false
		p.CurrentBet = 0
		p.IsReady = false
		p.LastAction = ""
		p.acted = false
	}
	r.Seq++
}

// Token returns the identity of the decision currently pending.
func (r *Room) Token() TurnToken {
	return TurnToken{PlayerID: r.CurrentTurn, Seq: r.Seq}
}

// IdleFor is the time since anything happened at the table.
func (r *Room) IdleFor(now time.Time) time.Duration {
	return now.Sub(r.LastActionTime)
}

// Empty reports a room with nobody seated.
func (r *Room) Empty() bool { return len(r.Seats) == 0 }

func (r *Room) minPlayers() int {
	if r.cfg.MinPlayers < 2 {
		return 2
	}
	return r.cfg.MinPlayers
}

func (r *Room) touch() {
	r.LastActionTime = r.now()
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
