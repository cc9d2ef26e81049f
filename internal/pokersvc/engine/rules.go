package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule helpers shared by the state machine and by the turn prompt.

// Positions are indices into TurnOrder for the forced-bet seats.
type Positions struct {
	Dealer     int
	SmallBlind int
	BigBlind   int
}

// BlindPositions is the single place seats are derived from the dealer
// index. Heads-up the dealer posts the small blind.
func BlindPositions(playerCount, dealerIndex int) (Positions, error) {
	if playerCount < 2 {
		return Positions{}, fmt.Errorf("%w: %d seated", ErrNotEnoughPlayers, playerCount)
	}
	d := ((dealerIndex % playerCount) + playerCount) % playerCount
	if playerCount == 2 {
		return Positions{Dealer: d, SmallBlind: d, BigBlind: (d + 1) % 2}, nil
	}
	return Positions{
		Dealer:     d,
		SmallBlind: (d + 1) % playerCount,
		BigBlind:   (d + 2) % playerCount,
	}, nil
}

// FirstToActIndex is where the scan for the first actor of a street starts:
// the seat after the big blind preflop, the seat after the dealer later.
func FirstToActIndex(playerCount, dealerIndex int, phase Phase) int {
	pos, err := BlindPositions(playerCount, dealerIndex)
	if err != nil {
		return 0
	}
	if phase == PhasePreFlop {
		return (pos.BigBlind + 1) % playerCount
	}
	return (pos.Dealer + 1) % playerCount
}

// RotateOrder returns ids starting at start and wrapping around.
func RotateOrder(ids []string, start int) []string {
	n := len(ids)
	out := make([]string, 0, n)
	if n == 0 {
		return out
	}
	start = ((start % n) + n) % n
	for i := 0; i < n; i++ {
		out = append(out, ids[(start+i)%n])
	}
	return out
}

// MinRaiseTotal is the smallest total a raise may reach: double the bet.
func MinRaiseTotal(currentBet int64) int64 {
	return currentBet * 2
}

var namePattern = regexp.MustCompile(`^[\p{L}0-9\s._-]+$`)

// ValidateName trims and checks a display name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := len([]rune(name))
	switch {
	case n < 2:
		return "", fmt.Errorf("%w: at least 2 characters", ErrInvalidName)
	case n > 20:
		return "", fmt.Errorf("%w: at most 20 characters", ErrInvalidName)
	case !namePattern.MatchString(name):
		return "", fmt.Errorf("%w: unsupported characters", ErrInvalidName)
	}
	return name, nil
}

type AmountOption struct {
	Amount int64 `json:"amount"`
}

type RangeOption struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// TurnOptions is what the acting player is offered.
type TurnOptions struct {
	Fold  bool          `json:"fold"`
	Check bool          `json:"check,omitempty"`
	Call  *AmountOption `json:"call,omitempty"`
	Bet   *RangeOption  `json:"bet,omitempty"`
	Raise *RangeOption  `json:"raise,omitempty"`
	AllIn *AmountOption `json:"allIn,omitempty"`
}

// Options computes the legal moves for a player against the table state.
func (r *Room) Options(id string) (TurnOptions, error) {
	p, ok := r.Players[id]
	if !ok {
		return TurnOptions{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	opts := TurnOptions{Fold: true}

	if p.CurrentBet == r.CurrentBet {
		opts.Check = true
	}

	toCall := r.CurrentBet - p.CurrentBet
	if toCall > 0 && p.CanAfford(toCall) {
		opts.Call = &AmountOption{Amount: toCall}
	}

	// short stacks only get allIn
	if r.CurrentBet == 0 && p.Balance > 0 && p.Balance >= r.cfg.MinBet {
		opts.Bet = &RangeOption{Min: r.cfg.MinBet, Max: p.Balance}
	}

	if most := p.Balance + p.CurrentBet; r.CurrentBet > 0 && most >= MinRaiseTotal(r.CurrentBet) {
		opts.Raise = &RangeOption{Min: MinRaiseTotal(r.CurrentBet), Max: most}
	}

	if p.Balance > 0 {
		opts.AllIn = &AmountOption{Amount: p.Balance}
	}
	return opts, nil
}

func (r *Room) unfoldedCount() int {
	n := 0
	for _, id := range r.TurnOrder {
		if !r.Players[id].Folded {
			n++
		}
	}
	return n
}

func (r *Room) activeCount() int {
	n := 0
	for _, id := range r.TurnOrder {
		if r.Players[id].active() {
			n++
		}
	}
	return n
}

// nextActive scans TurnOrder from start (inclusive) for a player who can still
// put chips in. It returns -1 when nobody can.
func (r *Room) nextActive(start int) int {
	n := len(r.TurnOrder)
	if n == 0 {
		return -1
	}
	start = ((start % n) + n) % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if r.Players[r.TurnOrder[idx]].active() {
			return idx
		}
	}
	return -1
}

// betsEqualized reports a closed street: everyone left has folded, is all-in,
// or has acted and matched the table bet.
func (r *Room) betsEqualized() bool {
	for _, id := range r.TurnOrder {
		p := r.Players[id]
		if p.Folded || p.Balance == 0 {
			continue
		}
		if !p.acted || p.CurrentBet != r.CurrentBet {
			return false
		}
	}
	return true
}
