package engine

import (
	"fmt"
	"time"
)

type Stats struct {
	HandsPlayed int   `json:"handsPlayed"`
	HandsWon    int   `json:"handsWon"`
	TotalBets   int64 `json:"totalBets"`
	BiggestWin  int64 `json:"biggestWin"`
}

// Player is a seated participant. ID is the session (socket) id.
type Player struct {
	ID             string
	Name           string
	Balance        int64
	CurrentBet     int64
	Folded         bool
	IsReady        bool
	Connected      bool
	Role           Role
	LastAction     string
	LastActionTime time.Time
	Stats          Stats

	// acted is set once the player has acted on the current street
	acted bool
}

func NewPlayer(id, name string, balance int64) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Balance:   balance,
		Connected: true,
	}
}

// PlaceBet moves up to amount chips from the balance into the current bet and
// returns what was actually moved. It never fails: the amount is clamped.
func (p *Player) PlaceBet(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount > p.Balance {
		amount = p.Balance
	}
	p.Balance -= amount
	p.CurrentBet += amount
	p.Stats.TotalBets += amount
	return amount
}

// AddFunds credits the balance and returns the new total.
func (p *Player) AddFunds(amount int64) (int64, error) {
	if amount <= 0 {
		return p.Balance, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	p.Balance += amount
	return p.Balance, nil
}

func (p *Player) WinHand(pot int64) {
	p.Balance += pot
	p.Stats.HandsWon++
	if pot > p.Stats.BiggestWin {
		p.Stats.BiggestWin = pot
	}
}

func (p *Player) ResetForNewHand() {
	p.Folded = false
	p.CurrentBet = 0
	p.LastAction = ""
	p.Role = RoleNone
	p.acted = false
}

// CanAct reports whether the player may be offered a turn.
func (p *Player) CanAct() bool {
	return !p.Folded && p.Balance > 0 && p.Connected
}

func (p *Player) CanAfford(amount int64) bool {
	return p.Balance >= amount
}

// AllIn reports a player still in the hand with nothing left behind.
func (p *Player) AllIn() bool {
	return !p.Folded && p.Balance == 0
}

// IdleFor is the time since the player's last action, zero if they never acted.
func (p *Player) IdleFor(now time.Time) time.Duration {
	if p.LastActionTime.IsZero() {
		return 0
	}
	return now.Sub(p.LastActionTime)
}

// active players are the ones turn rotation stops at
func (p *Player) active() bool {
	return !p.Folded && p.Balance > 0
}
