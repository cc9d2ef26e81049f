package engine

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseReady    Phase = "ready"
	PhasePreFlop  Phase = "preFlop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// Phases lists every phase in progression order.
var Phases = []Phase{
	PhaseWaiting, PhaseReady, PhasePreFlop, PhaseFlop, PhaseTurn, PhaseRiver, PhaseShowdown,
}

// Next returns the street that follows p. Showdown and the between-hand
// phases have no successor inside a hand.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhasePreFlop:
		return PhaseFlop, true
	case PhaseFlop:
		return PhaseTurn, true
	case PhaseTurn:
		return PhaseRiver, true
	case PhaseRiver:
		return PhaseShowdown, true
	default:
		return p, false
	}
}

// Betting reports whether p is one of the four betting streets.
func (p Phase) Betting() bool {
	switch p {
	case PhasePreFlop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// InHand reports whether a hand is running (betting or waiting for a winner).
func (p Phase) InHand() bool {
	return p.Betting() || p == PhaseShowdown
}

type Role string

const (
	RoleNone       Role = ""
	RoleDealer     Role = "dealer"
	RoleSmallBlind Role = "smallBlind"
	RoleBigBlind   Role = "bigBlind"
)

type ActionType int

const (
	ActionFold ActionType = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
	ActionAllIn
)

func (a ActionType) String() string {
	switch a {
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionBet:
		return "bet"
	case ActionRaise:
		return "raise"
	case ActionAllIn:
		return "allIn"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction maps a wire tag onto an ActionType.
func ParseAction(tag string) (ActionType, error) {
	switch tag {
	case "fold":
		return ActionFold, nil
	case "check":
		return ActionCheck, nil
	case "call":
		return ActionCall, nil
	case "bet":
		return ActionBet, nil
	case "raise":
		return ActionRaise, nil
	case "allIn":
		return ActionAllIn, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, tag)
	}
}

// Tags recorded in Player.LastAction for forced bets.
const (
	TagSmallBlind = "smallBlind"
	TagBigBlind   = "bigBlind"
)

type Config struct {
	StartingBalance int64
	MinPlayers      int
	MaxPlayers      int
	SmallBlind      int64
	BigBlind        int64
	MinBet          int64
}

// DefaultConfig mirrors the table defaults the room service ships with.
func DefaultConfig() Config {
	return Config{
		StartingBalance: 2000,
		MinPlayers:      2,
		MaxPlayers:      8,
		SmallBlind:      1,
		BigBlind:        2,
		MinBet:          2,
	}
}

// ActionRecord is one entry of the per-hand action log.
type ActionRecord struct {
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Type       string    `json:"type"`
	Amount     int64     `json:"amount"`
	Phase      Phase     `json:"phase"`
	Timestamp  time.Time `json:"timestamp"`
}

type HandResult struct {
	WinnerID   string    `json:"winnerId"`
	WinnerName string    `json:"winnerName"`
	Pot        int64     `json:"pot"`
	Timestamp  time.Time `json:"timestamp"`
}

type SeatBalance struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// HandRecord is written when a hand starts and completed when it is settled.
type HandRecord struct {
	Number         int           `json:"number"`
	StartedAt      time.Time     `json:"startedAt"`
	DealerPosition int           `json:"dealerPosition"`
	Players        []SeatBalance `json:"players"`
	Result         *HandResult   `json:"result,omitempty"`
}

// TurnToken identifies one pending decision. It changes every time the room
// processes an action or moves the turn.
type TurnToken struct {
	PlayerID string
	Seq      uint64
}
