package engine

import "time"

// PlayerView is the public projection of a seat.
type PlayerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Balance    int64  `json:"balance"`
	CurrentBet int64  `json:"currentBet"`
	Folded     bool   `json:"folded"`
	IsReady    bool   `json:"isReady"`
	Connected  bool   `json:"connected"`
	Role       Role   `json:"role,omitempty"`
	LastAction string `json:"lastAction,omitempty"`
	Stats      Stats  `json:"stats"`
}

// RoomState is the full snapshot broadcast after every change.
type RoomState struct {
	ID          string         `json:"id"`
	Players     []PlayerView   `json:"players"`
	TurnOrder   []string       `json:"turnOrder"`
	Phase       Phase          `json:"phase"`
	CurrentTurn string         `json:"currentTurn,omitempty"`
	Pot         int64          `json:"pot"`
	CurrentBet  int64          `json:"currentBet"`
	DealerIndex int            `json:"dealerIndex"`
	HandNumber  int            `json:"handNumber"`
	AllReady    bool           `json:"allReady"`
	MinPlayers  int            `json:"minPlayers"`
	MaxPlayers  int            `json:"maxPlayers"`
	Actions     []ActionRecord `json:"actions,omitempty"`
}

// RoomInfo is the short listing used by the ops endpoints.
type RoomInfo struct {
	ID         string    `json:"id"`
	Players    int       `json:"players"`
	Connected  int       `json:"connected"`
	Phase      Phase     `json:"phase"`
	HandNumber int       `json:"handNumber"`
	Pot        int64     `json:"pot"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

func (p *Player) View() PlayerView {
	return PlayerView{
		ID:         p.ID,
		Name:       p.Name,
		Balance:    p.Balance,
		CurrentBet: p.CurrentBet,
		Folded:     p.Folded,
		IsReady:    p.IsReady,
		Connected:  p.Connected,
		Role:       p.Role,
		LastAction: p.LastAction,
		Stats:      p.Stats,
	}
}

// State copies the room into a value that can be serialized outside the lock.
func (r *Room) State() RoomState {
	s := RoomState{
		ID:          r.ID,
		Players:     make([]PlayerView, 0, len(r.Seats)),
		TurnOrder:   append([]string(nil), r.TurnOrder...),
		Phase:       r.Phase,
		CurrentTurn: r.CurrentTurn,
		Pot:         r.Pot,
		CurrentBet:  r.CurrentBet,
		DealerIndex: r.DealerIndex,
		HandNumber:  r.HandNumber,
		AllReady:    r.AllReady(),
		MinPlayers:  r.minPlayers(),
		MaxPlayers:  r.cfg.MaxPlayers,
		Actions:     append([]ActionRecord(nil), r.RoundHistory...),
	}
	for _, id := range r.Seats {
		s.Players = append(s.Players, r.Players[id].View())
	}
	return s
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:         r.ID,
		Players:    len(r.Seats),
		Connected:  r.ConnectedCount(),
		Phase:      r.Phase,
		HandNumber: r.HandNumber,
		Pot:        r.Pot,
		CreatedAt:  r.CreatedAt,
		LastActive: r.LastActionTime,
	}
}

// TotalChips is every chip on the table: balances, open bets and the pot.
func (r *Room) TotalChips() int64 {
	total := r.Pot
	for _, p := range r.Players {
		total += p.Balance + p.CurrentBet
	}
	return total
}
