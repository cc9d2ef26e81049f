package engine

import "fmt"

// ProcessAction validates and applies one decision of the player holding the
// turn, then moves the hand forward. A rejected action leaves the room as it
// was.
func (r *Room) ProcessAction(id string, action ActionType, amount int64) (ActionRecord, error) {
	if !r.Phase.Betting() {
		return ActionRecord{}, fmt.Errorf("%w: phase %s", ErrNoHandRunning, r.Phase)
	}
	p, ok := r.Players[id]
	if !ok {
		return ActionRecord{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	if id != r.CurrentTurn {
		return ActionRecord{}, ErrNotYourTurn
	}
	if !p.active() {
		return ActionRecord{}, ErrPlayerFolded
	}

	var moved int64
	switch action {
	case ActionFold:
		p.Folded = true

	case ActionCheck:
		if p.CurrentBet != r.CurrentBet {
			return ActionRecord{}, fmt.Errorf("%w: %d to call", ErrCannotCheck, r.CurrentBet-p.CurrentBet)
		}

	case ActionCall:
		diff := r.CurrentBet - p.CurrentBet
		if diff <= 0 {
			return ActionRecord{}, ErrNothingToCall
		}
		moved = p.PlaceBet(diff)

	case ActionBet:
		if r.CurrentBet > 0 {
			return ActionRecord{}, ErrBetExists
		}
		if amount <= 0 {
			return ActionRecord{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
		}
		if amount > p.Balance {
			return ActionRecord{}, fmt.Errorf("%w: have %d", ErrInsufficientBalance, p.Balance)
		}
		// a stack below the minimum goes in with allIn
		if amount < r.cfg.MinBet {
			return ActionRecord{}, fmt.Errorf("%w: minimum is %d", ErrBelowMinBet, r.cfg.MinBet)
		}
		moved = p.PlaceBet(amount)
		r.CurrentBet = p.CurrentBet

	case ActionRaise:
		if r.CurrentBet <= 0 {
			return ActionRecord{}, ErrNoBetToRaise
		}
		// amount is the total the player wants in front of them
		extra := amount - p.CurrentBet
		if amount <= r.CurrentBet {
			return ActionRecord{}, fmt.Errorf("%w: minimum is %d", ErrRaiseTooSmall, MinRaiseTotal(r.CurrentBet))
		}
		if extra > p.Balance {
			return ActionRecord{}, fmt.Errorf("%w: have %d", ErrInsufficientBalance, p.Balance)
		}
		if amount < MinRaiseTotal(r.CurrentBet) {
			return ActionRecord{}, fmt.Errorf("%w: minimum is %d", ErrRaiseTooSmall, MinRaiseTotal(r.CurrentBet))
		}
		moved = p.PlaceBet(extra)
		r.CurrentBet = p.CurrentBet

	case ActionAllIn:
		if p.Balance <= 0 {
			return ActionRecord{}, ErrNoBalance
		}
		moved = p.PlaceBet(p.Balance)
		if p.CurrentBet > r.CurrentBet {
			r.CurrentBet = p.CurrentBet
		}

	default:
		return ActionRecord{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	now := r.now()
	p.acted = true
	p.LastAction = action.String()
	p.LastActionTime = now

	rec := ActionRecord{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Type:       action.String(),
		Amount:     moved,
		Phase:      r.Phase,
		Timestamp:  now,
	}
	r.RoundHistory = append(r.RoundHistory, rec)
	r.Seq++
	r.touch()

	r.advanceFrom(indexOf(r.TurnOrder, id))
	return rec, nil
}

// FinishHand pays the pot to the named winner and stages the next hand. It is
// only accepted at showdown, so a repeated request cannot pay twice.
func (r *Room) FinishHand(winnerID string) (HandResult, error) {
	if r.Phase != PhaseShowdown {
		return HandResult{}, fmt.Errorf("%w: phase %s", ErrHandNotOver, r.Phase)
	}
	w, ok := r.Players[winnerID]
	if !ok {
		return HandResult{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, winnerID)
	}
	if w.Folded || indexOf(r.TurnOrder, winnerID) < 0 {
		return HandResult{}, fmt.Errorf("%w: %s", ErrWinnerFolded, w.Name)
	}

	pot := r.Pot
	w.WinHand(pot)

	res := HandResult{
		WinnerID:   w.ID,
		WinnerName: w.Name,
		Pot:        pot,
		Timestamp:  r.now(),
	}
	if n := len(r.History); n > 0 {
		r.History[n-1].Result = &res
	}

	r.prepareNextHand()
	return res, nil
}

// Survivor returns the only player left in a hand decided by folds.
func (r *Room) Survivor() (string, bool) {
	if r.Phase != PhaseShowdown {
		return "", false
	}
	var last string
	for _, id := range r.TurnOrder {
		if !r.Players[id].Folded {
			if last != "" {
				return "", false
			}
			last = id
		}
	}
	return last, last != ""
}

// Contenders lists the unfolded players of the current hand in turn order.
func (r *Room) Contenders() []string {
	var out []string
	for _, id := range r.TurnOrder {
		if !r.Players[id].Folded {
			out = append(out, id)
		}
	}
	return out
}

func (r *Room) assignRoles() Positions {
	for _, p := range r.Players {
		p.Role = RoleNone
	}
	// StartHand guarantees at least two seats
	pos, _ := BlindPositions(len(r.TurnOrder), r.DealerIndex)
	r.DealerIndex = pos.Dealer
	if len(r.TurnOrder) > 2 {
		r.Players[r.TurnOrder[pos.Dealer]].Role = RoleDealer
	}
	r.Players[r.TurnOrder[pos.SmallBlind]].Role = RoleSmallBlind
	r.Players[r.TurnOrder[pos.BigBlind]].Role = RoleBigBlind
	return pos
}

func (r *Room) postBlinds(pos Positions) {
	now := r.now()

	sb := r.Players[r.TurnOrder[pos.SmallBlind]]
	sb.PlaceBet(r.cfg.SmallBlind)
	sb.LastAction = TagSmallBlind
	sb.LastActionTime = now
	sb.acted = true

	bb := r.Players[r.TurnOrder[pos.BigBlind]]
	bb.PlaceBet(r.cfg.BigBlind)
	bb.LastAction = TagBigBlind
	bb.LastActionTime = now
	bb.acted = true

	r.CurrentBet = bb.CurrentBet
	if sb.CurrentBet > r.CurrentBet {
		r.CurrentBet = sb.CurrentBet
	}

	for _, p := range []*Player{sb, bb} {
		r.RoundHistory = append(r.RoundHistory, ActionRecord{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Type:       p.LastAction,
			Amount:     p.CurrentBet,
			Phase:      PhasePreFlop,
			Timestamp:  now,
		})
	}
}

// advanceFrom moves the turn on after the seat at index from has been dealt
// with, closing the street when nobody is owed a decision.
func (r *Room) advanceFrom(from int) {
	if r.unfoldedCount() < 2 {
		r.toShowdown()
		return
	}
	if r.betsEqualized() {
		if r.closeStreet() {
			r.openStreet()
		}
		return
	}
	next := r.nextActive(from + 1)
	if next < 0 {
		if r.closeStreet() {
			r.openStreet()
		}
		return
	}
	r.CurrentTurn = r.TurnOrder[next]
}

// openStreet seats the first actor of the current street. When fewer than two
// players can still bet and nobody owes chips, the board is run out.
func (r *Room) openStreet() {
	for {
		if r.unfoldedCount() < 2 {
			r.toShowdown()
			return
		}
		start := FirstToActIndex(len(r.TurnOrder), r.DealerIndex, r.Phase)
		idx := r.nextActive(start)
		if idx >= 0 && (r.activeCount() >= 2 || r.Players[r.TurnOrder[idx]].CurrentBet < r.CurrentBet) {
			r.CurrentTurn = r.TurnOrder[idx]
			r.Seq++
			return
		}
		if !r.closeStreet() {
			return
		}
	}
}

// closeStreet collects the round into the pot and moves to the next street.
// It returns false once the hand has reached showdown.
func (r *Room) closeStreet() bool {
	next, ok := r.Phase.Next()
	if !ok || next == PhaseShowdown {
		r.toShowdown()
		return false
	}
	r.collectBets()
	r.Phase = next
	for _, id := range r.TurnOrder {
		r.Players[id].acted = false
	}
	r.Seq++
	return true
}

func (r *Room) toShowdown() {
	r.collectBets()
	r.Phase = PhaseShowdown
	r.CurrentTurn = ""
	r.Seq++
}

// collectBets sweeps every committed bet into the pot.
func (r *Room) collectBets() int64 {
	var total int64
	for _, id := range r.TurnOrder {
		p := r.Players[id]
		total += p.CurrentBet
		p.CurrentBet = 0
	}
	r.Pot += total
	r.CurrentBet = 0
	return total
}

func (r *Room) prepareNextHand() {
	if n := len(r.TurnOrder); n > 0 {
		r.DealerIndex = (r.DealerIndex + 1) % n
	} else {
		r.DealerIndex = 0
	}
	r.Pot = 0
	r.CurrentBet = 0
	r.CurrentTurn = ""
	for _, p := range r.Players {
		p.Folded = false
		p.CurrentBet = 0
		p.IsReady = false
		p.LastAction = ""
		p.acted = false
	}
	if len(r.Seats) >= r.minPlayers() {
		r.Phase = PhaseReady
	} else {
		r.Phase = PhaseWaiting
	}
	r.Seq++
	r.touch()
}
