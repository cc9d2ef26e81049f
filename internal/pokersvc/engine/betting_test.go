package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadsUpHandEndToEnd(t *testing.T) {
	r := newTable(t, "p1", "p2")
	startHand(t, r)
	require.Equal(t, "p1", r.CurrentTurn)

	rec := act(t, r, "p1", ActionCall, 0)
	require.Equal(t, int64(1), rec.Amount)
	require.Equal(t, PhasePreFlop, rec.Phase)

	require.Equal(t, PhaseFlop, r.Phase)
	require.Zero(t, r.CurrentBet)
	require.Zero(t, r.Players["p1"].CurrentBet)
	require.Zero(t, r.Players["p2"].CurrentBet)
	require.Equal(t, int64(4), r.Pot)
	require.Equal(t, "p2", r.CurrentTurn)

	for _, street := range []Phase{PhaseFlop, PhaseTurn, PhaseRiver} {
		require.Equal(t, street, r.Phase)
		act(t, r, "p2", ActionCheck, 0)
		require.Equal(t, "p1", r.CurrentTurn)
		act(t, r, "p1", ActionCheck, 0)
	}
	require.Equal(t, PhaseShowdown, r.Phase)
	require.Empty(t, r.CurrentTurn)

	// both still in: the winner has to be named
	_, ok := r.Survivor()
	require.False(t, ok)
	require.Equal(t, []string{"p1", "p2"}, r.Contenders())

	res, err := r.FinishHand("p2")
	require.NoError(t, err)
	require.Equal(t, int64(4), res.Pot)
	require.Equal(t, "player-p2", res.WinnerName)
	require.Equal(t, int64(2002), r.Players["p2"].Balance)
	require.Equal(t, int64(1998), r.Players["p1"].Balance)
	require.Equal(t, PhaseReady, r.Phase)
	require.Equal(t, 1, r.DealerIndex)
	require.NotNil(t, r.History[0].Result)

	// next hand: p2 deals and posts the small blind
	startHand(t, r)
	require.Equal(t, RoleSmallBlind, r.Players["p2"].Role)
	require.Equal(t, RoleBigBlind, r.Players["p1"].Role)
	require.Equal(t, "p2", r.CurrentTurn)
	require.Equal(t, 2, r.HandNumber)
}

func TestFinishHand_IsIdempotent(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)
	act(t, r, "a", ActionFold, 0)
	act(t, r, "b", ActionFold, 0)

	res, err := r.FinishHand("c")
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Pot)
	require.Zero(t, r.Pot)
	require.Equal(t, int64(2001), r.Players["c"].Balance)

	_, err = r.FinishHand("c")
	require.ErrorIs(t, err, ErrHandNotOver)
	require.Equal(t, int64(2001), r.Players["c"].Balance)
	require.Equal(t, 1, r.Players["c"].Stats.HandsWon)
}

func TestFinishHand_Rejections(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)

	_, err := r.FinishHand("a")
	require.ErrorIs(t, err, ErrHandNotOver)

	act(t, r, "a", ActionFold, 0)
	act(t, r, "b", ActionFold, 0)
	require.Equal(t, PhaseShowdown, r.Phase)

	_, err = r.FinishHand("ghost")
	require.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = r.FinishHand("a")
	require.ErrorIs(t, err, ErrWinnerFolded)
	require.Equal(t, int64(3), r.Pot)
	require.Equal(t, PhaseShowdown, r.Phase)
}

func TestFoldToOneGoesStraightToShowdown(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)

	act(t, r, "a", ActionFold, 0)
	require.Equal(t, PhasePreFlop, r.Phase)
	act(t, r, "b", ActionFold, 0)

	require.Equal(t, PhaseShowdown, r.Phase)
	require.Empty(t, r.CurrentTurn)
	require.Equal(t, int64(3), r.Pot)
	require.Zero(t, r.Players["c"].CurrentBet)

	winner, ok := r.Survivor()
	require.True(t, ok)
	require.Equal(t, "c", winner)
}

func TestBetsEqualizedClosesStreet(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)

	act(t, r, "a", ActionCall, 0)
	require.Equal(t, "b", r.CurrentTurn)
	act(t, r, "b", ActionCall, 0)

	// the big blind's forced bet counts as its action
	require.Equal(t, PhaseFlop, r.Phase)
	require.Zero(t, r.CurrentBet)
	for _, id := range r.TurnOrder {
		require.Zero(t, r.Players[id].CurrentBet)
	}
	require.Equal(t, int64(6), r.Pot)
	require.Equal(t, "b", r.CurrentTurn)
}

func TestSingleCheckDoesNotCloseStreet(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)
	act(t, r, "a", ActionCall, 0)
	act(t, r, "b", ActionCall, 0)

	act(t, r, "b", ActionCheck, 0)
	require.Equal(t, PhaseFlop, r.Phase)
	require.Equal(t, "c", r.CurrentTurn)
	act(t, r, "c", ActionCheck, 0)
	require.Equal(t, "a", r.CurrentTurn)
	act(t, r, "a", ActionCheck, 0)
	require.Equal(t, PhaseTurn, r.Phase)
}

func TestRaiseReopensAction(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)
	act(t, r, "a", ActionCall, 0)
	act(t, r, "b", ActionCall, 0)

	act(t, r, "b", ActionCheck, 0)
	act(t, r, "c", ActionBet, 10)
	act(t, r, "a", ActionCall, 0)
	require.Equal(t, "b", r.CurrentTurn)
	act(t, r, "b", ActionRaise, 30)
	require.Equal(t, "c", r.CurrentTurn)
	act(t, r, "c", ActionCall, 0)
	require.Equal(t, "a", r.CurrentTurn)
	act(t, r, "a", ActionFold, 0)

	require.Equal(t, PhaseTurn, r.Phase)
	require.Equal(t, int64(6+30+10+30), r.Pot)
}

func TestMinimumRaise(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)
	act(t, r, "a", ActionRaise, 10)
	require.Equal(t, int64(10), r.CurrentBet)

	before := r.State()
	_, err := r.ProcessAction("b", ActionRaise, 15)
	require.ErrorIs(t, err, ErrRaiseTooSmall)
	require.Equal(t, before, r.State())

	rec := act(t, r, "b", ActionRaise, 20)
	require.Equal(t, int64(19), rec.Amount)
	require.Equal(t, int64(20), r.CurrentBet)
	require.Equal(t, int64(20), r.Players["b"].CurrentBet)
	require.Equal(t, "c", r.CurrentTurn)
}

func TestShortStackGoesAllIn(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)
	act(t, r, "a", ActionRaise, 10)

	r.Players["b"].Balance = 14
	opts, err := r.Options("b")
	require.NoError(t, err)
	require.Equal(t, &AmountOption{Amount: 9}, opts.Call)
	require.Nil(t, opts.Raise, "15 in front of b is short of a full raise to 20")
	require.Equal(t, &AmountOption{Amount: 14}, opts.AllIn)

	_, err = r.ProcessAction("b", ActionRaise, 15)
	require.ErrorIs(t, err, ErrRaiseTooSmall)
	require.Equal(t, int64(14), r.Players["b"].Balance)

	rec := act(t, r, "b", ActionAllIn, 0)
	require.Equal(t, int64(14), rec.Amount)
	require.Equal(t, int64(15), r.CurrentBet)
	require.True(t, r.Players["b"].AllIn())
}

func TestActionRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, r *Room)
		player string
		action ActionType
		amount int64
		want   error
	}{
		{name: "check facing a bet", player: "a", action: ActionCheck, want: ErrCannotCheck},
		{name: "bet when a bet is open", player: "a", action: ActionBet, amount: 10, want: ErrBetExists},
		{name: "raise over balance", player: "a", action: ActionRaise, amount: 5000, want: ErrInsufficientBalance},
		{name: "raise not above bet", player: "a", action: ActionRaise, amount: 2, want: ErrRaiseTooSmall},
		{name: "unknown action", player: "a", action: ActionType(42), want: ErrUnknownAction},
		{name: "out of turn", player: "b", action: ActionFold, want: ErrNotYourTurn},
		{name: "unknown player", player: "ghost", action: ActionFold, want: ErrUnknownPlayer},
		{
			name:   "bet below minimum",
			setup:  toFlop,
			player: "b", action: ActionBet, amount: 1, want: ErrBelowMinBet,
		},
		{
			name: "short bet that would be all-in",
			setup: func(t *testing.T, r *Room) {
				toFlop(t, r)
				r.Players["b"].Balance = 1
			},
			player: "b", action: ActionBet, amount: 1, want: ErrBelowMinBet,
		},
		{
			name: "short raise that would be all-in",
			setup: func(t *testing.T, r *Room) {
				act(t, r, "a", ActionRaise, 10)
				r.Players["b"].Balance = 14
			},
			player: "b", action: ActionRaise, amount: 15, want: ErrRaiseTooSmall,
		},
		{
			name:   "bet over balance",
			setup:  toFlop,
			player: "b", action: ActionBet, amount: 1999, want: ErrInsufficientBalance,
		},
		{
			name:   "bet of nothing",
			setup:  toFlop,
			player: "b", action: ActionBet, amount: 0, want: ErrInvalidAmount,
		},
		{
			name:   "call with nothing to call",
			setup:  toFlop,
			player: "b", action: ActionCall, want: ErrNothingToCall,
		},
		{
			name:   "raise with no bet",
			setup:  toFlop,
			player: "b", action: ActionRaise, amount: 10, want: ErrNoBetToRaise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTable(t, "a", "b", "c")
			startHand(t, r)
			if tt.setup != nil {
				tt.setup(t, r)
			}
			before := r.State()

			_, err := r.ProcessAction(tt.player, tt.action, tt.amount)
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, before, r.State())
		})
	}
}

func toFlop(t *testing.T, r *Room) {
	act(t, r, "a", ActionCall, 0)
	act(t, r, "b", ActionCall, 0)
	require.Equal(t, PhaseFlop, r.Phase)
}

func TestActionOutsideHand(t *testing.T) {
	r := newTable(t, "a", "b")
	_, err := r.ProcessAction("a", ActionCheck, 0)
	require.ErrorIs(t, err, ErrNoHandRunning)
}

func TestAllInRunsOutTheBoard(t *testing.T) {
	r := newTable(t, "p1", "p2")
	startHand(t, r)

	rec := act(t, r, "p1", ActionAllIn, 0)
	require.Equal(t, int64(1999), rec.Amount)
	require.Equal(t, int64(2000), r.CurrentBet)
	require.Equal(t, "p2", r.CurrentTurn)

	act(t, r, "p2", ActionCall, 0)
	require.Equal(t, PhaseShowdown, r.Phase)
	require.Equal(t, int64(4000), r.Pot)
	require.Empty(t, r.CurrentTurn)

	_, err := r.FinishHand("p1")
	require.NoError(t, err)
	require.Equal(t, int64(4000), r.Players["p1"].Balance)
	require.Zero(t, r.Players["p2"].Balance)

	// a busted player cannot be dealt in
	startHandErr := func() error {
		for _, id := range r.Seats {
			if _, err := r.SetReady(id); err != nil {
				return err
			}
		}
		return nil
	}
	require.ErrorIs(t, startHandErr(), ErrNotEnoughPlayers)
}

func TestShortCallLeavesPlayerAllIn(t *testing.T) {
	r := newTable(t, "a", "b", "c")
	startHand(t, r)
	act(t, r, "a", ActionRaise, 300)

	r.Players["b"].Balance = 50
	rec := act(t, r, "b", ActionAllIn, 0)
	require.Equal(t, int64(50), rec.Amount)
	require.Equal(t, int64(300), r.CurrentBet)

	require.Equal(t, "c", r.CurrentTurn)
	act(t, r, "c", ActionCall, 0)

	// a and c are the only ones who can bet; the street still plays out
	require.Equal(t, PhaseFlop, r.Phase)
	require.Equal(t, "c", r.CurrentTurn)
}

func TestNonTurnActionLeavesStateUntouched(t *testing.T) {
	r := newTable(t, "A", "B", "C", "D")
	startHand(t, r)

	before := r.State()
	for _, id := range []string{"A", "B", "C"} {
		_, err := r.ProcessAction(id, ActionAllIn, 0)
		require.ErrorIs(t, err, ErrNotYourTurn)
	}
	require.Equal(t, before, r.State())
	require.Equal(t, "D", r.CurrentTurn)
}

func TestChipsAreConserved(t *testing.T) {
	for _, seats := range [][]string{
		{"p1", "p2"},
		{"a", "b", "c"},
		{"a", "b", "c", "d", "e"},
	} {
		r := newTable(t, seats...)
		total := r.TotalChips()
		startHand(t, r)
		require.Equal(t, total, r.TotalChips())

		for step := 0; r.Phase.Betting(); step++ {
			require.Less(t, step, 500)
			id := r.CurrentTurn
			opts, err := r.Options(id)
			require.NoError(t, err)

			switch {
			case step%5 == 3 && opts.Raise != nil:
				act(t, r, id, ActionRaise, opts.Raise.Min)
			case step%7 == 2 && opts.Bet != nil:
				act(t, r, id, ActionBet, opts.Bet.Min)
			case opts.Check:
				act(t, r, id, ActionCheck, 0)
			case opts.Call != nil:
				act(t, r, id, ActionCall, 0)
			default:
				act(t, r, id, ActionAllIn, 0)
			}
			require.Equal(t, total, r.TotalChips())

			holders := 0
			for _, pid := range r.TurnOrder {
				if pid == r.CurrentTurn {
					holders++
				}
			}
			require.LessOrEqual(t, holders, 1)
		}

		require.Equal(t, PhaseShowdown, r.Phase)
		contenders := r.Contenders()
		require.NotEmpty(t, contenders)
		_, err := r.FinishHand(contenders[0])
		require.NoError(t, err)
		require.Equal(t, total, r.TotalChips())
		require.Zero(t, r.Pot)
	}
}
