package engine

import "errors"

// protocol violations
var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrUnknownPlayer  = errors.New("player not found")
	ErrPlayerFolded   = errors.New("player cannot act")
	ErrUnknownAction  = errors.New("unknown action")
	ErrHandNotOver    = errors.New("hand is not at showdown")
	ErrWinnerFolded   = errors.New("winner has folded")
	ErrNoHandRunning  = errors.New("no betting round in progress")
	ErrHandInProgress = errors.New("hand already in progress")
)

// rule violations
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinBet         = errors.New("bet below minimum")
	ErrRaiseTooSmall       = errors.New("raise below minimum")
	ErrCannotCheck         = errors.New("cannot check against an outstanding bet")
	ErrNothingToCall       = errors.New("no bet to call")
	ErrBetExists           = errors.New("a bet is already open, raise instead")
	ErrNoBetToRaise        = errors.New("no bet to raise, bet instead")
	ErrNoBalance           = errors.New("no balance left")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// capacity and lifecycle
var (
	ErrRoomFull         = errors.New("room is full")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotAllReady      = errors.New("not every player is ready")
	ErrPlayerExists     = errors.New("player already seated")
	ErrInvalidName      = errors.New("invalid player name")
)
