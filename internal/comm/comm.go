package comm

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// NATS subjects between the gateway and the poker service.
const (
	SocketSubject = "socket.service" // gateway -> poker
	GameSubject   = "game.service"   // poker -> gateway
)

// inbound, from web clients through the gateway
const (
	TypeJoinRoom     = "join-room"
	TypeLeaveRoom    = "leave-room"
	TypePlayerReady  = "player-ready"
	TypePlayerAction = "player-action"
	TypeNextHand     = "next-hand"
	TypeDisconnect   = "disconnect" // emitted by the gateway itself
)

// outbound, from the poker service
const (
	TypeRoomJoined  = "room-joined"
	TypeRoomLeft    = "room-left"
	TypeRoomClosed  = "room-closed"
	TypeRoomState   = "room-state"
	TypeGameState   = "game-state"
	TypePlayerTurn  = "player-turn"
	TypeHandResult  = "hand-result"
	TypeGameMessage = "game-message"
	TypeGameError   = "game-error"
)

// WSMessage is the envelope used on the websocket and on NATS. SocketId
// addresses one client, RoomId without SocketId addresses a whole room.
type WSMessage struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
	RoomId   string          `json:"roomid,omitempty"`
}

type JoinRoom struct {
	Name   string `json:"name"`
	RoomId string `json:"roomId"`
}

// RoomRequest carries leave-room and player-ready.
type RoomRequest struct {
	RoomId string `json:"roomId"`
}

type PlayerAction struct {
	RoomId string `json:"roomId"`
	Action string `json:"action"`
	Amount int64  `json:"amount,omitempty"`
}

type NextHand struct {
	RoomId   string `json:"roomId"`
	WinnerId string `json:"winnerId"`
}

type RoomJoined struct {
	RoomId   string `json:"roomId"`
	PlayerId string `json:"playerId"`
	Name     string `json:"name"`
	Balance  string `json:"balance"`
}

type RoomLeft struct {
	RoomId string `json:"roomId"`
}

type RoomClosed struct {
	RoomId string `json:"roomId"`
	Reason string `json:"reason"`
}

// Seat is one player as game-state shows it.
type Seat struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Balance    int64  `json:"balance"`
	CurrentBet int64  `json:"currentBet"`
	Folded     bool   `json:"folded"`
	IsReady    bool   `json:"isReady"`
	Connected  bool   `json:"connected"`
	Role       string `json:"role,omitempty"`
	LastAction string `json:"lastAction,omitempty"`
}

// GameState is the per-change summary rooms receive. Contenders is only set
// at showdown and lists who may be named winner.
type GameState struct {
	RoomId      string   `json:"roomId"`
	Phase       string   `json:"phase"`
	Pot         int64    `json:"pot"`
	CurrentBet  int64    `json:"currentBet"`
	CurrentTurn string   `json:"currentTurn,omitempty"`
	HandNumber  int      `json:"handNumber"`
	Players     []Seat   `json:"players"`
	Contenders  []string `json:"contenders,omitempty"`
	TimeLeft    int      `json:"timeLeft,omitempty"`
}

type AmountOption struct {
	Amount int64 `json:"amount"`
}

type RangeOption struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// TurnOptions lists the moves offered to the player holding the turn. Raise
// amounts are the total the player ends up with in front of them.
type TurnOptions struct {
	Fold  bool          `json:"fold"`
	Check bool          `json:"check,omitempty"`
	Call  *AmountOption `json:"call,omitempty"`
	Bet   *RangeOption  `json:"bet,omitempty"`
	Raise *RangeOption  `json:"raise,omitempty"`
	AllIn *AmountOption `json:"allIn,omitempty"`
}

type PlayerTurn struct {
	RoomId    string      `json:"roomId"`
	PlayerId  string      `json:"playerId"`
	Options   TurnOptions `json:"options"`
	TimeLimit int         `json:"timeLimit"`
}

type HandResult struct {
	RoomId     string `json:"roomId"`
	WinnerId   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	Pot        int64  `json:"pot"`
	PotText    string `json:"potText"`
	Auto       bool   `json:"auto"`
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

type GameMessage struct {
	RoomId   string   `json:"roomId,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type GameError struct {
	RoomId  string `json:"roomId,omitempty"`
	Message string `json:"message"`
}

// FormatChips renders a chip count the way balances are shown to players.
func FormatChips(chips int64) string {
	return decimal.NewFromInt(chips).StringFixed(2)
}

// NewMessage marshals data into an envelope.
func NewMessage(msgType string, data any, socketId, roomId string) (*WSMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &WSMessage{
		Type:     msgType,
		Data:     raw,
		SocketId: socketId,
		RoomId:   roomId,
	}, nil
}
