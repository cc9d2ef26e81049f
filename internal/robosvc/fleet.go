// Package robosvc drives house players. Robots talk to the poker service the
// same way the websocket gateway does: intents on socket.service, replies on
// game.service addressed by socket id or room id.
package robosvc

import (
	"encoding/json"
	"math/rand"
	"sort"
	"sync"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/avvvet/poker-services/internal/pokersvc/engine"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var robotNames = []string{
	"Abelo", "meron", "dawit", "mulugeta", "ted",
	"yonas", "liya", "Bereket", "Eden", "Samuel",
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

type Robot struct {
	SocketId string
	Name     string
}

// Fleet is a group of robots sharing one room. When Arbiter is set the first
// seated robot is the captain and picks showdown winners, since hole cards
// are not modelled.
type Fleet struct {
	Arbiter bool

	pub    Publisher
	roomId string
	robots []*Robot
	byId   map[string]*Robot

	mu       sync.Mutex
	rng      *rand.Rand
	settled  int // last hand the captain asked to settle
	done     chan struct{}
	doneOnce sync.Once
}

func NewFleet(pub Publisher, roomId string, count int, seed int64) *Fleet {
	f := &Fleet{
		pub:    pub,
		roomId: roomId,
		byId:   make(map[string]*Robot),
		rng:    rand.New(rand.NewSource(seed)),
		done:   make(chan struct{}),
	}
	for i := 0; i < count; i++ {
		r := &Robot{
			SocketId: "robot-" + uuid.New().String(),
			Name:     robotNames[i%len(robotNames)],
		}
		f.robots = append(f.robots, r)
		f.byId[r.SocketId] = r
	}
	return f
}

func (f *Fleet) Robots() []*Robot { return f.robots }

// Done is closed once the room closes under the fleet.
func (f *Fleet) Done() <-chan struct{} { return f.done }

// Start seats every robot.
func (f *Fleet) Start() {
	for _, r := range f.robots {
		f.send(r.SocketId, comm.TypeJoinRoom, comm.JoinRoom{Name: r.Name, RoomId: f.roomId})
	}
}

// Stop takes every robot out of the room.
func (f *Fleet) Stop() {
	for _, r := range f.robots {
		f.send(r.SocketId, comm.TypeDisconnect, struct{}{})
	}
}

// Handle reacts to one message from the poker service.
func (f *Fleet) Handle(m *comm.WSMessage) {
	if m.RoomId != f.roomId {
		return
	}
	if m.SocketId != "" {
		if r, ok := f.byId[m.SocketId]; ok {
			f.handleDirect(r, m)
		}
		return
	}

	switch m.Type {
	case comm.TypeGameState:
		var gs comm.GameState
		if err := json.Unmarshal(m.Data, &gs); err != nil {
			log.Errorf("robot: bad game-state: %v", err)
			return
		}
		f.onGameState(gs)
	case comm.TypeRoomClosed:
		log.Infof("robot: room %s closed", f.roomId)
		f.doneOnce.Do(func() { close(f.done) })
	}
}

func (f *Fleet) handleDirect(r *Robot, m *comm.WSMessage) {
	switch m.Type {
	case comm.TypeRoomJoined:
		log.Infof("robot %s seated in %s", r.Name, f.roomId)
		f.send(r.SocketId, comm.TypePlayerReady, comm.RoomRequest{RoomId: f.roomId})

	case comm.TypePlayerTurn:
		var turn comm.PlayerTurn
		if err := json.Unmarshal(m.Data, &turn); err != nil {
			log.Errorf("robot: bad player-turn: %v", err)
			return
		}
		f.mu.Lock()
		action, amount := Decide(turn.Options, f.rng)
		f.mu.Unlock()
		log.Debugf("robot %s plays %s %d", r.Name, action, amount)
		f.send(r.SocketId, comm.TypePlayerAction, comm.PlayerAction{RoomId: f.roomId, Action: action, Amount: amount})

	case comm.TypeGameError:
		var e comm.GameError
		_ = json.Unmarshal(m.Data, &e)
		log.Warnf("robot %s: %s", r.Name, e.Message)
	}
}

func (f *Fleet) onGameState(gs comm.GameState) {
	switch engine.Phase(gs.Phase) {
	case engine.PhaseWaiting, engine.PhaseReady:
		// the room waits for every seat, busted robots included
		for _, p := range gs.Players {
			if _, ok := f.byId[p.ID]; ok && !p.IsReady {
				f.send(p.ID, comm.TypePlayerReady, comm.RoomRequest{RoomId: f.roomId})
			}
		}

	case engine.PhaseShowdown:
		if !f.Arbiter {
			return
		}
		captain := f.captain(gs.Players)
		if captain == "" {
			return
		}
		f.mu.Lock()
		if f.settled == gs.HandNumber {
			f.mu.Unlock()
			return
		}
		f.settled = gs.HandNumber
		winner := PickWinner(gs.Contenders, f.rng)
		f.mu.Unlock()
		if winner != "" {
			f.send(captain, comm.TypeNextHand, comm.NextHand{RoomId: f.roomId, WinnerId: winner})
		}
	}
}

// captain is the first fleet robot still seated, or "" when none is.
func (f *Fleet) captain(players []comm.Seat) string {
	seated := make(map[string]bool, len(players))
	for _, p := range players {
		seated[p.ID] = true
	}
	for _, r := range f.robots {
		if seated[r.SocketId] {
			return r.SocketId
		}
	}
	return ""
}

func (f *Fleet) send(socketId, msgType string, data any) {
	msg, err := comm.NewMessage(msgType, data, socketId, "")
	if err != nil {
		log.Errorf("robot: unable to build %s: %v", msgType, err)
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	if err := f.pub.Publish(comm.SocketSubject, payload); err != nil {
		log.Errorf("robot: publish %s failed: %v", msgType, err)
	}
}

// Decide picks a legal action from the offered options. Robots mostly
// check or call, and sometimes open, raise or fold.
func Decide(opts comm.TurnOptions, rng *rand.Rand) (string, int64) {
	roll := rng.Intn(100)
	switch {
	case opts.Check:
		if roll < 20 && opts.Bet != nil {
			return engine.ActionBet.String(), opts.Bet.Min
		}
		return engine.ActionCheck.String(), 0
	case opts.Call != nil:
		if roll < 10 {
			return engine.ActionFold.String(), 0
		}
		if roll < 25 && opts.Raise != nil {
			return engine.ActionRaise.String(), opts.Raise.Min
		}
		return engine.ActionCall.String(), opts.Call.Amount
	case opts.AllIn != nil:
		if roll < 50 {
			return engine.ActionAllIn.String(), opts.AllIn.Amount
		}
	}
	return engine.ActionFold.String(), 0
}

// PickWinner draws one of the showdown contenders, in a stable order so a
// seeded generator repeats its choices.
func PickWinner(contenders []string, rng *rand.Rand) string {
	if len(contenders) == 0 {
		return ""
	}
	live := append([]string(nil), contenders...)
	sort.Strings(live)
	return live[rng.Intn(len(live))]
}
