package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/avvvet/poker-services/internal/pokersvc/config"
	"github.com/avvvet/poker-services/internal/pokersvc/engine"
	"github.com/avvvet/poker-services/internal/pokersvc/registry"
	"github.com/avvvet/poker-services/internal/pokersvc/turntimer"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidRoom = errors.New("invalid room id")

var roomPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// Publisher delivers outbound messages to the gateway.
type Publisher interface {
	SendTo(socketId, roomId, msgType string, data any)
	Broadcast(roomId, msgType string, data any)
}

// Scheduler arms the per-room turn timers.
type Scheduler interface {
	Schedule(tok turntimer.Token, d time.Duration)
	Cancel(roomId string)
	Remaining(roomId string) time.Duration
}

// GameService turns inbound player intents into room transitions and fans the
// results out. Every operation holds the room's lock from start to finish.
type GameService struct {
	rooms  *registry.RoomStore
	pub    Publisher
	timers Scheduler
	cfg    config.Config
	now    func() time.Time
}

type Option func(*GameService)

func WithScheduler(s Scheduler) Option {
	return func(g *GameService) { g.timers = s }
}

func WithClock(now func() time.Time) Option {
	return func(g *GameService) { g.now = now }
}

func NewGameService(rooms *registry.RoomStore, pub Publisher, cfg config.Config, opts ...Option) *GameService {
	s := &GameService{
		rooms: rooms,
		pub:   pub,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timers == nil {
		s.timers = turntimer.New(s.HandleTimeout)
	}
	return s
}

func (s *GameService) Rooms() *registry.RoomStore { return s.rooms }

// Join seats the socket in roomId, creating the room on first join.
func (s *GameService) Join(socketId, roomId, name string) error {
	roomId = strings.TrimSpace(roomId)
	if !roomPattern.MatchString(roomId) {
		err := fmt.Errorf("%w: %q", ErrInvalidRoom, roomId)
		s.reject(socketId, roomId, err)
		return err
	}

	t, err := s.rooms.Acquire(roomId, true)
	if err != nil {
		s.reject(socketId, roomId, err)
		return err
	}
	defer t.Unlock()

	p, err := t.Room.AddPlayer(socketId, name)
	if err != nil {
		if t.Room.Empty() {
			s.rooms.Discard(t)
		}
		s.reject(socketId, roomId, err)
		return err
	}

	logger(roomId, socketId).Infof("%s joined (%d seated)", p.Name, t.Room.PlayerCount())
	s.pub.SendTo(socketId, roomId, comm.TypeRoomJoined, comm.RoomJoined{
		RoomId:   roomId,
		PlayerId: p.ID,
		Name:     p.Name,
		Balance:  comm.FormatChips(p.Balance),
	})
	s.say(roomId, comm.SeverityInfo, "%s joined the table", p.Name)
	s.sync(t)
	return nil
}

// Leave removes the socket from the room. Inside a hand the seat is folded and
// its committed chips stay in the pot.
func (s *GameService) Leave(socketId, roomId string) error {
	t, err := s.acquire(socketId, roomId)
	if err != nil {
		return err
	}
	defer t.Unlock()

	p, ok := t.Room.Player(socketId)
	if !ok {
		err := fmt.Errorf("%w: %s", engine.ErrUnknownPlayer, socketId)
		s.reject(socketId, roomId, err)
		return err
	}
	name := p.Name
	if err := t.Room.RemovePlayer(socketId); err != nil {
		s.reject(socketId, roomId, err)
		return err
	}

	logger(roomId, socketId).Infof("%s left", name)
	s.pub.SendTo(socketId, roomId, comm.TypeRoomLeft, comm.RoomLeft{RoomId: roomId})
	if s.closeIfEmpty(t) {
		return nil
	}
	s.say(roomId, comm.SeverityInfo, "%s left the table", name)
	s.sync(t)
	return nil
}

// MarkReady opts the player into the next hand; the last ready player deals it.
func (s *GameService) MarkReady(socketId, roomId string) error {
	t, err := s.acquire(socketId, roomId)
	if err != nil {
		return err
	}
	defer t.Unlock()

	started, err := t.Room.SetReady(socketId)
	if err != nil {
		s.reject(socketId, roomId, err)
		s.sync(t)
		return err
	}
	if started {
		logger(roomId, socketId).Infof("hand #%d started with %d players", t.Room.HandNumber, len(t.Room.TurnOrder))
		s.say(roomId, comm.SeverityInfo, "Hand #%d started", t.Room.HandNumber)
	}
	s.sync(t)
	return nil
}

// Act applies a betting decision from the player holding the turn.
func (s *GameService) Act(socketId, roomId, tag string, amount int64) error {
	action, err := engine.ParseAction(tag)
	if err != nil {
		s.reject(socketId, roomId, err)
		return err
	}

	t, err := s.acquire(socketId, roomId)
	if err != nil {
		return err
	}
	defer t.Unlock()

	rec, err := t.Room.ProcessAction(socketId, action, amount)
	if err != nil {
		s.reject(socketId, roomId, err)
		return err
	}
	s.announce(roomId, rec)
	s.sync(t)
	return nil
}

// NextHand settles a showdown in favour of winnerId. Any seated player may
// name the winner; a second request for the same hand is rejected.
func (s *GameService) NextHand(socketId, roomId, winnerId string) error {
	t, err := s.acquire(socketId, roomId)
	if err != nil {
		return err
	}
	defer t.Unlock()

	if _, ok := t.Room.Player(socketId); !ok {
		err := fmt.Errorf("%w: %s", engine.ErrUnknownPlayer, socketId)
		s.reject(socketId, roomId, err)
		return err
	}
	if err := s.settle(t, winnerId, false); err != nil {
		s.reject(socketId, roomId, err)
		return err
	}
	return nil
}

// Disconnect handles a closed socket in every room it sat in. Between hands
// the seat is freed at once; inside a hand it is folded when its turn comes
// and freed after settlement.
func (s *GameService) Disconnect(socketId string) {
	for _, roomId := range s.rooms.RoomsOf(socketId) {
		t, err := s.rooms.Acquire(roomId, false)
		if err != nil {
			continue
		}
		s.disconnect(t, socketId)
		t.Unlock()
	}
}

func (s *GameService) disconnect(t *registry.Table, socketId string) {
	r := t.Room
	p, ok := r.Player(socketId)
	if !ok {
		return
	}
	name := p.Name
	logger(r.ID, socketId).Infof("%s disconnected", name)

	var err error
	if r.Phase.InHand() {
		err = r.Disconnect(socketId)
	} else {
		err = r.RemovePlayer(socketId)
	}
	if err != nil {
		logger(r.ID, socketId).Errorf("disconnect: %v", err)
	}
	if r.ConnectedCount() == 0 {
		s.close(t, "everyone left")
		return
	}
	s.say(r.ID, comm.SeverityWarning, "%s disconnected", name)
	s.sync(t)
}

// HandleTimeout folds the player a turn timer was armed for, unless the turn
// has moved on since.
func (s *GameService) HandleTimeout(tok turntimer.Token) {
	t, err := s.rooms.Acquire(tok.RoomID, false)
	if err != nil {
		return
	}
	defer t.Unlock()

	r := t.Room
	if !r.Phase.Betting() || r.Token() != (engine.TurnToken{PlayerID: tok.PlayerID, Seq: tok.Seq}) {
		logger(tok.RoomID, tok.PlayerID).Debugf("stale turn timer seq=%d", tok.Seq)
		return
	}

	rec, err := r.ProcessAction(tok.PlayerID, engine.ActionFold, 0)
	if err != nil {
		logger(tok.RoomID, tok.PlayerID).Errorf("timeout fold: %v", err)
		return
	}
	logger(tok.RoomID, tok.PlayerID).Infof("%s timed out", rec.PlayerName)
	s.say(r.ID, comm.SeverityWarning, "%s ran out of time and folds", rec.PlayerName)
	s.sync(t)
}

// Sweep closes empty rooms and rooms idle for longer than MaxInactive.
func (s *GameService) Sweep(now time.Time) []string {
	evicted := s.rooms.Evict(now, s.cfg.MaxInactive)
	for _, id := range evicted {
		s.timers.Cancel(id)
		s.pub.Broadcast(id, comm.TypeRoomClosed, comm.RoomClosed{RoomId: id, Reason: "inactive"})
		log.WithField("room", id).Info("room evicted")
	}
	return evicted
}

// RunSweeper calls Sweep every SweepInterval until ctx is done.
func (s *GameService) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := s.Sweep(s.now()); len(evicted) > 0 {
				log.Infof("sweep closed %d rooms, %d left", len(evicted), s.rooms.Len())
			}
		}
	}
}

func (s *GameService) acquire(socketId, roomId string) (*registry.Table, error) {
	t, err := s.rooms.Acquire(roomId, false)
	if err != nil {
		err = fmt.Errorf("%w: %s", err, roomId)
		s.reject(socketId, roomId, err)
		return nil, err
	}
	return t, nil
}

// sync drives the room after a change: folds disconnected players whose turn
// came up, settles hands decided by folds, then publishes state and the turn
// prompt.
func (s *GameService) sync(t *registry.Table) {
	r := t.Room

	for r.Phase.Betting() {
		p, ok := r.Player(r.CurrentTurn)
		if !ok || p.Connected {
			break
		}
		rec, err := r.ProcessAction(p.ID, engine.ActionFold, 0)
		if err != nil {
			logger(r.ID, p.ID).Errorf("fold disconnected player: %v", err)
			break
		}
		s.announce(r.ID, rec)
	}

	switch {
	case r.Phase == engine.PhaseShowdown:
		s.timers.Cancel(r.ID)
		if winner, ok := r.Survivor(); ok {
			if err := s.settle(t, winner, true); err != nil {
				logger(r.ID, winner).Errorf("auto settle: %v", err)
			}
			return
		}
		s.publishState(r)
		s.say(r.ID, comm.SeverityWarning, "Showdown: select the winner to start the next hand")

	case r.Phase.Betting():
		s.publishState(r)
		s.promptTurn(r)

	default:
		s.timers.Cancel(r.ID)
		s.publishState(r)
	}
}

func (s *GameService) settle(t *registry.Table, winnerId string, auto bool) error {
	r := t.Room
	res, err := r.FinishHand(winnerId)
	if err != nil {
		return err
	}
	s.timers.Cancel(r.ID)

	logger(r.ID, winnerId).Infof("%s wins %d (auto=%t)", res.WinnerName, res.Pot, auto)
	s.pub.Broadcast(r.ID, comm.TypeHandResult, comm.HandResult{
		RoomId:     r.ID,
		WinnerId:   res.WinnerID,
		WinnerName: res.WinnerName,
		Pot:        res.Pot,
		PotText:    comm.FormatChips(res.Pot),
		Auto:       auto,
	})
	s.say(r.ID, comm.SeveritySuccess, "%s wins %s", res.WinnerName, comm.FormatChips(res.Pot))

	// seats of players who dropped mid-hand are freed now
	for _, id := range append([]string(nil), r.Seats...) {
		if p, ok := r.Player(id); ok && !p.Connected {
			if err := r.RemovePlayer(id); err != nil {
				logger(r.ID, id).Errorf("remove disconnected player: %v", err)
			}
		}
	}
	if s.closeIfEmpty(t) {
		return nil
	}
	s.publishState(r)
	return nil
}

func (s *GameService) promptTurn(r *engine.Room) {
	id := r.CurrentTurn
	opts, err := r.Options(id)
	if err != nil {
		logger(r.ID, id).Errorf("turn options: %v", err)
		return
	}
	s.timers.Schedule(turntimer.Token{RoomID: r.ID, PlayerID: id, Seq: r.Seq}, s.cfg.TurnTimeout)
	s.pub.SendTo(id, r.ID, comm.TypePlayerTurn, comm.PlayerTurn{
		RoomId:    r.ID,
		PlayerId:  id,
		Options:   turnOptions(opts),
		TimeLimit: s.timeLeft(r.ID),
	})
}

func (s *GameService) publishState(r *engine.Room) {
	st := r.State()
	s.pub.Broadcast(r.ID, comm.TypeRoomState, st)

	gs := comm.GameState{
		RoomId:      r.ID,
		Phase:       string(st.Phase),
		Pot:         st.Pot,
		CurrentBet:  st.CurrentBet,
		CurrentTurn: st.CurrentTurn,
		HandNumber:  st.HandNumber,
		Players:     seats(st.Players),
	}
	switch {
	case r.Phase.Betting():
		gs.TimeLeft = s.timeLeft(r.ID)
	case r.Phase == engine.PhaseShowdown:
		gs.Contenders = r.Contenders()
	}
	s.pub.Broadcast(r.ID, comm.TypeGameState, gs)
}

// timeLeft is the whole seconds remaining on the room's turn timer.
func (s *GameService) timeLeft(roomId string) int {
	left := s.timers.Remaining(roomId)
	if left <= 0 {
		return int(s.cfg.TurnTimeout / time.Second)
	}
	return int((left + time.Second - 1) / time.Second)
}

func (s *GameService) closeIfEmpty(t *registry.Table) bool {
	if !t.Room.Empty() {
		return false
	}
	s.close(t, "empty")
	return true
}

func (s *GameService) close(t *registry.Table, reason string) {
	id := t.Room.ID
	s.timers.Cancel(id)
	s.rooms.Discard(t)
	s.pub.Broadcast(id, comm.TypeRoomClosed, comm.RoomClosed{RoomId: id, Reason: reason})
	log.WithField("room", id).Infof("room closed: %s", reason)
}

func (s *GameService) announce(roomId string, rec engine.ActionRecord) {
	s.say(roomId, comm.SeverityInfo, "%s", describeAction(rec))
}

func (s *GameService) say(roomId string, sev comm.Severity, format string, args ...any) {
	s.pub.Broadcast(roomId, comm.TypeGameMessage, comm.GameMessage{
		RoomId:   roomId,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	})
}

func (s *GameService) reject(socketId, roomId string, err error) {
	logger(roomId, socketId).Warnf("rejected: %v", err)
	s.pub.SendTo(socketId, roomId, comm.TypeGameError, comm.GameError{RoomId: roomId, Message: err.Error()})
}

func describeAction(rec engine.ActionRecord) string {
	chips := comm.FormatChips(rec.Amount)
	switch rec.Type {
	case engine.ActionFold.String():
		return rec.PlayerName + " folds"
	case engine.ActionCheck.String():
		return rec.PlayerName + " checks"
	case engine.ActionCall.String():
		return rec.PlayerName + " calls " + chips
	case engine.ActionBet.String():
		return rec.PlayerName + " bets " + chips
	case engine.ActionRaise.String():
		return rec.PlayerName + " raises " + chips
	case engine.ActionAllIn.String():
		return rec.PlayerName + " is all-in with " + chips
	default:
		return rec.PlayerName + " " + rec.Type
	}
}

func seats(players []engine.PlayerView) []comm.Seat {
	out := make([]comm.Seat, 0, len(players))
	for _, p := range players {
		out = append(out, comm.Seat{
			ID:         p.ID,
			Name:       p.Name,
			Balance:    p.Balance,
			CurrentBet: p.CurrentBet,
			Folded:     p.Folded,
			IsReady:    p.IsReady,
			Connected:  p.Connected,
			Role:       string(p.Role),
			LastAction: p.LastAction,
		})
	}
	return out
}

func turnOptions(o engine.TurnOptions) comm.TurnOptions {
	out := comm.TurnOptions{Fold: o.Fold, Check: o.Check}
	if o.Call != nil {
		out.Call = &comm.AmountOption{Amount: o.Call.Amount}
	}
	if o.Bet != nil {
		out.Bet = &comm.RangeOption{Min: o.Bet.Min, Max: o.Bet.Max}
	}
	if o.Raise != nil {
		out.Raise = &comm.RangeOption{Min: o.Raise.Min, Max: o.Raise.Max}
	}
	if o.AllIn != nil {
		out.AllIn = &comm.AmountOption{Amount: o.AllIn.Amount}
	}
	return out
}

func logger(roomId, playerId string) *log.Entry {
	return log.WithFields(log.Fields{"room": roomId, "player": playerId})
}
