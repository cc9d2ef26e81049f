package turntimer

import (
	"sync"
	"time"
)

// Token names the decision a timer was armed for.
type Token struct {
	RoomID   string
	PlayerID string
	Seq      uint64
}

// Stopper is the part of *time.Timer the scheduler needs.
type Stopper interface {
	Stop() bool
}

// AfterFunc arms fn to run after d.
type AfterFunc func(d time.Duration, fn func()) Stopper

type entry struct {
	token    Token
	deadline time.Time
	timer    Stopper
}

// Scheduler keeps at most one pending turn timer per room. A timer that fires
// after it was replaced or cancelled is dropped.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*entry
	after   AfterFunc
	now     func() time.Time
	fire    func(Token)
}

type Option func(*Scheduler)

func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) { s.after = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New builds a scheduler calling fire for every timer that runs out.
func New(fire func(Token), opts ...Option) *Scheduler {
	s := &Scheduler{
		pending: make(map[string]*entry),
		after: func(d time.Duration, fn func()) Stopper {
			return time.AfterFunc(d, fn)
		},
		now:  time.Now,
		fire: fire,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms a timer for tok, replacing whatever was pending for the room.
func (s *Scheduler) Schedule(tok Token, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[tok.RoomID]; ok {
		if old.token == tok {
			return
		}
		old.timer.Stop()
	}
	e := &entry{token: tok, deadline: s.now().Add(d)}
	e.timer = s.after(d, func() { s.expire(e) })
	s.pending[tok.RoomID] = e
}

func (s *Scheduler) expire(e *entry) {
	s.mu.Lock()
	cur, ok := s.pending[e.token.RoomID]
	if !ok || cur != e {
		s.mu.Unlock()
		return
	}
	delete(s.pending, e.token.RoomID)
	s.mu.Unlock()

	s.fire(e.token)
}

// Cancel disarms the room's timer, if any.
func (s *Scheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[roomID]; ok {
		e.timer.Stop()
		delete(s.pending, roomID)
	}
}

// Pending returns the token currently armed for the room.
func (s *Scheduler) Pending(roomID string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[roomID]
	if !ok {
		return Token{}, false
	}
	return e.token, true
}

// Remaining is the time left on the room's timer, zero when nothing is armed
// or the deadline has passed.
func (s *Scheduler) Remaining(roomID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[roomID]
	if !ok {
		return 0
	}
	left := e.deadline.Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

// Stop disarms every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, id)
	}
}
