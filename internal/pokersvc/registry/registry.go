package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/poker-services/internal/pokersvc/engine"
)

var ErrRoomNotFound = errors.New("room not found")

// Table pairs a room with the lock that serializes every message for it.
type Table struct {
	sync.Mutex
	Room *engine.Room

	closed bool
}

// RoomStore is the in-memory set of live rooms. The store lock is never held
// while waiting for a table lock, so callers may call back into the store
// while holding a table.
type RoomStore struct {
	mu     sync.RWMutex
	tables map[string]*Table
	cfg    engine.Config
	opts   []engine.Option
}

func NewRoomStore(cfg engine.Config, opts ...engine.Option) *RoomStore {
	return &RoomStore{
		tables: make(map[string]*Table),
		cfg:    cfg,
		opts:   opts,
	}
}

// Acquire returns the locked table for id, creating the room when create is
// set. The caller must Unlock it.
func (s *RoomStore) Acquire(id string, create bool) (*Table, error) {
	for {
		t, ok := s.lookup(id, create)
		if !ok {
			return nil, ErrRoomNotFound
		}
		t.Lock()
		if !t.closed {
			return t, nil
		}
		// evicted between lookup and lock
		t.Unlock()
		s.drop(id, t)
	}
}

func (s *RoomStore) lookup(id string, create bool) (*Table, bool) {
	s.mu.RLock()
	t, ok := s.tables[id]
	s.mu.RUnlock()
	if ok || !create {
		return t, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[id]; ok {
		return t, true
	}
	t = &Table{Room: engine.NewRoom(id, s.cfg, s.opts...)}
	s.tables[id] = t
	return t, true
}

// Discard closes a table the caller holds locked and forgets it.
func (s *RoomStore) Discard(t *Table) {
	t.closed = true
	s.drop(t.Room.ID, t)
}

func (s *RoomStore) drop(id string, t *Table) {
	s.mu.Lock()
	if cur, ok := s.tables[id]; ok && cur == t {
		delete(s.tables, id)
	}
	s.mu.Unlock()
}

func (s *RoomStore) snapshot() []*Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

// RoomsOf lists the rooms a player is seated in.
func (s *RoomStore) RoomsOf(playerID string) []string {
	var ids []string
	for _, t := range s.snapshot() {
		t.Lock()
		if !t.closed {
			if _, ok := t.Room.Player(playerID); ok {
				ids = append(ids, t.Room.ID)
			}
		}
		t.Unlock()
	}
	sort.Strings(ids)
	return ids
}

// Evict closes rooms that are empty or have been idle longer than maxIdle and
// returns their ids.
func (s *RoomStore) Evict(now time.Time, maxIdle time.Duration) []string {
	var evicted []string
	for _, t := range s.snapshot() {
		t.Lock()
		if !t.closed && (t.Room.Empty() || t.Room.IdleFor(now) > maxIdle) {
			evicted = append(evicted, t.Room.ID)
			s.Discard(t)
		}
		t.Unlock()
	}
	sort.Strings(evicted)
	return evicted
}

// List returns a short view of every room ordered by id.
func (s *RoomStore) List() []engine.RoomInfo {
	var out []engine.RoomInfo
	for _, t := range s.snapshot() {
		t.Lock()
		if !t.closed {
			out = append(out, t.Room.Info())
		}
		t.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Stats struct {
	Rooms       int                  `json:"rooms"`
	Players     int                  `json:"players"`
	Connected   int                  `json:"connected"`
	ActiveGames int                  `json:"activeGames"`
	HandsPlayed int                  `json:"handsPlayed"`
	Phases      map[engine.Phase]int `json:"phases"`
}

func (s *RoomStore) Stats() Stats {
	st := Stats{Phases: make(map[engine.Phase]int)}
	for _, t := range s.snapshot() {
		t.Lock()
		if !t.closed {
			r := t.Room
			st.Rooms++
			st.Players += r.PlayerCount()
			st.Connected += r.ConnectedCount()
			st.HandsPlayed += r.HandNumber
			if r.Phase.InHand() {
				st.ActiveGames++
			}
			st.Phases[r.Phase]++
		}
		t.Unlock()
	}
	return st
}
