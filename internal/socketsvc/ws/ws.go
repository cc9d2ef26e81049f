package ws

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/avvvet/poker-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// client serializes writes; gorilla allows one concurrent writer per conn.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *client

	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // roomId -> socketIds

	Broker *broker.Broker
}

func NewWs() *Ws {
	return &Ws{rooms: make(map[string]map[string]struct{})}
}

// SocketMessage forwards a client intent to the poker service, stamped with
// the socket it came from.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case comm.TypeJoinRoom, comm.TypeLeaveRoom, comm.TypePlayerReady,
		comm.TypePlayerAction, comm.TypeNextHand:
		message.SocketId = socketId
		s.forward(message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
		s.SendError(socketId, "unknown message type "+message.Type)
	}
}

// HandleDisconnect drops the socket and tells the poker service, which
// decides what happens to any seats it held.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)

	s.mu.Lock()
	for roomId, members := range s.rooms {
		delete(members, socketId)
		if len(members) == 0 {
			delete(s.rooms, roomId)
		}
	}
	s.mu.Unlock()

	s.forward(&comm.WSMessage{Type: comm.TypeDisconnect, SocketId: socketId, Data: json.RawMessage(`{}`)})
}

func (s *Ws) forward(msg *comm.WSMessage) {
	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(comm.SocketSubject, bytes); err != nil {
		s.SendError(msg.SocketId, "poker service unavailable")
		return
	}

	log.Debugf("forwarded %s from socket %s", msg.Type, msg.SocketId)
}

// SendError reports a gateway-level problem straight to the client.
func (s *Ws) SendError(socketId, errorMsg string) {
	msg, err := comm.NewMessage(comm.TypeGameError, comm.GameError{Message: errorMsg}, socketId, "")
	if err != nil {
		log.Errorf("Failed to build error message: %v", err)
		return
	}
	s.Send(socketId, msg)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*client).conn, true
}

// Send writes m to one socket. It reports false when the socket is gone.
func (s *Ws) Send(socketId string, m *comm.WSMessage) bool {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return false
	}
	if err := c.(*client).write(m); err != nil {
		log.Warnf("write to socket %s failed: %v", socketId, err)
		return false
	}
	return true
}

func (s *Ws) JoinRoom(roomId, socketId string) {
	if _, ok := s.connMap.Load(socketId); !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.rooms[roomId]
	if !ok {
		members = make(map[string]struct{})
		s.rooms[roomId] = members
	}
	members[socketId] = struct{}{}
}

func (s *Ws) LeaveRoom(roomId, socketId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if members, ok := s.rooms[roomId]; ok {
		delete(members, socketId)
		if len(members) == 0 {
			delete(s.rooms, roomId)
		}
	}
}

func (s *Ws) CloseRoom(roomId string) {
	s.mu.Lock()
	delete(s.rooms, roomId)
	s.mu.Unlock()
}

// RoomSockets returns the room's sockets in a stable order.
func (s *Ws) RoomSockets(roomId string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.rooms[roomId]
	sockets := make([]string, 0, len(members))
	for id := range members {
		sockets = append(sockets, id)
	}
	sort.Strings(sockets)
	return sockets
}

func (s *Ws) ConnectionCount() int {
	count := 0
	s.connMap.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

func (s *Ws) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
