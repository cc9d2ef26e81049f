package broker

import (
	"encoding/json"
	"testing"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	live  map[string]bool
	rooms map[string][]string
	sent  map[string][]string // socketId -> message types
}

func newHub(sockets ...string) *fakeHub {
	h := &fakeHub{live: map[string]bool{}, rooms: map[string][]string{}, sent: map[string][]string{}}
	for _, s := range sockets {
		h.live[s] = true
	}
	return h
}

func (h *fakeHub) Send(socketId string, m *comm.WSMessage) bool {
	if !h.live[socketId] {
		return false
	}
	h.sent[socketId] = append(h.sent[socketId], m.Type)
	return true
}

func (h *fakeHub) RoomSockets(roomId string) []string { return h.rooms[roomId] }
func (h *fakeHub) JoinRoom(roomId, socketId string) {
	h.rooms[roomId] = append(h.rooms[roomId], socketId)
}
func (h *fakeHub) LeaveRoom(roomId, socketId string) {
	var keep []string
	for _, s := range h.rooms[roomId] {
		if s != socketId {
			keep = append(keep, s)
		}
	}
	h.rooms[roomId] = keep
}
func (h *fakeHub) CloseRoom(roomId string) { delete(h.rooms, roomId) }

type nopConn struct{}

func (nopConn) Publish(string, []byte) error { return nil }
func (nopConn) Subscribe(subject string, _ nats.MsgHandler) (*nats.Subscription, error) {
	return &nats.Subscription{Subject: subject}, nil
}

func msg(t *testing.T, msgType, socketId, roomId string) *comm.WSMessage {
	t.Helper()
	m, err := comm.NewMessage(msgType, json.RawMessage(`{}`), socketId, roomId)
	require.NoError(t, err)
	return m
}

func TestRouteTracksMembership(t *testing.T) {
	hub := newHub("a", "b", "c")
	b := NewBroker(nopConn{}, hub)

	b.Route(msg(t, comm.TypeRoomJoined, "a", "t1"))
	b.Route(msg(t, comm.TypeRoomJoined, "b", "t1"))
	b.Route(msg(t, comm.TypeRoomJoined, "c", "t2"))
	require.Equal(t, []string{"a", "b"}, hub.rooms["t1"])

	b.Route(msg(t, comm.TypeRoomState, "", "t1"))
	assert.Equal(t, []string{comm.TypeRoomJoined, comm.TypeRoomState}, hub.sent["a"])
	assert.Equal(t, []string{comm.TypeRoomJoined}, hub.sent["c"])

	b.Route(msg(t, comm.TypeRoomLeft, "a", "t1"))
	require.Equal(t, []string{"b"}, hub.rooms["t1"])
	assert.Equal(t, comm.TypeRoomLeft, hub.sent["a"][len(hub.sent["a"])-1])

	b.Route(msg(t, comm.TypeRoomClosed, "", "t1"))
	assert.Equal(t, comm.TypeRoomClosed, hub.sent["b"][len(hub.sent["b"])-1])
	_, ok := hub.rooms["t1"]
	assert.False(t, ok)
}

func TestRouteDirectAndDropped(t *testing.T) {
	hub := newHub("a")
	b := NewBroker(nopConn{}, hub)
	hub.rooms["t1"] = []string{"a"}

	b.Route(msg(t, comm.TypePlayerTurn, "a", "t1"))
	b.Route(msg(t, comm.TypeGameError, "gone", "t1"))
	b.Route(msg(t, comm.TypeGameMessage, "", ""))
	b.Route(msg(t, "init-response", "a", "t1"))

	assert.Equal(t, []string{comm.TypePlayerTurn}, hub.sent["a"])
	assert.Empty(t, hub.sent["gone"])
}

func TestHandleMessagesIgnoresGarbage(t *testing.T) {
	hub := newHub("a")
	b := NewBroker(nopConn{}, hub)
	b.handleMessages(&nats.Msg{Data: []byte("not json")})
	assert.Empty(t, hub.sent)
}
