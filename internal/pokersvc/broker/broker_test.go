package broker

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	msg     comm.WSMessage
}

type fakeConn struct {
	out  []published
	fail bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.fail {
		return errors.New("nats: connection closed")
	}
	var m comm.WSMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.out = append(f.out, published{subject: subject, msg: m})
	return nil
}

func (f *fakeConn) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	return &nats.Subscription{Subject: subject}, nil
}

type call struct {
	op   string
	args []any
}

type fakeGame struct{ calls []call }

func (g *fakeGame) record(op string, args ...any) error {
	g.calls = append(g.calls, call{op: op, args: args})
	return nil
}

func (g *fakeGame) Join(s, r, n string) error     { return g.record("join", s, r, n) }
func (g *fakeGame) Leave(s, r string) error       { return g.record("leave", s, r) }
func (g *fakeGame) MarkReady(s, r string) error   { return g.record("ready", s, r) }
func (g *fakeGame) NextHand(s, r, w string) error { return g.record("next", s, r, w) }
func (g *fakeGame) Disconnect(s string)           { _ = g.record("disconnect", s) }
func (g *fakeGame) Act(s, r, a string, amt int64) error {
	return g.record("act", s, r, a, amt)
}

func envelope(t *testing.T, msgType, socket string, data any) *comm.WSMessage {
	t.Helper()
	msg, err := comm.NewMessage(msgType, data, socket, "")
	require.NoError(t, err)
	return msg
}

func TestDispatch(t *testing.T) {
	conn := &fakeConn{}
	game := &fakeGame{}
	b := NewBroker(conn)
	b.Game = game

	b.Dispatch(envelope(t, comm.TypeJoinRoom, "s1", comm.JoinRoom{Name: "alice", RoomId: "t1"}))
	b.Dispatch(envelope(t, comm.TypePlayerReady, "s1", comm.RoomRequest{RoomId: "t1"}))
	b.Dispatch(envelope(t, comm.TypePlayerAction, "s1", comm.PlayerAction{RoomId: "t1", Action: "raise", Amount: 40}))
	b.Dispatch(envelope(t, comm.TypeNextHand, "s1", comm.NextHand{RoomId: "t1", WinnerId: "s2"}))
	b.Dispatch(envelope(t, comm.TypeLeaveRoom, "s1", comm.RoomRequest{RoomId: "t1"}))
	b.Dispatch(&comm.WSMessage{Type: comm.TypeDisconnect, SocketId: "s1"})

	require.Equal(t, []call{
		{op: "join", args: []any{"s1", "t1", "alice"}},
		{op: "ready", args: []any{"s1", "t1"}},
		{op: "act", args: []any{"s1", "t1", "raise", int64(40)}},
		{op: "next", args: []any{"s1", "t1", "s2"}},
		{op: "leave", args: []any{"s1", "t1"}},
		{op: "disconnect", args: []any{"s1"}},
	}, game.calls)
	require.Empty(t, conn.out)
}

func TestDispatch_Malformed(t *testing.T) {
	conn := &fakeConn{}
	game := &fakeGame{}
	b := NewBroker(conn)
	b.Game = game

	b.Dispatch(&comm.WSMessage{Type: comm.TypeJoinRoom, SocketId: "s1", Data: json.RawMessage(`[1,2]`)})
	b.Dispatch(&comm.WSMessage{Type: comm.TypeJoinRoom, Data: json.RawMessage(`{}`)})
	b.Dispatch(&comm.WSMessage{Type: "dance", SocketId: "s1"})

	require.Empty(t, game.calls)
	require.Len(t, conn.out, 1)
	require.Equal(t, comm.GameSubject, conn.out[0].subject)
	require.Equal(t, comm.TypeGameError, conn.out[0].msg.Type)
	require.Equal(t, "s1", conn.out[0].msg.SocketId)
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	b := NewBroker(conn)

	b.SendTo("s1", "t1", comm.TypeRoomLeft, comm.RoomLeft{RoomId: "t1"})
	b.Broadcast("t1", comm.TypeGameMessage, comm.GameMessage{Message: "hi", Severity: comm.SeverityInfo})

	require.Len(t, conn.out, 2)
	require.Equal(t, "s1", conn.out[0].msg.SocketId)
	require.Equal(t, "t1", conn.out[0].msg.RoomId)
	require.Empty(t, conn.out[1].msg.SocketId)
	require.Equal(t, "t1", conn.out[1].msg.RoomId)
	require.JSONEq(t, `{"message":"hi","severity":"info"}`, string(conn.out[1].msg.Data))

	conn.fail = true
	require.Error(t, b.Publish(comm.GameSubject, []byte(`{}`)))
}
