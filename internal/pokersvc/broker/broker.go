package broker

import (
	"encoding/json"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Game is what the broker dispatches socket intents to.
type Game interface {
	Join(socketId, roomId, name string) error
	Leave(socketId, roomId string) error
	MarkReady(socketId, roomId string) error
	Act(socketId, roomId, action string, amount int64) error
	NextHand(socketId, roomId, winnerId string) error
	Disconnect(socketId string)
}

// Conn is the part of *nats.Conn the broker uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type Broker struct {
	Conn Conn
	Game Game
}

func NewBroker(nc Conn) *Broker {
	return &Broker{Conn: nc}
}

// SubscribeSocketService consumes client intents forwarded by the gateway.
func (b *Broker) SubscribeSocketService(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}
	b.Dispatch(msg)
}

// Dispatch routes one envelope to the game service. Handler errors have
// already been reported to the client, so they are not logged again here.
func (b *Broker) Dispatch(msg *comm.WSMessage) {
	if msg.SocketId == "" {
		log.Warnf("dropping %s without socket id", msg.Type)
		return
	}

	switch msg.Type {
	case comm.TypeJoinRoom:
		var req comm.JoinRoom
		if !b.decode(msg, &req) {
			return
		}
		_ = b.Game.Join(msg.SocketId, req.RoomId, req.Name)

	case comm.TypeLeaveRoom:
		var req comm.RoomRequest
		if !b.decode(msg, &req) {
			return
		}
		_ = b.Game.Leave(msg.SocketId, req.RoomId)

	case comm.TypePlayerReady:
		var req comm.RoomRequest
		if !b.decode(msg, &req) {
			return
		}
		_ = b.Game.MarkReady(msg.SocketId, req.RoomId)

	case comm.TypePlayerAction:
		var req comm.PlayerAction
		if !b.decode(msg, &req) {
			return
		}
		_ = b.Game.Act(msg.SocketId, req.RoomId, req.Action, req.Amount)

	case comm.TypeNextHand:
		var req comm.NextHand
		if !b.decode(msg, &req) {
			return
		}
		_ = b.Game.NextHand(msg.SocketId, req.RoomId, req.WinnerId)

	case comm.TypeDisconnect:
		b.Game.Disconnect(msg.SocketId)

	default:
		log.Warnf("unknown message type %q from %s", msg.Type, msg.SocketId)
	}
}

func (b *Broker) decode(msg *comm.WSMessage, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		log.Errorf("Error decoding %s from %s: %s", msg.Type, msg.SocketId, err)
		b.SendTo(msg.SocketId, msg.RoomId, comm.TypeGameError, comm.GameError{Message: "malformed " + msg.Type + " payload"})
		return false
	}
	return true
}

// SendTo publishes a message for one socket.
func (b *Broker) SendTo(socketId, roomId, msgType string, data any) {
	b.publish(msgType, data, socketId, roomId)
}

// Broadcast publishes a message for every socket in the room.
func (b *Broker) Broadcast(roomId, msgType string, data any) {
	b.publish(msgType, data, "", roomId)
}

func (b *Broker) publish(msgType string, data any, socketId, roomId string) {
	msg, err := comm.NewMessage(msgType, data, socketId, roomId)
	if err != nil {
		log.Errorf("unable to marshal %s for room %s: %s", msgType, roomId, err)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	// Publish logs its own failures
	_ = b.Publish(comm.GameSubject, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
