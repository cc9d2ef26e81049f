package broker

import (
	"encoding/json"

	"github.com/avvvet/poker-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Conn is the part of *nats.Conn the gateway uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Hub is the websocket side: live connections and room membership.
type Hub interface {
	Send(socketId string, m *comm.WSMessage) bool
	RoomSockets(roomId string) []string
	JoinRoom(roomId, socketId string)
	LeaveRoom(roomId, socketId string)
	CloseRoom(roomId string)
}

type Broker struct {
	Conn Conn
	Hub  Hub
}

func NewBroker(conn Conn, hub Hub) *Broker {
	return &Broker{
		Conn: conn,
		Hub:  hub,
	}
}

// consume messages from the poker service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// publish message to the poker service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages receive message from game service
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Route(message)
}

// Route keeps room membership in step with the poker service and delivers
// the message: to one socket when SocketId is set, otherwise to the room.
func (b *Broker) Route(m *comm.WSMessage) {
	switch m.Type {
	case comm.TypeRoomJoined:
		if m.SocketId != "" && m.RoomId != "" {
			b.Hub.JoinRoom(m.RoomId, m.SocketId)
		}
		b.deliver(m)
	case comm.TypeRoomLeft:
		b.deliver(m)
		if m.SocketId != "" && m.RoomId != "" {
			b.Hub.LeaveRoom(m.RoomId, m.SocketId)
		}
	case comm.TypeRoomClosed:
		b.deliver(m)
		b.Hub.CloseRoom(m.RoomId)
	case comm.TypeRoomState, comm.TypeGameState, comm.TypePlayerTurn,
		comm.TypeHandResult, comm.TypeGameMessage, comm.TypeGameError:
		b.deliver(m)
	default:
		log.Errorf("Unknown message %q", m.Type)
	}
}

func (b *Broker) deliver(m *comm.WSMessage) {
	if m.SocketId != "" {
		if !b.Hub.Send(m.SocketId, m) {
			log.Debugf("socket %s gone, dropped %s", m.SocketId, m.Type)
		}
		return
	}

	if m.RoomId == "" {
		log.Warnf("dropping %s with no recipient", m.Type)
		return
	}

	for _, socketId := range b.Hub.RoomSockets(m.RoomId) {
		b.Hub.Send(socketId, m)
	}
}
