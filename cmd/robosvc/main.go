// cmd/robosvc/main.go
package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"time"

	config "github.com/avvvet/poker-services/configs"
	"github.com/avvvet/poker-services/internal/comm"
	natscli "github.com/avvvet/poker-services/internal/nats"
	"github.com/avvvet/poker-services/internal/robosvc"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const SERVICE_NAME = "robot"

var instanceId string

func init() {
	instanceId = "001"
	config.Setup(SERVICE_NAME, SERVICE_NAME+"_service_"+instanceId)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Errorf("robot service: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ROBOT")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:          "robosvc",
		Short:        "Seat house players at a poker room",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(v.GetString("room"), v.GetInt("count"), v.GetBool("arbiter"), v.GetInt64("seed"))
		},
	}

	flags := cmd.Flags()
	flags.String("room", "house", "room id to join (ROBOT_ROOM)")
	flags.Int("count", 3, "number of robots (ROBOT_COUNT)")
	flags.Bool("arbiter", true, "let robots pick showdown winners (ROBOT_ARBITER)")
	flags.Int64("seed", time.Now().UnixNano(), "random seed (ROBOT_SEED)")
	_ = v.BindPFlags(flags)

	return cmd
}

func run(roomId string, count int, arbiter bool, seed int64) error {
	log.Infof("Starting Robot Service: %d robots for room %s", count, roomId)

	nc, err := natscli.Connect(SERVICE_NAME + "_service_" + instanceId)
	if err != nil {
		return err
	}
	defer nc.Conn.Close()
	log.Infof("NATS connected at %s", nc.Url)

	fleet := robosvc.NewFleet(nc.Conn, roomId, count, seed)
	fleet.Arbiter = arbiter

	// NATS delivers one subscription's messages in order on one goroutine,
	// which is all the fleet needs.
	sub, err := nc.Conn.Subscribe(comm.GameSubject, func(m *nats.Msg) {
		msg := &comm.WSMessage{}
		if err := json.Unmarshal(m.Data, msg); err != nil {
			log.Errorf("Error nats message %s", err)
			return
		}
		fleet.Handle(msg)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fleet.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	select {
	case <-stop:
		fleet.Stop()
		if err := nc.Conn.Flush(); err != nil {
			log.Warnf("flush on shutdown: %v", err)
		}
	case <-fleet.Done():
	}

	log.Infof("%s service stopped", SERVICE_NAME)
	return nil
}
