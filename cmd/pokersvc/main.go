package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/poker-services/configs"
	"github.com/avvvet/poker-services/internal/comm"
	nats "github.com/avvvet/poker-services/internal/nats"
	"github.com/avvvet/poker-services/internal/pokersvc/broker"
	svcconfig "github.com/avvvet/poker-services/internal/pokersvc/config"
	"github.com/avvvet/poker-services/internal/pokersvc/handlers"
	"github.com/avvvet/poker-services/internal/pokersvc/registry"
	"github.com/avvvet/poker-services/internal/pokersvc/service"
	"github.com/avvvet/poker-services/internal/pokersvc/turntimer"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "poker"

var instanceId string

func init() {
	instanceId = "001"
	config.Setup(SERVICE_NAME, SERVICE_NAME+"_service_"+instanceId)
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.CreateUniqueInstance(SERVICE_NAME)

	// Connect to NATS
	n, err := nats.Connect(SERVICE_NAME + "_service_" + instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	rooms := registry.NewRoomStore(cfg.Table)

	// init peer message broker; the game service publishes through it
	b := broker.NewBroker(n.Conn)

	var gameService *service.GameService
	timers := turntimer.New(func(tok turntimer.Token) { gameService.HandleTimeout(tok) })
	defer timers.Stop()

	gameService = service.NewGameService(rooms, b, cfg, service.WithScheduler(timers))
	b.Game = gameService

	// subscribe to socket service
	sub, err := b.SubscribeSocketService(comm.SocketSubject)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	ctx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go gameService.RunSweeper(ctx)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(rooms, cfg.Port)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
