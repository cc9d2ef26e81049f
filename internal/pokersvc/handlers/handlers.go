package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avvvet/poker-services/internal/pokersvc/registry"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	rooms     *registry.RoomStore
	port      string
	started   time.Time
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func NewHandler(rooms *registry.RoomStore, port string) *Handler {
	return &Handler{
		rooms:   rooms,
		port:    port,
		started: time.Now(),
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "poker service is running at port " + h.port,
		Code:    http.StatusOK,
		Data: map[string]interface{}{
			"rooms":  h.rooms.Len(),
			"uptime": time.Since(h.started).Round(time.Second).String(),
		},
	})
}

// RoomsHandler lists every live room.
func (h *Handler) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := h.rooms.List()
	h.CreateResponse(w, Response{
		Message: "rooms",
		Code:    http.StatusOK,
		Data:    rooms,
	})
}

// StatsHandler reports totals across rooms.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "stats",
		Code:    http.StatusOK,
		Data:    h.rooms.Stats(),
	})
}
