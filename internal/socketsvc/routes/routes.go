package routes

import (
	"time"

	"github.com/avvvet/poker-services/internal/socketsvc/handlers"
	"github.com/avvvet/poker-services/internal/socketsvc/ws"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

var tokenAuth *jwtauth.JWTAuth

func SetRoutes(r chi.Router, ws *ws.Ws) {
	h := handlers.NewHandler(ws)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/health", h.HealthHandler)
		})
	})
}

// InitAuth must run before SetRoutes.
func InitAuth(jwtKey string) string {
	tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{
		"service_id": "socketsvc-ops",
		"exp":        expirationTime,
	})
	if err != nil {
		log.Errorf("unable to issue operator token: %v", err)
		return ""
	}

	log.Debugf("operator JWT (7 days): %s", tokenString)
	return tokenString
}
