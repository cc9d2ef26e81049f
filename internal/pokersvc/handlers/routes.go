package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// ops routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/rooms", h.RoomsHandler)
			r.Get("/stats", h.StatsHandler)
		})
	})
}

// InitAuth sets the HS256 key for the ops routes and returns a week-long
// operator token, which is logged at debug level.
func (h *Handler) InitAuth(jwtKey string) string {
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": "pokersvc-ops",
		"exp":        expirationTime,
	})
	if err != nil {
		log.Errorf("unable to issue operator token: %v", err)
		return ""
	}

	log.Debugf("operator JWT (7 days): %s", tokenString)
	return tokenString
}
