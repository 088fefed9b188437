package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/blackjack/internal/config"
	"github.com/jason-s-yu/blackjack/internal/game"
	"github.com/jason-s-yu/blackjack/internal/middleware"
)

// Server holds the session registry and serves the HTTP API and the live
// game channel.
type Server struct {
	Store  *game.Store
	Logger *logrus.Logger
	cfg    config.Config
}

// NewServer wires a Server around store.
func NewServer(store *game.Store, logger *logrus.Logger, cfg config.Config) *Server {
	return &Server{
		Store:  store,
		Logger: logger,
		cfg:    cfg,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(s.Logger))
	r.Use(middleware.LogMiddleware(s.Logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/new-game", s.NewGame).Methods(http.MethodPost)
	api.HandleFunc("/join-game", s.JoinGame).Methods(http.MethodPost)
	api.HandleFunc("/leave-game", s.LeaveGame).Methods(http.MethodPost)
	api.HandleFunc("/health", s.Health).Methods(http.MethodGet)

	r.HandleFunc("/games/{id}/{secret}", s.GameWSHandler).Methods(http.MethodGet)
	return r
}
