package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/blackjack/internal/models"
)

type newGameRequest struct {
	Name string `json:"name"`
}

type newGameResponse struct {
	GameID       string `json:"gameId"`
	PlayerSecret string `json:"playerSecret"`
}

type joinGameRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type leaveGameRequest struct {
	Code   string `json:"code"`
	Player string `json:"player"`
}

type healthResponse struct {
	Status string `json:"status"`
	Games  int    `json:"games"`
}

// NewGame creates a session owned by the caller and returns its id and the
// owner's secret.
func (s *Server) NewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	name := SanitizeName(req.Name)
	if name == "" {
		http.Error(w, "No player name provided", http.StatusBadRequest)
		return
	}

	sess, owner, err := s.Store.Create(name)
	if err != nil {
		if errors.Is(err, models.ErrIDSpaceExhausted) {
			http.Error(w, "Server is full", http.StatusServiceUnavailable)
			return
		}
		s.Logger.WithError(err).Error("failed to create game")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.Logger.WithFields(logrus.Fields{"game": sess.ID, "player": name}).Info("game created")
	writeJSON(w, http.StatusOK, newGameResponse{GameID: sess.ID, PlayerSecret: owner.Secret})
}

// JoinGame seats the caller in an existing session and returns their secret
// as plain text.
func (s *Server) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !ValidCode(req.Code) {
		http.Error(w, "Invalid code", http.StatusBadRequest)
		return
	}
	sess, ok := s.Store.Get(req.Code)
	if !ok {
		http.Error(w, "Invalid code", http.StatusBadRequest)
		return
	}

	name := SanitizeName(req.Name)
	if name == "" {
		http.Error(w, "Name already taken", http.StatusBadRequest)
		return
	}
	p := s.Store.NewPlayer(name)
	added, err := sess.AddPlayer(r.Context(), p)
	if err != nil {
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}
	if !added {
		http.Error(w, "Name already taken", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(p.Secret))
}

// LeaveGame removes the caller from a session. The host cannot leave.
func (s *Server) LeaveGame(w http.ResponseWriter, r *http.Request) {
	var req leaveGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, ok := s.Store.Get(req.Code)
	if !ValidCode(req.Code) || !ok {
		http.Error(w, "Invalid code", http.StatusBadRequest)
		return
	}

	p, err := sess.PlayerBySecret(r.Context(), req.Player)
	if err != nil {
		http.Error(w, "Invalid player", http.StatusBadRequest)
		return
	}
	if p.Name == sess.Owner {
		http.Error(w, "Host cannot leave the game", http.StatusBadRequest)
		return
	}
	if err := sess.RemovePlayer(r.Context(), p); err != nil {
		http.Error(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness and the number of live sessions.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Games: s.Store.Len()})
}
