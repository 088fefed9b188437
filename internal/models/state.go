package models

import "time"

// MessageType discriminates the messages written to the live channel.
type MessageType string

const (
	MessageTypeGame   MessageType = "game"
	MessageTypePlayer MessageType = "player"
	MessageTypeError  MessageType = "error"
)

// PlayerState is the public view of one seat inside a GameState.
type PlayerState struct {
	Name       string  `json:"name"`
	LastAction *string `json:"lastAction"`
	Online     bool    `json:"online"`
}

// GameState is an immutable snapshot of a game broadcast to every viewer.
// Values are never modified once published; use Clone before deriving a
// new snapshot.
type GameState struct {
	Type          MessageType   `json:"type"`
	ID            string        `json:"id"`
	Host          string        `json:"host"`
	Players       []PlayerState `json:"players"`
	CurrentPlayer string        `json:"currentPlayer"`
	Started       bool          `json:"started"`
}

// NewGameState is the snapshot of a freshly created game: only the host is
// seated and it is nominally the host's turn.
func NewGameState(id, host string) GameState {
	return GameState{
		Type:          MessageTypeGame,
		ID:            id,
		Host:          host,
		Players:       []PlayerState{{Name: host}},
		CurrentPlayer: host,
	}
}

// Clone returns a copy that shares no memory with s.
func (s GameState) Clone() GameState {
	out := s
	out.Players = make([]PlayerState, len(s.Players))
	for i, ps := range s.Players {
		if ps.LastAction != nil {
			action := *ps.LastAction
			ps.LastAction = &action
		}
		out.Players[i] = ps
	}
	return out
}

// Player returns the state of the named seat.
func (s GameState) Player(name string) (PlayerState, bool) {
	for _, ps := range s.Players {
		if ps.Name == name {
			return ps, true
		}
	}
	return PlayerState{}, false
}

// PlayerMessage is sent privately to one player and carries their hand.
type PlayerMessage struct {
	Type   MessageType `json:"type"`
	Name   string      `json:"name"`
	Secret string      `json:"secret"`
	Hand   []Card      `json:"hand"`
}

// ErrorMessage reports a problem to a single client.
type ErrorMessage struct {
	Type      MessageType `json:"type"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp"`
}

// NewErrorMessage stamps msg with the current time in epoch seconds.
func NewErrorMessage(msg string) ErrorMessage {
	return ErrorMessage{
		Type:      MessageTypeError,
		Message:   msg,
		Timestamp: time.Now().Unix(),
	}
}
