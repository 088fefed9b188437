package models

import (
	"encoding/json"
	"fmt"
)

// ActionType names an inbound client action.
type ActionType string

const (
	ActionStartGame ActionType = "startGame"
	ActionHit       ActionType = "hit"
	ActionStand     ActionType = "stand"
)

// GameAction is a client request. Player carries the sender's secret, which
// is the only proof of identity.
type GameAction struct {
	Type   ActionType `json:"type"`
	Player string     `json:"player"`
}

// IsTurnAction reports whether the action is taken on the sender's turn.
func (a GameAction) IsTurnAction() bool {
	return a.Type == ActionHit || a.Type == ActionStand
}

// ParseAction decodes an inbound frame. Any payload that is not an object
// with a known type and a player secret is rejected with ErrMalformedAction.
func ParseAction(data []byte) (GameAction, error) {
	var raw struct {
		Type   *string `json:"type"`
		Player *string `json:"player"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return GameAction{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if raw.Type == nil {
		return GameAction{}, fmt.Errorf("%w: invalid type for action: null", ErrMalformedAction)
	}
	if raw.Player == nil {
		return GameAction{}, fmt.Errorf("%w: invalid player", ErrMalformedAction)
	}

	switch t := ActionType(*raw.Type); t {
	case ActionStartGame, ActionHit, ActionStand:
		return GameAction{Type: t, Player: *raw.Player}, nil
	default:
		return GameAction{}, fmt.Errorf("%w: invalid type for action: %s", ErrMalformedAction, t)
	}
}
