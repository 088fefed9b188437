package models

import "errors"

var (
	// Request validation
	ErrInvalidName = errors.New("no player name provided")
	ErrInvalidCode = errors.New("invalid code")
	ErrNameTaken   = errors.New("name already taken")

	// Lookup
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")

	// Registry
	ErrIDSpaceExhausted = errors.New("could not allocate a free game id")

	// Actions
	ErrMalformedAction = errors.New("malformed action")
	ErrUnknownAction   = errors.New("unknown action type")

	// Transport
	ErrOutboxFull = errors.New("outbox full")
)
