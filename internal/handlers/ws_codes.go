package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game channel. These provide more
// specific reasons for closure than standard codes.
const (
	InvalidGameIDError       websocket.StatusCode = 3003 // No live game has the id in the URL.
	InvalidPlayerSecretError websocket.StatusCode = 3004 // No player in the game holds the secret in the URL.
)
