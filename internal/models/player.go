package models

import (
	"context"
	"crypto/subtle"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Transport delivers a single message to one connected client. Send must not
// block; implementations queue the message and report ErrOutboxFull when
// they cannot.
type Transport interface {
	Send(msg any) error
}

// Link is one live connection bound to a player. Cancel, when set, tears
// the connection down; it is called when a newer link replaces this one.
type Link struct {
	ID        uuid.UUID
	Transport Transport
	Cancel    context.CancelFunc
}

// NewLink wraps a transport with a fresh connection id.
func NewLink(t Transport, cancel context.CancelFunc) *Link {
	return &Link{ID: uuid.New(), Transport: t, Cancel: cancel}
}

// Send delivers msg over the link's transport.
func (l *Link) Send(msg any) error {
	return l.Transport.Send(msg)
}

// Player is a seat in a game. Name and Secret never change after creation.
type Player struct {
	Name   string
	Secret string

	link atomic.Pointer[Link]

	handMu sync.Mutex
	hand   []Card
}

// NewPlayer creates a player with the given display name and bearer secret.
func NewPlayer(name, secret string) *Player {
	return &Player{Name: name, Secret: secret}
}

// HasSecret reports whether secret is this player's credential.
func (p *Player) HasSecret(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(p.Secret), []byte(secret)) == 1
}

// Link returns the current connection, or nil when the player is offline.
func (p *Player) Link() *Link {
	return p.link.Load()
}

// Online reports whether the player has a live connection.
func (p *Player) Online() bool {
	return p.link.Load() != nil
}

// SwapLink installs l as the live connection and returns the previous one.
func (p *Player) SwapLink(l *Link) *Link {
	return p.link.Swap(l)
}

// ClearLink removes l if it is still the live connection. A newer
// connection installed since is left in place.
func (p *Player) ClearLink(l *Link) bool {
	return p.link.CompareAndSwap(l, nil)
}

// Deal appends cards to the player's hand.
func (p *Player) Deal(cards ...Card) {
	p.handMu.Lock()
	defer p.handMu.Unlock()
	p.hand = append(p.hand, cards...)
}

// Hand returns a copy of the cards dealt to the player.
func (p *Player) Hand() []Card {
	p.handMu.Lock()
	defer p.handMu.Unlock()
	out := make([]Card, len(p.hand))
	copy(out, p.hand)
	return out
}

// Message builds the private "player" message carrying this player's hand.
func (p *Player) Message() PlayerMessage {
	return PlayerMessage{
		Type:   MessageTypePlayer,
		Name:   p.Name,
		Secret: p.Secret,
		Hand:   p.Hand(),
	}
}
