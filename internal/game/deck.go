package game

import (
	"github.com/jason-s-yu/blackjack/internal/models"
	"github.com/jason-s-yu/blackjack/internal/random"
)

// DeckSize is the number of cards in a standard deck.
const DeckSize = 52

// Deck is a pop-only sequence of cards. It is not safe for concurrent use;
// a Session only touches its deck while holding the session lock.
type Deck struct {
	cards []models.Card
}

// NewOrderedDeck returns the 52 cards in suit-major, value-minor order.
func NewOrderedDeck() *Deck {
	cards := make([]models.Card, 0, DeckSize)
	for _, suit := range models.Suits {
		for _, value := range models.Values {
			cards = append(cards, models.Card{Suit: suit, Value: value})
		}
	}
	return &Deck{cards: cards}
}

// NewDeck returns a full deck shuffled with r.
func NewDeck(r random.Random) *Deck {
	d := NewOrderedDeck()
	random.Shuffle(r, len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Pop removes and returns the top card. ok is false once the deck is empty.
func (d *Deck) Pop() (c models.Card, ok bool) {
	if len(d.cards) == 0 {
		return models.Card{}, false
	}
	last := len(d.cards) - 1
	c = d.cards[last]
	d.cards = d.cards[:last]
	return c, true
}

// Len is the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}
