package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit is one of the four French suits.
type Suit string

const (
	Clubs    Suit = "CLUBS"
	Diamonds Suit = "DIAMONDS"
	Hearts   Suit = "HEARTS"
	Spades   Suit = "SPADES"
)

// Suits lists every suit in deck order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Value is a card rank. Amount gives its blackjack point value.
type Value string

const (
	Ace   Value = "ACE"
	Two   Value = "TWO"
	Three Value = "THREE"
	Four  Value = "FOUR"
	Five  Value = "FIVE"
	Six   Value = "SIX"
	Seven Value = "SEVEN"
	Eight Value = "EIGHT"
	Nine  Value = "NINE"
	Ten   Value = "TEN"
	Jack  Value = "JACK"
	Queen Value = "QUEEN"
	King  Value = "KING"
)

// Values lists every rank in deck order.
var Values = []Value{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var valueAmounts = map[Value]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
}

// Amount returns the point value of the rank; aces count as 1.
func (v Value) Amount() int {
	return valueAmounts[v]
}

// Card is an immutable playing card.
type Card struct {
	Suit  Suit  `json:"suit"`
	Value Value `json:"value"`
}

// Asset is the image file name the client renders for this card,
// e.g. "queen_of_hearts.png".
func (c Card) Asset() string {
	return fmt.Sprintf("%s_of_%s.png", strings.ToLower(string(c.Value)), strings.ToLower(string(c.Suit)))
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Value, c.Suit)
}

// cardJSON is the wire shape of a card, which carries its asset name.
type cardJSON struct {
	Suit   Suit   `json:"suit"`
	Value  Value  `json:"value"`
	Amount int    `json:"amount"`
	Asset  string `json:"asset"`
}

// MarshalJSON includes the derived amount and asset name.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{Suit: c.Suit, Value: c.Value, Amount: c.Value.Amount(), Asset: c.Asset()})
}
