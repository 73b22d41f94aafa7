package engine

import "fmt"

// Suit constants, packed into the upper 4 bits of Card.
const (
	SuitEspadas uint8 = 0
	SuitBastos  uint8 = 1
	SuitOros    uint8 = 2
	SuitCopas   uint8 = 3
)

// Rank constants, packed into the lower 4 bits of Card. The Spanish 40-card
// deck has no 8s or 9s; figures are sota (10), caballo (11) and rey (12).
const (
	RankAncho   uint8 = 1
	RankDos     uint8 = 2
	RankTres    uint8 = 3
	RankCuatro  uint8 = 4
	RankCinco   uint8 = 5
	RankSeis    uint8 = 6
	RankSiete   uint8 = 7
	RankSota    uint8 = 10
	RankCaballo uint8 = 11
	RankRey     uint8 = 12
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card (empty hand/trick slot).
const EmptyCard Card = 0xFF

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// FaceValue returns the envido face value: the rank for 1–7, 0 for figures.
func (c Card) FaceValue() uint8 {
	r := c.Rank()
	if r >= RankSota {
		return 0
	}
	return r
}

// Strength returns the trick-taking ordinal of the card, 14 (espadas ancho)
// down to 1 (any 4). Cards with equal strength tie (parda).
func (c Card) Strength() uint8 {
	r, s := c.Rank(), c.Suit()
	switch {
	case r == RankAncho && s == SuitEspadas:
		return 14
	case r == RankAncho && s == SuitBastos:
		return 13
	case r == RankSiete && s == SuitEspadas:
		return 12
	case r == RankSiete && s == SuitOros:
		return 11
	}
	switch r {
	case RankTres:
		return 10
	case RankDos:
		return 9
	case RankAncho: // oros / copas
		return 8
	case RankRey:
		return 7
	case RankCaballo:
		return 6
	case RankSota:
		return 5
	case RankSiete: // copas / bastos
		return 4
	case RankSeis:
		return 3
	case RankCinco:
		return 2
	case RankCuatro:
		return 1
	}
	// EmptyCard or malformed.
	return 0
}

// MaxStrength is the highest Strength() value (espadas ancho).
const MaxStrength uint8 = 14

var suitNames = [4]string{"espadas", "bastos", "oros", "copas"}

// SuitName returns the Spanish name of a suit constant.
func SuitName(suit uint8) string {
	if suit < 4 {
		return suitNames[suit]
	}
	return "?"
}

// String renders the card as "7 de espadas".
func (c Card) String() string {
	if c == EmptyCard {
		return "-"
	}
	return fmt.Sprintf("%d de %s", c.Rank(), SuitName(c.Suit()))
}

// Code renders a compact card code ("7E", "1B") used in round summaries
// and profile exports.
func (c Card) Code() string {
	if c == EmptyCard {
		return "--"
	}
	letters := [4]byte{'E', 'B', 'O', 'C'}
	return fmt.Sprintf("%d%c", c.Rank(), letters[c.Suit()&3])
}

// DeckSize is the number of cards in the Spanish 40-card deck.
const DeckSize = 40

// deckRanks lists the ten ranks present in the deck.
var deckRanks = [10]uint8{
	RankAncho, RankDos, RankTres, RankCuatro, RankCinco,
	RankSeis, RankSiete, RankSota, RankCaballo, RankRey,
}

// NewDeck returns the full 40-card deck in canonical suit/rank order.
func NewDeck() [DeckSize]Card {
	var deck [DeckSize]Card
	idx := 0
	for suit := uint8(0); suit < 4; suit++ {
		for _, rank := range deckRanks {
			deck[idx] = NewCard(suit, rank)
			idx++
		}
	}
	return deck
}
