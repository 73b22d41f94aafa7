package engine

import "fmt"

// HandSize is the number of cards dealt to each side per round.
const HandSize = 3

// validateHand panics when a hand breaks the caller contract: wrong size,
// empty slots, or duplicate cards. Evaluator inputs come straight from the
// deal snapshot, so a malformed hand is a programming error, not a runtime
// condition.
func validateHand(hand []Card, minLen int) {
	if len(hand) < minLen || len(hand) > HandSize {
		panic(fmt.Sprintf("engine: invalid hand size %d", len(hand)))
	}
	var seen [256]bool
	for _, c := range hand {
		if c == EmptyCard || c.Strength() == 0 {
			panic(fmt.Sprintf("engine: invalid card %#x in hand", uint8(c)))
		}
		if seen[c] {
			panic(fmt.Sprintf("engine: duplicate card %s in hand", c))
		}
		seen[c] = true
	}
}

// EnvidoValue computes the envido score of a two- or three-card hand.
// With two or more cards of one suit the best same-suit pair scores
// face+face+20; otherwise the single highest face value counts.
// The result is always within [0, 33].
func EnvidoValue(hand []Card) int {
	validateHand(hand, 2)

	best := 0
	paired := false
	for i := 0; i < len(hand); i++ {
		for j := i + 1; j < len(hand); j++ {
			if hand[i].Suit() != hand[j].Suit() {
				continue
			}
			paired = true
			v := int(hand[i].FaceValue()) + int(hand[j].FaceValue()) + 20
			if v > best {
				best = v
			}
		}
	}
	if paired {
		return best
	}
	for _, c := range hand {
		if v := int(c.FaceValue()); v > best {
			best = v
		}
	}
	return best
}

// HasFlor reports whether all three cards share one suit.
func HasFlor(hand []Card) bool {
	validateHand(hand, HandSize)
	return hand[0].Suit() == hand[1].Suit() && hand[1].Suit() == hand[2].Suit()
}

// FlorValue computes the flor score of a three-same-suit hand:
// sum of face values plus 20. Panics when the hand has no flor.
func FlorValue(hand []Card) int {
	if !HasFlor(hand) {
		panic("engine: FlorValue on a hand without flor")
	}
	return int(hand[0].FaceValue()) + int(hand[1].FaceValue()) + int(hand[2].FaceValue()) + 20
}

// Weights for HandStrength. Spread rewards overall card quality, peak
// rewards holding a single trick-dominating card.
const (
	strengthSpreadWeight = 0.6
	strengthPeakWeight   = 0.4
)

// HandStrength maps a hand to a scalar in (0, 1]. It blends the summed
// trick ordinals (spread) with the best single card (peak), so replacing
// any card with a strictly stronger one never lowers the result.
func HandStrength(hand []Card) float64 {
	validateHand(hand, 1)

	sum, peak := 0, uint8(0)
	for _, c := range hand {
		s := c.Strength()
		sum += int(s)
		if s > peak {
			peak = s
		}
	}
	spread := float64(sum) / float64(len(hand)*int(MaxStrength))
	return strengthSpreadWeight*spread + strengthPeakWeight*float64(peak)/float64(MaxStrength)
}
