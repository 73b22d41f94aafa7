// Package engine implements the Argentine Truco rules engine: card ranking,
// envido/flor/truco escalation, trick and round resolution, and scoring.
//
// The engine is a synchronous state machine: every transition is a pure
// reduction (state, action) → state applied by ApplyAction. It has no
// dependencies and performs no I/O; callers own serialization of actions.
package engine

import "fmt"

// PointsBreakdown splits the points one side earned in a round by source.
type PointsBreakdown struct {
	Truco  int `json:"truco"` // round stake (1 without truco, 2/3/4 with)
	Envido int `json:"envido"`
	Flor   int `json:"flor"`
}

// Total returns the summed points of the breakdown.
func (p PointsBreakdown) Total() int { return p.Truco + p.Envido + p.Flor }

// GameState holds the complete, self-contained state of a Truco match.
// Card containers are fixed arrays with EmptyCard marking open slots, so
// hand indices stay stable for the UI after cards are played.
type GameState struct {
	Rules Rules
	RNG   uint64 // xorshift64 state

	Deck    [DeckSize]Card
	DeckLen uint8

	PlayerHand        [HandSize]Card // EmptyCard once played
	AIHand            [HandSize]Card
	InitialPlayerHand [HandSize]Card // deal-time snapshot for envido/flor
	InitialAIHand     [HandSize]Card

	PlayerTricks [3]Card
	AITricks     [3]Card
	TrickWinners [3]TrickWinner
	CurrentTrick uint8
	Leader       Seat // who leads the current trick

	PlayerScore int
	AIScore     int
	Round       int
	Mano        Seat
	CurrentTurn Seat
	Phase       Phase
	Winner      Seat

	// Truco escalation.
	TrucoLevel          uint8 // 0 none, 1 truco, 2 retruco, 3 vale cuatro
	TrucoCaller         Seat  // last caller in the truco chain
	LastCaller          Seat  // most recent call of any kind
	PendingTrucoCaller  Seat  // set while envido interrupts a truco call
	TurnBeforeInterrupt Seat

	// Envido escalation.
	EnvidoPointsOnOffer int
	EnvidoDeclineValue  int
	EnvidoCalled        bool
	RealEnvidoCalled    bool
	FaltaEnvidoCalled   bool
	EnvidoResolved      bool
	EnvidoCaller        Seat

	// Flor.
	FlorDeclared     bool
	ContraflorCalled bool
	FlorCaller       Seat

	// Truco-call metadata for the round summary.
	TrucoCallStrength float64
	TrucoCallBluff    bool

	// Per-round bookkeeping.
	Calls        []string // ordered calls made this round
	playerPoints PointsBreakdown
	aiPoints     PointsBreakdown

	MessageLog  []string
	LastSummary *RoundSummary
}

// NewGame initializes a fresh match with the given seed and rules.
// No cards are dealt until the first StartRound action.
func NewGame(seed uint64, rules Rules) GameState {
	g := GameState{Rules: rules, RNG: seed, Phase: PhaseRoundEnd}
	if g.RNG == 0 {
		g.RNG = 1 // xorshift can't start at 0
	}
	return g
}

// ---------------------------------------------------------------------------
// xorshift64 RNG, inline, no interface
// ---------------------------------------------------------------------------

func (g *GameState) nextRand() uint64 {
	x := g.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n uint64) uint64 {
	return g.nextRand() % n
}

// ---------------------------------------------------------------------------
// Round setup
// ---------------------------------------------------------------------------

// startRound deals a fresh round: alternates mano, shuffles, deals three
// cards per side and resets all per-round state.
func (g *GameState) startRound() {
	g.Round++
	if g.Round == 1 {
		g.Mano = g.Rules.InitialMano
		if g.Mano == SeatNone {
			g.Mano = SeatPlayer
		}
	} else {
		g.Mano = g.Mano.Other()
	}

	// Shuffle a full deck (Fisher-Yates).
	g.Deck = NewDeck()
	g.DeckLen = DeckSize
	for i := int(g.DeckLen) - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		g.Deck[i], g.Deck[j] = g.Deck[j], g.Deck[i]
	}

	// Deal alternating, mano first.
	for c := 0; c < HandSize; c++ {
		for _, s := range [2]Seat{g.Mano, g.Mano.Other()} {
			g.DeckLen--
			g.handOf(s)[c] = g.Deck[g.DeckLen]
		}
	}
	g.InitialPlayerHand = g.PlayerHand
	g.InitialAIHand = g.AIHand

	for i := range g.TrickWinners {
		g.PlayerTricks[i] = EmptyCard
		g.AITricks[i] = EmptyCard
		g.TrickWinners[i] = TrickOpen
	}
	g.CurrentTrick = 0
	g.Leader = g.Mano
	g.CurrentTurn = g.Mano
	g.Phase = PhaseTrick1

	g.TrucoLevel = 0
	g.TrucoCaller = SeatNone
	g.LastCaller = SeatNone
	g.PendingTrucoCaller = SeatNone
	g.TurnBeforeInterrupt = SeatNone

	g.EnvidoPointsOnOffer = 0
	g.EnvidoDeclineValue = 0
	g.EnvidoCalled = false
	g.RealEnvidoCalled = false
	g.FaltaEnvidoCalled = false
	g.EnvidoResolved = false
	g.EnvidoCaller = SeatNone

	g.FlorDeclared = false
	g.ContraflorCalled = false
	g.FlorCaller = SeatNone

	g.TrucoCallStrength = 0
	g.TrucoCallBluff = false
	g.Calls = nil
	g.playerPoints = PointsBreakdown{}
	g.aiPoints = PointsBreakdown{}
	g.LastSummary = nil

	g.logf("Round %d: %s is mano", g.Round, g.Mano)
}

// ---------------------------------------------------------------------------
// Query helpers
// ---------------------------------------------------------------------------

// IsTerminal returns true once a side has reached the target score.
func (g *GameState) IsTerminal() bool { return g.Phase == PhaseGameOver }

// ActingSeat returns the seat that must act next (SeatNone between rounds).
func (g *GameState) ActingSeat() Seat {
	if g.Phase == PhaseRoundEnd || g.Phase == PhaseGameOver {
		return SeatNone
	}
	return g.CurrentTurn
}

// handOf returns the live hand array for a seat.
func (g *GameState) handOf(s Seat) *[HandSize]Card {
	if s == SeatPlayer {
		return &g.PlayerHand
	}
	return &g.AIHand
}

// initialHandOf returns the deal-time snapshot for a seat as a slice.
func (g *GameState) initialHandOf(s Seat) []Card {
	if s == SeatPlayer {
		return g.InitialPlayerHand[:]
	}
	return g.InitialAIHand[:]
}

// tricksOf returns the trick slots for a seat.
func (g *GameState) tricksOf(s Seat) *[3]Card {
	if s == SeatPlayer {
		return &g.PlayerTricks
	}
	return &g.AITricks
}

// RemainingHand returns the unplayed cards of a seat in display order.
func (g *GameState) RemainingHand(s Seat) []Card {
	var out []Card
	for _, c := range g.handOf(s) {
		if c != EmptyCard {
			out = append(out, c)
		}
	}
	return out
}

// scoreOf returns the current score for a seat.
func (g *GameState) scoreOf(s Seat) int {
	if s == SeatPlayer {
		return g.PlayerScore
	}
	return g.AIScore
}

// RoundPoints returns the per-source points awarded to a seat this round.
func (g *GameState) RoundPoints(s Seat) PointsBreakdown {
	if s == SeatPlayer {
		return g.playerPoints
	}
	return g.aiPoints
}

// logf appends a formatted entry to the message log.
func (g *GameState) logf(format string, args ...any) {
	g.MessageLog = append(g.MessageLog, fmt.Sprintf(format, args...))
}

// recordCall appends a call label to the round's ordered call list.
func (g *GameState) recordCall(s Seat, label string) {
	g.Calls = append(g.Calls, fmt.Sprintf("%s:%s", s, label))
}

// ---------------------------------------------------------------------------
// Scoring
// ---------------------------------------------------------------------------

// award credits points to a seat and ends the match the instant the target
// is crossed. Scores never decrease.
func (g *GameState) award(s Seat, points int, source string) {
	if points <= 0 || s == SeatNone {
		return
	}
	bd := &g.playerPoints
	if s == SeatAI {
		bd = &g.aiPoints
	}
	switch source {
	case "envido":
		bd.Envido += points
	case "flor":
		bd.Flor += points
	default:
		bd.Truco += points
	}
	if s == SeatPlayer {
		g.PlayerScore += points
	} else {
		g.AIScore += points
	}
	g.logf("%s gains %d point(s) (%s): player %d, ai %d",
		s, points, source, g.PlayerScore, g.AIScore)

	if g.scoreOf(s) >= g.Rules.Target() && g.Winner == SeatNone {
		g.Winner = s
		g.logf("%s wins the match %d–%d", s, g.PlayerScore, g.AIScore)
	}
}

// ---------------------------------------------------------------------------
// Snapshot (Save / Restore)
// ---------------------------------------------------------------------------

// Snapshot returns a save point of the match.
func (g *GameState) Snapshot() GameState { return g.Clone() }

// Restore replaces the state with a previously taken snapshot.
func (g *GameState) Restore(snap GameState) { *g = snap.Clone() }

// Clone returns a deep copy of the game state. The fixed arrays copy by
// value; the log and call slices are duplicated so the copy is independent.
func (g *GameState) Clone() GameState {
	c := *g
	c.Calls = append([]string(nil), g.Calls...)
	c.MessageLog = append([]string(nil), g.MessageLog...)
	if g.LastSummary != nil {
		s := *g.LastSummary
		c.LastSummary = &s
	}
	return c
}
