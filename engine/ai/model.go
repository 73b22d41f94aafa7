// Package ai implements the artificial opponent: heuristic decision
// scoring, a statistical model of the human player's tendencies, and a
// bounded case memory consulted by similarity lookup.
package ai

import (
	"math"

	"github.com/JuanchoGithub/truco-ai/engine"
)

// ewmaAlpha is the incremental averaging rate: v += α·(observed − v).
const ewmaAlpha = 0.15

// RoleStats aggregates observed envido behavior for one of the player's
// roles (mano or pie).
type RoleStats struct {
	EnvidoCallThreshold float64 `json:"envidoCallThreshold"` // estimated value at which the player calls
	EnvidoFoldRate      float64 `json:"envidoFoldRate"`
	Samples             int     `json:"samples"`
}

// OpponentModel is the evolving statistical picture of the human player.
// It is updated incrementally after every resolved player decision and is
// never reset except by explicit user action.
type OpponentModel struct {
	Mano RoleStats `json:"mano"`
	Pie  RoleStats `json:"pie"`

	LeadWithHighestRate float64 `json:"leadWithHighestRate"`
	EnvidoPrimeroRate   float64 `json:"envidoPrimeroRate"`
	CounterTendency     float64 `json:"counterTendency"` // raises instead of plain accept/decline
	ChainBluffRate      float64 `json:"chainBluffRate"`  // truco calls later shown weak

	Observations int `json:"observations"`
}

// DefaultOpponentModel returns neutral priors for a player never seen
// before: average envido thresholds and balanced tendencies.
func DefaultOpponentModel() *OpponentModel {
	return &OpponentModel{
		Mano:                RoleStats{EnvidoCallThreshold: 26, EnvidoFoldRate: 0.35},
		Pie:                 RoleStats{EnvidoCallThreshold: 27, EnvidoFoldRate: 0.35},
		LeadWithHighestRate: 0.5,
		EnvidoPrimeroRate:   0.3,
		CounterTendency:     0.3,
		ChainBluffRate:      0.2,
	}
}

// roleFor returns the stats bucket for the player's current role.
func (m *OpponentModel) roleFor(playerIsMano bool) *RoleStats {
	if playerIsMano {
		return &m.Mano
	}
	return &m.Pie
}

// RoleFor returns a copy of the stats for the player's current role.
func (m *OpponentModel) RoleFor(playerIsMano bool) RoleStats {
	return *m.roleFor(playerIsMano)
}

func ewma(v *float64, observed float64) {
	*v += ewmaAlpha * (observed - *v)
}

// ObserveEnvidoShown updates the call-threshold estimate with an envido
// value the player revealed after calling or accepting.
func (m *OpponentModel) ObserveEnvidoShown(playerIsMano bool, value int) {
	r := m.roleFor(playerIsMano)
	ewma(&r.EnvidoCallThreshold, float64(value))
	r.Samples++
	m.Observations++
}

// ObserveEnvidoFold updates the fold rate with one accept/decline outcome.
func (m *OpponentModel) ObserveEnvidoFold(playerIsMano bool, folded bool) {
	r := m.roleFor(playerIsMano)
	obs := 0.0
	if folded {
		obs = 1.0
	}
	ewma(&r.EnvidoFoldRate, obs)
	r.Samples++
	m.Observations++
}

// ObserveLead records whether the player led a trick with the strongest
// card remaining in their hand.
func (m *OpponentModel) ObserveLead(ledHighest bool) {
	obs := 0.0
	if ledHighest {
		obs = 1.0
	}
	ewma(&m.LeadWithHighestRate, obs)
	m.Observations++
}

// ObserveEnvidoPrimero records whether the player interrupted a truco call
// with envido when the window was open.
func (m *OpponentModel) ObserveEnvidoPrimero(interrupted bool) {
	obs := 0.0
	if interrupted {
		obs = 1.0
	}
	ewma(&m.EnvidoPrimeroRate, obs)
	m.Observations++
}

// ObserveCallResponse records whether the player raised an outstanding
// call rather than plainly accepting or declining it.
func (m *OpponentModel) ObserveCallResponse(raised bool) {
	obs := 0.0
	if raised {
		obs = 1.0
	}
	ewma(&m.CounterTendency, obs)
	m.Observations++
}

// ObserveTrucoBluff records whether a player truco call turned out to be
// backed by a weak hand.
func (m *OpponentModel) ObserveTrucoBluff(bluffed bool) {
	obs := 0.0
	if bluffed {
		obs = 1.0
	}
	ewma(&m.ChainBluffRate, obs)
	m.Observations++
}

// sane reports whether the model's fields are usable for decision scoring.
// A corrupted import (NaN, out-of-range rates) trips the heuristic fallback
// instead of poisoning every decision.
func (m *OpponentModel) sane() bool {
	rates := []float64{
		m.Mano.EnvidoFoldRate, m.Pie.EnvidoFoldRate,
		m.LeadWithHighestRate, m.EnvidoPrimeroRate,
		m.CounterTendency, m.ChainBluffRate,
	}
	for _, r := range rates {
		if math.IsNaN(r) || r < 0 || r > 1 {
			return false
		}
	}
	for _, t := range []float64{m.Mano.EnvidoCallThreshold, m.Pie.EnvidoCallThreshold} {
		if math.IsNaN(t) || t < 0 || t > 33 {
			return false
		}
	}
	return true
}

// PlayedHighestLead reports whether card was the strongest option in hand.
// Helper shared by the session-side observation path.
func PlayedHighestLead(hand []engine.Card, card engine.Card) bool {
	for _, c := range hand {
		if c != engine.EmptyCard && c.Strength() > card.Strength() {
			return false
		}
	}
	return true
}
