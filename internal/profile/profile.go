// Package profile defines the exportable AI learning profile and the
// key-value persistence boundary it is saved through.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JuanchoGithub/truco-ai/engine"
	"github.com/JuanchoGithub/truco-ai/engine/ai"
)

// CurrentVersion is stamped into every export.
const CurrentVersion = 1

// CardStat aggregates how one specific card has been played by the human
// across sessions.
type CardStat struct {
	Played   int `json:"played"`
	Led      int `json:"led"`      // played as the first card of a trick
	WonTrick int `json:"wonTrick"` // tricks this card won
}

// EnvidoRecord is one resolved envido chain, kept for the history view.
type EnvidoRecord struct {
	Round       int    `json:"round"`
	Caller      string `json:"caller"`
	Call        string `json:"call"` // highest tier reached
	Points      int    `json:"points"`
	Accepted    bool   `json:"accepted"`
	PlayerValue int    `json:"playerValue,omitempty"` // only set on showdowns
	AIValue     int    `json:"aiValue,omitempty"`
}

// Profile is the complete serializable learning state of the AI: the
// opponent model, the case memory and the accumulated histories. It is
// what export/import and the persistence layer move around.
type Profile struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`

	OpponentModel    *ai.OpponentModel       `json:"opponentModel"`
	CaseMemory       []ai.Case               `json:"caseMemory"`
	CardPlayStats    map[string]CardStat     `json:"cardPlayStats"`
	PlayOrderHistory [][]string              `json:"playOrderHistory"`
	EnvidoHistory    []EnvidoRecord          `json:"envidoHistory"`
	RoundHistory     []engine.RoundSummary   `json:"roundHistory"`
	AIReasoningLog   []engine.ReasoningEntry `json:"aiReasoningLog"`
}

// New returns an empty profile with neutral model priors.
func New() *Profile {
	return &Profile{
		Version:       CurrentVersion,
		OpponentModel: ai.DefaultOpponentModel(),
		CardPlayStats: map[string]CardStat{},
	}
}

// Export serializes the profile as indented JSON, stamping the version and
// timestamp. The output is stable enough to diff between sessions.
func (p *Profile) Export() ([]byte, error) {
	p.Version = CurrentVersion
	p.UpdatedAt = time.Now().UTC()
	return json.MarshalIndent(p, "", "  ")
}

// Import parses an exported profile. A payload missing the opponentModel
// or cardPlayStats sections is rejected outright rather than silently
// producing a half-initialized profile.
func Import(data []byte) (*Profile, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("profile import: %w", err)
	}
	for _, key := range []string{"opponentModel", "cardPlayStats"} {
		if _, ok := probe[key]; !ok {
			return nil, fmt.Errorf("profile import: missing %q section", key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	p := New()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("profile import: %w", err)
	}
	if p.OpponentModel == nil {
		p.OpponentModel = ai.DefaultOpponentModel()
	}
	if p.CardPlayStats == nil {
		p.CardPlayStats = map[string]CardStat{}
	}
	return p, nil
}
