package ai

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/JuanchoGithub/truco-ai/engine"
)

// PhaseClass collapses the game phase into the four decision families the
// case memory distinguishes.
type PhaseClass uint8

const (
	ClassPlay   PhaseClass = iota // 0: card selection
	ClassEnvido                   // 1: envido call/response
	ClassTruco                    // 2: truco call/response
	ClassFlor                     // 3: flor call/response
)

// ClassifyPhase maps an engine phase plus the chosen action to a class.
func ClassifyPhase(p engine.Phase, a engine.Action) PhaseClass {
	switch a {
	case engine.ActionCallEnvido, engine.ActionCallRealEnvido, engine.ActionCallFaltaEnvido:
		return ClassEnvido
	case engine.ActionCallTruco, engine.ActionCallRetruco, engine.ActionCallValeCuatro:
		return ClassTruco
	case engine.ActionDeclareFlor, engine.ActionCallContraflor:
		return ClassFlor
	}
	switch p {
	case engine.PhaseEnvidoCalled:
		return ClassEnvido
	case engine.PhaseTrucoCalled, engine.PhaseRetrucoCalled, engine.PhaseValeCuatroCalled:
		return ClassTruco
	case engine.PhaseFlorCalled, engine.PhaseContraflorCalled:
		return ClassFlor
	}
	return ClassPlay
}

// StrengthBucket abstracts a hand strength scalar into five bands.
func StrengthBucket(strength float64) uint8 {
	b := int(strength * 5)
	if b < 0 {
		b = 0
	}
	if b > 4 {
		b = 4
	}
	return uint8(b)
}

// ScoreDiffBucket abstracts the AI-minus-player score differential into
// five bands from -2 (far behind) to +2 (far ahead).
func ScoreDiffBucket(diff int) int8 {
	switch {
	case diff <= -5:
		return -2
	case diff <= -2:
		return -1
	case diff < 2:
		return 0
	case diff < 5:
		return 1
	default:
		return 2
	}
}

// Case records one AI decision: the abstracted situation, the action taken
// and, once the round closes, its outcome.
type Case struct {
	ID              uuid.UUID     `json:"id"`
	StrengthBucket  uint8         `json:"strengthBucket"`
	ScoreDiffBucket int8          `json:"scoreDiffBucket"`
	Trick           uint8         `json:"trick"`
	Class           PhaseClass    `json:"class"`
	Action          engine.Action `json:"action"`
	RoundWon        bool          `json:"roundWon"`
	PointsSwing     int           `json:"pointsSwing"`
}

// DefaultCaseCapacity bounds the case memory.
const DefaultCaseCapacity = 240

// CaseMemory is a bounded, append-only store of past decisions. Eviction
// trims the most-populated score-differential band instead of the oldest
// entry, so rare high-stakes situations survive long sessions.
type CaseMemory struct {
	capacity int
	cases    []Case
	rng      *rand.Rand
}

// NewCaseMemory creates a memory with the given capacity (0 means
// DefaultCaseCapacity) and a seeded rng for reproducible eviction and
// tie-breaks.
func NewCaseMemory(capacity int, seed uint64) *CaseMemory {
	if capacity <= 0 {
		capacity = DefaultCaseCapacity
	}
	return &CaseMemory{
		capacity: capacity,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Len returns the number of stored cases.
func (cm *CaseMemory) Len() int { return len(cm.cases) }

// Add appends a resolved case, evicting first when at capacity.
func (cm *CaseMemory) Add(c Case) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if len(cm.cases) >= cm.capacity {
		cm.evict()
	}
	cm.cases = append(cm.cases, c)
}

// evict removes one random case from the most-populated score-diff band.
func (cm *CaseMemory) evict() {
	counts := make(map[int8]int)
	for _, c := range cm.cases {
		counts[c.ScoreDiffBucket]++
	}
	var crowded int8
	best := -1
	for b := int8(-2); b <= 2; b++ {
		if counts[b] > best {
			best = counts[b]
			crowded = b
		}
	}
	var members []int
	for i, c := range cm.cases {
		if c.ScoreDiffBucket == crowded {
			members = append(members, i)
		}
	}
	if len(members) == 0 {
		// Every case sits outside the indexed bands; evict anywhere.
		victim := cm.rng.IntN(len(cm.cases))
		cm.cases = append(cm.cases[:victim], cm.cases[victim+1:]...)
		return
	}
	victim := members[cm.rng.IntN(len(members))]
	cm.cases = append(cm.cases[:victim], cm.cases[victim+1:]...)
}

// similarity weights: matching decision class matters most, then score
// differential, then hand strength, then trick index.
func caseDistance(c Case, class PhaseClass, strengthBucket uint8, diffBucket int8, trick uint8) int {
	d := 0
	if c.Class != class {
		d += 8
	}
	d += 3 * absInt(int(c.ScoreDiffBucket)-int(diffBucket))
	d += 2 * absInt(int(c.StrengthBucket)-int(strengthBucket))
	d += absInt(int(c.Trick) - int(trick))
	return d
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// maxUsableDistance: beyond this a case says nothing about the situation.
const maxUsableDistance = 6

// Lookup scans for the nearest stored case to the given situation. Ties on
// distance are broken by the seeded rng. ok is false when the memory is
// empty or nothing is close enough to be instructive.
func (cm *CaseMemory) Lookup(class PhaseClass, strengthBucket uint8, diffBucket int8, trick uint8) (Case, bool) {
	if len(cm.cases) == 0 {
		return Case{}, false
	}
	bestDist := maxUsableDistance + 1
	var bestIdx []int
	for i, c := range cm.cases {
		d := caseDistance(c, class, strengthBucket, diffBucket, trick)
		switch {
		case d < bestDist:
			bestDist = d
			bestIdx = bestIdx[:0]
			bestIdx = append(bestIdx, i)
		case d == bestDist:
			bestIdx = append(bestIdx, i)
		}
	}
	if len(bestIdx) == 0 {
		return Case{}, false
	}
	return cm.cases[bestIdx[cm.rng.IntN(len(bestIdx))]], true
}

// Snapshot returns a copy of the stored cases for profile export.
func (cm *CaseMemory) Snapshot() []Case {
	return append([]Case(nil), cm.cases...)
}

// sanitizeCase clamps the bucket features into the ranges the memory
// indexes by. Imported cases are untrusted.
func sanitizeCase(c Case) Case {
	if c.ScoreDiffBucket < -2 {
		c.ScoreDiffBucket = -2
	}
	if c.ScoreDiffBucket > 2 {
		c.ScoreDiffBucket = 2
	}
	if c.StrengthBucket > 4 {
		c.StrengthBucket = 4
	}
	if c.Trick > 2 {
		c.Trick = 2
	}
	return c
}

// Restore replaces the stored cases from a profile import, clamping
// out-of-range bucket features and truncating to capacity if the import
// is oversized.
func (cm *CaseMemory) Restore(cases []Case) {
	if len(cases) > cm.capacity {
		cases = cases[len(cases)-cm.capacity:]
	}
	cm.cases = make([]Case, 0, len(cases))
	for _, c := range cases {
		cm.cases = append(cm.cases, sanitizeCase(c))
	}
}
