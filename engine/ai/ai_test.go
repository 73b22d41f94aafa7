package ai

import (
	"math"
	"testing"

	"github.com/JuanchoGithub/truco-ai/engine"
)

// advanceToAI plays the cheapest scripted player moves until the AI must
// act (or the state is terminal).
func advanceToAI(t *testing.T, g *engine.GameState) {
	t.Helper()
	for !g.IsTerminal() && g.ActingSeat() != engine.SeatAI {
		if g.Phase == engine.PhaseRoundEnd {
			if err := g.ApplyAction(engine.ActionStartRound); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := g.ApplyAction(scriptedPlayerAction(g)); err != nil {
			t.Fatal(err)
		}
	}
}

// scriptedPlayerAction prefers playing a card, then accepting, then the
// first legal action.
func scriptedPlayerAction(g *engine.GameState) engine.Action {
	mask := g.LegalActions()
	for i := uint8(0); i < engine.HandSize; i++ {
		if a := engine.EncodePlayCard(i); mask&(1<<a) != 0 {
			return a
		}
	}
	if mask&(1<<engine.ActionAccept) != 0 {
		return engine.ActionAccept
	}
	for a := engine.Action(0); a < engine.NumActions; a++ {
		if mask&(1<<a) != 0 {
			return a
		}
	}
	return engine.ActionStartRound
}

func TestDecideAlwaysLegal(t *testing.T) {
	for seed := uint64(1); seed <= 6; seed++ {
		eng := New(seed)
		g := engine.NewGame(seed, engine.DefaultRules())
		for steps := 0; !g.IsTerminal() && steps < 5000; steps++ {
			if g.ActingSeat() == engine.SeatAI {
				dec := eng.Decide(&g)
				if g.LegalActions()&(1<<dec.Action) == 0 {
					t.Fatalf("seed %d: illegal decision %s during %s", seed, dec.Action, g.Phase)
				}
				if len(dec.Trace) == 0 {
					t.Fatalf("seed %d: decision without a trace", seed)
				}
				if err := g.ApplyAction(dec.Action); err != nil {
					t.Fatalf("seed %d: %v", seed, err)
				}
				continue
			}
			if g.Phase == engine.PhaseRoundEnd {
				if err := g.ApplyAction(engine.ActionStartRound); err != nil {
					t.Fatal(err)
				}
				continue
			}
			if err := g.ApplyAction(scriptedPlayerAction(&g)); err != nil {
				t.Fatal(err)
			}
		}
		if !g.IsTerminal() {
			t.Errorf("seed %d: match did not finish", seed)
		}
	}
}

func TestDecideFallsBackOnCorruptModel(t *testing.T) {
	eng := New(3)
	eng.Model.ChainBluffRate = math.NaN()

	g := engine.NewGame(3, engine.DefaultRules())
	if err := g.ApplyAction(engine.ActionStartRound); err != nil {
		t.Fatal(err)
	}
	advanceToAI(t, &g)

	dec := eng.Decide(&g)
	if g.LegalActions()&(1<<dec.Action) == 0 {
		t.Fatalf("fallback produced illegal action %s during %s", dec.Action, g.Phase)
	}
	degraded := false
	for _, item := range dec.Trace {
		if item.Key == "reason.fallback" {
			degraded = true
		}
	}
	if !degraded {
		t.Error("trace should flag the degraded mode")
	}
}

func TestDecideIsDeterministicForSeed(t *testing.T) {
	run := func() engine.Action {
		eng := New(11)
		g := engine.NewGame(11, engine.DefaultRules())
		if err := g.ApplyAction(engine.ActionStartRound); err != nil {
			t.Fatal(err)
		}
		advanceToAI(t, &g)
		return eng.Decide(&g).Action
	}
	if run() != run() {
		t.Error("same seed and state produced different decisions")
	}
}

func TestModelEwmaUpdates(t *testing.T) {
	m := DefaultOpponentModel()
	if !m.sane() {
		t.Fatal("default model should be sane")
	}

	before := m.Mano.EnvidoCallThreshold
	m.ObserveEnvidoShown(true, 33)
	if m.Mano.EnvidoCallThreshold <= before || m.Mano.EnvidoCallThreshold >= 33 {
		t.Errorf("threshold %f should move toward 33 from %f", m.Mano.EnvidoCallThreshold, before)
	}
	if m.Pie.EnvidoCallThreshold != 27 {
		t.Error("pie role stats must not move on a mano observation")
	}
	if m.Mano.Samples != 1 || m.Observations != 1 {
		t.Errorf("samples %d observations %d, want 1 and 1", m.Mano.Samples, m.Observations)
	}

	for i := 0; i < 50; i++ {
		m.ObserveEnvidoFold(false, true)
	}
	if r := m.Pie.EnvidoFoldRate; r < 0.9 || r > 1 {
		t.Errorf("fold rate %f should converge toward 1", r)
	}

	m.ChainBluffRate = math.NaN()
	if m.sane() {
		t.Error("NaN rate must fail the sanity check")
	}
	m.ChainBluffRate = 0.2
	m.Pie.EnvidoCallThreshold = 40
	if m.sane() {
		t.Error("out-of-range threshold must fail the sanity check")
	}
}

func TestPlayedHighestLead(t *testing.T) {
	high := engine.NewCard(engine.SuitEspadas, engine.RankAncho)
	low := engine.NewCard(engine.SuitOros, engine.RankCuatro)
	hand := []engine.Card{high, low}
	if !PlayedHighestLead(hand, high) {
		t.Error("the espadas ancho is the highest lead")
	}
	if PlayedHighestLead(hand, low) {
		t.Error("the 4 is not the highest lead")
	}
}

func TestCaseMemoryEvictionSpreadsBands(t *testing.T) {
	cm := NewCaseMemory(10, 1)
	for i := 0; i < 9; i++ {
		cm.Add(Case{ScoreDiffBucket: 0})
	}
	cm.Add(Case{ScoreDiffBucket: 2})
	cm.Add(Case{ScoreDiffBucket: -2}) // forces an eviction

	if cm.Len() != 10 {
		t.Fatalf("len = %d, want 10", cm.Len())
	}
	counts := map[int8]int{}
	for _, c := range cm.Snapshot() {
		counts[c.ScoreDiffBucket]++
	}
	if counts[0] != 8 {
		t.Errorf("crowded band should shrink to 8, got %d", counts[0])
	}
	if counts[2] != 1 || counts[-2] != 1 {
		t.Errorf("rare bands must survive eviction: %v", counts)
	}
}

func TestRestoreClampsOutOfRangeCases(t *testing.T) {
	cm := NewCaseMemory(4, 1)
	var imported []Case
	for i := 0; i < 4; i++ {
		imported = append(imported, Case{ScoreDiffBucket: 7, StrengthBucket: 9, Trick: 5})
	}
	cm.Restore(imported)

	cm.Add(Case{}) // full memory: must evict, not panic
	if cm.Len() != 4 {
		t.Fatalf("len = %d, want 4", cm.Len())
	}
	for _, c := range cm.Snapshot() {
		if c.ScoreDiffBucket < -2 || c.ScoreDiffBucket > 2 {
			t.Errorf("score diff bucket %d out of range", c.ScoreDiffBucket)
		}
		if c.StrengthBucket > 4 {
			t.Errorf("strength bucket %d out of range", c.StrengthBucket)
		}
		if c.Trick > 2 {
			t.Errorf("trick %d out of range", c.Trick)
		}
	}
}

func TestEvictFallsBackWhenBandsAreEmpty(t *testing.T) {
	cm := NewCaseMemory(2, 1)
	cm.cases = []Case{{ScoreDiffBucket: 7}, {ScoreDiffBucket: -9}}
	cm.Add(Case{})
	if cm.Len() != 2 {
		t.Fatalf("len = %d, want 2", cm.Len())
	}
}

func TestCaseMemoryLookup(t *testing.T) {
	cm := NewCaseMemory(10, 1)
	if _, ok := cm.Lookup(ClassPlay, 2, 0, 0); ok {
		t.Error("empty memory must not return a case")
	}

	cm.Add(Case{Class: ClassEnvido, StrengthBucket: 2, ScoreDiffBucket: 0, Trick: 0, Action: engine.ActionCallEnvido})
	got, ok := cm.Lookup(ClassEnvido, 2, 0, 0)
	if !ok || got.Action != engine.ActionCallEnvido {
		t.Fatalf("exact match not found: ok=%t action=%s", ok, got.Action)
	}

	// Nothing instructive: wrong class and far-off buckets.
	if _, ok := cm.Lookup(ClassFlor, 0, -2, 2); ok {
		t.Error("distant case should not be returned")
	}
}

func TestCaseMemoryLookupDeterministicTieBreak(t *testing.T) {
	build := func() *CaseMemory {
		cm := NewCaseMemory(10, 42)
		cm.Add(Case{Class: ClassPlay, StrengthBucket: 1, Action: engine.EncodePlayCard(0)})
		cm.Add(Case{Class: ClassPlay, StrengthBucket: 3, Action: engine.EncodePlayCard(1)})
		return cm
	}
	a, _ := build().Lookup(ClassPlay, 2, 0, 0)
	b, _ := build().Lookup(ClassPlay, 2, 0, 0)
	if a.Action != b.Action {
		t.Error("tie-break must be deterministic for one seed")
	}
}

func TestFaltaDesperationUsesEffectiveTarget(t *testing.T) {
	eng := New(4)
	g := engine.NewGame(4, engine.Rules{}) // zero target plays to 15
	if err := g.ApplyAction(engine.ActionStartRound); err != nil {
		t.Fatal(err)
	}
	ctx := eng.situationOf(&g)
	_, factors := eng.scoreAction(&g, ctx, engine.ActionCallFaltaEnvido)
	for _, f := range factors {
		if f.Key == "reason.falta_desperation" {
			t.Error("a fresh 0-0 match must not read as desperate")
		}
	}
}

func TestFinalizeRoundCommitsPendingCases(t *testing.T) {
	eng := New(9)
	g := engine.NewGame(9, engine.DefaultRules())
	if err := g.ApplyAction(engine.ActionStartRound); err != nil {
		t.Fatal(err)
	}
	advanceToAI(t, &g)
	eng.Decide(&g)

	if eng.Cases.Len() != 0 {
		t.Fatal("cases must stay pending until the round resolves")
	}
	eng.FinalizeRound(true, 2)
	if eng.Cases.Len() != 1 {
		t.Fatalf("cases = %d, want 1", eng.Cases.Len())
	}
	c := eng.Cases.Snapshot()[0]
	if !c.RoundWon || c.PointsSwing != 2 {
		t.Errorf("outcome not stamped: won=%t swing=%d", c.RoundWon, c.PointsSwing)
	}

	eng.Decide(&g)
	eng.DiscardPending()
	eng.FinalizeRound(false, -1)
	if eng.Cases.Len() != 1 {
		t.Error("discarded decisions must not be committed")
	}
}
