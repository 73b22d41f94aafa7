package ai

import (
	"fmt"
	"math/rand/v2"

	"github.com/JuanchoGithub/truco-ai/engine"
)

// Decision is one chosen action plus the reasoning trace explaining it.
type Decision struct {
	Action engine.Action
	Trace  []engine.TraceItem
}

// Engine selects the AI's actions. It blends the hand-strength heuristic
// with the opponent model and case memory; if either is unusable it falls
// back to the pure heuristic, but it always produces a legal action.
type Engine struct {
	Model *OpponentModel
	Cases *CaseMemory

	rng     *rand.Rand
	pending []Case
}

// New creates an AI engine with neutral model priors and an empty case
// memory. The seed drives bluff rolls, case tie-breaks and eviction, so a
// fixed seed replays identically.
func New(seed uint64) *Engine {
	return &Engine{
		Model: DefaultOpponentModel(),
		Cases: NewCaseMemory(DefaultCaseCapacity, seed),
		rng:   rand.New(rand.NewPCG(seed, seed^0xd1342543de82ef95)),
	}
}

// situation is the abstracted view of the state a decision is scored in.
type situation struct {
	strength       float64
	envido         int
	aiIsMano       bool
	diffBucket     int8
	strBucket      uint8
	trick          uint8
	aiWins         int
	playerWins     int
	role           RoleStats // player's stats in their current role
	foldLikelihood float64
}

// Decide picks the AI's next action for the current state. Any panic in
// the scoring pipeline (malformed state, corrupted model) is recovered
// into the heuristic-only fallback; Decide never fails to act.
func (e *Engine) Decide(g *engine.GameState) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			d = e.fallback(g, r)
		}
	}()

	legal := g.LegalActionsList()
	if len(legal) == 0 {
		panic("no legal actions")
	}
	if !e.Model.sane() {
		panic("opponent model out of range")
	}

	ctx := e.situationOf(g)

	bestScore := -1e9
	var best engine.Action
	var bestFactors []engine.TraceItem
	for _, a := range legal {
		score, factors := e.scoreAction(g, ctx, a)
		if c, ok := e.Cases.Lookup(ClassifyPhase(g.Phase, a), ctx.strBucket, ctx.diffBucket, ctx.trick); ok && c.Action == a {
			adj := 0.05 + 0.01*float64(clampInt(absInt(c.PointsSwing), 0, 5))
			verdict := "won"
			if !c.RoundWon {
				adj = -adj
				verdict = "lost"
			}
			score += adj
			factors = append(factors, engine.TraceKey("reason.case_memory", map[string]string{
				"action":  a.String(),
				"verdict": verdict,
				"swing":   fmt.Sprintf("%d", c.PointsSwing),
			}))
		}
		if score > bestScore {
			bestScore = score
			best = a
			bestFactors = factors
		}
	}

	trace := []engine.TraceItem{
		engine.TraceKey("reason.hand_strength", map[string]string{
			"value":  fmt.Sprintf("%.2f", ctx.strength),
			"bucket": fmt.Sprintf("%d", ctx.strBucket),
		}),
	}
	if ctx.trick == 0 && !g.EnvidoResolved {
		trace = append(trace, engine.TraceKey("reason.envido_value", map[string]string{
			"value":     fmt.Sprintf("%d", ctx.envido),
			"threshold": fmt.Sprintf("%.1f", ctx.role.EnvidoCallThreshold),
		}))
	}
	trace = append(trace, bestFactors...)
	trace = append(trace, engine.TraceText(fmt.Sprintf("selected %s (score %.2f)", best, bestScore)))

	e.pending = append(e.pending, Case{
		StrengthBucket:  ctx.strBucket,
		ScoreDiffBucket: ctx.diffBucket,
		Trick:           ctx.trick,
		Class:           ClassifyPhase(g.Phase, best),
		Action:          best,
	})

	return Decision{Action: best, Trace: trace}
}

// situationOf abstracts the state from the AI's perspective. It reads only
// the AI hand, the visible tricks, scores and phase bookkeeping, never the
// player's concealed cards.
func (e *Engine) situationOf(g *engine.GameState) situation {
	hand := g.RemainingHand(engine.SeatAI)
	strength := 0.0
	if len(hand) > 0 {
		strength = engine.HandStrength(hand)
	}
	aiWins, playerWins := 0, 0
	for _, t := range g.TrickWinners {
		switch t {
		case engine.TrickAI:
			aiWins++
		case engine.TrickPlayer:
			playerWins++
		}
	}
	playerIsMano := g.Mano == engine.SeatPlayer
	role := e.Model.RoleFor(playerIsMano)
	return situation{
		strength:       strength,
		envido:         engine.EnvidoValue(g.InitialAIHand[:]),
		aiIsMano:       g.Mano == engine.SeatAI,
		diffBucket:     ScoreDiffBucket(g.AIScore - g.PlayerScore),
		strBucket:      StrengthBucket(strength),
		trick:          g.CurrentTrick,
		aiWins:         aiWins,
		playerWins:     playerWins,
		role:           role,
		foldLikelihood: role.EnvidoFoldRate * (1 - e.Model.CounterTendency),
	}
}

// leadStrongThreshold: below this the AI baits with a low lead and keeps
// its stopper for later tricks.
const leadStrongThreshold = 0.5

// scoreAction assigns one candidate action a comparable score plus the
// trace factors that produced it.
func (e *Engine) scoreAction(g *engine.GameState, ctx situation, a engine.Action) (float64, []engine.TraceItem) {
	if idx, ok := engine.ActionIsPlayCard(a); ok {
		return e.scorePlay(g, ctx, idx)
	}

	switch a {
	case engine.ActionStartRound:
		return 1.0, nil

	case engine.ActionDeclareFlor:
		// Flor is free points; always declare.
		return 2.0, []engine.TraceItem{engine.TraceKey("reason.flor", nil)}

	case engine.ActionCallContraflor:
		fv := engine.FlorValue(g.InitialAIHand[:])
		return 0.45 + 0.05*float64(fv-29), []engine.TraceItem{
			engine.TraceKey("reason.contraflor", map[string]string{"flor": fmt.Sprintf("%d", fv)}),
		}

	case engine.ActionCallEnvido:
		return e.scoreEnvidoCall(ctx, float64(ctx.envido)-ctx.role.EnvidoCallThreshold, 0.40, "envido")

	case engine.ActionCallRealEnvido:
		return e.scoreEnvidoCall(ctx, float64(ctx.envido)-29, 0.25, "real envido")

	case engine.ActionCallFaltaEnvido:
		score, factors := e.scoreEnvidoCall(ctx, float64(ctx.envido)-31, 0.15, "falta envido")
		// With the player within 3 of the target, the match delta caps
		// what falta can lose.
		if g.Rules.Target()-g.PlayerScore <= 3 {
			score += 0.20
			factors = append(factors, engine.TraceKey("reason.falta_desperation", nil))
		}
		return score, factors

	case engine.ActionCallTruco, engine.ActionCallRetruco, engine.ActionCallValeCuatro:
		return e.scoreTrucoRaise(ctx, g.TrucoLevel+1)

	case engine.ActionAccept:
		return e.scoreAccept(g, ctx)

	case engine.ActionDecline:
		score, factors := e.scoreAccept(g, ctx)
		// Declining is worth exactly what accepting is not.
		return 1.1 - score, factors
	}
	return 0, nil
}

// scorePlay scores playing the AI hand card at idx.
func (e *Engine) scorePlay(g *engine.GameState, ctx situation, idx uint8) (float64, []engine.TraceItem) {
	card := g.AIHand[idx]
	norm := float64(card.Strength()) / float64(engine.MaxStrength)
	oppCard := g.PlayerTricks[g.CurrentTrick]

	if oppCard == engine.EmptyCard {
		// Leading: strong hands press, weak hands bait low.
		if ctx.strength >= leadStrongThreshold {
			return 0.45 + 0.30*norm, []engine.TraceItem{engine.TraceKey("reason.lead_high", map[string]string{"card": card.String()})}
		}
		return 0.45 + 0.30*(1-norm), []engine.TraceItem{engine.TraceKey("reason.lead_bait", map[string]string{"card": card.String()})}
	}

	oppNorm := float64(oppCard.Strength()) / float64(engine.MaxStrength)
	switch {
	case norm > oppNorm:
		// Win with the cheapest card that wins.
		return 0.85 - 0.25*norm, []engine.TraceItem{engine.TraceKey("reason.cheapest_winner", map[string]string{"card": card.String()})}
	case norm == oppNorm:
		return 0.55 - 0.10*norm, []engine.TraceItem{engine.TraceKey("reason.force_parda", map[string]string{"card": card.String()})}
	default:
		// Can't win the trick: dump the lowest card.
		return 0.40 - 0.25*norm, []engine.TraceItem{engine.TraceKey("reason.dump_low", map[string]string{"card": card.String()})}
	}
}

// scoreEnvidoCall scores an envido-tier call from its value edge, with a
// fold-rate-driven bluff roll.
func (e *Engine) scoreEnvidoCall(ctx situation, edge float64, bluffWeight float64, label string) (float64, []engine.TraceItem) {
	score := 0.55 + 0.25*edge/8
	factors := []engine.TraceItem{
		engine.TraceKey("reason.envido_edge", map[string]string{"call": label, "edge": fmt.Sprintf("%.1f", edge)}),
	}
	if edge < 0 && e.rng.Float64() < ctx.foldLikelihood*bluffWeight {
		score += 0.30
		factors = append(factors, engine.TraceKey("reason.bluff", map[string]string{
			"call":     label,
			"foldRate": fmt.Sprintf("%.2f", ctx.foldLikelihood),
		}))
	}
	return score, factors
}

// scoreTrucoRaise scores calling the truco chain up to level.
func (e *Engine) scoreTrucoRaise(ctx situation, level uint8) (float64, []engine.TraceItem) {
	eff := ctx.strength + 0.12*float64(ctx.aiWins-ctx.playerWins)
	if ctx.aiIsMano {
		eff += 0.02
	}
	demand := 0.50 + 0.08*float64(level)
	score := 0.50 + 0.9*(eff-demand)
	factors := []engine.TraceItem{
		engine.TraceKey("reason.truco_raise", map[string]string{
			"level":    fmt.Sprintf("%d", level),
			"strength": fmt.Sprintf("%.2f", eff),
		}),
	}
	if eff < demand && e.rng.Float64() < ctx.foldLikelihood*0.35 {
		score += 0.35
		factors = append(factors, engine.TraceKey("reason.bluff", map[string]string{
			"call":     trucoLabel(level),
			"foldRate": fmt.Sprintf("%.2f", ctx.foldLikelihood),
		}))
	}
	return score, factors
}

func trucoLabel(level uint8) string {
	switch level {
	case 1:
		return "truco"
	case 2:
		return "retruco"
	default:
		return "vale cuatro"
	}
}

// scoreAccept scores accepting the outstanding call; Decline mirrors it.
func (e *Engine) scoreAccept(g *engine.GameState, ctx situation) (float64, []engine.TraceItem) {
	switch g.Phase {
	case engine.PhaseEnvidoCalled:
		edge := float64(ctx.envido) - (ctx.role.EnvidoCallThreshold - 1)
		return 0.55 + 0.30*edge/8, []engine.TraceItem{
			engine.TraceKey("reason.envido_response", map[string]string{
				"value": fmt.Sprintf("%d", ctx.envido),
				"edge":  fmt.Sprintf("%.1f", edge),
			}),
		}

	case engine.PhaseTrucoCalled, engine.PhaseRetrucoCalled, engine.PhaseValeCuatroCalled:
		eff := ctx.strength + 0.12*float64(ctx.aiWins-ctx.playerWins)
		if ctx.aiIsMano {
			eff += 0.02
		}
		demand := 0.42 + 0.07*float64(g.TrucoLevel)
		score := 0.55 + 0.8*(eff-demand)
		// A player who bluffs often gets called more.
		score += 0.15 * e.Model.ChainBluffRate
		return score, []engine.TraceItem{
			engine.TraceKey("reason.truco_response", map[string]string{
				"strength":  fmt.Sprintf("%.2f", eff),
				"demand":    fmt.Sprintf("%.2f", demand),
				"bluffRate": fmt.Sprintf("%.2f", e.Model.ChainBluffRate),
			}),
		}

	case engine.PhaseFlorCalled:
		fv := engine.FlorValue(g.InitialAIHand[:])
		return 0.50 + 0.04*float64(fv-26), []engine.TraceItem{
			engine.TraceKey("reason.flor_response", map[string]string{"flor": fmt.Sprintf("%d", fv)}),
		}

	case engine.PhaseContraflorCalled:
		fv := engine.FlorValue(g.InitialAIHand[:])
		return 0.50 + 0.04*float64(fv-28), []engine.TraceItem{
			engine.TraceKey("reason.contraflor_response", map[string]string{"flor": fmt.Sprintf("%d", fv)}),
		}
	}
	return 0.5, nil
}

// fallback is the heuristic-only degraded mode: no model, no case memory,
// just card strength. It still always returns a legal action.
func (e *Engine) fallback(g *engine.GameState, cause any) Decision {
	trace := []engine.TraceItem{
		engine.TraceKey("reason.fallback", map[string]string{"cause": fmt.Sprint(cause)}),
		engine.TraceText("degraded mode: hand-strength heuristic only"),
	}
	mask := g.LegalActions()

	if mask&(1<<engine.ActionDeclareFlor) != 0 {
		return Decision{Action: engine.ActionDeclareFlor, Trace: trace}
	}

	// Trick play: cheapest winner, else strongest lead, else lowest dump.
	var bestPlay engine.Action
	bestScore := -1.0
	for i := uint8(0); i < engine.HandSize; i++ {
		a := engine.EncodePlayCard(i)
		if mask&(1<<a) == 0 {
			continue
		}
		card := g.AIHand[i]
		norm := float64(card.Strength()) / float64(engine.MaxStrength)
		score := norm
		if opp := g.PlayerTricks[g.CurrentTrick]; opp != engine.EmptyCard {
			if card.Strength() > opp.Strength() {
				score = 2 - norm
			} else {
				score = 1 - norm
			}
		}
		if score > bestScore {
			bestScore = score
			bestPlay = a
		}
	}
	if bestScore >= 0 {
		return Decision{Action: bestPlay, Trace: trace}
	}

	// Pending call: accept with a decent hand, fold otherwise.
	if mask&(1<<engine.ActionAccept) != 0 && mask&(1<<engine.ActionDecline) != 0 {
		hand := g.RemainingHand(engine.SeatAI)
		strong := len(hand) > 0 && engine.HandStrength(hand) >= 0.5
		if g.Phase == engine.PhaseEnvidoCalled {
			strong = engine.EnvidoValue(g.InitialAIHand[:]) >= 26
		}
		if strong {
			return Decision{Action: engine.ActionAccept, Trace: trace}
		}
		return Decision{Action: engine.ActionDecline, Trace: trace}
	}

	for a := engine.Action(0); a < engine.NumActions; a++ {
		if mask&(1<<a) != 0 {
			return Decision{Action: a, Trace: trace}
		}
	}
	// Unreachable on any acting turn; StartRound keeps the contract.
	return Decision{Action: engine.ActionStartRound, Trace: trace}
}

// ---------------------------------------------------------------------------
// Learning hooks
// ---------------------------------------------------------------------------

// FinalizeRound resolves every decision staged this round with the round
// outcome and commits them to case memory.
func (e *Engine) FinalizeRound(roundWon bool, pointsSwing int) {
	for _, c := range e.pending {
		c.RoundWon = roundWon
		c.PointsSwing = pointsSwing
		e.Cases.Add(c)
	}
	e.pending = nil
}

// DiscardPending drops staged decisions without committing them (match
// restarted mid-round).
func (e *Engine) DiscardPending() { e.pending = nil }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
