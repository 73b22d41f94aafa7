package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidAction marks an action that is not legal in the current phase.
// The state is left untouched; callers may treat it as a no-op.
var ErrInvalidAction = errors.New("invalid action")

// bluffStrengthThreshold: truco calls below this hand strength are flagged
// as bluffs in the round summary.
const bluffStrengthThreshold = 0.45

// ApplyAction applies one action for the acting seat. Illegal actions
// return an error wrapping ErrInvalidAction and change nothing.
func (g *GameState) ApplyAction(a Action) error {
	if a >= NumActions {
		return fmt.Errorf("%w: unknown action index %d", ErrInvalidAction, a)
	}
	if g.LegalActions()&abit(a) == 0 {
		return fmt.Errorf("%w: %s during %s", ErrInvalidAction, a, g.Phase)
	}

	actor := g.CurrentTurn
	if idx, ok := ActionIsPlayCard(a); ok {
		g.playCard(actor, idx)
		return nil
	}

	switch a {
	case ActionStartRound:
		g.startRound()
	case ActionCallEnvido, ActionCallRealEnvido, ActionCallFaltaEnvido:
		g.callEnvidoTier(actor, a)
	case ActionCallTruco, ActionCallRetruco, ActionCallValeCuatro:
		g.callTrucoTier(actor)
	case ActionDeclareFlor:
		g.declareFlor(actor)
	case ActionCallContraflor:
		g.callContraflor(actor)
	case ActionAccept:
		g.accept(actor)
	case ActionDecline:
		g.decline(actor)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Card play
// ---------------------------------------------------------------------------

// playCard moves hand card idx into the current trick slot and resolves the
// trick once both sides have played.
func (g *GameState) playCard(actor Seat, idx uint8) {
	hand := g.handOf(actor)
	card := hand[idx]
	g.tricksOf(actor)[g.CurrentTrick] = card
	hand[idx] = EmptyCard
	g.logf("%s plays %s", actor, card)

	if g.PlayerTricks[g.CurrentTrick] != EmptyCard && g.AITricks[g.CurrentTrick] != EmptyCard {
		g.resolveTrick()
		return
	}
	g.CurrentTurn = actor.Other()
}

// ---------------------------------------------------------------------------
// Envido chain
// ---------------------------------------------------------------------------

// callEnvidoTier handles envido, real envido and falta envido calls,
// including the envido-primero interrupt of a pending truco call.
func (g *GameState) callEnvidoTier(actor Seat, a Action) {
	if g.Phase == PhaseTrucoCalled {
		// Envido primero: the truco call is parked until envido resolves.
		g.PendingTrucoCaller = g.TrucoCaller
		g.logf("envido interrupts the truco call; envido resolves first")
	} else if g.Phase.IsTrick() {
		g.TurnBeforeInterrupt = g.CurrentTurn
	}

	prev := g.EnvidoPointsOnOffer
	g.EnvidoDeclineValue = prev
	if g.EnvidoDeclineValue < 1 {
		g.EnvidoDeclineValue = 1
	}

	var label string
	switch a {
	case ActionCallEnvido:
		g.EnvidoCalled = true
		g.EnvidoPointsOnOffer = 2
		label = "envido"
	case ActionCallRealEnvido:
		g.RealEnvidoCalled = true
		g.EnvidoPointsOnOffer = prev + 3
		label = "real envido"
	default:
		g.FaltaEnvidoCalled = true
		// Falta: enough to bring the leader to the target.
		lead := g.PlayerScore
		if g.AIScore > lead {
			lead = g.AIScore
		}
		delta := g.Rules.Target() - lead
		if delta < 1 {
			delta = 1
		}
		g.EnvidoPointsOnOffer = delta
		label = "falta envido"
	}

	g.EnvidoCaller = actor
	g.LastCaller = actor
	g.recordCall(actor, label)
	g.logf("%s calls %s (%d points at stake)", actor, label, g.EnvidoPointsOnOffer)
	g.Phase = PhaseEnvidoCalled
	g.CurrentTurn = actor.Other()
}

// resolveEnvidoShowdown compares the deal-time envido values. Mano wins
// ties. Play then resumes, re-asserting a parked truco call if present.
func (g *GameState) resolveEnvidoShowdown() {
	pv := EnvidoValue(g.InitialPlayerHand[:])
	av := EnvidoValue(g.InitialAIHand[:])
	winner := g.Mano
	if pv > av {
		winner = SeatPlayer
	} else if av > pv {
		winner = SeatAI
	}
	g.logf("envido showdown: player %d - ai %d", pv, av)
	g.award(winner, g.EnvidoPointsOnOffer, "envido")
	g.EnvidoResolved = true
	g.EnvidoPointsOnOffer = 0
	g.resumeAfterInterrupt()
}

// ---------------------------------------------------------------------------
// Truco chain
// ---------------------------------------------------------------------------

var trucoLabels = [4]string{"", "truco", "retruco", "vale cuatro"}

// callTrucoTier raises the truco chain one level, either opening it from a
// trick phase or counter-raising an outstanding call.
func (g *GameState) callTrucoTier(actor Seat) {
	if g.Phase.IsTrick() {
		g.TurnBeforeInterrupt = g.CurrentTurn
	}
	g.TrucoLevel++
	g.TrucoCaller = actor
	g.LastCaller = actor

	if g.TrucoLevel == 1 {
		strength := HandStrength(g.RemainingHand(actor))
		g.TrucoCallStrength = strength
		g.TrucoCallBluff = strength < bluffStrengthThreshold
	}

	label := trucoLabels[g.TrucoLevel]
	g.recordCall(actor, label)
	g.logf("%s calls %s (round worth %d if accepted)", actor, label, g.TrucoLevel+1)
	g.Phase = PhaseTrucoCalled + Phase(g.TrucoLevel-1)
	g.CurrentTurn = actor.Other()
}

// ---------------------------------------------------------------------------
// Flor
// ---------------------------------------------------------------------------

// Flor scoring ladder. Each escalation step raises the stake.
const (
	florUncontestedPoints    = 3
	florDeclinedPoints       = 4
	florShowdownPoints       = 6
	contraflorDeclinedPoints = 6
	contraflorShowdownPoints = 8
)

// declareFlor announces a flor. It closes the envido window for the round,
// cancelling any outstanding envido call without penalty.
func (g *GameState) declareFlor(actor Seat) {
	if g.Phase.IsTrick() {
		g.TurnBeforeInterrupt = g.CurrentTurn
	}
	if g.Phase == PhaseEnvidoCalled {
		g.logf("flor cancels the envido call")
		g.EnvidoPointsOnOffer = 0
	}
	g.EnvidoResolved = true
	g.FlorDeclared = true
	g.FlorCaller = actor
	g.LastCaller = actor
	g.recordCall(actor, "flor")
	g.logf("%s declares flor", actor)

	opp := actor.Other()
	if HasFlor(g.initialHandOf(opp)) {
		g.Phase = PhaseFlorCalled
		g.CurrentTurn = opp
		return
	}
	g.award(actor, florUncontestedPoints, "flor")
	g.resumeAfterInterrupt()
}

// callContraflor escalates a flor-vs-flor standoff.
func (g *GameState) callContraflor(actor Seat) {
	g.ContraflorCalled = true
	g.LastCaller = actor
	g.recordCall(actor, "contraflor")
	g.logf("%s calls contraflor", actor)
	g.Phase = PhaseContraflorCalled
	g.CurrentTurn = actor.Other()
}

// resolveFlorShowdown compares the deal-time flor values for the given
// stake. Mano wins ties.
func (g *GameState) resolveFlorShowdown(points int) {
	pv := FlorValue(g.InitialPlayerHand[:])
	av := FlorValue(g.InitialAIHand[:])
	winner := g.Mano
	if pv > av {
		winner = SeatPlayer
	} else if av > pv {
		winner = SeatAI
	}
	g.logf("flor showdown: player %d - ai %d", pv, av)
	g.award(winner, points, "flor")
	g.resumeAfterInterrupt()
}

// ---------------------------------------------------------------------------
// Generic responses
// ---------------------------------------------------------------------------

// accept resolves the outstanding call in the actor's favorable direction.
func (g *GameState) accept(actor Seat) {
	g.recordCall(actor, "quiero")
	switch g.Phase {
	case PhaseEnvidoCalled:
		g.logf("%s accepts the envido", actor)
		g.resolveEnvidoShowdown()

	case PhaseTrucoCalled, PhaseRetrucoCalled, PhaseValeCuatroCalled:
		g.logf("%s accepts, round now worth %d", actor, g.TrucoLevel+1)
		g.Phase = trickPhase(g.CurrentTrick)
		g.CurrentTurn = g.TurnBeforeInterrupt

	case PhaseFlorCalled:
		g.logf("%s accepts the flor showdown", actor)
		g.resolveFlorShowdown(florShowdownPoints)

	case PhaseContraflorCalled:
		g.logf("%s accepts the contraflor", actor)
		g.resolveFlorShowdown(contraflorShowdownPoints)
	}
}

// decline folds against the outstanding call. Declining a truco-chain call
// ends the round immediately; envido/flor declines resume play.
func (g *GameState) decline(actor Seat) {
	g.recordCall(actor, "no quiero")
	switch g.Phase {
	case PhaseEnvidoCalled:
		g.logf("%s declines the envido", actor)
		g.award(g.EnvidoCaller, g.EnvidoDeclineValue, "envido")
		g.EnvidoResolved = true
		g.EnvidoPointsOnOffer = 0
		g.resumeAfterInterrupt()

	case PhaseTrucoCalled, PhaseRetrucoCalled, PhaseValeCuatroCalled:
		g.logf("%s declines the %s", actor, trucoLabels[g.TrucoLevel])
		g.finishRound(g.TrucoCaller, int(g.TrucoLevel), "truco")

	case PhaseFlorCalled:
		g.logf("%s declines the flor showdown", actor)
		g.award(g.FlorCaller, florDeclinedPoints, "flor")
		g.resumeAfterInterrupt()

	case PhaseContraflorCalled:
		g.logf("%s declines the contraflor", actor)
		g.award(g.LastCaller, contraflorDeclinedPoints, "flor")
		g.resumeAfterInterrupt()
	}
}

// resumeAfterInterrupt returns control to trick play after an envido/flor
// resolution, re-asserting a parked truco call when one is pending. If the
// award crossed the target score the round is cut short instead.
func (g *GameState) resumeAfterInterrupt() {
	if g.Winner != SeatNone {
		g.closeRound(g.Winner)
		return
	}
	if g.PendingTrucoCaller != SeatNone {
		g.Phase = PhaseTrucoCalled
		g.LastCaller = g.PendingTrucoCaller
		g.CurrentTurn = g.PendingTrucoCaller.Other()
		g.PendingTrucoCaller = SeatNone
		g.logf("the truco call stands, %s to respond", g.CurrentTurn)
		return
	}
	g.Phase = trickPhase(g.CurrentTrick)
	g.CurrentTurn = g.TurnBeforeInterrupt
}
