package engine

// abit returns the bitmask bit for an action index.
func abit(a Action) uint16 { return 1 << a }

// LegalActions returns a bitmask of the actions the acting seat may take.
// Bit i is set if Action(i) is legal. Zero heap allocation.
func (g *GameState) LegalActions() uint16 {
	switch g.Phase {
	case PhaseGameOver:
		return 0

	case PhaseRoundEnd:
		return abit(ActionStartRound)

	case PhaseTrick1, PhaseTrick2, PhaseTrick3:
		return g.legalTrick()

	case PhaseEnvidoCalled:
		return g.legalEnvidoResponse()

	case PhaseTrucoCalled, PhaseRetrucoCalled, PhaseValeCuatroCalled:
		return g.legalTrucoResponse()

	case PhaseFlorCalled:
		return abit(ActionAccept) | abit(ActionDecline) | abit(ActionCallContraflor)

	case PhaseContraflorCalled:
		return abit(ActionAccept) | abit(ActionDecline)
	}
	return 0
}

// LegalActionsList returns legal actions as a slice (allocates).
func (g *GameState) LegalActionsList() []Action {
	mask := g.LegalActions()
	var actions []Action
	for a := Action(0); a < NumActions; a++ {
		if mask&abit(a) != 0 {
			actions = append(actions, a)
		}
	}
	return actions
}

// legalTrick populates legal actions while a trick is being played out.
func (g *GameState) legalTrick() uint16 {
	actor := g.CurrentTurn
	var mask uint16

	// Play any card still in hand; slot indices stay stable after plays.
	hand := g.handOf(actor)
	for i := uint8(0); i < HandSize; i++ {
		if hand[i] != EmptyCard {
			mask |= abit(EncodePlayCard(i))
		}
	}

	// Envido window: trick 1 only, before truco enters the round.
	if g.TrucoLevel == 0 {
		mask |= g.envidoBits()
		if g.florLegal(actor) {
			mask |= abit(ActionDeclareFlor)
		}
	}

	// Truco escalation: strictly increasing, never twice in a row by the
	// same caller.
	if g.TrucoLevel < 3 && g.TrucoCaller != actor {
		mask |= abit(trucoActionForLevel(g.TrucoLevel + 1))
	}

	return mask
}

// legalEnvidoResponse populates responses to an outstanding envido call.
func (g *GameState) legalEnvidoResponse() uint16 {
	mask := abit(ActionAccept) | abit(ActionDecline)
	mask |= g.envidoBits() // raise to a higher tier
	if g.florLegal(g.CurrentTurn) {
		mask |= abit(ActionDeclareFlor) // flor outranks and cancels envido
	}
	return mask
}

// legalTrucoResponse populates responses to an outstanding truco-chain call.
func (g *GameState) legalTrucoResponse() uint16 {
	mask := abit(ActionAccept) | abit(ActionDecline)
	if g.TrucoLevel < 3 {
		mask |= abit(trucoActionForLevel(g.TrucoLevel + 1))
	}
	// Envido primero: a first-level truco call in trick 1 can be
	// interrupted by envido, which then resolves first.
	if g.Phase == PhaseTrucoCalled && g.PendingTrucoCaller == SeatNone {
		mask |= g.envidoBits()
	}
	return mask
}

// envidoBits returns the callable envido tiers, or 0 when the envido
// window is closed. Tiers are monotonic and single-use.
func (g *GameState) envidoBits() uint16 {
	if g.CurrentTrick != 0 || g.EnvidoResolved || g.FlorDeclared {
		return 0
	}
	var mask uint16
	if !g.EnvidoCalled && !g.RealEnvidoCalled && !g.FaltaEnvidoCalled {
		mask |= abit(ActionCallEnvido)
	}
	if !g.RealEnvidoCalled && !g.FaltaEnvidoCalled {
		mask |= abit(ActionCallRealEnvido)
	}
	if !g.FaltaEnvidoCalled {
		mask |= abit(ActionCallFaltaEnvido)
	}
	return mask
}

// florLegal reports whether the seat can declare flor right now.
func (g *GameState) florLegal(s Seat) bool {
	return g.Rules.FlorEnabled &&
		g.CurrentTrick == 0 &&
		!g.FlorDeclared &&
		!g.EnvidoResolved &&
		HasFlor(g.initialHandOf(s))
}

// trucoActionForLevel maps a target truco level (1..3) to its call action.
func trucoActionForLevel(level uint8) Action {
	switch level {
	case 1:
		return ActionCallTruco
	case 2:
		return ActionCallRetruco
	default:
		return ActionCallValeCuatro
	}
}
