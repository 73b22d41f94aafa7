package engine

// resolveTrick compares the two cards of the current trick, records the
// winner (or parda), and either closes the round or opens the next trick.
func (g *GameState) resolveTrick() {
	ct := g.CurrentTrick
	pc, ac := g.PlayerTricks[ct], g.AITricks[ct]

	w := TrickParda
	switch {
	case pc.Strength() > ac.Strength():
		w = TrickPlayer
	case ac.Strength() > pc.Strength():
		w = TrickAI
	}
	g.TrickWinners[ct] = w
	if w == TrickParda {
		g.logf("trick %d is parda (%s vs %s)", ct+1, pc, ac)
	} else {
		g.logf("%s wins trick %d (%s vs %s)", w, ct+1, pc, ac)
		g.Leader = w.seat()
	}

	if winner, done := roundWinnerFromTricks(g.TrickWinners[:ct+1], g.Mano); done {
		g.finishRound(winner, g.roundStake(), "truco")
		return
	}

	g.CurrentTrick++
	g.Phase = trickPhase(g.CurrentTrick)
	g.CurrentTurn = g.Leader
}

// roundWinnerFromTricks evaluates the resolved trick sequence and reports
// the round winner as soon as the outcome is determinate:
//
//   - first side to two trick wins takes the round;
//   - leading pardas are settled by the first non-tied trick;
//   - a parda after a non-tied trick goes to the winner of the nearest
//     previous non-tied trick;
//   - three pardas go to mano.
func roundWinnerFromTricks(tricks []TrickWinner, mano Seat) (Seat, bool) {
	playerWins, aiWins := 0, 0
	leadingPardas := true

	for i, t := range tricks {
		if t == TrickParda {
			if !leadingPardas {
				for j := i - 1; j >= 0; j-- {
					if s := tricks[j].seat(); s != SeatNone {
						return s, true
					}
				}
			}
			if i == 2 {
				return mano, true
			}
			continue
		}

		if leadingPardas && i > 0 {
			// Earlier tricks all tied: this winner takes the round.
			return t.seat(), true
		}
		leadingPardas = false

		if t == TrickPlayer {
			playerWins++
		} else {
			aiWins++
		}
		if playerWins == 2 {
			return SeatPlayer, true
		}
		if aiWins == 2 {
			return SeatAI, true
		}
	}
	return SeatNone, false
}

// roundStake returns the points the round is worth: 1 without truco,
// otherwise the accepted level's value (2/3/4).
func (g *GameState) roundStake() int {
	if g.TrucoLevel == 0 {
		return 1
	}
	return int(g.TrucoLevel) + 1
}

// finishRound awards the round points and closes the round.
func (g *GameState) finishRound(winner Seat, points int, source string) {
	g.award(winner, points, source)
	g.logf("%s wins round %d", winner, g.Round)
	g.closeRound(winner)
}

// closeRound freezes the round summary and moves to RoundEnd, or GameOver
// when the match winner is already set.
func (g *GameState) closeRound(winner Seat) {
	g.LastSummary = g.buildSummary(winner)
	if g.Winner != SeatNone {
		g.Phase = PhaseGameOver
		return
	}
	g.Phase = PhaseRoundEnd
}

// ---------------------------------------------------------------------------
// Round summary
// ---------------------------------------------------------------------------

// RoundSummary is the immutable record of one finished round. Encoded with
// compact card codes so profile exports stay human-diffable.
type RoundSummary struct {
	Round             int                `json:"round"`
	Mano              string             `json:"mano"`
	InitialPlayerHand [HandSize]string   `json:"initialPlayerHand"`
	InitialAIHand     [HandSize]string   `json:"initialAiHand"`
	Calls             []string           `json:"calls"`
	PlayerTricks      [3]string          `json:"playerTricks"`
	AITricks          [3]string          `json:"aiTricks"`
	TrickWinners      [3]string          `json:"trickWinners"`
	TrucoLevel        uint8              `json:"trucoLevel"`
	TrucoCaller       string             `json:"trucoCaller,omitempty"`
	TrucoCallStrength float64            `json:"trucoCallStrength,omitempty"`
	TrucoCallBluff    bool               `json:"trucoCallBluff,omitempty"`
	PlayerPoints      PointsBreakdown    `json:"playerPoints"`
	AIPoints          PointsBreakdown    `json:"aiPoints"`
	Winner            string             `json:"winner"`
}

// buildSummary snapshots the closing round.
func (g *GameState) buildSummary(winner Seat) *RoundSummary {
	s := &RoundSummary{
		Round:             g.Round,
		Mano:              g.Mano.String(),
		Calls:             append([]string(nil), g.Calls...),
		TrucoLevel:        g.TrucoLevel,
		TrucoCallStrength: g.TrucoCallStrength,
		TrucoCallBluff:    g.TrucoCallBluff,
		PlayerPoints:      g.playerPoints,
		AIPoints:          g.aiPoints,
		Winner:            winner.String(),
	}
	if g.TrucoCaller != SeatNone {
		s.TrucoCaller = g.TrucoCaller.String()
	}
	for i := 0; i < HandSize; i++ {
		s.InitialPlayerHand[i] = g.InitialPlayerHand[i].Code()
		s.InitialAIHand[i] = g.InitialAIHand[i].Code()
	}
	for i := 0; i < 3; i++ {
		s.PlayerTricks[i] = g.PlayerTricks[i].Code()
		s.AITricks[i] = g.AITricks[i].Code()
		s.TrickWinners[i] = g.TrickWinners[i].String()
	}
	return s
}
