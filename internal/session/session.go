// Package session hosts one human-vs-AI Truco match: it serializes actions
// into the rules engine, feeds player behavior to the opponent model,
// schedules AI turns behind a think delay and persists the learning
// profile at round boundaries.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/JuanchoGithub/truco-ai/engine"
	"github.com/JuanchoGithub/truco-ai/engine/ai"
	"github.com/JuanchoGithub/truco-ai/internal/profile"
)

// ErrClosed is returned by Dispatch after the session has been closed.
var ErrClosed = errors.New("session closed")

// ErrNotPlayerTurn is returned by Dispatch while an AI move is pending.
// Player actions are never applied as the AI's move.
var ErrNotPlayerTurn = errors.New("not the player's turn")

const saveTimeout = 5 * time.Second

// Config parameterizes a session. Store may be nil for an ephemeral match
// that learns within the session but persists nothing.
type Config struct {
	Store      profile.Store
	ProfileKey string
	Rules      engine.Rules
	Seed       uint64
	ThinkDelay time.Duration
	Log        *logrus.Entry
}

// Session owns a single match. All state behind mu; the scheduler applies
// AI decisions asynchronously through the same lock.
type Session struct {
	mu sync.Mutex

	id    uuid.UUID
	log   *logrus.Entry
	cfg   Config
	game  engine.GameState
	brain *ai.Engine
	prof  *profile.Profile

	sched scheduler

	// Per-round player tracking.
	playerOrder []string

	onUpdate func()
	closed   bool
}

// New creates a session, loading the stored profile if one exists under
// the configured key. A corrupt stored profile is logged and replaced with
// a fresh one rather than aborting the match.
func New(cfg Config) (*Session, error) {
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if cfg.ProfileKey == "" {
		cfg.ProfileKey = "default"
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Session{
		id:    uuid.New(),
		cfg:   cfg,
		brain: ai.New(cfg.Seed),
		prof:  profile.New(),
		game:  engine.NewGame(cfg.Seed, cfg.Rules),
	}
	s.log = cfg.Log.WithField("session_id", s.id.String())

	if cfg.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		data, err := cfg.Store.Load(ctx, cfg.ProfileKey)
		switch {
		case errors.Is(err, profile.ErrNotFound):
			s.log.Info("no stored profile, starting fresh")
		case err != nil:
			s.log.WithError(err).Warn("profile load failed, starting fresh")
		default:
			if p, ierr := profile.Import(data); ierr != nil {
				s.log.WithError(ierr).Warn("stored profile corrupt, starting fresh")
			} else {
				s.adoptProfile(p)
				s.log.WithField("observations", p.OpponentModel.Observations).
					Info("profile loaded")
			}
		}
	}
	return s, nil
}

// adoptProfile wires an imported profile into the AI engine. Caller holds
// the lock (or the session is not yet shared).
func (s *Session) adoptProfile(p *profile.Profile) {
	s.prof = p
	s.brain.Model = p.OpponentModel
	s.brain.Cases.Restore(p.CaseMemory)
}

// SetOnUpdate registers a callback invoked (without the lock held) after
// every state change, including asynchronous AI moves.
func (s *Session) SetOnUpdate(fn func()) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onUpdate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns an independent copy of the game state.
func (s *Session) State() engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Clone()
}

// Reasoning returns the accumulated AI reasoning log.
func (s *Session) Reasoning() []engine.ReasoningEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.ReasoningEntry(nil), s.prof.AIReasoningLog...)
}

// History returns the round summaries recorded so far.
func (s *Session) History() []engine.RoundSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.RoundSummary(nil), s.prof.RoundHistory...)
}

// ---------------------------------------------------------------------------
// Action dispatch
// ---------------------------------------------------------------------------

// Dispatch applies one player-side action (including StartRound between
// rounds). Player decisions are observed into the opponent model before
// the state advances; an AI reply is then scheduled if it is the AI's turn.
func (s *Session) Dispatch(a engine.Action) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.game.ActingSeat() == engine.SeatAI {
		s.mu.Unlock()
		return ErrNotPlayerTurn
	}
	pre := s.game.Clone()
	if err := s.game.ApplyAction(a); err != nil {
		s.mu.Unlock()
		return err
	}
	if pre.ActingSeat() == engine.SeatPlayer {
		s.observePlayer(&pre, a)
	}
	s.afterApply(&pre, a)
	s.scheduleAILocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// observePlayer feeds one player decision into the opponent model and the
// card-play statistics. pre is the state the decision was made in.
func (s *Session) observePlayer(pre *engine.GameState, a engine.Action) {
	m := s.brain.Model
	playerIsMano := pre.Mano == engine.SeatPlayer

	if idx, ok := engine.ActionIsPlayCard(a); ok {
		card := pre.PlayerHand[idx]
		code := card.Code()
		st := s.prof.CardPlayStats[code]
		st.Played++
		s.playerOrder = append(s.playerOrder, code)
		if pre.AITricks[pre.CurrentTrick] == engine.EmptyCard {
			st.Led++
			m.ObserveLead(ai.PlayedHighestLead(pre.RemainingHand(engine.SeatPlayer), card))
		}
		s.prof.CardPlayStats[code] = st
		return
	}

	switch pre.Phase {
	case engine.PhaseEnvidoCalled:
		if pre.EnvidoCaller == engine.SeatAI {
			switch a {
			case engine.ActionDecline:
				m.ObserveEnvidoFold(playerIsMano, true)
				m.ObserveCallResponse(false)
			case engine.ActionAccept:
				m.ObserveEnvidoFold(playerIsMano, false)
				m.ObserveCallResponse(false)
			case engine.ActionCallEnvido, engine.ActionCallRealEnvido, engine.ActionCallFaltaEnvido:
				m.ObserveEnvidoFold(playerIsMano, false)
				m.ObserveCallResponse(true)
			}
		}

	case engine.PhaseTrucoCalled:
		// The envido-primero window: did the player take it?
		windowOpen := pre.LegalActions()&(1<<engine.ActionCallEnvido) != 0
		switch a {
		case engine.ActionCallEnvido, engine.ActionCallRealEnvido, engine.ActionCallFaltaEnvido:
			m.ObserveEnvidoPrimero(true)
		default:
			if windowOpen {
				m.ObserveEnvidoPrimero(false)
			}
			s.observeTrucoResponse(pre, a)
		}

	case engine.PhaseRetrucoCalled, engine.PhaseValeCuatroCalled:
		s.observeTrucoResponse(pre, a)
	}
}

func (s *Session) observeTrucoResponse(pre *engine.GameState, a engine.Action) {
	if pre.TrucoCaller != engine.SeatAI {
		return
	}
	switch a {
	case engine.ActionCallTruco, engine.ActionCallRetruco, engine.ActionCallValeCuatro:
		s.brain.Model.ObserveCallResponse(true)
	case engine.ActionAccept, engine.ActionDecline:
		s.brain.Model.ObserveCallResponse(false)
	}
}

// afterApply handles transitions common to player and AI actions: envido
// resolution bookkeeping and round finalization.
func (s *Session) afterApply(pre *engine.GameState, a engine.Action) {
	if pre.Phase == engine.PhaseEnvidoCalled && (a == engine.ActionAccept || a == engine.ActionDecline) {
		s.recordEnvido(pre, a == engine.ActionAccept)
	}

	nowClosed := s.game.Phase == engine.PhaseRoundEnd || s.game.Phase == engine.PhaseGameOver
	wasClosed := pre.Phase == engine.PhaseRoundEnd || pre.Phase == engine.PhaseGameOver
	if nowClosed && !wasClosed && s.game.LastSummary != nil {
		s.finalizeRound(s.game.LastSummary)
	}
}

// recordEnvido logs a resolved envido chain and, on showdowns, feeds the
// revealed player value into the threshold estimate.
func (s *Session) recordEnvido(pre *engine.GameState, accepted bool) {
	call := "envido"
	if pre.RealEnvidoCalled {
		call = "real envido"
	}
	if pre.FaltaEnvidoCalled {
		call = "falta envido"
	}
	rec := profile.EnvidoRecord{
		Round:    pre.Round,
		Caller:   pre.EnvidoCaller.String(),
		Call:     call,
		Accepted: accepted,
	}
	if accepted {
		rec.Points = pre.EnvidoPointsOnOffer
		rec.PlayerValue = engine.EnvidoValue(pre.InitialPlayerHand[:])
		rec.AIValue = engine.EnvidoValue(pre.InitialAIHand[:])
		s.brain.Model.ObserveEnvidoShown(pre.Mano == engine.SeatPlayer, rec.PlayerValue)
	} else {
		rec.Points = pre.EnvidoDeclineValue
	}
	s.prof.EnvidoHistory = append(s.prof.EnvidoHistory, rec)
}

// finalizeRound commits the round outcome to the case memory, the
// histories and the profile store.
func (s *Session) finalizeRound(sum *engine.RoundSummary) {
	aiWon := sum.Winner == engine.SeatAI.String()
	swing := s.game.RoundPoints(engine.SeatAI).Total() -
		s.game.RoundPoints(engine.SeatPlayer).Total()
	s.brain.FinalizeRound(aiWon, swing)

	if sum.TrucoCaller == engine.SeatPlayer.String() {
		s.brain.Model.ObserveTrucoBluff(sum.TrucoCallBluff)
	}

	for i, code := range sum.PlayerTricks {
		if sum.TrickWinners[i] == engine.SeatPlayer.String() {
			st := s.prof.CardPlayStats[code]
			st.WonTrick++
			s.prof.CardPlayStats[code] = st
		}
	}

	if len(s.playerOrder) > 0 {
		s.prof.PlayOrderHistory = append(s.prof.PlayOrderHistory,
			append([]string(nil), s.playerOrder...))
	}
	s.playerOrder = nil
	s.prof.RoundHistory = append(s.prof.RoundHistory, *sum)

	s.saveLocked()
}

// saveLocked snapshots the profile and persists it in the background.
// Persistence failure degrades to in-session learning only.
func (s *Session) saveLocked() {
	if s.cfg.Store == nil {
		return
	}
	s.prof.OpponentModel = s.brain.Model
	s.prof.CaseMemory = s.brain.Cases.Snapshot()
	data, err := s.prof.Export()
	if err != nil {
		s.log.WithError(err).Error("profile export failed")
		return
	}
	key := s.cfg.ProfileKey
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.cfg.Store.Save(ctx, key, data); err != nil {
			s.log.WithError(err).Warn("profile save failed, learning kept in memory")
		}
	}()
}

// ---------------------------------------------------------------------------
// AI turn scheduling
// ---------------------------------------------------------------------------

// scheduleAILocked computes the AI's decision immediately against the
// current state and schedules its application after the think delay.
// Caller holds the lock.
func (s *Session) scheduleAILocked() {
	if s.closed || s.game.ActingSeat() != engine.SeatAI {
		return
	}
	dec := s.brain.Decide(&s.game)
	round := s.game.Round
	s.sched.schedule(s.cfg.ThinkDelay, func() { s.applyAI(round, dec) })
}

// applyAI lands a scheduled decision. A decision that is no longer legal
// (the match was restarted or the profile reset underneath it) is dropped
// and a fresh one computed.
func (s *Session) applyAI(round int, dec ai.Decision) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.game.Round != round || s.game.LegalActions()&(1<<dec.Action) == 0 ||
		s.game.ActingSeat() != engine.SeatAI {
		s.log.WithField("action", dec.Action.String()).Warn("stale ai decision discarded")
		s.scheduleAILocked()
		s.mu.Unlock()
		return
	}

	pre := s.game.Clone()
	if err := s.game.ApplyAction(dec.Action); err != nil {
		s.log.WithError(err).Error("ai action rejected")
		s.mu.Unlock()
		return
	}
	s.prof.AIReasoningLog = append(s.prof.AIReasoningLog, engine.ReasoningEntry{
		Round:  pre.Round,
		Action: dec.Action.String(),
		Items:  dec.Trace,
	})
	s.afterApply(&pre, dec.Action)
	s.scheduleAILocked()
	s.mu.Unlock()

	s.notify()
}

// ---------------------------------------------------------------------------
// Profile management
// ---------------------------------------------------------------------------

// ExportProfile serializes the current learning state.
func (s *Session) ExportProfile() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prof.OpponentModel = s.brain.Model
	s.prof.CaseMemory = s.brain.Cases.Snapshot()
	return s.prof.Export()
}

// ImportProfile replaces the learning state with an exported profile and
// persists it. Invalid payloads leave the current state untouched.
func (s *Session) ImportProfile(data []byte) error {
	p, err := profile.Import(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.brain.DiscardPending()
	s.adoptProfile(p)
	s.saveLocked()
	s.mu.Unlock()
	return nil
}

// ResetProfile discards all learning and clears the stored blob. The match
// in progress continues with a fresh-profile AI.
func (s *Session) ResetProfile() error {
	s.mu.Lock()
	s.brain.DiscardPending()
	s.brain.Model = ai.DefaultOpponentModel()
	s.brain.Cases.Restore(nil)
	s.prof = profile.New()
	s.prof.OpponentModel = s.brain.Model
	s.mu.Unlock()

	if s.cfg.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return s.cfg.Store.Clear(ctx, s.cfg.ProfileKey)
}

// NewMatch abandons the current match and deals a fresh one with the given
// seed (0 for time-based). Learning carries over; staged cases from the
// abandoned round are discarded.
func (s *Session) NewMatch(seed uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s.sched.cancel()
	s.mu.Lock()
	s.brain.DiscardPending()
	s.playerOrder = nil
	s.game = engine.NewGame(seed, s.cfg.Rules)
	s.mu.Unlock()
	s.notify()
}

// Close stops the scheduler and performs a final synchronous save.
func (s *Session) Close() error {
	s.sched.cancel()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var data []byte
	var err error
	if s.cfg.Store != nil {
		s.prof.OpponentModel = s.brain.Model
		s.prof.CaseMemory = s.brain.Cases.Snapshot()
		data, err = s.prof.Export()
	}
	key := s.cfg.ProfileKey
	store := s.cfg.Store
	s.mu.Unlock()

	if store == nil {
		return nil
	}
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	return store.Save(ctx, key, data)
}
