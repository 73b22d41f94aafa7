package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuanchoGithub/truco-ai/engine"
	"github.com/JuanchoGithub/truco-ai/internal/profile"
)

func testSession(t *testing.T, store profile.Store) *Session {
	t.Helper()
	sess, err := New(Config{
		Store:      store,
		ProfileKey: "default",
		Rules:      engine.DefaultRules(),
		Seed:       5,
		ThinkDelay: time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

// scriptedAction picks a simple legal player move: play a card if possible,
// otherwise accept, otherwise the first legal action.
func scriptedAction(st *engine.GameState) engine.Action {
	mask := st.LegalActions()
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

// playOneRound drives the session until one round has been recorded.
func playOneRound(t *testing.T, sess *Session) {
	t.Helper()
	require.NoError(t, sess.Dispatch(engine.ActionStartRound))
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if len(sess.History()) > 0 {
			return
		}
		st := sess.State()
		if st.ActingSeat() == engine.SeatPlayer {
			err := sess.Dispatch(scriptedAction(&st))
			// The AI may have moved between snapshot and dispatch.
			if err != nil && !errors.Is(err, engine.ErrInvalidAction) && !errors.Is(err, ErrNotPlayerTurn) {
				t.Fatal(err)
			}
			continue
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("round did not finish in time")
}

func TestSessionPlaysARound(t *testing.T) {
	sess := testSession(t, profile.NewMemStore())
	playOneRound(t, sess)

	history := sess.History()
	require.NotEmpty(t, history)
	assert.Equal(t, 1, history[0].Round)
	assert.NotEmpty(t, history[0].Winner)

	reasoning := sess.Reasoning()
	require.NotEmpty(t, reasoning, "the ai must have decided at least once")
	assert.NotEmpty(t, reasoning[0].Items)
}

func TestSessionRejectsIllegalAction(t *testing.T) {
	sess := testSession(t, nil)
	err := sess.Dispatch(engine.ActionAccept)
	assert.ErrorIs(t, err, engine.ErrInvalidAction)
}

func TestDispatchRejectedWhileAIThinks(t *testing.T) {
	sess, err := New(Config{
		Rules:      engine.DefaultRules(),
		Seed:       5,
		ThinkDelay: 300 * time.Millisecond,
	})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Dispatch(engine.ActionStartRound))
	st := sess.State()
	require.Equal(t, engine.SeatPlayer, st.ActingSeat())
	require.NoError(t, sess.Dispatch(scriptedAction(&st)))

	// The AI decision is queued; a player action must not be applied as
	// the AI's move.
	assert.ErrorIs(t, sess.Dispatch(engine.EncodePlayCard(0)), ErrNotPlayerTurn)
}

func TestClosedSessionRejectsDispatch(t *testing.T) {
	sess := testSession(t, nil)
	require.NoError(t, sess.Close())
	assert.ErrorIs(t, sess.Dispatch(engine.ActionStartRound), ErrClosed)
}

func TestProfilePersistsAcrossSessions(t *testing.T) {
	store := profile.NewMemStore()

	first := testSession(t, store)
	playOneRound(t, first)
	require.NoError(t, first.Close())

	second, err := New(Config{
		Store:      store,
		ProfileKey: "default",
		Rules:      engine.DefaultRules(),
		Seed:       6,
		ThinkDelay: time.Millisecond,
	})
	require.NoError(t, err)
	defer second.Close()

	assert.NotEmpty(t, second.History(), "round history must survive a restart")
	assert.NotEmpty(t, second.Reasoning())
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, profile.ErrNotFound
}
func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}
func (failingStore) Clear(context.Context, string) error { return nil }
func (failingStore) Close() error                        { return nil }

func TestPersistenceFailureIsNotFatal(t *testing.T) {
	sess := testSession(t, failingStore{})
	playOneRound(t, sess)

	// Learning continues in memory and the session stays playable.
	assert.NotEmpty(t, sess.History())
	st := sess.State()
	if st.Phase == engine.PhaseRoundEnd {
		assert.NoError(t, sess.Dispatch(engine.ActionStartRound))
	}
}

func TestExportImportProfile(t *testing.T) {
	sess := testSession(t, profile.NewMemStore())
	playOneRound(t, sess)

	data, err := sess.ExportProfile()
	require.NoError(t, err)

	fresh := testSession(t, profile.NewMemStore())
	require.NoError(t, fresh.ImportProfile(data))
	assert.NotEmpty(t, fresh.History(), "imported history must be visible")

	assert.Error(t, fresh.ImportProfile([]byte(`{"broken":`)))
	assert.Error(t, fresh.ImportProfile([]byte(`{}`)), "missing sections must be rejected")
}

func TestResetProfileClearsStore(t *testing.T) {
	store := profile.NewMemStore()
	sess := testSession(t, store)
	playOneRound(t, sess)

	// Wait for the background save to land before resetting.
	require.Eventually(t, func() bool {
		_, err := store.Load(context.Background(), "default")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sess.ResetProfile())
	_, err := store.Load(context.Background(), "default")
	assert.ErrorIs(t, err, profile.ErrNotFound)
	assert.Empty(t, sess.History())
	assert.Empty(t, sess.Reasoning())
}

func TestNewMatchDiscardsStaleDecisions(t *testing.T) {
	sess, err := New(Config{
		Rules:      engine.DefaultRules(),
		Seed:       5,
		ThinkDelay: 200 * time.Millisecond, // long enough to restart underneath
	})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Dispatch(engine.ActionStartRound))
	st := sess.State()
	if st.ActingSeat() == engine.SeatPlayer {
		require.NoError(t, sess.Dispatch(scriptedAction(&st)))
	}

	// Restart while the AI decision is still queued.
	sess.NewMatch(9)
	time.Sleep(300 * time.Millisecond)

	got := sess.State()
	assert.Equal(t, 0, got.Round, "the stale decision must not land on the new match")
	assert.Equal(t, engine.PhaseRoundEnd, got.Phase)
}
