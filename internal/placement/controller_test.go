package placement

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource fabricates one single-choice question per requested slot, with
// option 0 always correct.
type fakeSource struct {
	mu       sync.Mutex
	fetches  int
	failNext error
	empty    bool
}

func (f *fakeSource) FetchBatch(_ context.Context, specs []BatchSpec) ([]Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return nil, err
	}
	if f.empty {
		return nil, nil
	}
	f.fetches++
	var batch []Question
	for _, spec := range specs {
		for i := 0; i < spec.Count; i++ {
			batch = append(batch, Question{
				ID:           fmt.Sprintf("%s-%d-%d", spec.Level, f.fetches, i),
				Type:         MultipleChoice,
				Level:        spec.Level,
				Options:      []string{"对", "错", "不知道"},
				CorrectIndex: 0,
			})
		}
	}
	return batch, nil
}

func (f *fakeSource) FetchItemQuiz(context.Context, uint) ([]Question, error) {
	return nil, nil
}

type fakeSink struct {
	mu      sync.Mutex
	results []*Result
}

func (f *fakeSink) Record(_ context.Context, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	applied []Reward
}

func (f *fakeLedger) ApplyReward(_ context.Context, _ uint, r Reward) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, r)
	return nil
}

func newTestController() (*Controller, *fakeSource, *fakeSink, *fakeLedger) {
	source := &fakeSource{}
	sink := &fakeSink{}
	ledger := &fakeLedger{}
	ctrl := NewController(source, sink, ledger, zap.NewNop())
	ctrl.tick = 2 * time.Millisecond
	return ctrl, source, sink, ledger
}

func answerCorrect(t *testing.T, ctrl *Controller, sessionID string, indices ...int) {
	t.Helper()
	for _, i := range indices {
		require.NoError(t, ctrl.SubmitAnswer(sessionID, i, SubmittedAnswer{Kind: AnswerIndex, Index: 0}))
	}
}

func answerWrong(t *testing.T, ctrl *Controller, sessionID string, indices ...int) {
	t.Helper()
	for _, i := range indices {
		require.NoError(t, ctrl.SubmitAnswer(sessionID, i, SubmittedAnswer{Kind: AnswerIndex, Index: 1}))
	}
}

func TestStartLoadsInitialBatch(t *testing.T) {
	ctrl, _, _, _ := newTestController()

	view, err := ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)
	assert.Equal(t, PhaseInitial, view.Phase)
	assert.Len(t, view.Batch, 5)
	assert.Equal(t, 600, view.RemainingSeconds)

	id, ok := ctrl.ActiveSessionID(7)
	require.True(t, ok)
	assert.Equal(t, view.SessionID, id)

	// One attempt at a time per learner.
	_, err = ctrl.Start(context.Background(), 7, testConfig())
	require.ErrorIs(t, err, ErrActiveSession)
}

func TestStartEmptyBatchCreatesNoSession(t *testing.T) {
	ctrl, source, _, _ := newTestController()
	source.empty = true

	_, err := ctrl.Start(context.Background(), 7, testConfig())
	require.ErrorIs(t, err, ErrEmptyBatch)

	_, ok := ctrl.ActiveSessionID(7)
	assert.False(t, ok)

	// The failed start must not leave the user slot reserved.
	source.empty = false
	_, err = ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)
}

// Scenario: 4 of 5 initial answers correct routes through the "hard" branch
// straight to the final phase with a fresh batch and a reset clock.
func TestHighInitialScoreAdvancesToFinal(t *testing.T) {
	ctrl, _, _, _ := newTestController()

	view, err := ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)

	answerCorrect(t, ctrl, view.SessionID, 0, 1, 2, 3)
	answerWrong(t, ctrl, view.SessionID, 4)

	outcome, err := ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseInitial)
	require.NoError(t, err)
	require.False(t, outcome.Terminal)
	assert.Equal(t, "hard", outcome.BranchName)
	assert.Equal(t, PhaseFinal, outcome.Next.Phase)
	assert.Len(t, outcome.Next.Batch, 5)
	assert.Equal(t, 0, outcome.Next.AnsweredCount)
	assert.Equal(t, 600, outcome.Next.RemainingSeconds)
	assert.NotEqual(t, view.Batch[0].ID, outcome.Next.Batch[0].ID)
}

// Scenario: all correct in the final phase yields a terminal result with
// score 100 and the configured reward, after which the session is gone.
func TestPerfectFinalPhaseFinalizes(t *testing.T) {
	ctrl, _, sink, ledger := newTestController()

	view, err := ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)
	answerCorrect(t, ctrl, view.SessionID, 0, 1, 2, 3, 4)

	outcome, err := ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseInitial)
	require.NoError(t, err)
	require.Equal(t, PhaseFinal, outcome.Next.Phase)

	answerCorrect(t, ctrl, view.SessionID, 0, 1, 2, 3, 4)
	final, err := ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseFinal)
	require.NoError(t, err)
	require.True(t, final.Terminal)

	result := final.Result
	assert.Equal(t, "HSK3", result.Level)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 5, result.CorrectCount)
	assert.Equal(t, 5, result.TotalQuestions)
	assert.Equal(t, []string{"hard", "advanced"}, result.BranchTrail)
	assert.Equal(t, Reward{Experience: 120, Currency: 30}, result.Rewards)

	// Sink and ledger are hit exactly once.
	assert.Len(t, sink.results, 1)
	assert.Len(t, ledger.applied, 1)

	// The session is discarded at finalization; only the sink's copy remains.
	err = ctrl.SubmitAnswer(view.SessionID, 0, SubmittedAnswer{Kind: AnswerIndex, Index: 0})
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseFinal)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = ctrl.Snapshot(view.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)

	ctrl.mu.Lock()
	assert.Empty(t, ctrl.sessions)
	ctrl.mu.Unlock()

	// The learner may start a fresh attempt.
	_, ok := ctrl.ActiveSessionID(7)
	assert.False(t, ok)
}

// Scenario: the clock reaches zero with 2 of 5 questions answered; the phase
// completes automatically, unanswered questions score as incorrect and the
// low band routes to the easier followup.
func TestClockExpiryForcesPhaseCompletion(t *testing.T) {
	ctrl, _, _, _ := newTestController()

	cfg := testConfig()
	cfg.PhaseSeconds[PhaseInitial] = 25 // 25 fast ticks

	view, err := ctrl.Start(context.Background(), 7, cfg)
	require.NoError(t, err)
	answerCorrect(t, ctrl, view.SessionID, 0, 1)

	require.Eventually(t, func() bool {
		snap, err := ctrl.Snapshot(view.SessionID)
		return err == nil && snap.Phase == PhaseFollowup
	}, 2*time.Second, 5*time.Millisecond)

	snap, err := ctrl.Snapshot(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "easy", snap.BranchName)
	assert.Len(t, snap.Batch, 4)
	assert.Equal(t, 0, snap.AnsweredCount)

	// The submission for the expired phase arrives late and loses.
	_, err = ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseInitial)
	require.Error(t, err)
}

func TestAdvanceFetchFailureKeepsPhase(t *testing.T) {
	ctrl, source, _, _ := newTestController()

	view, err := ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)
	answerCorrect(t, ctrl, view.SessionID, 0, 1, 2)

	source.failNext = fmt.Errorf("question bank unavailable")
	_, err = ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseInitial)
	require.Error(t, err)

	// Phase and answers survive the failure so the caller can retry.
	snap, err := ctrl.Snapshot(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, PhaseInitial, snap.Phase)
	assert.Equal(t, 3, snap.AnsweredCount)

	outcome, err := ctrl.SubmitPhase(context.Background(), view.SessionID, PhaseInitial)
	require.NoError(t, err)
	assert.Equal(t, "easy", outcome.BranchName)
}

func TestAbandonTearsDownSession(t *testing.T) {
	ctrl, _, sink, ledger := newTestController()

	view, err := ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)
	require.NoError(t, ctrl.Abandon(view.SessionID))

	err = ctrl.SubmitAnswer(view.SessionID, 0, SubmittedAnswer{Kind: AnswerIndex, Index: 0})
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Abandon produces no result and pays nothing.
	assert.Empty(t, sink.results)
	assert.Empty(t, ledger.applied)

	_, err = ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)
}

func TestSubmitAnswerValidatesIndex(t *testing.T) {
	ctrl, _, _, _ := newTestController()

	view, err := ctrl.Start(context.Background(), 7, testConfig())
	require.NoError(t, err)

	err = ctrl.SubmitAnswer(view.SessionID, 5, SubmittedAnswer{Kind: AnswerIndex, Index: 0})
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	err = ctrl.SubmitAnswer(view.SessionID, -1, SubmittedAnswer{Kind: AnswerIndex, Index: 0})
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	// Re-submitting an index overwrites the previous answer.
	answerWrong(t, ctrl, view.SessionID, 0)
	answerCorrect(t, ctrl, view.SessionID, 0)
	snap, err := ctrl.Snapshot(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.AnsweredCount)
}
