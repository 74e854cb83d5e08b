package placement

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lingua_edu_backend/pkg/monitoring"
)

// QuestionSource supplies question batches. It may return fewer questions
// than requested when content is exhausted.
type QuestionSource interface {
	FetchBatch(ctx context.Context, specs []BatchSpec) ([]Question, error)
	FetchItemQuiz(ctx context.Context, itemID uint) ([]Question, error)
}

// ResultSink receives terminal results. Persistence failures are the sink's
// concern; the engine does not retry.
type ResultSink interface {
	Record(ctx context.Context, result *Result) error
}

// RewardLedger credits a learner's balance. Invoked exactly once per
// terminal result.
type RewardLedger interface {
	ApplyReward(ctx context.Context, userID uint, reward Reward) error
}

// session is the single mutable object of one placement attempt. All access
// goes through its mutex; the generation counter invalidates clocks whose
// phase has already ended.
type session struct {
	mu         sync.Mutex
	id         string
	userID     uint
	cfg        *BranchConfig
	phase      Phase
	batch      []Question
	answers    map[int]SubmittedAnswer
	trail      []string
	clock      *Clock
	generation int
	abandoned  bool
	startedAt  time.Time
}

// PhaseView is the caller-facing snapshot of the active phase. Answer keys
// are never serialized.
type PhaseView struct {
	SessionID        string     `json:"sessionId"`
	Phase            Phase      `json:"phase"`
	BranchName       string     `json:"branchName,omitempty"`
	Batch            []Question `json:"batch"`
	RemainingSeconds int        `json:"remainingSeconds"`
	AnsweredCount    int        `json:"answeredCount"`
}

// PhaseOutcome is the response to a phase submission: either the next phase
// or the terminal result.
type PhaseOutcome struct {
	Terminal   bool       `json:"terminal"`
	BranchName string     `json:"branchName"`
	Next       *PhaseView `json:"next,omitempty"`
	Result     *Result    `json:"result,omitempty"`
}

// Controller drives placement attempts through their phases. It owns all
// session state; collaborators are reached only through the injected
// interfaces.
type Controller struct {
	source QuestionSource
	sink   ResultSink
	ledger RewardLedger
	log    *zap.Logger
	tick   time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
	byUser   map[uint]string
}

func NewController(source QuestionSource, sink ResultSink, ledger RewardLedger, log *zap.Logger) *Controller {
	return &Controller{
		source:   source,
		sink:     sink,
		ledger:   ledger,
		log:      log,
		tick:     time.Second,
		sessions: make(map[string]*session),
		byUser:   make(map[uint]string),
	}
}

// Start begins a new attempt: loads the initial batch, arms the phase clock
// and returns the batch. No session is created when the first batch cannot
// be loaded.
func (c *Controller) Start(ctx context.Context, userID uint, cfg *BranchConfig) (*PhaseView, error) {
	// Reserve the user slot before the (slow) batch fetch so two
	// concurrent starts cannot both pass the single-session check.
	c.mu.Lock()
	if id, ok := c.byUser[userID]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: session %s", ErrActiveSession, id)
	}
	c.byUser[userID] = ""
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		if c.byUser[userID] == "" {
			delete(c.byUser, userID)
		}
		c.mu.Unlock()
	}

	batch, err := c.source.FetchBatch(ctx, cfg.InitialQuestions)
	if err != nil {
		release()
		return nil, fmt.Errorf("fetch initial batch: %w", err)
	}
	if len(batch) == 0 {
		release()
		return nil, fmt.Errorf("%w: initial phase of %s", ErrEmptyBatch, cfg.Product)
	}

	sess := &session{
		id:        uuid.New().String(),
		userID:    userID,
		cfg:       cfg,
		phase:     PhaseInitial,
		batch:     batch,
		answers:   make(map[int]SubmittedAnswer),
		startedAt: time.Now(),
	}
	c.armClock(sess, cfg.PhaseBudget(PhaseInitial))

	c.mu.Lock()
	c.sessions[sess.id] = sess
	c.byUser[userID] = sess.id
	c.mu.Unlock()
	monitoring.PlacementSessionsActive.Inc()

	c.log.Info("placement session started",
		zap.String("session", sess.id),
		zap.Uint("user", userID),
		zap.String("product", cfg.Product),
		zap.Int("batchSize", len(batch)))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.viewLocked(sess), nil
}

// SubmitAnswer stores one answer by batch-local index. Scoring is deferred
// to the phase boundary.
func (c *Controller) SubmitAnswer(sessionID string, index int, answer SubmittedAnswer) error {
	sess, err := c.find(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase == PhaseCompleted {
		return ErrSessionCompleted
	}
	if index < 0 || index >= len(sess.batch) {
		return fmt.Errorf("%w: index %d, batch size %d", ErrIndexOutOfRange, index, len(sess.batch))
	}
	sess.answers[index] = answer
	return nil
}

// SubmitPhase scores the active batch and either advances or finalizes the
// session. fromPhase, when non-empty, must match the phase the caller thinks
// it is completing; a mismatch means the clock expired first and that
// expiry already won.
func (c *Controller) SubmitPhase(ctx context.Context, sessionID string, fromPhase Phase) (*PhaseOutcome, error) {
	sess, err := c.find(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.phase == PhaseCompleted {
		return nil, ErrSessionCompleted
	}
	if fromPhase != "" && fromPhase != sess.phase {
		return nil, fmt.Errorf("%w: submitted %s, session is in %s", ErrSessionCompleted, fromPhase, sess.phase)
	}
	return c.completePhase(ctx, sess, "submit")
}

// Abandon tears a session down: the clock is cancelled, the session becomes
// non-mutable and no result is produced.
func (c *Controller) Abandon(sessionID string) error {
	sess, err := c.find(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.abandoned = true
	sess.generation++
	if sess.clock != nil {
		sess.clock.Cancel()
	}
	completed := sess.phase == PhaseCompleted
	sess.phase = PhaseCompleted
	userID := sess.userID
	sess.mu.Unlock()

	c.mu.Lock()
	delete(c.sessions, sessionID)
	if c.byUser[userID] == sessionID {
		delete(c.byUser, userID)
	}
	c.mu.Unlock()
	if !completed {
		monitoring.PlacementSessionsActive.Dec()
	}

	c.log.Info("placement session abandoned", zap.String("session", sessionID))
	return nil
}

// Snapshot returns the current phase view of a running session.
func (c *Controller) Snapshot(sessionID string) (*PhaseView, error) {
	sess, err := c.find(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.phase == PhaseCompleted {
		return nil, ErrSessionCompleted
	}
	return c.viewLocked(sess), nil
}

// ActiveSessionID reports the running session of a user, if any.
func (c *Controller) ActiveSessionID(userID uint) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byUser[userID]
	return id, ok
}

func (c *Controller) find(sessionID string) (*session, error) {
	c.mu.RLock()
	sess, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// armClock starts a fresh countdown bound to the session's current
// generation. The expiry handler hops to its own goroutine because clock
// callbacks run under the clock's cancel lock and Cancel is called while
// holding sess.mu; a fire from an older generation is a no-op, so a stale
// timer can never touch a later phase or a torn-down session.
func (c *Controller) armClock(sess *session, seconds int) {
	gen := sess.generation
	id := sess.id
	sess.clock = startClockEvery(seconds, c.tick, nil, func() {
		go c.onExpire(id, gen)
	})
}

func (c *Controller) onExpire(sessionID string, generation int) {
	sess, err := c.find(sessionID)
	if err != nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.abandoned || sess.phase == PhaseCompleted || sess.generation != generation {
		return
	}
	monitoring.PlacementExpirations.Inc()
	c.log.Info("phase clock expired, forcing completion",
		zap.String("session", sessionID),
		zap.String("phase", string(sess.phase)))

	if _, err := c.completePhase(context.Background(), sess, "expired"); err != nil {
		c.log.Error("forced phase completion failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// completePhase scores the batch, consults the branch table and applies the
// outcome. Caller holds sess.mu. On a batch-fetch failure the session keeps
// its phase and answers so the submission can be retried.
func (c *Controller) completePhase(ctx context.Context, sess *session, trigger string) (*PhaseOutcome, error) {
	correct := 0
	for i, q := range sess.batch {
		if a, ok := sess.answers[i]; ok && Evaluate(q, a) {
			correct++
		}
	}
	total := len(sess.batch)

	outcome, err := SelectBranch(sess.cfg, sess.phase, correct, total)
	if err != nil {
		return nil, err
	}

	if !outcome.Terminal {
		batch, err := c.source.FetchBatch(ctx, outcome.NextBatch)
		if err != nil {
			return nil, fmt.Errorf("fetch %s batch: %w", outcome.NextPhase, err)
		}
		if len(batch) == 0 {
			return nil, fmt.Errorf("%w: %s phase of %s", ErrEmptyBatch, outcome.NextPhase, sess.cfg.Product)
		}

		if sess.clock != nil {
			sess.clock.Cancel()
		}
		sess.generation++
		sess.phase = outcome.NextPhase
		sess.batch = batch
		sess.answers = make(map[int]SubmittedAnswer)
		sess.trail = append(sess.trail, outcome.BranchName)
		c.armClock(sess, sess.cfg.PhaseBudget(outcome.NextPhase))

		monitoring.PlacementPhaseTransitions.WithLabelValues(outcome.BranchName).Inc()
		c.log.Info("placement phase advanced",
			zap.String("session", sess.id),
			zap.String("branch", outcome.BranchName),
			zap.String("phase", string(outcome.NextPhase)),
			zap.String("trigger", trigger),
			zap.Int("correct", correct),
			zap.Int("total", total))

		return &PhaseOutcome{BranchName: outcome.BranchName, Next: c.viewLocked(sess)}, nil
	}

	if sess.clock != nil {
		sess.clock.Cancel()
	}
	sess.generation++
	sess.trail = append(sess.trail, outcome.BranchName)
	sess.phase = PhaseCompleted

	result := &Result{
		SessionID:      sess.id,
		UserID:         sess.userID,
		Product:        sess.cfg.Product,
		Level:          outcome.Level,
		CorrectCount:   correct,
		TotalQuestions: total,
		Score:          int(math.Round(float64(correct) / float64(total) * 100)),
		BranchTrail:    append([]string(nil), sess.trail...),
		CompletedAt:    time.Now(),
	}
	result.Rewards = ComputeReward(sess.cfg, result)

	// Fire-and-forget from the engine's perspective: persistence failures
	// are logged, never retried here.
	if err := c.sink.Record(ctx, result); err != nil {
		c.log.Error("result sink failed", zap.String("session", sess.id), zap.Error(err))
	}
	if err := c.ledger.ApplyReward(ctx, sess.userID, result.Rewards); err != nil {
		c.log.Error("reward ledger failed", zap.String("session", sess.id), zap.Error(err))
	}

	// The session is discarded at finalization; the result lives on only in
	// the sink. Late callers holding a stale pointer still see PhaseCompleted.
	c.mu.Lock()
	delete(c.sessions, sess.id)
	if c.byUser[sess.userID] == sess.id {
		delete(c.byUser, sess.userID)
	}
	c.mu.Unlock()
	monitoring.PlacementSessionsActive.Dec()
	monitoring.PlacementCompleted.WithLabelValues(result.Level).Inc()

	c.log.Info("placement completed",
		zap.String("session", sess.id),
		zap.String("level", result.Level),
		zap.Int("score", result.Score),
		zap.String("trigger", trigger))

	return &PhaseOutcome{Terminal: true, BranchName: outcome.BranchName, Result: result}, nil
}

// viewLocked builds the caller-facing snapshot. Caller holds sess.mu.
func (c *Controller) viewLocked(sess *session) *PhaseView {
	remaining := 0
	if sess.clock != nil {
		remaining = sess.clock.Remaining()
	}
	branch := ""
	if len(sess.trail) > 0 {
		branch = sess.trail[len(sess.trail)-1]
	}
	return &PhaseView{
		SessionID:        sess.id,
		Phase:            sess.phase,
		BranchName:       branch,
		Batch:            sess.batch,
		RemainingSeconds: remaining,
		AnsweredCount:    len(sess.answers),
	}
}
