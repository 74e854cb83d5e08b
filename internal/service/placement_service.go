package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// resultSink persists terminal outcomes and stamps the learner's profile with
// the placed level.
type resultSink struct {
	PlacementRepo *repository.PlacementRepository
	UserRepo      *repository.UserRepository
}

func (s *resultSink) Record(ctx context.Context, res *placement.Result) error {
	if err := s.PlacementRepo.CreateResult(ctx, res); err != nil {
		return err
	}
	return s.UserRepo.SetPlacementLevel(res.UserID, res.Level)
}

// PlacementService fronts the adaptive engine for the HTTP layer: it owns the
// product registry, decodes raw answer payloads into typed answers and
// resolves audio keys into client URLs.
type PlacementService struct {
	Engine        *placement.Controller
	QuestionRepo  *repository.QuestionRepository
	PlacementRepo *repository.PlacementRepository
	Storage       *StorageService
	Cfg           *config.Config

	mu       sync.RWMutex
	products map[string]*placement.BranchConfig
}

func NewPlacementService(
	questionRepo *repository.QuestionRepository,
	placementRepo *repository.PlacementRepository,
	userRepo *repository.UserRepository,
	userService *UserService,
	storage *StorageService,
	cfg *config.Config,
) (*PlacementService, error) {
	sink := &resultSink{PlacementRepo: placementRepo, UserRepo: userRepo}
	svc := &PlacementService{
		Engine:        placement.NewController(questionRepo, sink, userService, logger.Log),
		QuestionRepo:  questionRepo,
		PlacementRepo: placementRepo,
		Storage:       storage,
		Cfg:           cfg,
		products:      make(map[string]*placement.BranchConfig),
	}
	if err := svc.ReloadProducts(); err != nil {
		return nil, err
	}
	return svc, nil
}

// ReloadProducts re-reads every product file under the configured directory.
// Invalid files are logged and skipped; the previous registry stays in place
// when nothing valid is found, so a botched edit cannot take the feature down.
func (s *PlacementService) ReloadProducts() error {
	dir := s.Cfg.Placement.ConfigDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read placement config dir %s: %w", dir, err)
	}

	loaded := make(map[string]*placement.BranchConfig)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Log.Error("placement product unreadable", zap.String("file", path), zap.Error(err))
			continue
		}
		var cfg placement.BranchConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			logger.Log.Error("placement product malformed", zap.String("file", path), zap.Error(err))
			continue
		}
		if err := cfg.Validate(); err != nil {
			logger.Log.Error("placement product rejected", zap.String("file", path), zap.Error(err))
			continue
		}
		loaded[cfg.Product] = &cfg
	}

	if len(loaded) == 0 {
		logger.Log.Warn("no valid placement products loaded, keeping previous registry", zap.String("dir", dir))
		return nil
	}

	s.mu.Lock()
	s.products = loaded
	s.mu.Unlock()

	logger.Log.Info("placement products loaded", zap.Int("count", len(loaded)), zap.String("dir", dir))
	return nil
}

// Product resolves a product name, falling back to the configured default
// when the name is empty.
func (s *PlacementService) Product(name string) (*placement.BranchConfig, error) {
	if name == "" {
		name = s.Cfg.Placement.DefaultProduct
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.products[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrProductNotFound, name)
	}
	return cfg, nil
}

func (s *PlacementService) ProductNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.products))
	for name := range s.products {
		names = append(names, name)
	}
	return names
}

func (s *PlacementService) StartSession(ctx context.Context, userID uint, product string) (*placement.PhaseView, error) {
	cfg, err := s.Product(product)
	if err != nil {
		return nil, err
	}
	view, err := s.Engine.Start(ctx, userID, cfg)
	if err != nil {
		return nil, err
	}
	return s.decorateView(ctx, view), nil
}

// SubmitAnswer decodes the raw payload against the indexed question's type
// and stores it. A payload that does not decode is stored as an empty answer,
// which the evaluator scores as incorrect.
func (s *PlacementService) SubmitAnswer(ctx context.Context, sessionID string, index int, raw json.RawMessage) error {
	view, err := s.Engine.Snapshot(sessionID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(view.Batch) {
		return fmt.Errorf("%w: index %d, batch size %d", placement.ErrIndexOutOfRange, index, len(view.Batch))
	}
	answer := decodeAnswer(view.Batch[index].Type, raw)
	return s.Engine.SubmitAnswer(sessionID, index, answer)
}

func (s *PlacementService) SubmitPhase(ctx context.Context, sessionID string, fromPhase placement.Phase) (*placement.PhaseOutcome, error) {
	outcome, err := s.Engine.SubmitPhase(ctx, sessionID, fromPhase)
	if err != nil {
		return nil, err
	}
	if outcome.Next != nil {
		outcome.Next = s.decorateView(ctx, outcome.Next)
	}
	return outcome, nil
}

func (s *PlacementService) Abandon(sessionID string) error {
	return s.Engine.Abandon(sessionID)
}

func (s *PlacementService) Snapshot(ctx context.Context, sessionID string) (*placement.PhaseView, error) {
	view, err := s.Engine.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return s.decorateView(ctx, view), nil
}

// SessionResult returns the persisted result of a finished session. The
// engine discards sessions at finalization, so the sink's row is the only
// record.
func (s *PlacementService) SessionResult(ctx context.Context, sessionID string) (*placement.Result, error) {
	row, dbErr := s.PlacementRepo.FindBySessionID(ctx, sessionID)
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	if dbErr != nil {
		return nil, dbErr
	}

	var trail []string
	_ = json.Unmarshal(row.BranchTrail, &trail)
	return &placement.Result{
		SessionID:      row.SessionID,
		UserID:         row.UserID,
		Product:        row.Product,
		Level:          row.Level,
		CorrectCount:   row.CorrectCount,
		TotalQuestions: row.TotalQuestions,
		Score:          row.Score,
		BranchTrail:    trail,
		Rewards:        placement.Reward{Experience: row.RewardXP, Currency: row.RewardCoins},
		CompletedAt:    row.CompletedAt,
	}, nil
}

func (s *PlacementService) LatestResult(ctx context.Context, userID uint) (*placement.Result, error) {
	row, err := s.PlacementRepo.FindLatestByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	var trail []string
	_ = json.Unmarshal(row.BranchTrail, &trail)
	return &placement.Result{
		SessionID:      row.SessionID,
		UserID:         row.UserID,
		Product:        row.Product,
		Level:          row.Level,
		CorrectCount:   row.CorrectCount,
		TotalQuestions: row.TotalQuestions,
		Score:          row.Score,
		BranchTrail:    trail,
		Rewards:        placement.Reward{Experience: row.RewardXP, Currency: row.RewardCoins},
		CompletedAt:    row.CompletedAt,
	}, nil
}

// decorateView returns a copy of the view whose audio keys are resolved to
// client URLs. The engine's own batch is never mutated.
func (s *PlacementService) decorateView(ctx context.Context, view *placement.PhaseView) *placement.PhaseView {
	out := *view
	out.Batch = make([]placement.Question, len(view.Batch))
	copy(out.Batch, view.Batch)
	for i := range out.Batch {
		out.Batch[i].AudioURL = s.Storage.AudioURL(ctx, out.Batch[i].AudioURL)
	}
	return &out
}

// decodeAnswer maps a raw JSON payload onto the answer shape the question
// type expects. Shape mismatches yield an empty answer rather than an error.
func decodeAnswer(qtype placement.QuestionType, raw json.RawMessage) placement.SubmittedAnswer {
	switch qtype {
	case placement.MultipleChoice:
		var idx int
		if err := json.Unmarshal(raw, &idx); err == nil {
			return placement.SubmittedAnswer{Kind: placement.AnswerIndex, Index: idx}
		}
		var set []int
		if err := json.Unmarshal(raw, &set); err == nil {
			return placement.SubmittedAnswer{Kind: placement.AnswerIndexSet, Indices: set}
		}
	case placement.FillBlank:
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return placement.SubmittedAnswer{Kind: placement.AnswerText, Text: text}
		}
	case placement.SentenceOrder:
		var order []int
		if err := json.Unmarshal(raw, &order); err == nil {
			return placement.SubmittedAnswer{Kind: placement.AnswerOrder, Indices: order}
		}
	case placement.ReadingComprehension:
		var subs []int
		if err := json.Unmarshal(raw, &subs); err == nil {
			return placement.SubmittedAnswer{Kind: placement.AnswerSub, SubAnswers: subs}
		}
	}
	return placement.SubmittedAnswer{Kind: placement.AnswerNone}
}
