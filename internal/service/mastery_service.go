package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MasteryService runs single-item validation quizzes. Unlike placement there
// is no session state: the quiz is fetched, answered and scored in one call.
type MasteryService struct {
	QuestionRepo *repository.QuestionRepository
	VocabRepo    *repository.VocabRepository
	Storage      *StorageService
}

func NewMasteryService(questionRepo *repository.QuestionRepository, vocabRepo *repository.VocabRepository, storage *StorageService) *MasteryService {
	return &MasteryService{QuestionRepo: questionRepo, VocabRepo: vocabRepo, Storage: storage}
}

// Quiz returns the validation quiz for one vocabulary item, audio resolved
// and answer keys stripped.
func (s *MasteryService) Quiz(ctx context.Context, itemID uint) (*model.VocabItem, []placement.Question, error) {
	item, err := s.VocabRepo.FindItem(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.ErrVocabNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	quiz, err := s.QuestionRepo.FetchItemQuiz(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if len(quiz) == 0 {
		return nil, nil, fmt.Errorf("%w: vocab item %d", placement.ErrNoMasteryQuiz, itemID)
	}

	for i := range quiz {
		quiz[i].AudioURL = s.Storage.AudioURL(ctx, quiz[i].AudioURL)
	}
	return item, quiz, nil
}

// Validate scores a full quiz submission and updates the learner's progress.
// Answers arrive positionally as raw payloads, decoded against each
// question's type.
func (s *MasteryService) Validate(ctx context.Context, userID, itemID uint, rawAnswers []json.RawMessage) (*placement.MasteryOutcome, *model.VocabProgress, error) {
	if _, err := s.VocabRepo.FindItem(ctx, itemID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, util.ErrVocabNotFound
	} else if err != nil {
		return nil, nil, err
	}

	quiz, err := s.QuestionRepo.FetchItemQuiz(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	answers := make([]placement.SubmittedAnswer, len(rawAnswers))
	for i, raw := range rawAnswers {
		if i >= len(quiz) {
			break
		}
		answers[i] = decodeAnswer(quiz[i].Type, raw)
	}

	outcome := placement.ValidateMastery(quiz, answers)
	monitoring.MasteryQuizzes.WithLabelValues(string(outcome.Status)).Inc()

	if outcome.Status == placement.MasteryNoQuiz {
		return &outcome, nil, fmt.Errorf("%w: vocab item %d", placement.ErrNoMasteryQuiz, itemID)
	}

	progress, err := s.VocabRepo.RecordQuiz(ctx, userID, itemID, outcome.Status == placement.MasteryLearned)
	if err != nil {
		return nil, nil, err
	}

	logger.Log.Info("mastery quiz validated",
		zap.Uint("user", userID),
		zap.Uint("item", itemID),
		zap.String("status", string(outcome.Status)),
		zap.Int("correct", outcome.CorrectCount),
		zap.Int("total", outcome.TotalQuestions))

	return &outcome, progress, nil
}
