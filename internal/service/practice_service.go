package service

import (
	"context"
	"encoding/json"
	"errors"

	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"

	"gorm.io/gorm"
)

// PracticeResult is the immediate verdict of one practice submission.
type PracticeResult struct {
	QuestionID uint `json:"questionId"`
	Correct    bool `json:"correct"`
}

// PracticeService scores single questions on submit. This is the immediate
// contract: unlike placement phases, feedback is returned right away and
// nothing is ever deferred to a phase boundary.
type PracticeService struct {
	QuestionRepo *repository.QuestionRepository
	PracticeRepo *repository.PracticeRepository
}

func NewPracticeService(questionRepo *repository.QuestionRepository, practiceRepo *repository.PracticeRepository) *PracticeService {
	return &PracticeService{QuestionRepo: questionRepo, PracticeRepo: practiceRepo}
}

// Submit evaluates one answer immediately and records the attempt.
func (s *PracticeService) Submit(ctx context.Context, userID, questionID uint, raw json.RawMessage) (*PracticeResult, error) {
	q, err := s.QuestionRepo.FetchByID(ctx, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}

	correct := placement.Evaluate(q, decodeAnswer(q.Type, raw))
	if err := s.PracticeRepo.Create(ctx, userID, questionID, raw, correct); err != nil {
		return nil, err
	}

	return &PracticeResult{QuestionID: questionID, Correct: correct}, nil
}

// Stats returns lifetime practice counts for one learner.
func (s *PracticeService) Stats(ctx context.Context, userID uint) (total, correct int64, err error) {
	return s.PracticeRepo.CountByUser(ctx, userID)
}
