package repository

import (
	"context"
	"time"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VocabRepository struct {
	DB *gorm.DB
}

func NewVocabRepository(db *gorm.DB) *VocabRepository {
	return &VocabRepository{DB: db}
}

func (r *VocabRepository) FindItem(ctx context.Context, id uint) (*model.VocabItem, error) {
	var item model.VocabItem
	err := r.DB.WithContext(ctx).First(&item, id).Error
	return &item, err
}

func (r *VocabRepository) ListByLevel(ctx context.Context, level string) ([]model.VocabItem, error) {
	var items []model.VocabItem
	err := r.DB.WithContext(ctx).
		Where("level = ? AND enabled = ?", level, true).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// quizStatus maps a quiz verdict onto the stored progress status.
func quizStatus(learned bool) string {
	if learned {
		return "learned"
	}
	return "studying"
}

// quizAssignments is the upsert update set for one quiz run. Status is always
// written from the latest verdict: a miss moves even a learned item back to
// studying.
func quizAssignments(learned bool, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"status":       quizStatus(learned),
		"quiz_count":   gorm.Expr("quiz_count + 1"),
		"last_quiz_at": now,
	}
}

// RecordQuiz upserts the learner's progress row for one item after a
// validation quiz.
func (r *VocabRepository) RecordQuiz(ctx context.Context, userID, itemID uint, learned bool) (*model.VocabProgress, error) {
	now := time.Now()
	row := model.VocabProgress{
		UserID:      userID,
		VocabItemID: itemID,
		Status:      quizStatus(learned),
		QuizCount:   1,
		LastQuizAt:  &now,
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "vocab_item_id"}},
			DoUpdates: clause.Assignments(quizAssignments(learned, now)),
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}

	var saved model.VocabProgress
	err = r.DB.WithContext(ctx).
		Where("user_id = ? AND vocab_item_id = ?", userID, itemID).
		First(&saved).Error
	return &saved, err
}

func (r *VocabRepository) FindProgress(ctx context.Context, userID, itemID uint) (*model.VocabProgress, error) {
	var row model.VocabProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND vocab_item_id = ?", userID, itemID).
		First(&row).Error
	return &row, err
}
