package repository

import (
	"context"
	"encoding/json"

	"lingua_edu_backend/internal/model"

	"gorm.io/gorm"
)

type PracticeRepository struct {
	DB *gorm.DB
}

func NewPracticeRepository(db *gorm.DB) *PracticeRepository {
	return &PracticeRepository{DB: db}
}

func (r *PracticeRepository) Create(ctx context.Context, userID, questionID uint, answer json.RawMessage, correct bool) error {
	row := model.PracticeRecord{
		UserID:     userID,
		QuestionID: questionID,
		Answer:     answer,
		IsCorrect:  correct,
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

func (r *PracticeRepository) CountByUser(ctx context.Context, userID uint) (total, correct int64, err error) {
	err = r.DB.WithContext(ctx).Model(&model.PracticeRecord{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return
	}
	err = r.DB.WithContext(ctx).Model(&model.PracticeRecord{}).
		Where("user_id = ? AND is_correct = ?", userID, true).
		Count(&correct).Error
	return
}
