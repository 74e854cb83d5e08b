package repository

import (
	"context"
	"encoding/json"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/placement"

	"gorm.io/gorm"
)

type PlacementRepository struct {
	DB *gorm.DB
}

func NewPlacementRepository(db *gorm.DB) *PlacementRepository {
	return &PlacementRepository{DB: db}
}

// CreateResult persists one terminal placement outcome. The SessionID unique
// index makes a duplicate write for the same session a hard error instead of
// a silent second row.
func (r *PlacementRepository) CreateResult(ctx context.Context, res *placement.Result) error {
	trail, err := json.Marshal(res.BranchTrail)
	if err != nil {
		return err
	}
	row := model.PlacementResult{
		SessionID:      res.SessionID,
		UserID:         res.UserID,
		Product:        res.Product,
		Level:          res.Level,
		CorrectCount:   res.CorrectCount,
		TotalQuestions: res.TotalQuestions,
		Score:          res.Score,
		BranchTrail:    trail,
		RewardXP:       res.Rewards.Experience,
		RewardCoins:    res.Rewards.Currency,
		CompletedAt:    res.CompletedAt,
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

func (r *PlacementRepository) FindBySessionID(ctx context.Context, sessionID string) (*model.PlacementResult, error) {
	var row model.PlacementResult
	err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&row).Error
	return &row, err
}

func (r *PlacementRepository) FindLatestByUser(ctx context.Context, userID uint) (*model.PlacementResult, error) {
	var row model.PlacementResult
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		First(&row).Error
	return &row, err
}

func (r *PlacementRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]model.PlacementResult, error) {
	var rows []model.PlacementResult
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
