package service

import (
	"context"
	"errors"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

// ApplyReward credits a terminal placement payout to the learner's balance.
func (s *UserService) ApplyReward(ctx context.Context, userID uint, reward placement.Reward) error {
	if reward.Experience == 0 && reward.Currency == 0 {
		return nil
	}
	if err := s.UserRepo.AddReward(userID, reward.Experience, reward.Currency); err != nil {
		return err
	}
	logger.Log.Info("reward credited",
		zap.Uint("user", userID),
		zap.Int("experience", reward.Experience),
		zap.Int("currency", reward.Currency))
	return nil
}

func (s *UserService) Profile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}
