package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionRepository serves the placement engine with question batches. Level
// pools are cached in Redis so repeated session starts do not hammer MySQL.
type QuestionRepository struct {
	DB      *gorm.DB
	Redis   *redis.Client
	PoolTTL time.Duration
}

func NewQuestionRepository(db *gorm.DB, rdb *redis.Client, poolTTL time.Duration) *QuestionRepository {
	return &QuestionRepository{DB: db, Redis: rdb, PoolTTL: poolTTL}
}

func poolKey(level string) string {
	return "placement:pool:" + level
}

// FetchBatch samples questions per spec from the level pools. When a pool is
// smaller than the requested count the whole pool is returned; an empty
// overall batch is the engine's problem to reject.
func (r *QuestionRepository) FetchBatch(ctx context.Context, specs []placement.BatchSpec) ([]placement.Question, error) {
	var batch []placement.Question
	for _, spec := range specs {
		pool, err := r.levelPool(ctx, spec.Level)
		if err != nil {
			return nil, err
		}
		idx := rand.Perm(len(pool))
		n := spec.Count
		if n > len(pool) {
			n = len(pool)
		}
		for _, i := range idx[:n] {
			q, err := toEngineQuestion(&pool[i])
			if err != nil {
				return nil, err
			}
			batch = append(batch, q)
		}
	}
	return batch, nil
}

// FetchItemQuiz loads the mastery quiz attached to one vocabulary item.
func (r *QuestionRepository) FetchItemQuiz(ctx context.Context, vocabItemID uint) ([]placement.Question, error) {
	var rows []model.PlacementQuestion
	err := r.DB.WithContext(ctx).
		Where("vocab_item_id = ? AND enabled = ?", vocabItemID, true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	quiz := make([]placement.Question, 0, len(rows))
	for i := range rows {
		q, err := toEngineQuestion(&rows[i])
		if err != nil {
			return nil, err
		}
		quiz = append(quiz, q)
	}
	return quiz, nil
}

// FetchByID loads one enabled question for immediate scoring.
func (r *QuestionRepository) FetchByID(ctx context.Context, id uint) (placement.Question, error) {
	var row model.PlacementQuestion
	err := r.DB.WithContext(ctx).
		Where("enabled = ?", true).
		First(&row, id).Error
	if err != nil {
		return placement.Question{}, err
	}
	return toEngineQuestion(&row)
}

// levelPool returns the enabled, non-quiz questions of one level, consulting
// the Redis cache first. Cache failures fall through to MySQL.
func (r *QuestionRepository) levelPool(ctx context.Context, level string) ([]model.PlacementQuestion, error) {
	key := poolKey(level)

	if r.Redis != nil {
		cached, err := r.Redis.Get(ctx, key).Bytes()
		if err == nil {
			var pool []model.PlacementQuestion
			if jsonErr := json.Unmarshal(cached, &pool); jsonErr == nil {
				return pool, nil
			}
			r.Redis.Del(ctx, key)
		} else if err != redis.Nil {
			logger.Log.Warn("question pool cache read failed",
				zap.String("level", level), zap.Error(err))
		}
	}

	var pool []model.PlacementQuestion
	err := r.DB.WithContext(ctx).
		Where("level = ? AND enabled = ? AND vocab_item_id IS NULL", level, true).
		Find(&pool).Error
	if err != nil {
		return nil, err
	}

	if r.Redis != nil && len(pool) > 0 {
		if data, jsonErr := json.Marshal(pool); jsonErr == nil {
			if err := r.Redis.Set(ctx, key, data, r.PoolTTL).Err(); err != nil {
				logger.Log.Warn("question pool cache write failed",
					zap.String("level", level), zap.Error(err))
			}
		}
	}

	return pool, nil
}

// InvalidatePool drops one level's cached pool, used after content edits.
func (r *QuestionRepository) InvalidatePool(ctx context.Context, level string) error {
	if r.Redis == nil {
		return nil
	}
	return r.Redis.Del(ctx, poolKey(level)).Err()
}

// toEngineQuestion converts a stored row into a typed engine question. The
// polymorphic answer key must decode into the shape the question type
// demands; anything else is rejected before it can enter a session.
func toEngineQuestion(row *model.PlacementQuestion) (placement.Question, error) {
	q := placement.Question{
		ID:       strconv.FormatUint(uint64(row.ID), 10),
		Type:     placement.QuestionType(row.QuestionType),
		Level:    row.Level,
		Prompt:   row.Prompt,
		AudioURL: row.AudioKey,
	}

	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &q.Options); err != nil {
			return q, fmt.Errorf("%w: question %d options: %v", placement.ErrBadQuestion, row.ID, err)
		}
	}

	switch q.Type {
	case placement.MultipleChoice:
		var idx int
		if err := json.Unmarshal(row.AnswerKey, &idx); err == nil {
			q.CorrectIndex = idx
		} else if err := json.Unmarshal(row.AnswerKey, &q.CorrectSet); err != nil {
			return q, fmt.Errorf("%w: question %d choice key: %v", placement.ErrBadQuestion, row.ID, err)
		}
	case placement.FillBlank:
		if err := json.Unmarshal(row.AnswerKey, &q.CorrectText); err != nil {
			return q, fmt.Errorf("%w: question %d text key: %v", placement.ErrBadQuestion, row.ID, err)
		}
	case placement.SentenceOrder:
		if err := json.Unmarshal(row.AnswerKey, &q.CorrectOrder); err != nil {
			return q, fmt.Errorf("%w: question %d order key: %v", placement.ErrBadQuestion, row.ID, err)
		}
	case placement.ReadingComprehension:
		var subs []model.SubQuestionRow
		if err := json.Unmarshal(row.SubQuestions, &subs); err != nil {
			return q, fmt.Errorf("%w: question %d sub-questions: %v", placement.ErrBadQuestion, row.ID, err)
		}
		for _, sub := range subs {
			q.SubQuestions = append(q.SubQuestions, placement.SubQuestion{
				Options:      sub.Options,
				CorrectIndex: sub.AnswerKey,
			})
		}
	}

	if err := q.ValidateKey(); err != nil {
		return q, err
	}
	return q, nil
}
