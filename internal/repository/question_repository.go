package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"nclex_prep_backend/internal/model"
)

// QuestionRepository serves question lookups and the per-bank totals the
// rollup math depends on. Totals are cached in redis because every finalize
// reads them.
type QuestionRepository struct {
	DB       *gorm.DB
	Redis    *redis.Client
	CountTTL time.Duration
}

func NewQuestionRepository(db *gorm.DB, rdb *redis.Client, countTTL time.Duration) *QuestionRepository {
	return &QuestionRepository{DB: db, Redis: rdb, CountTTL: countTTL}
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) GetQuestionsByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) FindBankByID(id uint) (*model.QuestionBank, error) {
	var bank model.QuestionBank
	err := r.DB.First(&bank, id).Error
	return &bank, err
}

// GetTotalQuestionCount returns the number of questions in a bank, cached.
func (r *QuestionRepository) GetTotalQuestionCount(qbankID uint) (int64, error) {
	return r.cachedCount(fmt.Sprintf("qbank:%d:question_count", qbankID), func() (int64, error) {
		var count int64
		err := r.DB.Model(&model.Question{}).Where("q_bank_id = ?", qbankID).Count(&count).Error
		return count, err
	})
}

// GetTotalCategoryCount returns the number of distinct categories in a
// bank, cached. Needed for the readiness coverage component.
func (r *QuestionRepository) GetTotalCategoryCount(qbankID uint) (int64, error) {
	return r.cachedCount(fmt.Sprintf("qbank:%d:category_count", qbankID), func() (int64, error) {
		var count int64
		err := r.DB.Model(&model.Question{}).
			Where("q_bank_id = ? AND category <> ''", qbankID).
			Distinct("category").
			Count(&count).Error
		return count, err
	})
}

func (r *QuestionRepository) cachedCount(key string, load func() (int64, error)) (int64, error) {
	ctx := context.Background()

	if r.Redis != nil {
		if cached, err := r.Redis.Get(ctx, key).Result(); err == nil {
			if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return n, nil
			}
		}
	}

	count, err := load()
	if err != nil {
		return 0, err
	}

	if r.Redis != nil {
		r.Redis.Set(ctx, key, strconv.FormatInt(count, 10), r.CountTTL)
	}
	return count, nil
}
