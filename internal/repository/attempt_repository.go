package repository

import (
	"errors"

	"gorm.io/gorm"

	"nclex_prep_backend/internal/model"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.TestAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.DB.Where("id = ?", id).First(&attempt).Error
	return &attempt, err
}

// FindOpen returns the student's non-terminal attempt for a bank, nil when
// there is none. At most one can exist (enforced by the attempt service
// under the enrollment lock).
func (r *AttemptRepository) FindOpen(userID, qbankID uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.DB.
		Where("user_id = ? AND q_bank_id = ? AND status = ?", userID, qbankID, model.AttemptInProgress).
		Order("started_at desc").
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) Update(attempt *model.TestAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) UpdateTx(tx *gorm.DB, attempt *model.TestAttempt) error {
	return tx.Save(attempt).Error
}

// UpsertQuestionAttempt creates or updates the (attempt, question) row.
// Resubmission of the same question replaces the stored answer instead of
// duplicating the row; IsFirstAttempt survives the update.
func (r *AttemptRepository) UpsertQuestionAttempt(tx *gorm.DB, qa *model.QuestionAttempt) error {
	if tx == nil {
		tx = r.DB
	}

	var existing model.QuestionAttempt
	err := tx.Where("attempt_id = ? AND question_id = ?", qa.AttemptID, qa.QuestionID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		qa.IsFirstAttempt = true
		return tx.Create(qa).Error
	}
	if err != nil {
		return err
	}

	existing.SubmittedAnswer = qa.SubmittedAnswer
	existing.IsCorrect = qa.IsCorrect
	existing.IsPartiallyCorrect = qa.IsPartiallyCorrect
	existing.PointsEarned = qa.PointsEarned
	existing.IsFirstAttempt = false
	if err := tx.Save(&existing).Error; err != nil {
		return err
	}
	*qa = existing
	return nil
}

func (r *AttemptRepository) ListQuestionAttempts(attemptID string) ([]model.QuestionAttempt, error) {
	var qas []model.QuestionAttempt
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&qas).Error
	return qas, err
}

// HasCompleted reports whether the student has ever completed an attempt
// for the bank.
func (r *AttemptRepository) HasCompleted(userID, qbankID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.TestAttempt{}).
		Where("user_id = ? AND q_bank_id = ? AND status = ?", userID, qbankID, model.AttemptCompleted).
		Count(&count).Error
	return count > 0, err
}

// LastCompletedScores returns the most recent completed attempt scores,
// newest first, for the readiness test-mode component.
func (r *AttemptRepository) LastCompletedScores(userID, qbankID uint, limit int) ([]float64, error) {
	var scores []float64
	err := r.DB.Model(&model.TestAttempt{}).
		Where("user_id = ? AND q_bank_id = ? AND status = ?", userID, qbankID, model.AttemptCompleted).
		Order("completed_at desc").
		Limit(limit).
		Pluck("score", &scores).Error
	return scores, err
}

func (r *AttemptRepository) ListCompleted(userID, qbankID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	var attempts []model.TestAttempt
	var total int64

	query := r.DB.Model(&model.TestAttempt{}).
		Where("user_id = ? AND q_bank_id = ? AND status = ?", userID, qbankID, model.AttemptCompleted)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("completed_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}
