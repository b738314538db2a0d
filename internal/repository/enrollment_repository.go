package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nclex_prep_backend/internal/model"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// IsEnrolled reports whether the student holds an active enrollment for
// the bank. Enrollment provisioning itself (the access-request workflow)
// is owned by another service.
func (r *EnrollmentRepository) IsEnrolled(userID, qbankID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("user_id = ? AND q_bank_id = ? AND status = ?", userID, qbankID, model.EnrollmentActive).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentRepository) FindByUserAndBank(userID, qbankID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("user_id = ? AND q_bank_id = ?", userID, qbankID).First(&enrollment).Error
	return &enrollment, err
}

// FindForUpdate loads the enrollment row under SELECT ... FOR UPDATE so
// the caller's transaction owns it until commit. This is the row-lock half
// of the rollup serialization; the keyed mutex is the application half.
func (r *EnrollmentRepository) FindForUpdate(tx *gorm.DB, userID, qbankID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND q_bank_id = ?", userID, qbankID).
		First(&enrollment).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) SaveTx(tx *gorm.DB, enrollment *model.Enrollment) error {
	return tx.Save(enrollment).Error
}

// IsNotFound reports whether err is the record-not-found error, so services
// can map it to their own sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
