package repository

import (
	"gorm.io/gorm"

	"nclex_prep_backend/internal/model"
)

type PerformanceRepository struct {
	DB *gorm.DB
}

func NewPerformanceRepository(db *gorm.DB) *PerformanceRepository {
	return &PerformanceRepository{DB: db}
}

// FindOrInitSubject returns the subject rollup row, initialising a fresh
// one on first encounter of the subject.
func (r *PerformanceRepository) FindOrInitSubject(tx *gorm.DB, enrollmentID uint, subject string) (*model.SubjectPerformance, error) {
	var perf model.SubjectPerformance
	err := tx.Where(model.SubjectPerformance{EnrollmentID: enrollmentID, Subject: subject}).
		FirstOrInit(&perf).Error
	return &perf, err
}

func (r *PerformanceRepository) SaveSubjectTx(tx *gorm.DB, perf *model.SubjectPerformance) error {
	return tx.Save(perf).Error
}

func (r *PerformanceRepository) FindOrInitCategory(tx *gorm.DB, enrollmentID uint, category string) (*model.CategoryPerformance, error) {
	var perf model.CategoryPerformance
	err := tx.Where(model.CategoryPerformance{EnrollmentID: enrollmentID, Category: category}).
		FirstOrInit(&perf).Error
	return &perf, err
}

func (r *PerformanceRepository) SaveCategoryTx(tx *gorm.DB, perf *model.CategoryPerformance) error {
	return tx.Save(perf).Error
}

func (r *PerformanceRepository) ListSubjects(enrollmentID uint) ([]model.SubjectPerformance, error) {
	var perfs []model.SubjectPerformance
	err := r.DB.Where("enrollment_id = ?", enrollmentID).Order("subject asc").Find(&perfs).Error
	return perfs, err
}

func (r *PerformanceRepository) ListCategories(enrollmentID uint) ([]model.CategoryPerformance, error) {
	var perfs []model.CategoryPerformance
	err := r.DB.Where("enrollment_id = ?", enrollmentID).Order("category asc").Find(&perfs).Error
	return perfs, err
}

// CountAttemptedCategories returns how many distinct categories the
// enrollment has touched.
func (r *PerformanceRepository) CountAttemptedCategories(enrollmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CategoryPerformance{}).
		Where("enrollment_id = ? AND questions_attempted > 0", enrollmentID).
		Count(&count).Error
	return count, err
}

// CountRemediationCategories returns how many categories are currently
// flagged for remediation.
func (r *PerformanceRepository) CountRemediationCategories(enrollmentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CategoryPerformance{}).
		Where("enrollment_id = ? AND needs_remediation = ?", enrollmentID, true).
		Count(&count).Error
	return count, err
}
