package service

import (
	"nclex_prep_backend/internal/model"
	"nclex_prep_backend/internal/repository"
	"nclex_prep_backend/internal/util"
)

// PerformanceOverview is the full rollup snapshot for one enrollment.
type PerformanceOverview struct {
	Enrollment *model.Enrollment           `json:"enrollment"`
	Subjects   []model.SubjectPerformance  `json:"subjects"`
	Categories []model.CategoryPerformance `json:"categories"`
}

// PerformanceService serves the read side of the rollup tiers.
type PerformanceService struct {
	Enrollments  *repository.EnrollmentRepository
	Performances *repository.PerformanceRepository
	Readiness    *ReadinessService
}

func NewPerformanceService(enrollments *repository.EnrollmentRepository, performances *repository.PerformanceRepository, readiness *ReadinessService) *PerformanceService {
	return &PerformanceService{
		Enrollments:  enrollments,
		Performances: performances,
		Readiness:    readiness,
	}
}

func (s *PerformanceService) GetOverview(userID, qbankID uint) (*PerformanceOverview, error) {
	enrollment, err := s.Enrollments.FindByUserAndBank(userID, qbankID)
	if repository.IsNotFound(err) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	subjects, err := s.Performances.ListSubjects(enrollment.ID)
	if err != nil {
		return nil, err
	}
	categories, err := s.Performances.ListCategories(enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &PerformanceOverview{
		Enrollment: enrollment,
		Subjects:   subjects,
		Categories: categories,
	}, nil
}

// GetReadiness recomputes the composite score from current rollup state so
// the response always reflects the latest data, not only the value stored at
// the last finalize.
func (s *PerformanceService) GetReadiness(userID, qbankID uint) (*ReadinessResult, error) {
	enrollment, err := s.Enrollments.FindByUserAndBank(userID, qbankID)
	if repository.IsNotFound(err) {
		return nil, util.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}

	result, err := s.Readiness.Compute(enrollment)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
