package service

import (
	"math"

	"go.uber.org/zap"

	"nclex_prep_backend/internal/model"
	"nclex_prep_backend/internal/repository"
	"nclex_prep_backend/pkg/logger"
)

// Readiness level bands on the composite score.
const (
	ReadinessHigh             = "high_chance"
	ReadinessPass             = "pass_likely"
	ReadinessBorderline       = "borderline"
	ReadinessLow              = "low_chance"
	ReadinessVeryLow          = "very_low_chance"
	ReadinessInsufficientData = "insufficient_data"
)

// minTestsForReadiness is how many completed tests are required before the
// composite score is considered meaningful.
const minTestsForReadiness = 3

// recentScoreWindow is how many recent completed attempts feed the
// test-performance component.
const recentScoreWindow = 5

// ReadinessComponents are the five weighted inputs of the composite score,
// each on a 0-100 scale.
type ReadinessComponents struct {
	Accuracy            float64 `json:"accuracy"`
	CategoryCoverage    float64 `json:"categoryCoverage"`
	WeakAreaImprovement float64 `json:"weakAreaImprovement"`
	TestPerformance     float64 `json:"testPerformance"`
	Confidence          float64 `json:"confidence"`
}

// ReadinessResult is the persisted composite outcome plus its inputs.
type ReadinessResult struct {
	Score      float64             `json:"score"`
	Level      string              `json:"level"`
	Components ReadinessComponents `json:"components"`
}

// ReadinessService computes the composite exam-readiness score from the
// rollup state and persists it on the enrollment.
type ReadinessService struct {
	Attempts     *repository.AttemptRepository
	Performances *repository.PerformanceRepository
	Questions    *repository.QuestionRepository
	Enrollments  *repository.EnrollmentRepository
}

func NewReadinessService(attempts *repository.AttemptRepository, performances *repository.PerformanceRepository, questions *repository.QuestionRepository, enrollments *repository.EnrollmentRepository) *ReadinessService {
	return &ReadinessService{
		Attempts:     attempts,
		Performances: performances,
		Questions:    questions,
		Enrollments:  enrollments,
	}
}

// Compute derives the composite score for an enrollment without persisting
// it.
func (s *ReadinessService) Compute(enrollment *model.Enrollment) (ReadinessResult, error) {
	accuracy := accuracyPercent(enrollment.QuestionsCorrect, enrollment.QuestionsAttempted)

	attemptedCategories, err := s.Performances.CountAttemptedCategories(enrollment.ID)
	if err != nil {
		return ReadinessResult{}, err
	}
	totalCategories, err := s.Questions.GetTotalCategoryCount(enrollment.QBankID)
	if err != nil {
		return ReadinessResult{}, err
	}

	remediationCount, err := s.Performances.CountRemediationCategories(enrollment.ID)
	if err != nil {
		return ReadinessResult{}, err
	}

	recentScores, err := s.Attempts.LastCompletedScores(enrollment.UserID, enrollment.QBankID, recentScoreWindow)
	if err != nil {
		return ReadinessResult{}, err
	}

	components := ReadinessComponents{
		Accuracy:            accuracy,
		CategoryCoverage:    coveragePercent(attemptedCategories, totalCategories),
		WeakAreaImprovement: weakAreaImprovement(int(remediationCount)),
		TestPerformance:     meanScore(recentScores),
		// No self-reported confidence signal exists yet, so accuracy
		// stands in for it.
		Confidence: accuracy,
	}

	score := compositeReadiness(components)
	return ReadinessResult{
		Score:      score,
		Level:      readinessLevel(score, enrollment.TestsCompleted),
		Components: components,
	}, nil
}

// Refresh recomputes readiness and stores the score and level on the
// enrollment row.
func (s *ReadinessService) Refresh(enrollment *model.Enrollment) (ReadinessResult, error) {
	result, err := s.Compute(enrollment)
	if err != nil {
		return ReadinessResult{}, err
	}

	enrollment.ReadinessScore = result.Score
	enrollment.ReadinessLevel = result.Level
	if err := s.Enrollments.SaveTx(s.Enrollments.DB, enrollment); err != nil {
		return ReadinessResult{}, err
	}

	logger.Log.Info("readiness refreshed",
		zap.Uint("user_id", enrollment.UserID),
		zap.Uint("qbank_id", enrollment.QBankID),
		zap.Float64("score", result.Score),
		zap.String("level", result.Level),
	)
	return result, nil
}

// compositeReadiness clamps each component to [0, 100], applies the
// weights and rounds: accuracy 40%, coverage 20%, weak-area improvement
// 20%, recent test performance 10%, confidence 10%. Components can drift
// out of range on stale cached counts, so they are clamped before
// weighting, not just the result.
func compositeReadiness(c ReadinessComponents) float64 {
	score := clamp100(c.Accuracy)*0.40 +
		clamp100(c.CategoryCoverage)*0.20 +
		clamp100(c.WeakAreaImprovement)*0.20 +
		clamp100(c.TestPerformance)*0.10 +
		clamp100(c.Confidence)*0.10

	return math.Round(score)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// readinessLevel maps the composite score to a band. Too few completed
// tests short-circuits to insufficient_data regardless of score.
func readinessLevel(score float64, testsCompleted int) string {
	if testsCompleted < minTestsForReadiness {
		return ReadinessInsufficientData
	}
	switch {
	case score >= 81:
		return ReadinessHigh
	case score >= 61:
		return ReadinessPass
	case score >= 51:
		return ReadinessBorderline
	case score >= 26:
		return ReadinessLow
	default:
		return ReadinessVeryLow
	}
}

// weakAreaImprovement penalises 10 points per category currently flagged
// for remediation, floored at 0.
func weakAreaImprovement(remediationCount int) float64 {
	improvement := 100 - 10*float64(remediationCount)
	if improvement < 0 {
		return 0
	}
	return improvement
}

func coveragePercent(attempted, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(attempted) / float64(total) * 100
}

func meanScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
