package service

import (
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nclex_prep_backend/internal/model"
	"nclex_prep_backend/internal/repository"
	"nclex_prep_backend/pkg/logger"
	"nclex_prep_backend/pkg/monitoring"
)

// remediationMinAttempted is the minimum question count before a category
// can be flagged for remediation; below it the accuracy signal is too
// noisy.
const remediationMinAttempted = 5

// TierCounts accumulates attempted/correct pairs for one subject or
// category within a single attempt.
type TierCounts struct {
	Attempted int
	Correct   int
}

// AttemptStats is the graded outcome of one completed attempt, the input
// to the three-tier rollup.
type AttemptStats struct {
	Mode           model.AttemptMode
	TotalQuestions int
	CorrectCount   int
	Score          float64
	Subjects       map[string]TierCounts
	Categories     map[string]TierCounts
}

// StatsService folds completed attempts into the enrollment, subject and
// category rollups. The whole read-compute-write cycle runs inside the
// caller's transaction holding the enrollment row lock; callers
// additionally hold the per-enrollment keyed mutex, so the cycle is fully
// serialized per (student, question bank).
type StatsService struct {
	Enrollments  *repository.EnrollmentRepository
	Performances *repository.PerformanceRepository
	Questions    *repository.QuestionRepository
}

func NewStatsService(enrollments *repository.EnrollmentRepository, performances *repository.PerformanceRepository, questions *repository.QuestionRepository) *StatsService {
	return &StatsService{
		Enrollments:  enrollments,
		Performances: performances,
		Questions:    questions,
	}
}

// ApplyCompletedAttempt updates all three rollup tiers within tx and
// returns the updated enrollment. It must run in the same transaction that
// completes the attempt, so a rollup failure rolls the status flip back
// and the attempt stays open for a retry.
func (s *StatsService) ApplyCompletedAttempt(tx *gorm.DB, userID, qbankID uint, stats AttemptStats) (*model.Enrollment, error) {
	start := time.Now()
	defer func() {
		monitoring.RollupDuration.Observe(time.Since(start).Seconds())
	}()

	totalQuestionsInBank, err := s.Questions.GetTotalQuestionCount(qbankID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.Enrollments.FindForUpdate(tx, userID, qbankID)
	if err != nil {
		return nil, err
	}

	applyEnrollmentRollup(enrollment, stats, totalQuestionsInBank)
	if err := s.Enrollments.SaveTx(tx, enrollment); err != nil {
		return nil, err
	}

	for subject, counts := range stats.Subjects {
		perf, err := s.Performances.FindOrInitSubject(tx, enrollment.ID, subject)
		if err != nil {
			return nil, err
		}
		perf.QuestionsAttempted += counts.Attempted
		perf.QuestionsCorrect += counts.Correct
		perf.Accuracy = accuracyPercent(perf.QuestionsCorrect, perf.QuestionsAttempted)
		perf.PerformanceLevel = classifyPerformance(perf.Accuracy)
		if err := s.Performances.SaveSubjectTx(tx, perf); err != nil {
			return nil, err
		}
	}

	for category, counts := range stats.Categories {
		perf, err := s.Performances.FindOrInitCategory(tx, enrollment.ID, category)
		if err != nil {
			return nil, err
		}
		perf.QuestionsAttempted += counts.Attempted
		perf.QuestionsCorrect += counts.Correct
		perf.Accuracy = accuracyPercent(perf.QuestionsCorrect, perf.QuestionsAttempted)
		perf.PerformanceLevel = classifyPerformance(perf.Accuracy)
		perf.NeedsRemediation = needsRemediation(perf.Accuracy, perf.QuestionsAttempted)
		if err := s.Performances.SaveCategoryTx(tx, perf); err != nil {
			return nil, err
		}
	}

	logger.Log.Info("attempt rolled up",
		zap.Uint("user_id", userID),
		zap.Uint("qbank_id", qbankID),
		zap.Float64("score", stats.Score),
		zap.Int("tests_completed", enrollment.TestsCompleted),
	)

	return enrollment, nil
}

// applyEnrollmentRollup folds one completed attempt into the enrollment
// counters in place.
func applyEnrollmentRollup(e *model.Enrollment, stats AttemptStats, totalQuestionsInBank int64) {
	e.QuestionsAttempted += stats.TotalQuestions
	e.QuestionsCorrect += stats.CorrectCount
	e.TestsCompleted++

	switch stats.Mode {
	case model.ModeTimed:
		e.TimedTestsCompleted++
	case model.ModeAssessment:
		e.AssessmentTestsCompleted++
	default:
		e.TutorTestsCompleted++
	}

	e.AverageScore = incrementalAverage(e.AverageScore, e.TestsCompleted, stats.Score)

	if stats.Score > e.HighestScore {
		e.HighestScore = stats.Score
	}
	if e.TestsCompleted == 1 || stats.Score < e.LowestScore {
		e.LowestScore = stats.Score
	}

	e.Progress = progressPercent(e.QuestionsCorrect, totalQuestionsInBank)
}

// incrementalAverage recomputes the running mean after the n-th score:
// (old × (n-1) + new) / n.
func incrementalAverage(oldAverage float64, n int, newScore float64) float64 {
	if n <= 0 {
		return 0
	}
	return (oldAverage*float64(n-1) + newScore) / float64(n)
}

// progressPercent is round(correct/totalInBank × 100), capped at 100.
func progressPercent(questionsCorrect int, totalQuestionsInBank int64) float64 {
	if totalQuestionsInBank <= 0 || questionsCorrect <= 0 {
		return 0
	}
	progress := math.Round(float64(questionsCorrect) / float64(totalQuestionsInBank) * 100)
	if progress > 100 {
		return 100
	}
	return progress
}

func accuracyPercent(correct, attempted int) float64 {
	if attempted <= 0 {
		return 0
	}
	return float64(correct) / float64(attempted) * 100
}

func classifyPerformance(accuracy float64) model.PerformanceLevel {
	switch {
	case accuracy >= 80:
		return model.LevelMastery
	case accuracy >= 65:
		return model.LevelProficient
	case accuracy >= 50:
		return model.LevelDeveloping
	default:
		return model.LevelWeak
	}
}

func needsRemediation(accuracy float64, attempted int) bool {
	return attempted >= remediationMinAttempted && accuracy < 60
}
