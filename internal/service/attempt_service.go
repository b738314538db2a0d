package service

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"nclex_prep_backend/internal/grading"
	"nclex_prep_backend/internal/model"
	"nclex_prep_backend/internal/repository"
	"nclex_prep_backend/internal/util"
	"nclex_prep_backend/pkg/keylock"
	"nclex_prep_backend/pkg/monitoring"
)

// StartAttemptRequest opens an explicit attempt with a fixed question set.
type StartAttemptRequest struct {
	Mode        model.AttemptMode `json:"mode" binding:"required,oneof=tutor timed assessment"`
	QuestionIDs []uint            `json:"questionIds" binding:"required,min=1"`
	TimeLimit   int               `json:"timeLimit"` // minutes, 0 = unlimited
}

// SubmitAnswerRequest carries one answer. The payload shape depends on the
// question type and is validated by the grading engine, never rejected.
type SubmitAnswerRequest struct {
	Answer json.RawMessage `json:"answer"`
}

// SubmitAnswerResponse is the tutor-mode feedback for one graded answer.
// The answer key and explanation are only revealed in tutor mode.
type SubmitAnswerResponse struct {
	QuestionID         uint            `json:"questionId"`
	IsCorrect          bool            `json:"isCorrect"`
	IsPartiallyCorrect bool            `json:"isPartiallyCorrect"`
	PointsEarned       int             `json:"pointsEarned"`
	TotalPoints        int             `json:"totalPoints"`
	CorrectAnswer      json.RawMessage `json:"correctAnswer,omitempty"`
	Explanation        string          `json:"explanation,omitempty"`
}

// FinalizeAttemptRequest closes the open attempt with the full answer set,
// keyed by question id.
type FinalizeAttemptRequest struct {
	Answers          map[uint]json.RawMessage `json:"answers" binding:"required"`
	TimeSpentSeconds int                      `json:"timeSpentSeconds"`
}

// FinalizeAttemptResponse is the graded summary returned once per attempt.
type FinalizeAttemptResponse struct {
	AttemptID       string                      `json:"attemptId"`
	Mode            model.AttemptMode           `json:"mode"`
	Score           float64                     `json:"score"`
	IsPassed        bool                        `json:"isPassed"`
	CorrectCount    int                         `json:"correctCount"`
	IncorrectCount  int                         `json:"incorrectCount"`
	UnansweredCount int                         `json:"unansweredCount"`
	TotalQuestions  int                         `json:"totalQuestions"`
	Readiness       ReadinessResult             `json:"readiness"`
	Subjects        []model.SubjectPerformance  `json:"subjects"`
	Categories      []model.CategoryPerformance `json:"categories"`
}

// AttemptService owns the attempt lifecycle. All state transitions for one
// (student, question bank) pair happen under the enrollment keyed mutex, so
// at most one attempt is ever open and concurrent finalize calls cannot
// double-count.
type AttemptService struct {
	DB           *gorm.DB
	Attempts     *repository.AttemptRepository
	Questions    *repository.QuestionRepository
	Enrollments  *repository.EnrollmentRepository
	Performances *repository.PerformanceRepository
	Stats        *StatsService
	Readiness    *ReadinessService
	Locks        *keylock.KeyLock
	PassingScore float64
}

func NewAttemptService(db *gorm.DB, attempts *repository.AttemptRepository, questions *repository.QuestionRepository, enrollments *repository.EnrollmentRepository, performances *repository.PerformanceRepository, stats *StatsService, readiness *ReadinessService, locks *keylock.KeyLock, passingScore float64) *AttemptService {
	return &AttemptService{
		DB:           db,
		Attempts:     attempts,
		Questions:    questions,
		Enrollments:  enrollments,
		Performances: performances,
		Stats:        stats,
		Readiness:    readiness,
		Locks:        locks,
		PassingScore: passingScore,
	}
}

// StartAttempt opens a new attempt with an explicit question set. Fails when
// another attempt is already open for the same enrollment.
func (s *AttemptService) StartAttempt(userID, qbankID uint, req StartAttemptRequest) (*model.TestAttempt, error) {
	if err := s.requireEnrollment(userID, qbankID); err != nil {
		return nil, err
	}

	questions, err := s.Questions.GetQuestionsByIDs(req.QuestionIDs)
	if err != nil {
		return nil, err
	}
	if len(questions) != len(req.QuestionIDs) {
		return nil, util.ErrQuestionNotFound
	}
	for i := range questions {
		if questions[i].QBankID != qbankID {
			return nil, util.ErrQuestionNotFound
		}
	}

	key := keylock.EnrollmentKey(userID, qbankID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	open, err := s.Attempts.FindOpen(userID, qbankID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, util.ErrAttemptAlreadyOpen
	}

	ids, _ := json.Marshal(req.QuestionIDs)
	attempt := &model.TestAttempt{
		UserID:      userID,
		QBankID:     qbankID,
		Mode:        req.Mode,
		Status:      model.AttemptInProgress,
		QuestionIDs: ids,
		TimeLimit:   req.TimeLimit,
		StartedAt:   time.Now(),
	}
	if err := s.Attempts.Create(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// SubmitOneAnswer grades a single answer inside the open attempt and returns
// immediate feedback. When no attempt is open, a tutor-mode attempt is
// created implicitly; this is the ad-hoc practice flow.
func (s *AttemptService) SubmitOneAnswer(userID, qbankID, questionID uint, answer json.RawMessage) (*SubmitAnswerResponse, error) {
	if isEmptyPayload(answer) {
		return nil, util.ErrEmptyAnswer
	}
	if err := s.requireEnrollment(userID, qbankID); err != nil {
		return nil, err
	}

	question, err := s.Questions.FindByID(questionID)
	if repository.IsNotFound(err) {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	if question.QBankID != qbankID {
		return nil, util.ErrQuestionNotFound
	}

	key := keylock.EnrollmentKey(userID, qbankID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	attempt, err := s.Attempts.FindOpen(userID, qbankID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		attempt = &model.TestAttempt{
			UserID:    userID,
			QBankID:   qbankID,
			Mode:      model.ModeTutor,
			Status:    model.AttemptInProgress,
			StartedAt: time.Now(),
		}
		if err := s.Attempts.Create(attempt); err != nil {
			return nil, err
		}
	} else if !attemptContains(attempt, questionID) {
		return nil, util.ErrQuestionNotInAttempt
	}

	result := grading.Grade(question, answer)
	monitoring.AnswersGraded.WithLabelValues(string(question.Type), gradeOutcome(result)).Inc()

	qa := &model.QuestionAttempt{
		AttemptID:          attempt.ID,
		QuestionID:         questionID,
		UserID:             userID,
		SubmittedAnswer:    answer,
		IsCorrect:          result.IsCorrect,
		IsPartiallyCorrect: result.IsPartiallyCorrect,
		PointsEarned:       result.PointsEarned,
	}
	if err := s.Attempts.UpsertQuestionAttempt(nil, qa); err != nil {
		return nil, err
	}

	resp := &SubmitAnswerResponse{
		QuestionID:         questionID,
		IsCorrect:          result.IsCorrect,
		IsPartiallyCorrect: result.IsPartiallyCorrect,
		PointsEarned:       result.PointsEarned,
		TotalPoints:        result.TotalPoints,
	}
	if attempt.Mode == model.ModeTutor {
		resp.CorrectAnswer = question.CorrectAnswer
		resp.Explanation = question.Explanation
	}
	return resp, nil
}

// FinalizeAttempt grades the submitted answer set, marks the attempt
// completed, rolls the outcome into the statistics tiers and recomputes
// readiness. It is the only path to the completed state; a second call finds
// no open attempt and is rejected.
func (s *AttemptService) FinalizeAttempt(userID, qbankID uint, req FinalizeAttemptRequest) (*FinalizeAttemptResponse, error) {
	if len(req.Answers) == 0 {
		return nil, util.ErrEmptyAnswerSet
	}
	if err := s.requireEnrollment(userID, qbankID); err != nil {
		return nil, err
	}

	key := keylock.EnrollmentKey(userID, qbankID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	attempt, err := s.Attempts.FindOpen(userID, qbankID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		// Distinguish a repeated finalize from a finalize that never had
		// an attempt to close.
		completed, err := s.Attempts.HasCompleted(userID, qbankID)
		if err != nil {
			return nil, err
		}
		if completed {
			return nil, util.ErrAttemptAlreadyCompleted
		}
		return nil, util.ErrAttemptNotFound
	}

	questionIDs := attempt.QuestionIDList()
	if len(questionIDs) == 0 {
		// Implicit tutor attempt: the answered set defines the question set.
		questionIDs = sortedKeys(req.Answers)
	}
	for id := range req.Answers {
		if !containsID(questionIDs, id) {
			return nil, util.ErrQuestionNotInAttempt
		}
	}

	questions, err := s.Questions.GetQuestionsByIDs(questionIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	stats := AttemptStats{
		Mode:           attempt.Mode,
		TotalQuestions: len(questionIDs),
		Subjects:       make(map[string]TierCounts),
		Categories:     make(map[string]TierCounts),
	}

	var enrollment *model.Enrollment
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, id := range questionIDs {
			answer, answered := req.Answers[id]
			if !answered || isEmptyPayload(answer) {
				attempt.UnansweredCount++
				continue
			}
			question, ok := byID[id]
			if !ok {
				return util.ErrQuestionNotFound
			}

			result := grading.Grade(question, answer)
			monitoring.AnswersGraded.WithLabelValues(string(question.Type), gradeOutcome(result)).Inc()

			qa := &model.QuestionAttempt{
				AttemptID:          attempt.ID,
				QuestionID:         id,
				UserID:             userID,
				SubmittedAnswer:    answer,
				IsCorrect:          result.IsCorrect,
				IsPartiallyCorrect: result.IsPartiallyCorrect,
				PointsEarned:       result.PointsEarned,
			}
			if err := s.Attempts.UpsertQuestionAttempt(tx, qa); err != nil {
				return err
			}

			if result.IsCorrect {
				attempt.CorrectCount++
			} else {
				attempt.IncorrectCount++
			}
			accumulateTier(stats.Subjects, question.Subject, result.IsCorrect)
			accumulateTier(stats.Categories, question.Category, result.IsCorrect)
		}

		attempt.Score = attemptScore(attempt.CorrectCount, len(questionIDs))
		attempt.Status = model.AttemptCompleted
		now := time.Now()
		attempt.CompletedAt = &now
		attempt.TimeSpentSeconds = req.TimeSpentSeconds
		if err := s.Attempts.UpdateTx(tx, attempt); err != nil {
			return err
		}

		// The rollup shares this transaction: if it fails, the completion
		// rolls back too and the attempt stays open for a retry.
		stats.CorrectCount = attempt.CorrectCount
		stats.Score = attempt.Score
		enrollment, err = s.Stats.ApplyCompletedAttempt(tx, userID, qbankID, stats)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.AttemptsFinalized.WithLabelValues(string(attempt.Mode)).Inc()

	// Readiness is a derived value; it is recomputed on every read, so a
	// failure here cannot corrupt the rollups.
	readiness, err := s.Readiness.Refresh(enrollment)
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

	return &FinalizeAttemptResponse{
		AttemptID:       attempt.ID,
		Mode:            attempt.Mode,
		Score:           attempt.Score,
		IsPassed:        attempt.Score >= s.PassingScore,
		CorrectCount:    attempt.CorrectCount,
		IncorrectCount:  attempt.IncorrectCount,
		UnansweredCount: attempt.UnansweredCount,
		TotalQuestions:  len(questionIDs),
		Readiness:       readiness,
		Subjects:        subjects,
		Categories:      categories,
	}, nil
}

// ListAttempts returns the student's completed attempts, newest first.
func (s *AttemptService) ListAttempts(userID, qbankID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	enrolled, err := s.Enrollments.IsEnrolled(userID, qbankID)
	if err != nil {
		return nil, 0, err
	}
	if !enrolled {
		return nil, 0, util.ErrNotEnrolled
	}
	return s.Attempts.ListCompleted(userID, qbankID, page, limit)
}

func (s *AttemptService) requireEnrollment(userID, qbankID uint) error {
	enrollment, err := s.Enrollments.FindByUserAndBank(userID, qbankID)
	if repository.IsNotFound(err) {
		return util.ErrNotEnrolled
	}
	if err != nil {
		return err
	}
	if enrollment.Status == model.EnrollmentSuspended {
		return util.ErrEnrollmentSuspended
	}
	return nil
}

// attemptScore is round(correct/total × 100) to two decimals.
func attemptScore(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}

func accumulateTier(tiers map[string]TierCounts, name string, correct bool) {
	if name == "" {
		name = "uncategorized"
	}
	counts := tiers[name]
	counts.Attempted++
	if correct {
		counts.Correct++
	}
	tiers[name] = counts
}

func gradeOutcome(r grading.Result) string {
	switch {
	case r.IsCorrect:
		return "correct"
	case r.IsPartiallyCorrect:
		return "partial"
	default:
		return "incorrect"
	}
}

func attemptContains(attempt *model.TestAttempt, questionID uint) bool {
	ids := attempt.QuestionIDList()
	if len(ids) == 0 {
		return true
	}
	return containsID(ids, questionID)
}

func containsID(ids []uint, id uint) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func sortedKeys(answers map[uint]json.RawMessage) []uint {
	ids := make([]uint, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// isEmptyPayload reports whether the raw answer carries no content at all.
func isEmptyPayload(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	return false
}
