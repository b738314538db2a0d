package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nclex_prep_backend/internal/repository"
	"nclex_prep_backend/internal/util"
	"nclex_prep_backend/pkg/keylock"
	"nclex_prep_backend/pkg/logger"
)

func newMockedAttemptService(t *testing.T) (*AttemptService, sqlmock.Sqlmock) {
	t.Helper()
	logger.Log = zap.NewNop()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	attempts := repository.NewAttemptRepository(db)
	questions := repository.NewQuestionRepository(db, nil, time.Minute)
	enrollments := repository.NewEnrollmentRepository(db)
	performances := repository.NewPerformanceRepository(db)
	stats := NewStatsService(enrollments, performances, questions)
	readiness := NewReadinessService(attempts, performances, questions, enrollments)

	svc := NewAttemptService(db, attempts, questions, enrollments, performances,
		stats, readiness, keylock.New(), 70)
	return svc, mock
}

func activeEnrollmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "q_bank_id", "status"}).
		AddRow(5, 1, 2, "active")
}

// A rollup failure must roll the whole finalize transaction back,
// including the status flip, so the attempt stays open and a retry can
// fold the score into the enrollment.
func TestFinalizeRollupFailureRollsBackCompletion(t *testing.T) {
	svc, mock := newMockedAttemptService(t)
	dbErr := errors.New("lock wait timeout")

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(activeEnrollmentRows())

	mock.ExpectQuery("SELECT \\* FROM `test_attempts`").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "q_bank_id", "mode", "status", "question_ids", "score"}).
			AddRow("att-1", 1, 2, "timed", "in_progress", []byte(`[7]`), 0))

	mock.ExpectQuery("SELECT \\* FROM `questions`").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "q_bank_id", "type", "prompt", "correct_answer", "points", "subject", "category"}).
			AddRow(7, 2, "single_choice", "p", []byte(`"A"`), 1, "Pharmacology", "Safety"))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `question_attempts`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `question_attempts`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `test_attempts`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `questions`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(100))
	mock.ExpectQuery("SELECT \\* FROM `enrollments`.*FOR UPDATE").
		WillReturnError(dbErr)
	mock.ExpectRollback()

	_, err := svc.FinalizeAttempt(1, 2, FinalizeAttemptRequest{
		Answers: map[uint]json.RawMessage{7: json.RawMessage(`"A"`)},
	})

	require.Error(t, err)
	assert.ErrorContains(t, err, "lock wait timeout")
	// No commit expectation was set: completing the attempt outside the
	// rollup transaction would fail the mock here.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartAttemptRejectsQuestionsFromAnotherBank(t *testing.T) {
	svc, mock := newMockedAttemptService(t)

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(activeEnrollmentRows())

	// Question 9 exists but belongs to bank 999, not bank 2.
	mock.ExpectQuery("SELECT \\* FROM `questions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "q_bank_id", "type"}).
			AddRow(9, 999, "single_choice"))

	_, err := svc.StartAttempt(1, 2, StartAttemptRequest{
		Mode:        "timed",
		QuestionIDs: []uint{9},
	})

	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeAfterCompletionConflicts(t *testing.T) {
	svc, mock := newMockedAttemptService(t)

	mock.ExpectQuery("SELECT \\* FROM `enrollments`").
		WillReturnRows(activeEnrollmentRows())

	// No open attempt, but a completed one exists: repeated finalize.
	mock.ExpectQuery("SELECT \\* FROM `test_attempts`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `test_attempts`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

	_, err := svc.FinalizeAttempt(1, 2, FinalizeAttemptRequest{
		Answers: map[uint]json.RawMessage{7: json.RawMessage(`"A"`)},
	})

	assert.ErrorIs(t, err, util.ErrAttemptAlreadyCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
