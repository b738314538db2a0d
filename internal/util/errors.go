package util

import "errors"

var (
	ErrNotEnrolled             = errors.New("student not enrolled in question bank")
	ErrEnrollmentSuspended     = errors.New("enrollment suspended")
	ErrQuestionNotFound        = errors.New("question not found")
	ErrQuestionBankNotFound    = errors.New("question bank not found")
	ErrAttemptNotFound         = errors.New("no open attempt found")
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")
	ErrAttemptAlreadyOpen      = errors.New("an attempt is already in progress")
	ErrEmptyAnswer             = errors.New("answer payload is empty")
	ErrEmptyAnswerSet          = errors.New("no answers submitted")
	ErrQuestionNotInAttempt    = errors.New("question does not belong to this attempt")
)
