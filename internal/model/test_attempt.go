package model

import (
	"encoding/json"
	"time"
)

type AttemptMode string

const (
	ModeTutor      AttemptMode = "tutor"
	ModeTimed      AttemptMode = "timed"
	ModeAssessment AttemptMode = "assessment"
)

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed" // terminal
)

// swagger:model TestAttempt
type TestAttempt struct {
	UUIDBase
	UserID           uint            `gorm:"index:idx_user_qbank;type:bigint unsigned;not null" json:"userId"`
	QBankID          uint            `gorm:"index:idx_user_qbank;type:bigint unsigned;not null" json:"qbankId"`
	Mode             AttemptMode     `gorm:"size:20;not null;default:'tutor'" json:"mode"`
	Status           AttemptStatus   `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	QuestionIDs      json.RawMessage `gorm:"type:json" json:"questionIds"` // ordered question-id set
	TimeLimit        int             `gorm:"default:0" json:"timeLimit"`   // minutes, 0 = unlimited
	StartedAt        time.Time       `json:"startedAt"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
	TimeSpentSeconds int             `gorm:"default:0" json:"timeSpentSeconds"`
	Score            float64         `gorm:"default:0" json:"score"`
	CorrectCount     int             `gorm:"default:0" json:"correctCount"`
	IncorrectCount   int             `gorm:"default:0" json:"incorrectCount"`
	UnansweredCount  int             `gorm:"default:0" json:"unansweredCount"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// QuestionIDList decodes the stored ordered question-id set.
func (a *TestAttempt) QuestionIDList() []uint {
	var ids []uint
	if len(a.QuestionIDs) > 0 {
		_ = json.Unmarshal(a.QuestionIDs, &ids)
	}
	return ids
}
