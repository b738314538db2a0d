package model

import "encoding/json"

// QuestionAttempt records one graded answer. Unique per (attempt, question);
// a resubmission updates the row instead of duplicating it.
// swagger:model QuestionAttempt
type QuestionAttempt struct {
	BaseModel
	AttemptID          string          `gorm:"size:36;uniqueIndex:idx_attempt_question;not null" json:"attemptId"`
	QuestionID         uint            `gorm:"uniqueIndex:idx_attempt_question;type:bigint unsigned;not null" json:"questionId"`
	UserID             uint            `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	SubmittedAnswer    json.RawMessage `gorm:"type:json" json:"submittedAnswer"`
	IsCorrect          bool            `gorm:"default:false" json:"isCorrect"`
	IsPartiallyCorrect bool            `gorm:"default:false" json:"isPartiallyCorrect"`
	PointsEarned       int             `gorm:"default:0" json:"pointsEarned"`
	IsFirstAttempt     bool            `gorm:"default:true" json:"isFirstAttempt"`
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}
