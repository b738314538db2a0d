package model

import "encoding/json"

type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	SATA         QuestionType = "sata" // select-all-that-apply
	Ordering     QuestionType = "ordering"
	Bowtie       QuestionType = "bowtie"
	CaseStudy    QuestionType = "case_study"
	DosageCalc   QuestionType = "dosage_calc"
	Matrix       QuestionType = "matrix"
	DragDrop     QuestionType = "drag_drop"
)

// Question is immutable once any attempt references it; edits would make
// already-graded attempts ambiguous.
// swagger:model Question
type Question struct {
	BaseModel
	QBankID       uint            `gorm:"index;type:bigint unsigned;not null" json:"qbankId"`
	Type          QuestionType    `gorm:"size:50;not null;default:'single_choice'" json:"type"`
	Prompt        string          `gorm:"type:text;not null" json:"prompt"`
	Options       json.RawMessage `gorm:"type:json" json:"options"`
	CorrectAnswer json.RawMessage `gorm:"type:json" json:"-"` // answer key, may be structured JSON or a bare scalar (legacy rows)
	Explanation   string          `gorm:"type:text" json:"explanation"`
	Points        int             `gorm:"default:1" json:"points"`
	Tolerance     float64         `gorm:"default:0" json:"tolerance"` // dosage_calc only
	Subject       string          `gorm:"size:100;index" json:"subject"`
	Lesson        string          `gorm:"size:100" json:"lesson"`
	Category      string          `gorm:"size:100;index" json:"category"`
	Difficulty    string          `gorm:"size:20;default:'medium'" json:"difficulty"`
}

func (Question) TableName() string {
	return "questions"
}
