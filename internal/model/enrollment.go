package model

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

// Enrollment is a student's registration against one question bank and the
// cumulative rollup counters maintained by the statistics aggregator.
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID  uint             `gorm:"uniqueIndex:idx_user_qbank_enroll;type:bigint unsigned;not null" json:"userId"`
	QBankID uint             `gorm:"uniqueIndex:idx_user_qbank_enroll;type:bigint unsigned;not null" json:"qbankId"`
	Status  EnrollmentStatus `gorm:"size:20;default:'active'" json:"status"`

	QuestionsAttempted       int     `gorm:"default:0" json:"questionsAttempted"`
	QuestionsCorrect         int     `gorm:"default:0" json:"questionsCorrect"`
	TestsCompleted           int     `gorm:"default:0" json:"testsCompleted"`
	TutorTestsCompleted      int     `gorm:"default:0" json:"tutorTestsCompleted"`
	TimedTestsCompleted      int     `gorm:"default:0" json:"timedTestsCompleted"`
	AssessmentTestsCompleted int     `gorm:"default:0" json:"assessmentTestsCompleted"`
	AverageScore             float64 `gorm:"default:0" json:"averageScore"`
	HighestScore             float64 `gorm:"default:0" json:"highestScore"`
	LowestScore              float64 `gorm:"default:0" json:"lowestScore"`
	Progress                 float64 `gorm:"default:0" json:"progress"`
	ReadinessScore           float64 `gorm:"default:0" json:"readinessScore"`
	ReadinessLevel           string  `gorm:"size:30;default:'insufficient_data'" json:"readinessLevel"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
