package model

type PerformanceLevel string

const (
	LevelMastery    PerformanceLevel = "mastery"    // accuracy >= 80
	LevelProficient PerformanceLevel = "proficient" // accuracy >= 65
	LevelDeveloping PerformanceLevel = "developing" // accuracy >= 50
	LevelWeak       PerformanceLevel = "weak"
)

// swagger:model SubjectPerformance
type SubjectPerformance struct {
	BaseModel
	EnrollmentID       uint             `gorm:"uniqueIndex:idx_enroll_subject;type:bigint unsigned;not null" json:"enrollmentId"`
	Subject            string           `gorm:"size:100;uniqueIndex:idx_enroll_subject;not null" json:"subject"`
	QuestionsAttempted int              `gorm:"default:0" json:"questionsAttempted"`
	QuestionsCorrect   int              `gorm:"default:0" json:"questionsCorrect"`
	Accuracy           float64          `gorm:"default:0" json:"accuracy"`
	PerformanceLevel   PerformanceLevel `gorm:"size:20;default:'weak'" json:"performanceLevel"`
}

func (SubjectPerformance) TableName() string {
	return "subject_performances"
}

// swagger:model CategoryPerformance
type CategoryPerformance struct {
	BaseModel
	EnrollmentID       uint             `gorm:"uniqueIndex:idx_enroll_category;type:bigint unsigned;not null" json:"enrollmentId"`
	Category           string           `gorm:"size:100;uniqueIndex:idx_enroll_category;not null" json:"category"`
	QuestionsAttempted int              `gorm:"default:0" json:"questionsAttempted"`
	QuestionsCorrect   int              `gorm:"default:0" json:"questionsCorrect"`
	Accuracy           float64          `gorm:"default:0" json:"accuracy"`
	PerformanceLevel   PerformanceLevel `gorm:"size:20;default:'weak'" json:"performanceLevel"`
	NeedsRemediation   bool             `gorm:"default:false" json:"needsRemediation"`
}

func (CategoryPerformance) TableName() string {
	return "category_performances"
}
