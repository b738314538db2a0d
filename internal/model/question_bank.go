package model

// swagger:model QuestionBank
type QuestionBank struct {
	BaseModel
	Title        string  `gorm:"size:255;not null" json:"title"`
	Description  string  `gorm:"type:text" json:"description"`
	PassingScore float64 `gorm:"default:70" json:"passingScore"`
	IsActive     bool    `gorm:"default:true" json:"isActive"`
}

func (QuestionBank) TableName() string {
	return "question_banks"
}
