package model

import "encoding/json"

// PracticeRecord stores one immediately scored practice submission. Unlike
// the adaptive placement flow, practice evaluates on every submit.
type PracticeRecord struct {
	BaseModel
	UserID     uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	QuestionID uint            `gorm:"index;type:bigint unsigned" json:"questionId"`
	Answer     json.RawMessage `gorm:"type:json" json:"answer"`
	IsCorrect  bool            `gorm:"default:false" json:"isCorrect"`
}

func (PracticeRecord) TableName() string {
	return "practice_records"
}
