package model

import "time"

// VocabItem is one vocabulary entry of the course content.
// swagger:model VocabItem
type VocabItem struct {
	BaseModel
	Word        string `gorm:"size:100;not null" json:"word"`
	Pinyin      string `gorm:"size:100" json:"pinyin"`
	Translation string `gorm:"size:255" json:"translation"`
	Level       string `gorm:"size:20;index" json:"level"`
	AudioKey    string `gorm:"size:255" json:"audioKey,omitempty"`
	Enabled     bool   `gorm:"default:true" json:"enabled"`
}

func (VocabItem) TableName() string {
	return "vocab_items"
}

// VocabProgress tracks one learner's mastery state for one item. The status
// moves to "learned" only through an all-correct validation quiz.
type VocabProgress struct {
	BaseModel
	UserID      uint       `gorm:"index:idx_vocab_user_item,unique;type:bigint unsigned" json:"userId"`
	VocabItemID uint       `gorm:"index:idx_vocab_user_item,unique;type:bigint unsigned" json:"vocabItemId"`
	Status      string     `gorm:"size:20;default:'studying'" json:"status"` // studying, learned
	QuizCount   int        `gorm:"default:0" json:"quizCount"`
	LastQuizAt  *time.Time `json:"lastQuizAt,omitempty"`
}

func (VocabProgress) TableName() string {
	return "vocab_progress"
}
