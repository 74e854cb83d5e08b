package model

import "encoding/json"

// PlacementQuestion is one row of the question bank. AnswerKey and
// SubQuestions are polymorphic JSON whose shape depends on QuestionType;
// the repository converts rows into typed engine questions and rejects
// mismatched keys at fetch time.
// swagger:model PlacementQuestion
type PlacementQuestion struct {
	BaseModel
	Level        string          `gorm:"size:20;index;not null" json:"level"` // hsk1..hsk6
	QuestionType string          `gorm:"size:50;not null" json:"questionType"`
	Prompt       string          `gorm:"type:text;not null" json:"prompt"`
	AudioKey     string          `gorm:"size:255" json:"audioKey,omitempty"` // 对象存储中的发音音频
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	AnswerKey    json.RawMessage `gorm:"type:json" json:"-"`
	SubQuestions json.RawMessage `gorm:"type:json" json:"-"`
	Explanation  string          `gorm:"type:text" json:"explanation,omitempty"`
	VocabItemID  *uint           `gorm:"index" json:"vocabItemId,omitempty"` // 关联词汇（掌握度小测验）
	Enabled      bool            `gorm:"default:true" json:"enabled"`
}

func (PlacementQuestion) TableName() string {
	return "placement_questions"
}

// SubQuestionRow is the stored shape of one reading comprehension
// sub-question.
type SubQuestionRow struct {
	Options   []string `json:"options"`
	AnswerKey int      `json:"answerKey"`
}
