package model

import (
	"encoding/json"
	"time"
)

// PlacementResult is the persisted terminal artifact of one placement
// attempt. Counts cover the final scored phase only.
// swagger:model PlacementResult
type PlacementResult struct {
	UUIDBase
	SessionID      string          `gorm:"size:36;uniqueIndex" json:"sessionId"`
	UserID         uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	User           *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product        string          `gorm:"size:50;index" json:"product"`
	Level          string          `gorm:"size:20" json:"level"`
	CorrectCount   int             `json:"correctCount"`
	TotalQuestions int             `json:"totalQuestions"`
	Score          int             `json:"score"`
	BranchTrail    json.RawMessage `gorm:"type:json" json:"branchTrail"`
	RewardXP       int             `gorm:"default:0" json:"rewardXp"`
	RewardCoins    int             `gorm:"default:0" json:"rewardCoins"`
	CompletedAt    time.Time       `json:"completedAt"`
}

func (PlacementResult) TableName() string {
	return "placement_results"
}
