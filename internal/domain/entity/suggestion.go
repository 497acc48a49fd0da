// Package entity 定义领域实体
package entity

import (
	"time"
)

// SuggestionType 建议类型
type SuggestionType string

const (
	SuggestionTypeContinuation SuggestionType = "continuation"
	SuggestionTypeInline       SuggestionType = "inline"
	SuggestionTypePlotIdea     SuggestionType = "plot_idea"
	SuggestionTypeCharacter    SuggestionType = "character_development"
)

// Suggestion AI 建议实体
type Suggestion struct {
	ID             int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         string         `json:"user_id" gorm:"type:varchar(64);index;not null"`
	NovelID        *int64         `json:"novel_id,omitempty" gorm:"index"`
	ChapterID      *int64         `json:"chapter_id,omitempty" gorm:"index"`
	SuggestionType SuggestionType `json:"suggestion_type" gorm:"type:varchar(50);index;default:'continuation'"`
	Content        string         `json:"content" gorm:"type:text"`
	Context        string         `json:"context,omitempty" gorm:"type:text"`
	IsUsed         bool           `json:"is_used" gorm:"default:false"`
	Rating         *int           `json:"rating,omitempty"`
	ModelUsed      string         `json:"model_used,omitempty" gorm:"type:varchar(64)"`
	TokensUsed     int            `json:"tokens_used" gorm:"default:0"`
	IsDeleted      bool           `json:"-" gorm:"index;default:false"`
	DeletedAt      *time.Time     `json:"-"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Suggestion) TableName() string {
	return "ai_suggestions"
}

// MinRating / MaxRating 评分范围
const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating 检查评分是否在 1..5 内
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// IsOwnedBy 检查归属
func (s *Suggestion) IsOwnedBy(userID string) bool {
	return s.UserID == userID
}
