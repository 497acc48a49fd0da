package dto

import (
	"time"

	"novel-copilot-api/internal/application/suggestion"
	"novel-copilot-api/internal/domain/entity"
)

// GenerateSuggestionRequest 智能建议请求
type GenerateSuggestionRequest struct {
	SuggestionType string `json:"suggestion_type" binding:"omitempty,max=50"`
	Context        string `json:"context" binding:"required"`
	NovelID        *int64 `json:"novel_id,omitempty"`
	ChapterID      *int64 `json:"chapter_id,omitempty"`
	MaxLength      int    `json:"max_length" binding:"omitempty,gte=1,lte=2000"`
	Style          string `json:"style" binding:"omitempty,max=50"`
}

// ToInput 转换为应用层参数
func (r *GenerateSuggestionRequest) ToInput(userID string) suggestion.GenerateInput {
	maxLength := r.MaxLength
	if maxLength == 0 {
		maxLength = 200
	}
	return suggestion.GenerateInput{
		UserID:         userID,
		SuggestionType: entity.SuggestionType(r.SuggestionType),
		Context:        r.Context,
		NovelID:        r.NovelID,
		ChapterID:      r.ChapterID,
		MaxLength:      maxLength,
		Style:          r.Style,
	}
}

// UpdateSuggestionRequest 建议反馈请求
type UpdateSuggestionRequest struct {
	IsUsed *bool `json:"is_used,omitempty"`
	Rating *int  `json:"rating,omitempty"`
}

// SuggestionResponse 建议响应
type SuggestionResponse struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	NovelID        *int64    `json:"novel_id,omitempty"`
	ChapterID      *int64    `json:"chapter_id,omitempty"`
	SuggestionType string    `json:"suggestion_type"`
	Content        string    `json:"content"`
	Context        string    `json:"context,omitempty"`
	IsUsed         bool      `json:"is_used"`
	Rating         *int      `json:"rating,omitempty"`
	ModelUsed      string    `json:"model_used,omitempty"`
	TokensUsed     int       `json:"tokens_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// GenerateSuggestionResponse 首条建议与全部候选
type GenerateSuggestionResponse struct {
	*SuggestionResponse
	Alternatives []string `json:"alternatives"`
}

// SuggestionListResponse 建议列表响应
type SuggestionListResponse struct {
	Suggestions []*SuggestionResponse `json:"suggestions"`
}

// SuggestionJobResponse 异步任务受理响应
type SuggestionJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ToSuggestionResponse 将实体转换为响应
func ToSuggestionResponse(s *entity.Suggestion) *SuggestionResponse {
	if s == nil {
		return nil
	}
	return &SuggestionResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		NovelID:        s.NovelID,
		ChapterID:      s.ChapterID,
		SuggestionType: string(s.SuggestionType),
		Content:        s.Content,
		Context:        s.Context,
		IsUsed:         s.IsUsed,
		Rating:         s.Rating,
		ModelUsed:      s.ModelUsed,
		TokensUsed:     s.TokensUsed,
		CreatedAt:      s.CreatedAt,
	}
}

// ToSuggestionListResponse 转换建议列表
func ToSuggestionListResponse(items []*entity.Suggestion) *SuggestionListResponse {
	out := make([]*SuggestionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, ToSuggestionResponse(s))
	}
	return &SuggestionListResponse{Suggestions: out}
}
