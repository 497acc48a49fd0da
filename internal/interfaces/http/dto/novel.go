package dto

import (
	"time"

	"novel-copilot-api/internal/application/novel"
	"novel-copilot-api/internal/domain/entity"
)

// CreateNovelRequest 创建小说请求
type CreateNovelRequest struct {
	Title         string `json:"title" binding:"required,max=255"`
	Description   string `json:"description" binding:"max=5000"`
	Genre         string `json:"genre" binding:"max=100"`
	Status        string `json:"status" binding:"omitempty,oneof=draft published completed"`
	IsPublic      bool   `json:"is_public"`
	CoverImageURL string `json:"cover_image_url" binding:"omitempty,max=512"`
}

// ToInput 转换为应用层参数
func (r *CreateNovelRequest) ToInput() novel.NovelInput {
	return novel.NovelInput{
		Title:         r.Title,
		Description:   r.Description,
		Genre:         r.Genre,
		Status:        entity.NovelStatus(r.Status),
		IsPublic:      r.IsPublic,
		CoverImageURL: r.CoverImageURL,
	}
}

// UpdateNovelRequest 更新小说请求
type UpdateNovelRequest struct {
	Title         *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Description   *string `json:"description,omitempty" binding:"omitempty,max=5000"`
	Genre         *string `json:"genre,omitempty" binding:"omitempty,max=100"`
	Status        *string `json:"status,omitempty" binding:"omitempty,oneof=draft published completed"`
	IsPublic      *bool   `json:"is_public,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty" binding:"omitempty,max=512"`
}

// ToPatch 转换为应用层参数
func (r *UpdateNovelRequest) ToPatch() novel.NovelPatch {
	patch := novel.NovelPatch{
		Title:         r.Title,
		Description:   r.Description,
		Genre:         r.Genre,
		IsPublic:      r.IsPublic,
		CoverImageURL: r.CoverImageURL,
	}
	if r.Status != nil {
		status := entity.NovelStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// NovelResponse 小说响应
type NovelResponse struct {
	ID            int64     `json:"id"`
	AuthorID      string    `json:"author_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Genre         string    `json:"genre,omitempty"`
	Status        string    `json:"status"`
	IsPublic      bool      `json:"is_public"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NovelListResponse 小说列表响应
type NovelListResponse struct {
	Novels []*NovelResponse `json:"novels"`
}

// ToNovelResponse 将实体转换为响应
func ToNovelResponse(n *entity.Novel) *NovelResponse {
	if n == nil {
		return nil
	}
	return &NovelResponse{
		ID:            n.ID,
		AuthorID:      n.AuthorID,
		Title:         n.Title,
		Description:   n.Description,
		Genre:         n.Genre,
		Status:        string(n.Status),
		IsPublic:      n.IsPublic,
		CoverImageURL: n.CoverImageURL,
		WordCount:     n.WordCount,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

// ToNovelListResponse 转换小说列表
func ToNovelListResponse(items []*entity.Novel) *NovelListResponse {
	out := make([]*NovelResponse, 0, len(items))
	for _, n := range items {
		out = append(out, ToNovelResponse(n))
	}
	return &NovelListResponse{Novels: out}
}
