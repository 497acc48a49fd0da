package dto

import (
	"time"

	"novel-copilot-api/internal/application/novel"
	"novel-copilot-api/internal/domain/entity"
)

// CreateChapterRequest 创建章节请求
type CreateChapterRequest struct {
	Title         string `json:"title" binding:"max=255"`
	Content       string `json:"content"`
	ChapterNumber int    `json:"chapter_number" binding:"gte=0"`
	IsPublished   bool   `json:"is_published"`
}

// ToInput 转换为应用层参数
func (r *CreateChapterRequest) ToInput() novel.ChapterInput {
	return novel.ChapterInput{
		Title:         r.Title,
		Content:       r.Content,
		ChapterNumber: r.ChapterNumber,
		IsPublished:   r.IsPublished,
	}
}

// UpdateChapterRequest 更新章节请求
type UpdateChapterRequest struct {
	Title         *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Content       *string `json:"content,omitempty"`
	ChapterNumber *int    `json:"chapter_number,omitempty" binding:"omitempty,gte=1"`
	IsPublished   *bool   `json:"is_published,omitempty"`
}

// ToPatch 转换为应用层参数
func (r *UpdateChapterRequest) ToPatch() novel.ChapterPatch {
	return novel.ChapterPatch{
		Title:         r.Title,
		Content:       r.Content,
		ChapterNumber: r.ChapterNumber,
		IsPublished:   r.IsPublished,
	}
}

// ChapterResponse 章节响应
type ChapterResponse struct {
	ID            int64     `json:"id"`
	NovelID       int64     `json:"novel_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content,omitempty"`
	ChapterNumber int       `json:"chapter_number"`
	WordCount     int       `json:"word_count"`
	ReadingTime   float64   `json:"reading_time"`
	IsPublished   bool      `json:"is_published"`
	ViewsCount    int       `json:"views_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChapterListResponse 章节列表响应
type ChapterListResponse struct {
	Chapters []*ChapterResponse `json:"chapters"`
}

// ToChapterResponse 将实体转换为响应
func ToChapterResponse(c *entity.Chapter) *ChapterResponse {
	if c == nil {
		return nil
	}
	return &ChapterResponse{
		ID:            c.ID,
		NovelID:       c.NovelID,
		Title:         c.Title,
		Content:       c.Content,
		ChapterNumber: c.ChapterNumber,
		WordCount:     c.WordCount,
		ReadingTime:   c.ReadingTime,
		IsPublished:   c.IsPublished,
		ViewsCount:    c.ViewsCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToChapterListResponse 转换章节列表，列表中不返回正文
func ToChapterListResponse(items []*entity.Chapter) *ChapterListResponse {
	out := make([]*ChapterResponse, 0, len(items))
	for _, c := range items {
		resp := ToChapterResponse(c)
		resp.Content = ""
		out = append(out, resp)
	}
	return &ChapterListResponse{Chapters: out}
}
