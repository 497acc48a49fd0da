// Package entity 定义领域实体
package entity

import (
	"time"
)

// NovelStatus 小说状态
type NovelStatus string

const (
	NovelStatusDraft     NovelStatus = "draft"
	NovelStatusPublished NovelStatus = "published"
	NovelStatusCompleted NovelStatus = "completed"
)

// Novel 小说实体
type Novel struct {
	ID            int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID      string      `json:"author_id" gorm:"type:varchar(64);index;not null"`
	Title         string      `json:"title" gorm:"type:varchar(255);index;not null"`
	Description   string      `json:"description,omitempty" gorm:"type:text"`
	Genre         string      `json:"genre,omitempty" gorm:"type:varchar(100)"`
	Status        NovelStatus `json:"status" gorm:"type:varchar(50);default:'draft'"`
	IsPublic      bool        `json:"is_public" gorm:"default:false"`
	CoverImageURL string      `json:"cover_image_url,omitempty" gorm:"type:varchar(512)"`
	WordCount     int         `json:"word_count" gorm:"default:0"`
	CreatedAt     time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Novel) TableName() string {
	return "novels"
}

// NewNovel 创建新小说
func NewNovel(authorID, title string) *Novel {
	now := time.Now()
	return &Novel{
		AuthorID:  authorID,
		Title:     title,
		Status:    NovelStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy 检查作者
func (n *Novel) IsOwnedBy(userID string) bool {
	return n.AuthorID == userID
}

// CanRead 作者或公开作品可读
func (n *Novel) CanRead(userID string) bool {
	return n.IsPublic || n.IsOwnedBy(userID)
}

// WorkContext 续写提示词使用的作品背景
func (n *Novel) WorkContext() string {
	var s string
	if n.Genre != "" {
		s = "Genre: " + n.Genre + "."
	}
	if n.Description != "" {
		if s != "" {
			s += " "
		}
		s += "Description: " + n.Description
	}
	return s
}
