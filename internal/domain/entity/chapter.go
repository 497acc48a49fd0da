// Package entity 定义领域实体
package entity

import (
	"math"
	"regexp"
	"time"
)

// WordsPerMinute 阅读时长估算的阅读速度
const WordsPerMinute = 200

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Chapter 章节实体
type Chapter struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	NovelID       int64     `json:"novel_id" gorm:"index;not null"`
	Title         string    `json:"title" gorm:"type:varchar(255);index"`
	Content       string    `json:"content" gorm:"type:text"`
	ChapterNumber int       `json:"chapter_number" gorm:"not null"`
	WordCount     int       `json:"word_count" gorm:"default:0"`
	ReadingTime   float64   `json:"reading_time" gorm:"default:0"`
	IsPublished   bool      `json:"is_published" gorm:"default:false"`
	ViewsCount    int       `json:"views_count" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(novelID int64, title string, number int) *Chapter {
	now := time.Now()
	return &Chapter{
		NovelID:       novelID,
		Title:         title,
		ChapterNumber: number,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetContent 设置章节内容并重算字数与阅读时长
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = CountWords(content)
	c.ReadingTime = ReadingTime(c.WordCount)
	c.UpdatedAt = time.Now()
}

// Tail 章节末尾最多 n 个字符
func (c *Chapter) Tail(n int) string {
	r := []rune(c.Content)
	if n <= 0 || len(r) <= n {
		return c.Content
	}
	return string(r[len(r)-n:])
}

// CountWords 统计由字母、数字、下划线组成的词数
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// ReadingTime 阅读分钟数，保留两位小数
func ReadingTime(wordCount int) float64 {
	if wordCount <= 0 {
		return 0
	}
	return math.Round(float64(wordCount)/WordsPerMinute*100) / 100
}
