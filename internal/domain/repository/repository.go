// Package repository 声明小说、章节、建议、用户与用量流水的持久化接口，
// 以及各实现共用的分页与事务约定。实现位于 infrastructure/persistence/postgres。
package repository

import (
	"context"
)

// 列表接口的分页约束
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TxKey 事务连接在 context 中的键
type TxKey struct{}

// Transactor 章节写入与小说字数回写需要在同一事务内完成
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 页码从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 将越界的页码与页大小修正到 [1, MaxPageSize]
func NewPagination(page, pageSize int) Pagination {
	p := Pagination{Page: max(page, 1), PageSize: pageSize}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) Limit() int {
	return p.PageSize
}

// PagedResult 一页数据及总数
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult items 为 nil 时返回空切片，保证 JSON 输出为 []
func NewPagedResult[T any](items []T, total int64, p Pagination) *PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	res := &PagedResult[T]{
		Items:    items,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
	if p.PageSize > 0 {
		res.TotalPages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return res
}
