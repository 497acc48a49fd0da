package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination_Clamps(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 10, 1, 10},
		{2, 500, 2, MaxPageSize},
		{3, 25, 3, 25},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p.Page)
		assert.Equal(t, tt.wantSize, p.PageSize)
	}
	assert.Equal(t, 50, NewPagination(3, 25).Offset())
}

func TestNewPagedResult(t *testing.T) {
	res := NewPagedResult[string](nil, 41, NewPagination(1, 20))
	assert.NotNil(t, res.Items)
	assert.Equal(t, 3, res.TotalPages)

	assert.Equal(t, 0, NewPagedResult([]int{}, 0, NewPagination(1, 20)).TotalPages)
	assert.Equal(t, 0, NewPagedResult([]int{}, 5, Pagination{Page: 1}).TotalPages)
}
