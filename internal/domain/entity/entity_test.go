package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWordsAndReadingTime(t *testing.T) {
	tests := []struct {
		text    string
		words   int
		minutes float64
	}{
		{"", 0, 0},
		{"   ", 0, 0},
		{"Hello, world!", 2, 0.01},
		{"it's snake_case 42", 4, 0.02},
		{"Привет мир", 2, 0.01},
	}
	for _, tt := range tests {
		got := CountWords(tt.text)
		assert.Equal(t, tt.words, got, tt.text)
		assert.Equal(t, tt.minutes, ReadingTime(got), tt.text)
	}

	assert.Equal(t, 1.5, ReadingTime(300))
	assert.Equal(t, 0.33, ReadingTime(66))
}

func TestChapter_SetContentAndTail(t *testing.T) {
	c := NewChapter(1, "One", 1)
	c.SetContent("The rain fell heavily on the old town.")

	assert.Equal(t, 8, c.WordCount)
	assert.Equal(t, 0.04, c.ReadingTime)
	assert.Equal(t, "town.", c.Tail(5))
	assert.Equal(t, c.Content, c.Tail(0))
	assert.Equal(t, c.Content, c.Tail(1000))
}

func TestNovel_WorkContextAndAccess(t *testing.T) {
	n := NewNovel("u1", "Tides")
	assert.Equal(t, "", n.WorkContext())

	n.Genre = "fantasy"
	assert.Equal(t, "Genre: fantasy.", n.WorkContext())

	n.Description = "A coastal saga"
	assert.Equal(t, "Genre: fantasy. Description: A coastal saga", n.WorkContext())

	assert.True(t, n.CanRead("u1"))
	assert.False(t, n.CanRead("u2"))
	n.IsPublic = true
	assert.True(t, n.CanRead("u2"))
	assert.False(t, n.IsOwnedBy("u2"))
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
}
