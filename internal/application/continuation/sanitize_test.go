package continuation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_StripsOverlap(t *testing.T) {
	got := Sanitize("sat quietly on the mat", "In the corner the cat sat", SuggestionMode(0))
	assert.Equal(t, "quietly on the mat", got)
}

func TestSanitize_OverlapIsCaseInsensitive(t *testing.T) {
	got := Sanitize("The Cat Sat quietly", "the cat sat", InlineMode())
	assert.Equal(t, "quietly", got)
}

func TestSanitize_OverlapMatchesCharactersNotWords(t *testing.T) {
	assert.Equal(t, "op the mat", Sanitize("atop the mat", "the cat sat", SuggestionMode(0)))
	assert.Equal(t, "isfied, she left", Sanitize("satisfied, she left", "the cat sat", SuggestionMode(0)))
	assert.Equal(t, "othing happened", Sanitize("nothing happened", "and then", InlineMode()))
}

func TestSanitize_OverlapBoundedByWindow(t *testing.T) {
	input := "he said " + strings.Repeat("very ", 10) + "slowly"
	raw := strings.Repeat("very ", 10) + "slowly and then stopped"
	got := Sanitize(raw, input, InlineMode())
	// 重叠超过上限时不做去重
	assert.Equal(t, "very very very very very very", got)
}

func TestSanitize_CapitalizesAfterSentenceEnd(t *testing.T) {
	got := Sanitize("she left", "It was late and then.", InlineMode())
	assert.Equal(t, "She left", got)

	got = Sanitize("  \"she left\"  ", "Nobody spoke!  ", SuggestionMode(0))
	assert.Equal(t, "She left", got)
}

func TestSanitize_KeepsCaseMidSentence(t *testing.T) {
	got := Sanitize("she left", "It was late and then", InlineMode())
	assert.Equal(t, "she left", got)
}

func TestSanitize_Idempotent(t *testing.T) {
	clean := "the wind carried her voice away"
	assert.Equal(t, clean, Sanitize(clean, "She called out and", InlineMode()))
	assert.Equal(t, clean, Sanitize(Sanitize(clean, "x", SuggestionMode(0)), "x", SuggestionMode(0)))
}

func TestSanitize_WordCaps(t *testing.T) {
	long := strings.Repeat("word ", 40)

	inline := Sanitize(long, "Start", InlineMode())
	assert.Len(t, strings.Fields(inline), 6)

	suggestion := Sanitize(long, "Start", SuggestionMode(0))
	assert.Len(t, strings.Fields(suggestion), 20)
}

func TestSanitize_Newlines(t *testing.T) {
	raw := "first line\n\n\n\nsecond line"

	assert.Equal(t, "first line\n\nsecond line", Sanitize(raw, "x", SuggestionMode(0)))
	assert.Equal(t, "first line second line", Sanitize(raw, "x", InlineMode()))
	assert.Equal(t, "a b", Sanitize("a\r\nb", "x", InlineMode()))
}

func TestSanitize_QuotesOnlyWhenWrapping(t *testing.T) {
	assert.Equal(t, `she said "go" softly`, Sanitize(`she said "go" softly`, "x", SuggestionMode(0)))
	assert.Equal(t, "go on", Sanitize(`"go on"`, "x", SuggestionMode(0)))
}

func TestSanitize_EmptyInputs(t *testing.T) {
	assert.Equal(t, "", Sanitize("", "", InlineMode()))
	assert.Equal(t, "", Sanitize(`""`, "Done.", InlineMode()))
	assert.Equal(t, "hello there", Sanitize("hello there", "", SuggestionMode(0)))
}

func TestSanitize_WholeOutputIsOverlap(t *testing.T) {
	assert.Equal(t, "", Sanitize("the cat sat", "the cat sat", InlineMode()))
}

func TestStep_RecoversFromPanic(t *testing.T) {
	got := step("keep me", func(string) string { panic("boom") })
	assert.Equal(t, "keep me", got)
}
