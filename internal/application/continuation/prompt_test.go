package continuation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicDetector(t *testing.T) {
	d := HeuristicDetector{}

	tests := []struct {
		name string
		text string
		want StyleSignals
	}{
		{
			name: "empty text keeps defaults",
			text: "",
			want: DefaultStyleSignals(),
		},
		{
			name: "short past sentences",
			text: "She was tired. He had left. It rained.",
			want: StyleSignals{SentenceLength: "short", Complexity: "medium", Tone: "neutral", Tense: "past"},
		},
		{
			name: "present tense",
			text: "The house is quiet tonight and the dogs are asleep",
			want: StyleSignals{SentenceLength: "medium", Complexity: "medium", Tone: "neutral", Tense: "present"},
		},
		{
			name: "past marker wins over present",
			text: "It is strange that she was here",
			want: StyleSignals{SentenceLength: "short", Complexity: "medium", Tone: "neutral", Tense: "past"},
		},
		{
			name: "emotional tone is case insensitive",
			text: "She WHISPERED his name!",
			want: StyleSignals{SentenceLength: "short", Complexity: "medium", Tone: "emotional", Tense: "past"},
		},
		{
			name: "long sentence",
			text: "The caravan wound slowly through the valley while the merchants argued about prices and the children counted stars above the dunes",
			want: StyleSignals{SentenceLength: "long", Complexity: "medium", Tone: "neutral", Tense: "past"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestBuildPrompt_FullOrder(t *testing.T) {
	signals := StyleSignals{SentenceLength: "short", Tense: "past", Tone: "neutral"}
	got := BuildPrompt(PromptInput{
		Text:           "  The door opened.  ",
		WorkContext:    "Genre: mystery",
		Detected:       &signals,
		RequestedStyle: "noir",
		StoryContext:   "Current scene: a rainy pier",
	})

	want := "Story context (optional):\nCurrent scene: a rainy pier\n\n" +
		"Work context (optional):\nGenre: mystery\n\n" +
		"Authorial style hints (not strict, use as guidance):\n" +
		"- Typical sentence length: short; narrative tense: past; tone: neutral\n" +
		"- Requested style emphasis: noir\n\n" +
		"Text to continue:\nThe door opened.\n\n" +
		closingInstruction
	assert.Equal(t, want, got)
}

func TestBuildPrompt_OmittedBlocksLeaveNoGaps(t *testing.T) {
	got := BuildPrompt(PromptInput{Text: "Once upon a time"})

	assert.Equal(t, "Text to continue:\nOnce upon a time\n\n"+closingInstruction, got)
	assert.NotContains(t, got, "\n\n\n")
}

func TestBuildPrompt_RequestedStyleOnly(t *testing.T) {
	got := BuildPrompt(PromptInput{Text: "x", RequestedStyle: "lyrical"})

	assert.True(t, strings.HasPrefix(got, "Authorial style hints (not strict, use as guidance):\n- Requested style emphasis: lyrical\n\n"))
	assert.NotContains(t, got, "Typical sentence length")
}
