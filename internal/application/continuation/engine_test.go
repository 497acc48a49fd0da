package continuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-copilot-api/internal/application/storycontext"
	"novel-copilot-api/internal/domain/service"
)

type reply struct {
	text string
	err  error
}

// scriptedModel 按顺序返回预设回复，并记录每次调用
type scriptedModel struct {
	mu       sync.Mutex
	replies  []reply
	calls    [][]*schema.Message
	options  []*model.Options
	sampling []service.Sampling
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, input)
	m.options = append(m.options, model.GetCommonOptions(&model.Options{}, opts...))
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: r.text,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 40, CompletionTokens: 5, TotalTokens: 45},
		},
	}, nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeFactory struct {
	model *scriptedModel
	err   error
}

func (f *fakeFactory) Get(_ context.Context, _ string, s service.Sampling) (model.BaseChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.model.mu.Lock()
	f.model.sampling = append(f.model.sampling, s)
	f.model.mu.Unlock()
	return f.model, nil
}

func (f *fakeFactory) ModelName(string) string { return "gpt-test" }

func newTestEngine(replies ...reply) (*Engine, *scriptedModel) {
	m := &scriptedModel{replies: replies}
	return NewEngine(&fakeFactory{model: m}, "openai", WithTimeout(time.Second)), m
}

func TestEngine_InlineRetryAdoptsLongerResult(t *testing.T) {
	e, m := newTestEngine(reply{text: "then"}, reply{text: "she ran outside"})

	res, err := e.Inline(context.Background(), Request{Context: "He waited and"})
	require.NoError(t, err)

	assert.Equal(t, "she ran outside", res.Text)
	assert.True(t, res.Retried)
	assert.Equal(t, 2, m.callCount())
	assert.Equal(t, m.calls[0], m.calls[1], "retry must reuse the same prompt")
	assert.InDelta(t, 0.45, *m.options[0].Temperature, 1e-6)
	assert.InDelta(t, 0.65, *m.options[1].Temperature, 1e-6)
	assert.Equal(t, 10, res.CompletionTokens)
}

func TestEngine_InlineRetryKeepsOriginalWhenStillShort(t *testing.T) {
	e, m := newTestEngine(reply{text: "then"}, reply{text: "again"})

	res, err := e.Inline(context.Background(), Request{Context: "He waited and"})
	require.NoError(t, err)

	assert.Equal(t, "then", res.Text)
	assert.False(t, res.Retried)
	assert.Equal(t, 2, m.callCount())
}

func TestEngine_InlineRetryFailureKeepsOriginal(t *testing.T) {
	e, m := newTestEngine(reply{text: "then"}, reply{err: errors.New("boom")})

	res, err := e.Inline(context.Background(), Request{Context: "He waited and"})
	require.NoError(t, err)

	assert.Equal(t, "then", res.Text)
	assert.Equal(t, 2, m.callCount())
}

func TestEngine_InlineNoRetryWhenLongEnough(t *testing.T) {
	e, m := newTestEngine(reply{text: "she ran outside"})

	res, err := e.Inline(context.Background(), Request{Context: "He waited and"})
	require.NoError(t, err)

	assert.Equal(t, "she ran outside", res.Text)
	assert.Equal(t, 1, m.callCount())
}

func TestEngine_SuggestionNeverRetries(t *testing.T) {
	e, m := newTestEngine(reply{text: "then"})

	res, err := e.Suggest(context.Background(), Request{Context: "He waited and", MaxLength: 500})
	require.NoError(t, err)

	assert.Equal(t, "then", res.Text)
	assert.Equal(t, 1, m.callCount())
	require.NotNil(t, m.options[0].MaxTokens)
	assert.Equal(t, 120, *m.options[0].MaxTokens)
	assert.Equal(t, 120, m.sampling[0].MaxTokens)
}

func TestEngine_InlineEndToEnd(t *testing.T) {
	e, m := newTestEngine(reply{text: "\"town. the streets flooded\nwithin minutes while everyone slept\""})

	res, err := e.Inline(context.Background(), Request{Context: "The rain fell heavily on the old town."})
	require.NoError(t, err)

	words := strings.Fields(res.Text)
	assert.GreaterOrEqual(t, len(words), 2)
	assert.LessOrEqual(t, len(words), 6)
	assert.Equal(t, "The streets flooded within minutes while", res.Text)
	assert.NotContains(t, res.Text, "town.")
	assert.Equal(t, 1, m.callCount())

	msgs := m.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, inlineSystemPrompt, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "Text to continue:\nThe rain fell heavily on the old town.")
	assert.Equal(t, "gpt-test", res.Model)
	assert.Equal(t, "openai", res.Provider)
}

func TestEngine_NotConfigured(t *testing.T) {
	e := NewEngine(nil, "openai")
	_, err := e.Inline(context.Background(), Request{Context: "Some text here"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	e = NewEngine(&fakeFactory{err: fmt.Errorf("provider openai: %w", service.ErrLLMNotConfigured)}, "openai")
	_, err = e.Suggest(context.Background(), Request{Context: "Some text here"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	var genErr *GenerationError
	assert.False(t, errors.As(err, &genErr))
}

func TestEngine_GenerationErrorCarriesCause(t *testing.T) {
	cause := errors.New("upstream 500")
	e, m := newTestEngine(reply{err: cause})

	_, err := e.Inline(context.Background(), Request{Context: "He waited and"})
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, KindInline, genErr.Mode)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, m.callCount(), "call failures are not retried")
}

func TestEngine_FullContextOnlyWhenComplete(t *testing.T) {
	store := storycontext.NewStore()
	store.AddCharacter("Mara", "a lighthouse keeper", []string{"stubborn"})
	chapterID := int64(7)
	store.AddChapterSummary(chapterID, "Mara finds the wreck.")

	e, m := newTestEngine(reply{text: "she ran outside"}, reply{text: "she ran outside"})

	_, err := e.Inline(context.Background(), Request{
		Context:        "Mara looked at the sea and",
		ChapterID:      &chapterID,
		ChapterContent: "The storm had passed.",
		UseFullContext: true,
		Story:          store,
	})
	require.NoError(t, err)
	prompt := m.calls[0][1].Content
	assert.True(t, strings.HasPrefix(prompt, "Story context (optional):\n"))
	assert.Contains(t, prompt, "- Mara: a lighthouse keeper (traits: stubborn)")
	assert.Contains(t, prompt, "Chapter context: Mara finds the wreck.")

	_, err = e.Inline(context.Background(), Request{
		Context:        "Mara looked at the sea and",
		ChapterID:      &chapterID,
		UseFullContext: true,
		Story:          store,
	})
	require.NoError(t, err)
	assert.NotContains(t, m.calls[1][1].Content, "Story context")
}

func TestSmartSuggester_SkipsFailedAttempts(t *testing.T) {
	e, m := newTestEngine(
		reply{text: "the first option keeps going"},
		reply{err: errors.New("flaky")},
		reply{text: "a third option arrives"},
	)
	s := NewSmartSuggester(e, 3, 0)

	results, err := s.Generate(context.Background(), Request{Context: "It began to snow and"})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "the first option keeps going", results[0].Text)
	assert.Equal(t, "a third option arrives", results[1].Text)
	assert.Equal(t, 3, m.callCount())
	assert.Equal(t, 100, *m.options[0].MaxTokens)
}

func TestSmartSuggester_FallbackAfterAllFail(t *testing.T) {
	e, m := newTestEngine(
		reply{err: errors.New("a")},
		reply{err: errors.New("b")},
		reply{err: errors.New("c")},
		reply{text: "fallback text appears"},
	)
	s := NewSmartSuggester(e, 3, 0)

	results, err := s.Generate(context.Background(), Request{Context: "It began to snow and"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fallback text appears", results[0].Text)
	assert.Equal(t, 4, m.callCount())
}

func TestSmartSuggester_FallbackFailureSurfaces(t *testing.T) {
	e, _ := newTestEngine(
		reply{err: errors.New("a")},
		reply{err: errors.New("b")},
		reply{err: errors.New("c")},
		reply{err: errors.New("d")},
	)
	s := NewSmartSuggester(e, 3, 0)

	results, err := s.Generate(context.Background(), Request{Context: "It began to snow and"})
	require.Error(t, err)
	assert.Nil(t, results)
}
