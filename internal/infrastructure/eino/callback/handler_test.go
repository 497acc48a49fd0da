package callback

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-copilot-api/internal/domain/service"
)

type recorderStub struct {
	inputs []service.LLMUsageInput
	err    error
}

func (r *recorderStub) Record(_ context.Context, in service.LLMUsageInput) error {
	r.inputs = append(r.inputs, in)
	return r.err
}

func TestChatModelHandler_RecordsUsageOnEnd(t *testing.T) {
	rec := &recorderStub{err: errors.New("db down")}
	h := newChatModelCallbackHandler(rec)

	ctx := service.WithWorkflowProvider(context.Background(), "continuation_inline", "openai")
	ctx = service.WithUser(ctx, "user-1")
	info := &einocb.RunInfo{Name: "chat", Type: "OpenAI"}

	ctx = h.OnStart(ctx, info, &model.CallbackInput{Config: &model.Config{Model: "gpt-4o-mini"}})
	h.OnEnd(ctx, info, &model.CallbackOutput{
		TokenUsage: &model.TokenUsage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
	})

	require.Len(t, rec.inputs, 1)
	got := rec.inputs[0]
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "continuation_inline", got.Workflow)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 12, got.PromptTokens)
	assert.Equal(t, 4, got.CompletionTokens)
	assert.True(t, got.Success)
}

func TestChatModelHandler_RecordsFailure(t *testing.T) {
	rec := &recorderStub{}
	h := newChatModelCallbackHandler(rec)

	ctx := h.OnStart(context.Background(), nil, &model.CallbackInput{Config: &model.Config{Model: "gpt-4o-mini"}})
	h.OnError(ctx, nil, errors.New("timeout"))

	require.Len(t, rec.inputs, 1)
	assert.False(t, rec.inputs[0].Success)
	assert.Equal(t, "unknown", rec.inputs[0].Workflow)
	assert.Equal(t, "gpt-4o-mini", rec.inputs[0].Model)
	assert.Equal(t, "", rec.inputs[0].UserID)
}

func TestChatModelHandler_NilRecorder(t *testing.T) {
	h := newChatModelCallbackHandler(nil)
	assert.NotPanics(t, func() {
		ctx := h.OnStart(context.Background(), nil, nil)
		h.OnEnd(ctx, nil, nil)
	})
}
