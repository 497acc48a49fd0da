package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
	llmCtxKeyUser     llmCtxKey = "llm_user"
)

func withTrimmed(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func fromContext(ctx context.Context, key llmCtxKey, def string) string {
	if ctx == nil {
		return def
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return withTrimmed(ctx, llmCtxKeyWorkflow, workflow)
}

func WithProvider(ctx context.Context, provider string) context.Context {
	return withTrimmed(ctx, llmCtxKeyProvider, provider)
}

// WithUser 标记调用归属的用户，用于用量流水
func WithUser(ctx context.Context, userID string) context.Context {
	return withTrimmed(ctx, llmCtxKeyUser, userID)
}

func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithProvider(WithWorkflow(ctx, workflow), provider)
}

func WorkflowFromContext(ctx context.Context) string {
	return fromContext(ctx, llmCtxKeyWorkflow, "unknown")
}

func ProviderFromContext(ctx context.Context) string {
	return fromContext(ctx, llmCtxKeyProvider, "unknown")
}

// UserFromContext 未标记时返回空字符串
func UserFromContext(ctx context.Context) string {
	return fromContext(ctx, llmCtxKeyUser, "")
}
