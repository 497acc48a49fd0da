package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// MessageTypeSuggestionGenerate 智能建议生成任务
const MessageTypeSuggestionGenerate = "suggestion_generate"

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", id))
	return id, nil
}

// PublishSuggestionJob 发布异步智能建议任务
func (p *Producer) PublishSuggestionJob(ctx context.Context, job *SuggestionJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MessageTypeSuggestionGenerate, job.UserID, job)
	if err != nil {
		return "", err
	}
	if job.RequestID != "" {
		msg.SetMetadata("request_id", job.RequestID)
	}
	return p.Publish(ctx, StreamSuggestionGen, msg)
}

// SuggestionJobMessage 智能建议任务载荷
type SuggestionJobMessage struct {
	JobID     string `json:"job_id"`
	UserID    string `json:"user_id"`
	NovelID   *int64 `json:"novel_id,omitempty"`
	ChapterID *int64 `json:"chapter_id,omitempty"`
	Context   string `json:"context"`
	Style     string `json:"style,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
