package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-copilot-api/internal/config"
)

func TestBackoff_CalculateBackoff(t *testing.T) {
	b := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, b.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, b.CalculateBackoff(1))
	assert.Equal(t, 8*time.Second, b.CalculateBackoff(3))
	assert.Equal(t, 10*time.Second, b.CalculateBackoff(4))
	assert.Equal(t, 10*time.Second, b.CalculateBackoff(50))
}

func TestBackoffFromConfig(t *testing.T) {
	assert.Equal(t, DefaultBackoffConfig(), BackoffFromConfig(config.BackoffConfig{}))

	b := BackoffFromConfig(config.BackoffConfig{Initial: 2 * time.Second, Multiplier: 3})
	assert.Equal(t, 2*time.Second, b.Initial)
	assert.Equal(t, time.Minute, b.Max)
	assert.Equal(t, 3.0, b.Multiplier)
}

func TestMessage_PayloadAndMetadata(t *testing.T) {
	novelID := int64(7)
	job := &SuggestionJobMessage{JobID: "j1", UserID: "u1", NovelID: &novelID, Context: "The rain fell."}

	msg, err := NewMessage(job.JobID, MessageTypeSuggestionGenerate, job.UserID, job)
	require.NoError(t, err)
	assert.Equal(t, "", msg.GetMetadata("request_id"))

	msg.SetMetadata("request_id", "r1")
	assert.Equal(t, "r1", msg.GetMetadata("request_id"))

	var got SuggestionJobMessage
	require.NoError(t, msg.UnmarshalPayload(&got))
	assert.Equal(t, *job, got)
}

func TestStreamNames(t *testing.T) {
	assert.Equal(t, "dlq:stream:suggestion:gen", StreamSuggestionGen.DLQStream())
	assert.Equal(t, ConsumerGroupSuggestionWorker, GroupName("", ConsumerGroupSuggestionWorker))
	assert.Equal(t, ConsumerGroup("prod:cg-suggestion-worker"), GroupName("prod", ConsumerGroupSuggestionWorker))
}
