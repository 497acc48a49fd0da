package continuation

import (
	"context"
	"strings"
	"time"

	"novel-copilot-api/pkg/logger"
	"novel-copilot-api/pkg/metrics"
)

const (
	smartMaxResults   = 3
	smartTokenCeiling = 100
)

// SmartSuggester 顺序生成多条候选建议，单次失败不影响整体
type SmartSuggester struct {
	engine   *Engine
	attempts int
	pause    time.Duration
}

// NewSmartSuggester 创建多候选生成器，attempts 非正时取 3，pause 为负时取 300ms
func NewSmartSuggester(engine *Engine, attempts int, pause time.Duration) *SmartSuggester {
	if attempts <= 0 {
		attempts = smartMaxResults
	}
	if pause < 0 {
		pause = 300 * time.Millisecond
	}
	return &SmartSuggester{engine: engine, attempts: attempts, pause: pause}
}

// Generate 最多返回 3 条非空建议。
// 所有尝试都失败或为空时执行一次兜底调用，兜底也失败才返回错误。
func (s *SmartSuggester) Generate(ctx context.Context, req Request) ([]*Result, error) {
	req.MaxLength = smartLength(req.MaxLength)

	var results []*Result
	for i := 0; i < s.attempts && len(results) < smartMaxResults; i++ {
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return s.finish(ctx, req, results)
			case <-time.After(s.pause):
			}
		}

		res, err := s.engine.Suggest(ctx, req)
		if err != nil {
			logger.Warn(ctx, "smart suggestion attempt failed", "attempt", i+1, "error", err.Error())
			continue
		}
		if strings.TrimSpace(res.Text) == "" {
			continue
		}
		results = append(results, res)
	}

	return s.finish(ctx, req, results)
}

func (s *SmartSuggester) finish(ctx context.Context, req Request, results []*Result) ([]*Result, error) {
	if len(results) > 0 {
		metrics.SmartSuggestionCount.Observe(float64(len(results)))
		return results, nil
	}

	req.MaxLength = smartTokenCeiling
	res, err := s.engine.Suggest(ctx, req)
	if err != nil {
		metrics.SmartSuggestionCount.Observe(0)
		return nil, err
	}
	metrics.SmartSuggestionCount.Observe(1)
	return []*Result{res}, nil
}

func smartLength(requested int) int {
	if requested <= 0 || requested > smartTokenCeiling {
		return smartTokenCeiling
	}
	return requested
}
