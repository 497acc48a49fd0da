package dto

// InlineRequest 内联补全请求
type InlineRequest struct {
	Context   string `json:"context"`
	ChapterID *int64 `json:"chapter_id,omitempty"`
}

// InlineResponse 内联补全响应，失败时 success 为 false
type InlineResponse struct {
	Content    string `json:"content"`
	ModelUsed  string `json:"model_used,omitempty"`
	InlineMode bool   `json:"inline_mode"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// TestGenerateRequest 单次续写请求
type TestGenerateRequest struct {
	Context        string `json:"context" binding:"required"`
	InlineMode     bool   `json:"inline_mode"`
	Style          string `json:"style" binding:"omitempty,max=50"`
	MaxLength      int    `json:"max_length" binding:"omitempty,gte=1,lte=2000"`
	ChapterID      *int64 `json:"chapter_id,omitempty"`
	SuggestionType string `json:"suggestion_type" binding:"omitempty,max=50"`
}

// EffectiveMaxLength 未指定时按模式取默认长度
func (r *TestGenerateRequest) EffectiveMaxLength() int {
	if r.MaxLength > 0 {
		return r.MaxLength
	}
	if r.InlineMode {
		return 50
	}
	return 150
}

// TestGenerateResponse 单次续写响应
type TestGenerateResponse struct {
	Content        string `json:"content"`
	SuggestionType string `json:"suggestion_type"`
	ModelUsed      string `json:"model_used"`
	InlineMode     bool   `json:"inline_mode"`
	Success        bool   `json:"success"`
}

// AIHealthResponse AI 后端状态
type AIHealthResponse struct {
	Status           string `json:"status"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	OpenAIConfigured bool   `json:"openai_configured"`
	APIKeySet        bool   `json:"api_key_set"`
	Environment      string `json:"environment"`
}
