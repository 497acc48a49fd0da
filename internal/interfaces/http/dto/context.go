package dto

// AddCharacterRequest 添加人物请求
type AddCharacterRequest struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
}

// StyleRequest 风格偏好请求，未知键被忽略
type StyleRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// SceneRequest 当前场景请求
type SceneRequest struct {
	Scene string `json:"scene"`
}

// ChapterSummaryRequest 章节摘要请求
type ChapterSummaryRequest struct {
	ChapterID int64  `json:"chapter_id" binding:"required"`
	Summary   string `json:"summary" binding:"required"`
}

// HistoryRequest 写作历史请求
type HistoryRequest struct {
	Text      string `json:"text" binding:"required"`
	ChapterID *int64 `json:"chapter_id,omitempty"`
}

// ImportContextRequest 导入请求，context 为导出的 JSON 字符串
type ImportContextRequest struct {
	Context string `json:"context" binding:"required"`
}

// ExportContextResponse 导出响应
type ExportContextResponse struct {
	Context string `json:"context"`
}
