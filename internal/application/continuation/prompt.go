package continuation

import (
	"fmt"
	"strings"
)

const closingInstruction = "Task: Continue the text naturally in the same voice while preserving continuity and facts. Output only the continuation."

// PromptInput 提示词构建输入
type PromptInput struct {
	// Text 待续写的原文
	Text string
	// WorkContext 作品层面的背景（体裁、简介），可为空
	WorkContext string
	// Detected 启发式风格信号，为 nil 时不输出检测结果
	Detected *StyleSignals
	// RequestedStyle 调用方指定的风格标签
	RequestedStyle string
	// StoryContext 由叙事上下文渲染出的片段，可为空
	StoryContext string
}

// BuildPrompt 按固定顺序拼装最终提示词：故事上下文、作品上下文、风格提示、原文、结束指令。
// 各块之间恰好一个空行，缺省的块不留空隙。
func BuildPrompt(in PromptInput) string {
	var blocks []string

	if s := strings.TrimSpace(in.StoryContext); s != "" {
		blocks = append(blocks, "Story context (optional):\n"+s)
	}
	if s := strings.TrimSpace(in.WorkContext); s != "" {
		blocks = append(blocks, "Work context (optional):\n"+s)
	}

	requested := strings.TrimSpace(in.RequestedStyle)
	if in.Detected != nil || requested != "" {
		lines := []string{"Authorial style hints (not strict, use as guidance):"}
		if d := in.Detected; d != nil {
			lines = append(lines, fmt.Sprintf("- Typical sentence length: %s; narrative tense: %s; tone: %s",
				d.SentenceLength, d.Tense, d.Tone))
		}
		if requested != "" {
			lines = append(lines, "- Requested style emphasis: "+requested)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	blocks = append(blocks, "Text to continue:\n"+strings.TrimSpace(in.Text))
	blocks = append(blocks, closingInstruction)

	return strings.Join(blocks, "\n\n")
}
