package storycontext

import (
	"fmt"
	"sort"
	"strings"
)

const (
	bundleHistorySize   = 3
	renderedHistorySize = 2
	historyPreviewRunes = 200
)

// MentionedCharacter 当前文本中出现的人物
type MentionedCharacter struct {
	Name        string
	Description string
	Traits      []string
}

// Bundle 单次生成使用的上下文快照
type Bundle struct {
	CurrentText         string
	RecentHistory       []HistoryEntry
	ChapterID           *int64
	ChapterSummary      string
	CurrentScene        string
	MentionedCharacters []MentionedCharacter
	Style               map[string]string
	WorldInfo           map[string]any
}

// FullContext 根据当前文本与章节组装上下文快照。
// 人物按名称不区分大小写的子串匹配识别，结果按名称排序。
func (s *Store) FullContext(currentText string, chapterID *int64) Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.history) - bundleHistorySize
	if start < 0 {
		start = 0
	}

	b := Bundle{
		CurrentText:   currentText,
		RecentHistory: append([]HistoryEntry{}, s.history[start:]...),
		CurrentScene:  s.currentScene,
		Style:         copyStrings(s.stylePreferences),
		WorldInfo:     make(map[string]any, len(s.worldInfo)),
	}
	for k, v := range s.worldInfo {
		b.WorldInfo[k] = v
	}
	if chapterID != nil {
		id := *chapterID
		b.ChapterID = &id
		b.ChapterSummary = s.chapterSummaries[id]
	}

	lowered := strings.ToLower(currentText)
	for name, c := range s.characters {
		if name == "" || !strings.Contains(lowered, strings.ToLower(name)) {
			continue
		}
		b.MentionedCharacters = append(b.MentionedCharacters, MentionedCharacter{
			Name:        name,
			Description: c.Description,
			Traits:      append([]string{}, c.Traits...),
		})
	}
	sort.Slice(b.MentionedCharacters, func(i, j int) bool {
		return b.MentionedCharacters[i].Name < b.MentionedCharacters[j].Name
	})

	return b
}

// BuildPromptContext 将上下文快照渲染为提示词片段。
// 段落顺序固定：风格、世界、场景、人物、章节摘要、近期写作；缺失的段落不输出。
func BuildPromptContext(b Bundle) string {
	var sections []string

	if len(b.Style) > 0 {
		sections = append(sections, fmt.Sprintf("Style: %s, tense: %s, tone: %s",
			styleOr(b.Style, StyleGenre, "general"),
			styleOr(b.Style, StyleTense, "past"),
			styleOr(b.Style, StyleTone, "neutral"),
		))
	}

	if len(b.WorldInfo) > 0 {
		keys := make([]string, 0, len(b.WorldInfo))
		for k := range b.WorldInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		facts := make([]string, 0, len(keys))
		for _, k := range keys {
			facts = append(facts, fmt.Sprintf("%s: %v", k, b.WorldInfo[k]))
		}
		sections = append(sections, "World: "+strings.Join(facts, ", "))
	}

	if b.CurrentScene != "" {
		sections = append(sections, "Current scene: "+b.CurrentScene)
	}

	if len(b.MentionedCharacters) > 0 {
		var sb strings.Builder
		sb.WriteString("Characters in scene:")
		for _, c := range b.MentionedCharacters {
			sb.WriteString("\n- ")
			sb.WriteString(c.Name)
			sb.WriteString(": ")
			sb.WriteString(c.Description)
			if len(c.Traits) > 0 {
				sb.WriteString(" (traits: ")
				sb.WriteString(strings.Join(c.Traits, ", "))
				sb.WriteString(")")
			}
		}
		sections = append(sections, sb.String())
	}

	if b.ChapterSummary != "" {
		sections = append(sections, "Chapter context: "+b.ChapterSummary)
	}

	if len(b.RecentHistory) > 0 {
		entries := b.RecentHistory
		if len(entries) > renderedHistorySize {
			entries = entries[len(entries)-renderedHistorySize:]
		}
		var sb strings.Builder
		sb.WriteString("Recently written:")
		for _, e := range entries {
			sb.WriteString("\n- ")
			sb.WriteString(preview(e.Text, historyPreviewRunes))
		}
		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n\n")
}

func styleOr(style map[string]string, key, def string) string {
	if v := style[key]; v != "" {
		return v
	}
	return def
}

// preview 按字符截断，超长时追加省略标记
func preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
