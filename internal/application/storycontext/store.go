// Package storycontext 维护作者的叙事上下文（人物、世界设定、风格偏好、章节摘要、当前场景与近期写作历史），
// 并将其组装为续写提示词片段。
package storycontext

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultHistoryCapacity 默认写作历史容量
const DefaultHistoryCapacity = 10

// 风格偏好的固定键
const (
	StyleTone  = "tone"
	StylePOV   = "pov"
	StyleTense = "tense"
	StyleGenre = "genre"
)

var styleKeys = []string{StyleTone, StylePOV, StyleTense, StyleGenre}

// DefaultStylePreferences 返回风格偏好默认值
func DefaultStylePreferences() map[string]string {
	return map[string]string{
		StyleTone:  "neutral",
		StylePOV:   "third_person",
		StyleTense: "past",
		StyleGenre: "general",
	}
}

// IsStyleKey 判断是否为受支持的风格键
func IsStyleKey(key string) bool {
	for _, k := range styleKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Character 人物设定
type Character struct {
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
	Mentions    []string `json:"mentions"`
}

// HistoryEntry 写作历史条目
type HistoryEntry struct {
	Text      string    `json:"text"`
	ChapterID *int64    `json:"chapter_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot 可导出的持久事实，不包含写作历史
type Snapshot struct {
	Characters       map[string]Character `json:"characters"`
	WorldInfo        map[string]any       `json:"world_info"`
	StylePreferences map[string]string    `json:"style_preferences"`
	ChapterSummaries map[int64]string     `json:"chapter_summaries"`
	CurrentScene     string               `json:"current_scene"`
}

// importPayload 导入负载，StylePreferences 为 nil 表示缺失
type importPayload struct {
	Characters       map[string]Character `json:"characters"`
	WorldInfo        map[string]any       `json:"world_info"`
	StylePreferences map[string]string    `json:"style_preferences"`
	ChapterSummaries map[int64]string     `json:"chapter_summaries"`
	CurrentScene     string               `json:"current_scene"`
}

// Option Store 构造选项
type Option func(*Store)

// WithHistoryCapacity 设置写作历史容量
func WithHistoryCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock 设置时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store 叙事上下文存储。
// 每个操作单独加锁，按键后写覆盖，多键更新之间不保证原子性。
type Store struct {
	mu sync.RWMutex

	characters       map[string]Character
	worldInfo        map[string]any
	stylePreferences map[string]string
	chapterSummaries map[int64]string
	currentScene     string
	history          []HistoryEntry

	capacity int
	now      func() time.Time
}

// NewStore 创建叙事上下文存储
func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultHistoryCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.characters = make(map[string]Character)
	s.worldInfo = make(map[string]any)
	s.stylePreferences = DefaultStylePreferences()
	s.chapterSummaries = make(map[int64]string)
	s.currentScene = ""
	s.history = make([]HistoryEntry, 0, s.capacity)
}

// AddCharacter 添加或整体替换人物
func (s *Store) AddCharacter(name, description string, traits []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.characters[name] = Character{
		Description: description,
		Traits:      append([]string{}, traits...),
		Mentions:    []string{},
	}
}

// UpdateWorldInfo 设置一条世界设定。值按 JSON 形态保存（数字为 float64），
// 与导出再导入后的结果一致
func (s *Store) UpdateWorldInfo(key string, value any) {
	value = jsonShaped(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.worldInfo[key] = value
}

// jsonShaped 无法编码的值原样返回
func jsonShaped(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// SetStylePreference 设置风格偏好，未知键被静默忽略
func (s *Store) SetStylePreference(key, value string) {
	if !IsStyleKey(key) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stylePreferences[key] = value
}

// AddChapterSummary 添加或替换章节摘要
func (s *Store) AddChapterSummary(chapterID int64, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chapterSummaries[chapterID] = summary
}

// SetCurrentScene 覆盖当前场景
func (s *Store) SetCurrentScene(scene string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentScene = scene
}

// AddToHistory 追加写作历史，超出容量时丢弃最旧的条目
func (s *Store) AddToHistory(text string, chapterID *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := HistoryEntry{Text: text, Timestamp: s.now()}
	if chapterID != nil {
		id := *chapterID
		entry.ChapterID = &id
	}

	s.history = append(s.history, entry)
	if over := len(s.history) - s.capacity; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// History 返回写作历史副本（从旧到新）
func (s *Store) History() []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]HistoryEntry{}, s.history...)
}

// StylePreferences 返回风格偏好副本
func (s *Store) StylePreferences() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyStrings(s.stylePreferences)
}

// Snapshot 返回持久事实的深拷贝
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	chars := make(map[string]Character, len(s.characters))
	for name, c := range s.characters {
		chars[name] = Character{
			Description: c.Description,
			Traits:      append([]string{}, c.Traits...),
			Mentions:    append([]string{}, c.Mentions...),
		}
	}
	world := make(map[string]any, len(s.worldInfo))
	for k, v := range s.worldInfo {
		world[k] = v
	}
	summaries := make(map[int64]string, len(s.chapterSummaries))
	for k, v := range s.chapterSummaries {
		summaries[k] = v
	}

	return Snapshot{
		Characters:       chars,
		WorldInfo:        world,
		StylePreferences: copyStrings(s.stylePreferences),
		ChapterSummaries: summaries,
		CurrentScene:     s.currentScene,
	}
}

// Export 将持久事实序列化为 JSON，写作历史不参与导出
func (s *Store) Export() (string, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export story context: %w", err)
	}
	return string(data), nil
}

// Import 整体替换持久事实。负载解析失败时存储保持不变；
// 负载缺少 style_preferences 时沿用现有风格偏好。
func (s *Store) Import(data string) error {
	if strings.TrimSpace(data) == "" {
		return fmt.Errorf("empty story context payload")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return fmt.Errorf("invalid story context payload: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("story context payload must be a JSON object")
	}

	var payload importPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return fmt.Errorf("invalid story context payload: %w", err)
	}

	chars := make(map[string]Character, len(payload.Characters))
	for name, c := range payload.Characters {
		if c.Traits == nil {
			c.Traits = []string{}
		}
		if c.Mentions == nil {
			c.Mentions = []string{}
		}
		chars[name] = c
	}
	world := payload.WorldInfo
	if world == nil {
		world = make(map[string]any)
	}
	summaries := payload.ChapterSummaries
	if summaries == nil {
		summaries = make(map[int64]string)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	style := s.stylePreferences
	if payload.StylePreferences != nil {
		style = DefaultStylePreferences()
		for _, k := range styleKeys {
			if v, ok := payload.StylePreferences[k]; ok {
				style[k] = v
			}
		}
	}

	s.characters = chars
	s.worldInfo = world
	s.stylePreferences = style
	s.chapterSummaries = summaries
	s.currentScene = payload.CurrentScene
	return nil
}

// Reset 清空全部上下文，包括写作历史
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
