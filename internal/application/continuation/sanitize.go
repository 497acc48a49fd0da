package continuation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	anyNewlines    = regexp.MustCompile(`[\r\n]+`)
)

// Sanitize 清洗模型原始输出。该函数不会失败：
// 任一步骤出现异常时保留上一步的结果继续处理。
func Sanitize(raw, input string, m Mode) string {
	out := strings.TrimSpace(raw)

	if len(out) >= 2 && strings.HasPrefix(out, `"`) && strings.HasSuffix(out, `"`) {
		out = strings.TrimSpace(out[1 : len(out)-1])
	}

	if m.KeepParagraphs {
		out = excessNewlines.ReplaceAllString(out, "\n\n")
	} else {
		out = anyNewlines.ReplaceAllString(out, " ")
	}

	out = step(out, func(s string) string { return stripOverlap(s, input, m.TailWindow, m.MaxOverlap) })
	out = step(out, func(s string) string { return capWords(s, m.WordCap) })
	out = step(out, func(s string) string { return repairCapitalization(s, input) })

	return strings.TrimSpace(out)
}

// step 执行单个清洗步骤，出现 panic 时返回输入本身
func step(in string, fn func(string) string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = in
		}
	}()
	return fn(in)
}

// stripOverlap 去掉续写开头与原文末尾重复的部分。
// 在原文末尾 window 个字符内，寻找既是原文后缀又是续写前缀的最长片段（不超过 limit 个字符，
// 不区分大小写，按字符比较，不考虑词边界），并从续写中移除。
func stripOverlap(continuation, input string, window, limit int) string {
	tail := []rune(strings.TrimSpace(input))
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}
	head := []rune(continuation)

	maxK := min(limit, len(head), len(tail))
	for k := maxK; k > 0; k-- {
		if !equalFold(tail[len(tail)-k:], head[:k]) {
			continue
		}
		return strings.TrimLeftFunc(string(head[k:]), unicode.IsSpace)
	}
	return continuation
}

func equalFold(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if unicode.ToLower(a[i]) != unicode.ToLower(b[i]) {
			return false
		}
	}
	return true
}

// capWords 截断到最多 limit 个以空白分隔的词
func capWords(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ")
}

// repairCapitalization 原文以句末标点结束时，续写视为新句，首字母大写
func repairCapitalization(s, input string) string {
	trimmed := strings.TrimRightFunc(input, unicode.IsSpace)
	if trimmed == "" || s == "" {
		return s
	}
	if !strings.ContainsRune(".!?", rune(trimmed[len(trimmed)-1])) {
		return s
	}

	r := []rune(strings.TrimLeftFunc(s, unicode.IsSpace))
	for i, c := range r {
		if unicode.IsLetter(c) {
			r[i] = unicode.ToUpper(c)
			break
		}
	}
	return string(r)
}

// WordCount 以空白分隔的词数
func WordCount(s string) int {
	return len(strings.Fields(s))
}
