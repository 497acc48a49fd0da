package continuation

import (
	"regexp"
	"strings"
)

// StyleSignals 从原文推断的风格提示，仅作参考
type StyleSignals struct {
	SentenceLength string `json:"sentence_length"` // short | medium | long
	Complexity     string `json:"complexity"`
	Tone           string `json:"tone"`  // neutral | emotional
	Tense          string `json:"tense"` // past | present
}

// DefaultStyleSignals 无法判断时的默认值
func DefaultStyleSignals() StyleSignals {
	return StyleSignals{
		SentenceLength: "medium",
		Complexity:     "medium",
		Tone:           "neutral",
		Tense:          "past",
	}
}

// StyleDetector 风格检测策略
type StyleDetector interface {
	Detect(text string) StyleSignals
}

var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

var (
	pastMarkers      = []string{" was ", " were ", " had "}
	presentMarkers   = []string{" is ", " are ", " am "}
	emotionalMarkers = []string{"shouted", "whispered", "cried", "rejoiced", "wept", "worried", "exclaimed"}
)

// HeuristicDetector 基于固定词表的词法风格检测，不会失败
type HeuristicDetector struct{}

// Detect 实现 StyleDetector
func (HeuristicDetector) Detect(text string) StyleSignals {
	signals := DefaultStyleSignals()

	var words, sentences int
	for _, fragment := range sentenceSplitter.Split(text, -1) {
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		sentences++
		words += len(strings.Fields(fragment))
	}
	if sentences > 0 {
		avg := float64(words) / float64(sentences)
		switch {
		case avg < 8:
			signals.SentenceLength = "short"
		case avg > 15:
			signals.SentenceLength = "long"
		}
	}

	lowered := strings.ToLower(text)
	padded := " " + lowered + " "
	switch {
	case containsAny(padded, pastMarkers):
		signals.Tense = "past"
	case containsAny(padded, presentMarkers):
		signals.Tense = "present"
	}

	if containsAny(lowered, emotionalMarkers) {
		signals.Tone = "emotional"
	}

	return signals
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
