package wellness

import (
	"sort"
	"strings"
)

// CrisisDetector 关键词子串匹配，不做词干、否定或打分，命中一个即视为危机
type CrisisDetector struct {
	phrases []string
}

func NewCrisisDetector(lex *Lexicon) *CrisisDetector {
	if lex == nil {
		lex = DefaultLexicon()
	}
	langs := make([]string, 0, len(lex.Crisis))
	for lang := range lex.Crisis {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var phrases []string
	for _, lang := range langs {
		phrases = append(phrases, normalizeList(lex.Crisis[lang])...)
	}
	return &CrisisDetector{phrases: phrases}
}

// Detect 文本是否包含任一危机关键词（忽略大小写）
func (d *CrisisDetector) Detect(text string) bool {
	_, ok := d.Match(text)
	return ok
}

// Match 返回第一个命中的关键词
func (d *CrisisDetector) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}
