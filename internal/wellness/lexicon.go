package wellness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon 危机关键词与情感词表，可由 YAML 文件覆盖
//
//	crisis:
//	  en: ["suicide", "kill myself"]
//	  hi: ["आत्महत्या"]
//	sentiment:
//	  positive: ["happy"]
//	  negative: ["sad"]
type Lexicon struct {
	Crisis    map[string][]string `yaml:"crisis"`
	Sentiment struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"sentiment"`
}

// DefaultLexicon 内置词表
func DefaultLexicon() *Lexicon {
	lex := &Lexicon{
		Crisis: map[string][]string{
			"en": {
				"suicide",
				"kill myself",
				"end it all",
				"don't want to live",
				"hurt myself",
				"want to die",
			},
			"hi": {
				"आत्महत्या",
				"खुद को मार",
				"जीना नहीं चाहता",
				"खुद को नुकसान",
				"मरना चाहता",
			},
		},
	}
	lex.Sentiment.Positive = []string{"happy", "good", "great", "amazing", "wonderful", "excited", "grateful", "blessed"}
	lex.Sentiment.Negative = []string{"sad", "bad", "terrible", "awful", "depressed", "anxious", "worried", "stressed"}
	return lex
}

// LoadLexicon 读取 YAML 词表；文件中缺失的部分沿用默认值
func LoadLexicon(path string) (*Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon file: %w", err)
	}
	defer file.Close()

	var loaded Lexicon
	if err := yaml.NewDecoder(file).Decode(&loaded); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon file: %w", err)
	}

	if len(loaded.Crisis) > 0 {
		lex.Crisis = loaded.Crisis
	}
	if len(loaded.Sentiment.Positive) > 0 {
		lex.Sentiment.Positive = loaded.Sentiment.Positive
	}
	if len(loaded.Sentiment.Negative) > 0 {
		lex.Sentiment.Negative = loaded.Sentiment.Negative
	}
	return lex, nil
}

func normalizeList(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
