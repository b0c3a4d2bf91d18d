package scoring

import (
	"strings"
	"unicode"
)

const (
	sameCategory      = 1.0
	containedPosition = 0.8
	shortKeywordLen   = 3
)

type category struct {
	name     string
	keywords []string
}

// categories are checked in order; the first category with a matching keyword wins.
var categories = []category{
	{name: "backend", keywords: []string{"backend", "back-end", "server", "api", "백엔드", "서버"}},
	{name: "frontend", keywords: []string{"frontend", "front-end", "web", "프론트엔드", "프론트", "웹"}},
	{name: "data_ml", keywords: []string{"data", "ml", "ai", "machine learning", "deep learning", "데이터", "머신러닝", "인공지능"}},
	{name: "devops", keywords: []string{"devops", "sre", "infrastructure", "데브옵스", "인프라"}},
	{name: "mobile", keywords: []string{"mobile", "android", "ios", "모바일", "안드로이드"}},
}

// PositionSimilarity scores how close two position titles are in [0, 1].
// Titles that both map to a known category compare by category only.
func PositionSimilarity(a, b string) float64 {
	na, nb := normalizePosition(a), normalizePosition(b)
	if na == "" || nb == "" {
		return 0
	}

	ca, cb := PositionCategory(a), PositionCategory(b)
	if ca != "" && cb != "" {
		if ca == cb {
			return sameCategory
		}
		return 0
	}

	switch {
	case na == nb:
		return sameCategory
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return containedPosition
	default:
		return 0
	}
}

// PositionCategory returns the category name of a title, or "" when none applies.
func PositionCategory(title string) string {
	compact := normalizePosition(title)
	if compact == "" {
		return ""
	}
	tokens := tokenize(title)

	for _, c := range categories {
		for _, kw := range c.keywords {
			if matchesKeyword(kw, compact, tokens) {
				return c.name
			}
		}
	}
	return ""
}

// matchesKeyword treats short ASCII keywords as whole tokens so "ai" does not match "maintainer".
func matchesKeyword(kw, compact string, tokens map[string]struct{}) bool {
	if len(kw) <= shortKeywordLen && isASCII(kw) {
		_, ok := tokens[kw]
		return ok
	}
	return strings.Contains(compact, normalizePosition(kw))
}

// normalizePosition lowercases and drops whitespace and punctuation.
func normalizePosition(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
