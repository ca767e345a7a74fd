package model

import (
	"regexp"
	"strings"
	"unicode"
)

var splitWordsPattern = regexp.MustCompile(`[_\-.\s]+`)

// DefaultLabeler turns an option identifier such as "video_froze" or
// "audioOutOfSync" into sentence case ("Video froze", "Audio out of sync").
func DefaultLabeler(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	var words []string
	for _, chunk := range splitWordsPattern.Split(id, -1) {
		if chunk == "" {
			continue
		}
		words = append(words, splitCamel(chunk)...)
	}
	if len(words) == 0 {
		return ""
	}

	for i, word := range words {
		if isAcronym(word) {
			continue
		}
		words[i] = strings.ToLower(word)
	}
	first := []rune(words[0])
	first[0] = unicode.ToUpper(first[0])
	words[0] = string(first)
	return strings.Join(words, " ")
}

func splitCamel(input string) []string {
	runes := []rune(input)
	var (
		out   []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur),
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && nextLower,
			unicode.IsLetter(prev) && unicode.IsDigit(cur),
			unicode.IsDigit(prev) && unicode.IsLetter(cur):
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}

func isAcronym(word string) bool {
	if len([]rune(word)) < 2 {
		return false
	}
	for _, r := range word {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
