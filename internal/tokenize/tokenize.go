package tokenize

import (
	"strings"
	"unicode"
)

/*
Tokenization Rules
- Split on Unicode whitespace
- Trim leading and trailing runes that are not alphanumeric. Alphabetic
  includes combining vowel signs (Other_Alphabetic), so "ดี" stays whole
- Lowercase the remainder
- Drop tokens that end up empty

Inner punctuation survives ("don't", "e-mail", "v1.2").
No stemming and no stop-word removal.

Tokenize is pure and deterministic. The index builder and the query side
must use the same function so that terms line up.
*/

// Tokenizer is the signature shared by indexing and querying.
type Tokenizer func(text string) []string

// Tokenize splits text into normalized terms in document order.
// Duplicates are kept.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimFunc(field, isNotWordRune)
		if trimmed == "" {
			continue
		}
		tokens = append(tokens, strings.ToLower(trimmed))
	}
	return tokens
}

// Distinct returns tokens with duplicates removed, keeping first occurrence order.
func Distinct(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isNotWordRune(r rune) bool {
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r)
}
