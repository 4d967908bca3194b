package tokenize_test

import (
	"testing"

	"github.com/rohmanhakim/site-search/internal/tokenize"
	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple words",
			input:    "Hello World",
			expected: []string{"hello", "world"},
		},
		{
			name:     "surrounding punctuation trimmed",
			input:    `"Rust," (async) fast!`,
			expected: []string{"rust", "async", "fast"},
		},
		{
			name:     "inner punctuation kept",
			input:    "don't e-mail v1.2",
			expected: []string{"don't", "e-mail", "v1.2"},
		},
		{
			name:     "punctuation only tokens dropped",
			input:    "a -- b ... !!!",
			expected: []string{"a", "b"},
		},
		{
			name:     "mixed whitespace",
			input:    "one\ttwo\nthree\r\n  four",
			expected: []string{"one", "two", "three", "four"},
		},
		{
			name:     "duplicates kept in order",
			input:    "go Go GO",
			expected: []string{"go", "go", "go"},
		},
		{
			name:     "unicode letters",
			input:    "Café ÜBER naïve",
			expected: []string{"café", "über", "naïve"},
		},
		{
			name:     "combining vowel signs kept",
			input:    "नमस्ते ดี (ดี)",
			expected: []string{"नमस्ते", "ดี", "ดี"},
		},
		{
			name:     "digits are word runes",
			input:    "2024 #42",
			expected: []string{"2024", "42"},
		},
		{
			name:     "empty",
			input:    "   ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize.Tokenize(tt.input))
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	text := "The quick, brown fox; the LAZY dog."
	assert.Equal(t, tokenize.Tokenize(text), tokenize.Tokenize(text))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, tokenize.Distinct([]string{"b", "a", "b", "c", "a"}))
	assert.Equal(t, []string{}, tokenize.Distinct(nil))
}
