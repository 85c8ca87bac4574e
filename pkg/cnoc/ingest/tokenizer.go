package ingest

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into lowercase word tokens.
type Tokenizer struct {
	stopwords map[string]struct{}
	minRunes  int
}

// NewTokenizer creates a tokenizer with the given stopword list. Tokens shorter
// than two runes are dropped.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops, minRunes: 2}
}

// Tokenize splits text on anything that is not a word rune. Word runes are
// letters, digits, underscore and combining marks, so Devanagari and Tamil
// vowel signs stay attached to their consonants.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	runes := 0

	flush := func() {
		if current.Len() > 0 {
			if word := current.String(); runes >= t.minRunes && !t.isStopword(word) {
				tokens = append(tokens, word)
			}
			current.Reset()
			runes = 0
		}
	}

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(unicode.ToLower(r))
			runes++
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.M, r) || r == '_'
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}
