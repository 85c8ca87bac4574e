package ingest

import "strings"

// Analyzer turns text into the n-gram terms counted by the vectorizer.
type Analyzer struct {
	tokenizer *Tokenizer
	minN      int
	maxN      int
}

// NewAnalyzer creates an analyzer emitting n-grams of length minN..maxN.
func NewAnalyzer(tokenizer *Tokenizer, minN, maxN int) *Analyzer {
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	return &Analyzer{tokenizer: tokenizer, minN: minN, maxN: maxN}
}

// Terms returns all n-grams of text, shortest first, each n-gram's tokens
// joined by a single space.
func (a *Analyzer) Terms(text string) []string {
	tokens := a.tokenizer.Tokenize(text)
	var terms []string
	for n := a.minN; n <= a.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				terms = append(terms, tokens[i])
				continue
			}
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
