package tfidf

import "sort"

// Counter accumulates corpus statistics for vocabulary selection.
type Counter struct {
	N  int64            // documents seen
	TF map[string]int64 // total occurrences per term
	DF map[string]int64 // documents containing each term
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{
		TF: make(map[string]int64),
		DF: make(map[string]int64),
	}
}

// AddDocument counts the terms of one document.
func (c *Counter) AddDocument(terms []string) {
	c.N++
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		c.TF[t]++
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			c.DF[t]++
		}
	}
}

// TopTerms returns up to limit terms with the highest total count, ties
// broken alphabetically, then sorted alphabetically. limit <= 0 keeps all.
func (c *Counter) TopTerms(limit int) []string {
	terms := make([]string, 0, len(c.TF))
	for t := range c.TF {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	if limit > 0 && len(terms) > limit {
		sort.SliceStable(terms, func(i, j int) bool { return c.TF[terms[i]] > c.TF[terms[j]] })
		terms = terms[:limit]
		sort.Strings(terms)
	}
	return terms
}
