package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stoplist is a YAML list of terms the vectorizer drops.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist reads a stoplist file. Terms are trimmed and lowercased to
// match tokenizer output; blanks are dropped.
func LoadStoplist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stoplist %s: %w", path, err)
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}

	terms := make([]string, 0, len(sl.Terms))
	for _, t := range sl.Terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms, nil
}

// Stopwords loads Train.Stoplist, or returns nil when none is configured.
func (c *Config) Stopwords() ([]string, error) {
	if c.Train.Stoplist == "" {
		return nil, nil
	}
	return LoadStoplist(c.Train.Stoplist)
}
