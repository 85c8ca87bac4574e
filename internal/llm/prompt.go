package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func translationSystem(src, tgt occupation.Language) string {
	return fmt.Sprintf("You translate occupation titles from %s to %s. "+
		"The user sends a JSON array of strings. Reply with only a JSON array of the same length, "+
		"one %s translation per input in the same order. Keep proper nouns and codes as they are.",
		src.Name, tgt.Name, tgt.Name)
}

func translationPrompt(texts []string) (string, error) {
	data, err := json.Marshal(texts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseTranslations decodes a JSON string array from a model reply, tolerating
// a surrounding markdown code fence.
func parseTranslations(reply string, want int) ([]string, error) {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if i, j := strings.Index(s, "["), strings.LastIndex(s, "]"); i >= 0 && j > i {
		s = s[i : j+1]
	}

	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("llm: reply is not a JSON string array: %w", err)
	}
	if len(out) != want {
		return nil, fmt.Errorf("llm: got %d translations for %d inputs", len(out), want)
	}
	return out, nil
}
