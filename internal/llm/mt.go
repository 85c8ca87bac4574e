package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// MTClient calls a LibreTranslate-compatible /translate endpoint that accepts
// a batch of texts in "q" and answers with a same-order "translatedText" array.
type MTClient struct {
	URL    string
	APIKey string

	HTTPClient *http.Client
}

type mtRequest struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
	APIKey string   `json:"api_key,omitempty"`
}

type mtResponse struct {
	TranslatedText []string `json:"translatedText"`
	Error          string   `json:"error"`
}

// Translate sends one batch to the machine translation server.
func (c *MTClient) Translate(ctx context.Context, texts []string, src, tgt occupation.Language) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.URL == "" {
		return nil, fmt.Errorf("mt: URL required")
	}

	body, err := json.Marshal(mtRequest{Q: texts, Source: src.Tag, Target: tgt.Tag, Format: "text", APIKey: c.APIKey})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload mtResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&payload); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("mt: HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("mt: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || payload.Error != "" {
		return nil, fmt.Errorf("mt: HTTP %d: %s", resp.StatusCode, payload.Error)
	}
	if len(payload.TranslatedText) != len(texts) {
		return nil, fmt.Errorf("mt: got %d translations for %d inputs", len(payload.TranslatedText), len(texts))
	}
	return payload.TranslatedText, nil
}

func (c *MTClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 120 * time.Second}
}
