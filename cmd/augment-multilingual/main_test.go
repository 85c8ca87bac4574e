package main

import (
	"context"
	"strings"
	"testing"

	"github.com/cognicore/cnoc/internal/llm"
	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/augment"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func TestBuildTranslator(t *testing.T) {
	tests := []struct {
		name    string
		tc      config.TranslateConfig
		check   func(augment.Translator) bool
		wantErr bool
	}{
		{
			name: "libretranslate default endpoint",
			tc:   config.TranslateConfig{Provider: config.ProviderLibreTranslate},
			check: func(tr augment.Translator) bool {
				c, ok := tr.(*llm.MTClient)
				return ok && c.URL == "http://localhost:5000/translate"
			},
		},
		{
			name: "openai",
			tc:   config.TranslateConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k"},
			check: func(tr augment.Translator) bool {
				c, ok := tr.(*llm.Client)
				return ok && strings.HasSuffix(c.BaseURL, "/chat/completions") && c.Model == "gpt-4o-mini"
			},
		},
		{
			name: "anthropic",
			tc:   config.TranslateConfig{Provider: config.ProviderAnthropic, Model: "claude-sonnet-4-5", APIKey: "k"},
			check: func(tr augment.Translator) bool {
				c, ok := tr.(*llm.AnthropicClient)
				return ok && c.BaseURL == ""
			},
		},
		{name: "openai without model", tc: config.TranslateConfig{Provider: config.ProviderOpenAI}, wantErr: true},
		{name: "anthropic without key", tc: config.TranslateConfig{Provider: config.ProviderAnthropic, Model: "m"}, wantErr: true},
		{name: "unknown", tc: config.TranslateConfig{Provider: "babelfish"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := buildTranslator(tt.tc)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if !tt.check(tr) {
				t.Errorf("unexpected translator %#v", tr)
			}
		})
	}
}

func TestRunWritesTrainingRows(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	store := artifact.NewStore(cfg.DataDir)

	clean := occupation.RecordTable([]occupation.Record{
		{Serial: "1", Title: "Software Developer", Code2015: "2512.0100"},
		{Serial: "2", Title: "Cook", Code2015: "5120.0100"},
	})
	if err := store.Save(context.Background(), artifact.CleanDataset, clean, artifact.Manifest{Stage: "normalize"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fake := augment.TranslatorFunc(func(ctx context.Context, texts []string, src, tgt occupation.Language) ([]string, error) {
		out := make([]string, len(texts))
		for i, s := range texts {
			if s == "Cook" {
				out[i] = s
				continue
			}
			out[i] = tgt.Tag + ":" + s
		}
		return out, nil
	})
	if err := run(context.Background(), cfg, fake); err != nil {
		t.Fatalf("run: %v", err)
	}

	table, err := store.Load(context.Background(), artifact.TrainingRows)
	if err != nil {
		t.Fatalf("load rows: %v", err)
	}
	rows, err := occupation.RowsFromTable(table)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	// Two English rows plus hi and ta for the developer; Cook translates to itself.
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %+v", len(rows), rows)
	}
	langs := map[string]int{}
	for _, r := range rows {
		langs[r.Lang]++
	}
	if langs["en"] != 2 || langs["hi"] != 1 || langs["ta"] != 1 {
		t.Errorf("language counts = %v", langs)
	}
}
