package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cognicore/cnoc/internal/llm"
	"github.com/cognicore/cnoc/internal/metrics"
	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/augment"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config (default $CNOC_CONFIG or pipeline.yaml)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
		provider   = flag.String("provider", "", "Translation provider: openai, anthropic or libretranslate (overrides config)")
		model      = flag.String("model", "", "Translation model name (overrides config)")
		batchSize  = flag.Int("batch-size", 0, "Titles per translation request (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *provider != "" {
		cfg.Translate.Provider = *provider
	}
	if *model != "" {
		cfg.Translate.Model = *model
	}
	if *batchSize > 0 {
		cfg.Translate.BatchSize = *batchSize
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	translator, err := buildTranslator(cfg.Translate)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, translator); err != nil {
		log.Fatalf("Augmentation failed: %v", err)
	}
}

func buildTranslator(tc config.TranslateConfig) (augment.Translator, error) {
	client := &http.Client{Timeout: tc.Timeout()}
	if tc.TimeoutSeconds <= 0 {
		client.Timeout = 120 * time.Second
	}

	switch tc.Provider {
	case config.ProviderOpenAI:
		if tc.Model == "" {
			return nil, fmt.Errorf("translate.model required for provider %s", tc.Provider)
		}
		return &llm.Client{BaseURL: tc.Endpoint(), APIKey: tc.APIKey, Model: tc.Model, HTTPClient: client}, nil
	case config.ProviderAnthropic:
		if tc.Model == "" || tc.APIKey == "" {
			return nil, fmt.Errorf("translate.model and an API key required for provider %s", tc.Provider)
		}
		return &llm.AnthropicClient{BaseURL: tc.Endpoint(), APIKey: tc.APIKey, Model: tc.Model, HTTPClient: client}, nil
	case config.ProviderLibreTranslate:
		return &llm.MTClient{URL: tc.Endpoint(), APIKey: tc.APIKey, HTTPClient: client}, nil
	}
	return nil, fmt.Errorf("unknown translation provider %q", tc.Provider)
}

func run(ctx context.Context, cfg *config.Config, translator augment.Translator) error {
	store := artifact.NewStore(cfg.DataDir)
	stage := metrics.NewStage("augment")

	table, err := store.Load(ctx, artifact.CleanDataset)
	if err != nil {
		return fmt.Errorf("read clean dataset: %w", err)
	}
	records, err := occupation.RecordsFromTable(table)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d occupations", len(records))

	a := augment.New(translator, augment.Options{
		Source:    cfg.SourceLanguage(),
		Targets:   cfg.TargetLanguages(),
		BatchSize: cfg.Translate.BatchSize,
		Logger:    log.Default(),
	})
	res, err := a.Augment(ctx, records)
	if err != nil {
		return err
	}

	for _, s := range res.Stats {
		log.Printf("%s: %d rows emitted, %d skipped", s.Lang, s.Emitted, s.Skipped)
		stage.Add("emitted_"+s.Lang, s.Emitted)
		stage.Add("skipped_"+s.Lang, s.Skipped)
	}

	m := artifact.Manifest{RunID: artifact.NewRunID(), Stage: "augment", CreatedAt: time.Now()}
	if err := store.Save(ctx, artifact.TrainingRows, occupation.RowTable(res.Rows), m); err != nil {
		return err
	}
	log.Printf("Saved %d training rows to %s.csv (%d batches)", len(res.Rows), artifact.TrainingRows, res.Batches)

	stage.Add("in", len(records))
	stage.Add("out", len(res.Rows))
	stage.Add("batches", res.Batches)
	return stage.WriteTextfile(store.Path(artifact.MetricsDir))
}
