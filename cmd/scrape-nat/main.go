package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/cognicore/cnoc/internal/metrics"
	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
	"github.com/cognicore/cnoc/pkg/cnoc/harvest"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config (default $CNOC_CONFIG or pipeline.yaml)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
		maxPages   = flag.Int("max-pages", 0, "Maximum listing pages to fetch (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *maxPages > 0 {
		cfg.Harvest.MaxPages = *maxPages
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source := &harvest.HTTPSource{
		ListingURL: cfg.Harvest.ListingURL,
		UserAgent:  cfg.Harvest.UserAgent,
		Timeout:    cfg.Harvest.Timeout(),
	}
	if err := run(ctx, cfg, source); err != nil {
		log.Fatalf("Scrape failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, source harvest.PageSource) error {
	store := artifact.NewStore(cfg.DataDir)
	stage := metrics.NewStage("harvest")

	h := harvest.New(source, harvest.Options{
		Sink: func(page int, records []occupation.Record) error {
			return store.WriteCSV(artifact.PageName(page), occupation.RecordTable(records))
		},
		Delay:  cfg.Harvest.Delay(),
		Logger: log.Default(),
	})

	log.Printf("Scraping up to %d pages from %s", cfg.Harvest.MaxPages, cfg.Harvest.ListingURL)
	res, err := h.Run(ctx, cfg.Harvest.MaxPages)
	if err != nil {
		return err
	}
	stage.Add("pages", res.Pages)
	stage.Add("out", len(res.Records))

	if len(res.Records) == 0 {
		log.Printf("No rows scraped (stop: %s)", res.Stop)
		return stage.WriteTextfile(store.Path(artifact.MetricsDir))
	}

	if err := store.WriteCSV(artifact.RawCombined+".csv", occupation.RecordTable(res.Records)); err != nil {
		return err
	}
	if err := store.WriteJSON(artifact.RawCombined+".json", res.Records); err != nil {
		return err
	}
	log.Printf("Saved %d rows from %d pages to %s (stop: %s)",
		len(res.Records), res.Pages, store.Path(artifact.RawCombined+".csv"), res.Stop)

	return stage.WriteTextfile(store.Path(artifact.MetricsDir))
}
