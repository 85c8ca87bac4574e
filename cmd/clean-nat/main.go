package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cognicore/cnoc/internal/metrics"
	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
	"github.com/cognicore/cnoc/pkg/cnoc/normalize"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config (default $CNOC_CONFIG or pipeline.yaml)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	if err := run(context.Background(), artifact.NewStore(cfg.DataDir)); err != nil {
		log.Fatalf("Clean failed: %v", err)
	}
}

func run(ctx context.Context, store *artifact.Store) error {
	stage := metrics.NewStage("normalize")

	raw, err := store.ReadCSV(artifact.RawCombined + ".csv")
	if err != nil {
		return fmt.Errorf("read raw dataset: %w", err)
	}
	records, err := occupation.RecordsFromTable(raw)
	if err != nil {
		return err
	}

	clean, report := normalize.Clean(records)
	log.Printf("Cleaned %d rows: %d dropped, %d duplicates, %d unparseable serials, %d kept",
		report.Input, report.Dropped, report.Duplicates, report.InvalidSerials, report.Output)
	if report.MalformedCodes > 0 {
		log.Printf("Warning: %d codes do not match NNNN.NN[NN]", report.MalformedCodes)
	}

	m := artifact.Manifest{RunID: artifact.NewRunID(), Stage: "normalize", CreatedAt: time.Now()}
	if err := store.Save(ctx, artifact.CleanDataset, occupation.RecordTable(clean), m); err != nil {
		return err
	}
	log.Printf("Saved %s.csv and %s.db (run %s)", artifact.CleanDataset, artifact.CleanDataset, m.RunID)

	stage.Add("in", report.Input)
	stage.Add("dropped", report.Dropped)
	stage.Add("duplicates", report.Duplicates)
	stage.Add("out", report.Output)
	stage.Set("malformed_codes", float64(report.MalformedCodes))
	return stage.WriteTextfile(store.Path(artifact.MetricsDir))
}
