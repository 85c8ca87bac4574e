package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/cognicore/cnoc/internal/metrics"
	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
	"github.com/cognicore/cnoc/pkg/cnoc/split"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config (default $CNOC_CONFIG or pipeline.yaml)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
		top        = flag.Int("top", 10, "Families to show in the train distribution")
	)
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	opts := split.Options{Seed: cfg.Split.Seed, HoldOut: cfg.Split.HoldOut, TestShare: cfg.Split.TestShare}
	if err := run(context.Background(), artifact.NewStore(cfg.DataDir), opts, *top); err != nil {
		log.Fatalf("Split failed: %v", err)
	}
}

func run(ctx context.Context, store *artifact.Store, opts split.Options, top int) error {
	stage := metrics.NewStage("split")

	table, err := store.Load(ctx, artifact.TrainingRows)
	if err != nil {
		return fmt.Errorf("read training rows: %w", err)
	}
	rows, err := occupation.RowsFromTable(table)
	if err != nil {
		return err
	}

	res := split.Split(rows, opts)
	if !res.Stratified {
		log.Printf("Some major-group families have fewer than 2 rows; using a random split")
	}

	outputs := []struct {
		kind string
		name string
		rows []occupation.TrainingRow
	}{
		{"train", artifact.TrainSplit, res.Train},
		{"val", artifact.ValSplit, res.Val},
		{"test", artifact.TestSplit, res.Test},
	}
	for _, o := range outputs {
		if err := store.WriteCSV(o.name, occupation.RowTable(o.rows)); err != nil {
			return err
		}
		stage.Add(o.kind, len(o.rows))
	}
	log.Printf("Train %d, validation %d, test %d", len(res.Train), len(res.Val), len(res.Test))

	counts := split.FamilyCounts(res.Train)
	log.Printf("Train distribution (top %d of %d families):", min(top, len(counts)), len(counts))
	for i, fc := range counts {
		if i >= top {
			break
		}
		log.Printf("  %s %-40s %d", fc.Family, occupation.MajorGroupName(fc.Family), fc.Count)
	}

	if res.Stratified {
		stage.Set("stratified", 1)
	} else {
		stage.Set("stratified", 0)
	}
	return stage.WriteTextfile(store.Path(artifact.MetricsDir))
}
