package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cognicore/cnoc/internal/metrics"
	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/classify"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
	"github.com/cognicore/cnoc/pkg/cnoc/model"
	"github.com/cognicore/cnoc/pkg/cnoc/tfidf"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config (default $CNOC_CONFIG or pipeline.yaml)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
		predict    = flag.Bool("predict", false, "Interactive prediction with the saved model instead of training")
		topK       = flag.Int("k", 0, "Predictions per query (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *topK > 0 {
		cfg.Train.TopK = *topK
	}
	store := artifact.NewStore(cfg.DataDir)

	if *predict {
		if err := interactive(store, os.Stdin, os.Stdout, cfg.Train.TopK); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := train(store, cfg, os.Stdout); err != nil {
		log.Fatalf("Training failed: %v", err)
	}
}

func options(cfg *config.Config) (classify.Options, error) {
	stopwords, err := cfg.Stopwords()
	if err != nil {
		return classify.Options{}, err
	}
	return classify.Options{
		Vectorizer: tfidf.Config{MaxFeatures: cfg.Train.MaxFeatures, MinN: 1, MaxN: 2, Stopwords: stopwords},
		Model: model.Config{
			C:            cfg.Train.C,
			MaxIter:      cfg.Train.MaxIter,
			LearningRate: cfg.Train.LearningRate,
			Tol:          model.DefaultConfig().Tol,
			Seed:         cfg.Split.Seed,
		},
		Logger: log.Default(),
	}, nil
}

func train(store *artifact.Store, cfg *config.Config, out io.Writer) error {
	stage := metrics.NewStage("train")

	opts, err := options(cfg)
	if err != nil {
		return err
	}

	var tables [3]artifact.Table
	for i, name := range []string{artifact.TrainSplit, artifact.ValSplit, artifact.TestSplit} {
		t, err := store.ReadCSV(name)
		if err != nil {
			return fmt.Errorf("read split: %w", err)
		}
		tables[i] = t
	}

	a, report, err := classify.Train(tables[0], tables[1], tables[2], opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nValidation (%d rows)\n%s", report.Validation.Support, report.Validation)
	fmt.Fprintf(out, "\nTest (%d rows)\n%s\n", report.Test.Support, report.Test)

	if err := classify.Save(store, a); err != nil {
		return err
	}
	log.Printf("Saved model run %s to %s and %s", a.RunID, artifact.Vectorizer, artifact.Classifier)

	if err := store.WriteJSON(artifact.MetricsDir+"/train_report.json", report); err != nil {
		return err
	}

	stage.Add("train", report.TrainRows)
	stage.Add("val", report.Validation.Support)
	stage.Add("test", report.Test.Support)
	stage.Set("features", float64(report.Features))
	stage.Set("classes", float64(report.Classes))
	stage.Set("val_accuracy", report.Validation.Accuracy)
	stage.Set("test_accuracy", report.Test.Accuracy)
	stage.Set("test_macro_f1", report.Test.MacroAvg.F1)
	return stage.WriteTextfile(store.Path(artifact.MetricsDir))
}

func interactive(store *artifact.Store, in io.Reader, out io.Writer, k int) error {
	a, err := classify.Load(store)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "===========================================")
	fmt.Fprintln(out, "  NCO major-group predictor")
	fmt.Fprintf(out, "  model run %s, %d classes\n", a.RunID, len(a.Model.Classes))
	fmt.Fprintln(out, "===========================================")
	fmt.Fprintln(out, "Type an occupation title ('exit' or 'quit' to stop):")

	return classify.REPL(a, in, out, k)
}
