package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cognicore/cnoc/pkg/cnoc/artifact"
	"github.com/cognicore/cnoc/pkg/cnoc/classify"
	"github.com/cognicore/cnoc/pkg/cnoc/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline config (default $CNOC_CONFIG or pipeline.yaml)")
		dataDir    = flag.String("data", "", "Data directory (overrides config)")
		query      = flag.String("query", "", "One-shot query (non-interactive mode)")
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
	k := cfg.Train.TopK
	if *topK > 0 {
		k = *topK
	}

	if err := run(artifact.NewStore(cfg.DataDir), *query, k, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run answers a single query when one is given, otherwise reads titles from in
// until exit or EOF.
func run(store *artifact.Store, query string, k int, in io.Reader, out io.Writer) error {
	a, err := classify.Load(store)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	if query != "" {
		fmt.Fprintf(out, "Input: %s\n", query)
		classify.WritePredictions(out, a.Predict(query, k))
		return nil
	}

	fmt.Fprintln(out, "Enter an occupation title ('exit' or 'quit' to stop):")
	return classify.REPL(a, in, out, k)
}
