// Package config loads the pipeline configuration shared by every stage binary.
//
// Values come from, in increasing priority: built-in defaults, a YAML file, and
// CNOC_* environment variables. Command-line flags are applied by the binaries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/cnoc/pkg/cnoc/internalerr"
	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// DefaultPath is read when neither a flag nor CNOC_CONFIG names a file.
const DefaultPath = "pipeline.yaml"

// Config is the full pipeline configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Harvest   HarvestConfig   `yaml:"harvest"`
	Translate TranslateConfig `yaml:"translate"`
	Split     SplitConfig     `yaml:"split"`
	Train     TrainConfig     `yaml:"train"`
}

// HarvestConfig controls the listing scrape.
type HarvestConfig struct {
	ListingURL     string `yaml:"listing_url"`
	MaxPages       int    `yaml:"max_pages"`
	DelayMillis    int    `yaml:"delay_ms"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

// Delay is the pause between page fetches.
func (h HarvestConfig) Delay() time.Duration {
	return time.Duration(h.DelayMillis) * time.Millisecond
}

// Timeout bounds a single page fetch.
func (h HarvestConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// TranslateConfig selects and configures the translation service.
type TranslateConfig struct {
	Provider       string   `yaml:"provider"`
	BaseURL        string   `yaml:"base_url"`
	Model          string   `yaml:"model"`
	APIKey         string   `yaml:"api_key"`
	Source         string   `yaml:"source"`
	Targets        []string `yaml:"targets"`
	BatchSize      int      `yaml:"batch_size"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Timeout bounds a single translation batch.
func (t TranslateConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Endpoint returns BaseURL, or the provider's usual endpoint when unset.
// The Anthropic SDK picks its own default, so that case stays empty.
func (t TranslateConfig) Endpoint() string {
	if t.BaseURL != "" {
		return t.BaseURL
	}
	switch t.Provider {
	case ProviderOpenAI:
		return "https://api.openai.com/v1/chat/completions"
	case ProviderLibreTranslate:
		return "http://localhost:5000/translate"
	}
	return ""
}

// SplitConfig controls the train/validation/test partition.
type SplitConfig struct {
	Seed      uint64  `yaml:"seed"`
	HoldOut   float64 `yaml:"hold_out"`
	TestShare float64 `yaml:"test_share"`
}

// TrainConfig controls the TF-IDF baseline.
type TrainConfig struct {
	MaxFeatures  int     `yaml:"max_features"`
	MaxIter      int     `yaml:"max_iter"`
	C            float64 `yaml:"c"`
	LearningRate float64 `yaml:"learning_rate"`
	TopK         int     `yaml:"top_k"`
	Stoplist     string  `yaml:"stoplist"` // optional YAML file of terms to ignore
}

// Providers accepted by TranslateConfig.Provider.
const (
	ProviderOpenAI         = "openai"
	ProviderAnthropic      = "anthropic"
	ProviderLibreTranslate = "libretranslate"
)

// Default returns the configuration used by the original pipeline runs.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Harvest: HarvestConfig{
			ListingURL:     "https://dge.gov.in/dge/nat?field_group_nat_target_id=All&field_occupation_nat_code_value=",
			MaxPages:       300,
			DelayMillis:    800,
			TimeoutSeconds: 30,
			UserAgent:      "CNOC-DataBot/1.0",
		},
		Translate: TranslateConfig{
			Provider:       ProviderLibreTranslate,
			Source:         occupation.English.Tag,
			Targets:        []string{occupation.Hindi.Tag, occupation.Tamil.Tag},
			BatchSize:      32,
			TimeoutSeconds: 120,
		},
		Split: SplitConfig{
			Seed:      42,
			HoldOut:   0.2,
			TestShare: 0.5,
		},
		Train: TrainConfig{
			MaxFeatures:  5000,
			MaxIter:      300,
			C:            1.0,
			LearningRate: 0.5,
			TopK:         3,
		},
	}
}

// Path picks the config file: an explicit flag value, then CNOC_CONFIG, then DefaultPath.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CNOC_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. A missing file at DefaultPath is not an
// error; any other missing file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return invalid("data_dir is empty")
	case c.Harvest.MaxPages <= 0:
		return invalid("harvest.max_pages must be positive")
	case c.Harvest.DelayMillis < 0:
		return invalid("harvest.delay_ms must not be negative")
	case c.Harvest.TimeoutSeconds <= 0:
		return invalid("harvest.timeout_seconds must be positive")
	case c.Translate.BatchSize <= 0:
		return invalid("translate.batch_size must be positive")
	case c.Split.HoldOut <= 0 || c.Split.HoldOut >= 1:
		return invalid("split.hold_out must be in (0,1)")
	case c.Split.TestShare <= 0 || c.Split.TestShare >= 1:
		return invalid("split.test_share must be in (0,1)")
	case c.Train.MaxFeatures <= 0:
		return invalid("train.max_features must be positive")
	case c.Train.MaxIter <= 0:
		return invalid("train.max_iter must be positive")
	case c.Train.C <= 0:
		return invalid("train.c must be positive")
	case c.Train.TopK <= 0:
		return invalid("train.top_k must be positive")
	}

	switch c.Translate.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderLibreTranslate:
	default:
		return invalid(fmt.Sprintf("translate.provider %q is not one of openai, anthropic, libretranslate", c.Translate.Provider))
	}

	if _, ok := occupation.LookupLanguage(c.Translate.Source); !ok {
		return invalid(fmt.Sprintf("translate.source %q is not a supported language", c.Translate.Source))
	}
	for _, t := range c.Translate.Targets {
		if _, ok := occupation.LookupLanguage(t); !ok {
			return invalid(fmt.Sprintf("translate.targets entry %q is not a supported language", t))
		}
	}
	return nil
}

// SourceLanguage resolves Translate.Source. Call after Validate.
func (c *Config) SourceLanguage() occupation.Language {
	l, _ := occupation.LookupLanguage(c.Translate.Source)
	return l
}

// TargetLanguages resolves Translate.Targets in order. Call after Validate.
func (c *Config) TargetLanguages() []occupation.Language {
	out := make([]occupation.Language, 0, len(c.Translate.Targets))
	for _, t := range c.Translate.Targets {
		l, _ := occupation.LookupLanguage(t)
		out = append(out, l)
	}
	return out
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, internalerr.ErrInvalidConfig)
}
