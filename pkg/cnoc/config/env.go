package config

import (
	"log"
	"os"
	"strconv"
)

func applyEnv(cfg *Config) {
	envOverride(&cfg.DataDir, "CNOC_DATA_DIR")
	envOverride(&cfg.Harvest.ListingURL, "CNOC_LISTING_URL")
	envOverrideInt(&cfg.Harvest.MaxPages, "CNOC_MAX_PAGES")
	envOverride(&cfg.Translate.Provider, "CNOC_TRANSLATE_PROVIDER")
	envOverride(&cfg.Translate.BaseURL, "CNOC_TRANSLATE_BASE_URL")
	envOverride(&cfg.Translate.Model, "CNOC_TRANSLATE_MODEL")
	envOverrideInt(&cfg.Translate.BatchSize, "CNOC_TRANSLATE_BATCH_SIZE")

	// Provider keys fill api_key only when the file left it empty.
	envOverride(&cfg.Translate.APIKey, "CNOC_TRANSLATE_API_KEY")
	if cfg.Translate.APIKey == "" {
		switch cfg.Translate.Provider {
		case ProviderOpenAI:
			envOverride(&cfg.Translate.APIKey, "OPENAI_API_KEY")
		case ProviderAnthropic:
			envOverride(&cfg.Translate.APIKey, "ANTHROPIC_API_KEY")
		}
	}
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}
