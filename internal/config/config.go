// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads Argus configuration from a YAML file, ARGUS_*
// environment variables, and the secrets directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/NotAlvin/Argus-Pub/internal/secrets"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// EnvPrefix is the prefix for environment overrides, e.g. ARGUS_POLL_INTERVAL.
const EnvPrefix = "ARGUS"

// ProviderKeySecret is the secrets file holding the search provider API key.
const ProviderKeySecret = "search-provider-api-key"

// DefaultUserAgent is a desktop browser string; several scraped sites refuse
// requests that do not look like one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

// ErrNoProviderKey is returned by RequireProvider when no API key is configured.
var ErrNoProviderKey = errors.New("search provider API key not configured")

// Load builds a Config from defaults, an optional config file, and the
// environment. When path is empty the file is searched for as argus.yaml in
// the working directory and ~/.config/argus; a missing file is not an error.
func Load(path string) (*types.Config, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("argus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "argus"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	return Decode(v)
}

// New returns a viper instance with Argus defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// ApplySecrets fills credentials that were not set in the file or
// environment from the loaded secrets directory.
func ApplySecrets(cfg *types.Config, s map[string]string) {
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = s[ProviderKeySecret]
	}
}

// RequireProvider fails when the configuration cannot reach the search
// provider. Harvest commands call it at startup.
func RequireProvider(cfg *types.Config) error {
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("%w: set ARGUS_PROVIDER_API_KEY or .secrets/%s: %w",
			ErrNoProviderKey, ProviderKeySecret, secrets.ErrMissingCredential)
	}
	if cfg.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.base_url", "https://app.backend.inriskable.com/api/rest")
	v.SetDefault("provider.timeout", 60*time.Second)
	v.SetDefault("provider.max_retries", 5)
	v.SetDefault("provider.api_key", "")

	v.SetDefault("poll.grace", 60*time.Second)
	v.SetDefault("poll.interval", 90*time.Second)
	v.SetDefault("poll.timeout", 7*time.Minute)

	v.SetDefault("cache.backend", string(types.CacheFile))
	v.SetDefault("cache.path", "data/search_history.json")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.query_ttl", 30*24*time.Hour)
	v.SetDefault("cache.snapshot_dir", "data")
	v.SetDefault("cache.snapshot_format", "csv")

	v.SetDefault("harvest.concurrency", 4)
	v.SetDefault("harvest.stagger", 500*time.Millisecond)
	v.SetDefault("harvest.batch_size", 5)
	v.SetDefault("harvest.batch_dir", "")
	v.SetDefault("harvest.output_dir", "output")
	v.SetDefault("harvest.fetch_images", true)
	v.SetDefault("harvest.bot_sentinels", []string{"Bloomberg - Are you a robot?"})

	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.summary_sentences", 3)

	v.SetDefault("scrape.timeout", 10*time.Second)
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.delay", time.Second)
	v.SetDefault("scrape.max_pages", 1)
	v.SetDefault("scrape.feeds", []string{})

	v.SetDefault("enrich.concurrency", 4)

	v.SetDefault("api.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
