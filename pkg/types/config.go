// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with scraping requests. Sites
	// that challenge bots expect a desktop browser string here.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ProviderConfig holds settings for the entity-news search provider.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the provider's REST root; requests go to BaseURL + "/search".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as the x-api-key header. Required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// PollConfig controls the polling fetcher.
type PollConfig struct {
	// Grace is the wait before the first status check (default 60s).
	Grace time.Duration `json:"grace" yaml:"grace" mapstructure:"grace"`

	// Interval is the wait between status checks (default 90s).
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// Timeout bounds the whole poll loop (default 7m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// CacheBackend selects where cache entries live.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheFile   CacheBackend = "file"
	CacheSQLite CacheBackend = "sqlite"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig holds settings for the cache store and dataset snapshots.
type CacheConfig struct {
	// Backend is one of memory, file, sqlite, or redis (default file).
	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the index file (file backend) or database file (sqlite backend).
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// RedisAddr is host:port for the redis backend.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`

	// QueryTTL is how long a cached query identifier stays fresh (default 30 days).
	QueryTTL time.Duration `json:"query_ttl" yaml:"query_ttl" mapstructure:"query_ttl"`

	// SnapshotDir holds dated source datasets.
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir" mapstructure:"snapshot_dir"`

	// SnapshotFormat is the extension new snapshots are written with: json, csv, or parquet.
	SnapshotFormat string `json:"snapshot_format" yaml:"snapshot_format" mapstructure:"snapshot_format"`
}

// HarvestConfig controls the concurrent harvester.
type HarvestConfig struct {
	// Concurrency is the worker pool size (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// Stagger delays worker i by i*Stagger before its first request (default 500ms).
	Stagger time.Duration `json:"stagger" yaml:"stagger" mapstructure:"stagger"`

	// BatchSize is the number of articles per persisted batch file (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// BatchDir enables batch-persist mode when non-empty.
	BatchDir string `json:"batch_dir,omitempty" yaml:"batch_dir,omitempty" mapstructure:"batch_dir"`

	// OutputDir receives the combined article file of each run (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// FetchImages looks up a lead image for each article.
	FetchImages bool `json:"fetch_images" yaml:"fetch_images" mapstructure:"fetch_images"`

	// BotSentinels are titles that signal a bot challenge page.
	BotSentinels []string `json:"bot_sentinels" yaml:"bot_sentinels" mapstructure:"bot_sentinels"`
}

// ModelConfig selects the text model backend.
type ModelConfig struct {
	// Endpoint is an optional inference server. Empty uses the built-in models.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// SummarySentences caps extractive summaries (default 3).
	SummarySentences int `json:"summary_sentences" yaml:"summary_sentences" mapstructure:"summary_sentences"`
}

// ScrapeConfig holds settings for the site scrapers.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Delay is the pause between consecutive page fetches (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// MaxPages bounds pagination per listing (default 1).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// Feeds lists RSS or Atom URLs for the rss source.
	Feeds []string `json:"feeds,omitempty" yaml:"feeds,omitempty" mapstructure:"feeds"`
}

// EnrichConfig controls the enrichment stage.
type EnrichConfig struct {
	// Concurrency bounds parallel company page fetches (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config is the complete Argus configuration.
type Config struct {
	Provider ProviderConfig `json:"provider" yaml:"provider" mapstructure:"provider"`
	Poll     PollConfig     `json:"poll" yaml:"poll" mapstructure:"poll"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	Harvest  HarvestConfig  `json:"harvest" yaml:"harvest" mapstructure:"harvest"`
	Model    ModelConfig    `json:"model" yaml:"model" mapstructure:"model"`
	Scrape   ScrapeConfig   `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
	Enrich   EnrichConfig   `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	API      APIConfig      `json:"api" yaml:"api" mapstructure:"api"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}
