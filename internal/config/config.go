package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"marketpulse/internal/fetcher"
	"marketpulse/internal/news"
	"marketpulse/internal/price"
)

// Accepted QUOTE_PROVIDER values.
const (
	// ProviderYahoo reads daily bars from the Yahoo Finance chart API.
	ProviderYahoo = "yahoo"
	// ProviderAlphavantage reads the AlphaVantage GLOBAL_QUOTE endpoint.
	ProviderAlphavantage = "alphavantage"
)

// Config holds all configuration for an ingestion run.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`

	// Instruments restricts the catalog; empty means every instrument.
	Instruments []string `mapstructure:"instruments"`

	// Quote source
	QuoteProvider       string        `mapstructure:"quote_provider"`
	AlphavantageAPIKey  string        `mapstructure:"alphavantage_api_key"`
	AlphavantageBaseURL string        `mapstructure:"alphavantage_base_url"`
	PriceTimeout        time.Duration `mapstructure:"price_timeout"`
	PriceLookback       time.Duration `mapstructure:"price_lookback"`

	// News search
	NewsBaseURL    string        `mapstructure:"news_base_url"`
	NewsRegionTerm string        `mapstructure:"news_region_term"`
	NewsLanguage   string        `mapstructure:"news_language"`
	NewsCountry    string        `mapstructure:"news_country"`
	NewsTimeout    time.Duration `mapstructure:"news_timeout"`

	// Retry policy shared by both fetchers
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	RetryInitialWait time.Duration `mapstructure:"retry_initial_wait"`
	RetryMaxWait     time.Duration `mapstructure:"retry_max_wait"`

	MaxConcurrency int           `mapstructure:"max_concurrency"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	PushgatewayURL string        `mapstructure:"pushgateway_url"`
}

// keys maps each config key to its environment variable.
var keys = map[string]string{
	"environment":           "ENVIRONMENT",
	"log_level":             "LOG_LEVEL",
	"instruments":           "INSTRUMENTS",
	"quote_provider":        "QUOTE_PROVIDER",
	"alphavantage_api_key":  "ALPHAVANTAGE_API_KEY",
	"alphavantage_base_url": "ALPHAVANTAGE_BASE_URL",
	"price_timeout":         "PRICE_TIMEOUT",
	"price_lookback":        "PRICE_LOOKBACK",
	"news_base_url":         "NEWS_BASE_URL",
	"news_region_term":      "NEWS_REGION_TERM",
	"news_language":         "NEWS_LANGUAGE",
	"news_country":          "NEWS_COUNTRY",
	"news_timeout":          "NEWS_TIMEOUT",
	"retry_max_attempts":    "RETRY_MAX_ATTEMPTS",
	"retry_initial_wait":    "RETRY_INITIAL_WAIT",
	"retry_max_wait":        "RETRY_MAX_WAIT",
	"max_concurrency":       "MAX_CONCURRENCY",
	"batch_timeout":         "BATCH_TIMEOUT",
	"pushgateway_url":       "PUSHGATEWAY_URL",
}

// Load reads configuration from a .env file, environment variables and an
// optional config.yaml. Environment variables take precedence over the file.
// Durations use Go syntax ("10s", "24h"); INSTRUMENTS is comma separated.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("environment", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("quote_provider", ProviderYahoo)
	v.SetDefault("alphavantage_base_url", "https://www.alphavantage.co/query")
	v.SetDefault("price_timeout", 10*time.Second)
	v.SetDefault("price_lookback", price.DefaultLookback)
	v.SetDefault("news_base_url", news.DefaultBaseURL)
	v.SetDefault("news_region_term", news.DefaultRegionTerm)
	v.SetDefault("news_language", news.DefaultLanguage)
	v.SetDefault("news_country", news.DefaultCountry)
	v.SetDefault("news_timeout", 10*time.Second)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_initial_wait", 4*time.Second)
	v.SetDefault("retry_max_wait", 40*time.Second)
	v.SetDefault("max_concurrency", 0)
	v.SetDefault("batch_timeout", 5*time.Minute)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.marketpulse")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.QuoteProvider = strings.ToLower(strings.TrimSpace(cfg.QuoteProvider))
	var names []string
	for _, n := range cfg.Instruments {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	cfg.Instruments = names

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or invalid key at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.QuoteProvider {
	case ProviderYahoo:
	case ProviderAlphavantage:
		if c.AlphavantageAPIKey == "" {
			problems = append(problems, "ALPHAVANTAGE_API_KEY is required when QUOTE_PROVIDER=alphavantage")
		}
	default:
		problems = append(problems, fmt.Sprintf("QUOTE_PROVIDER must be %q or %q, got %q",
			ProviderYahoo, ProviderAlphavantage, c.QuoteProvider))
	}

	if c.RetryMaxAttempts < 1 {
		problems = append(problems, "RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.RetryInitialWait <= 0 {
		problems = append(problems, "RETRY_INITIAL_WAIT must be positive")
	}
	if c.RetryMaxWait < c.RetryInitialWait {
		problems = append(problems, "RETRY_MAX_WAIT must not be below RETRY_INITIAL_WAIT")
	}
	if c.PriceTimeout <= 0 {
		problems = append(problems, "PRICE_TIMEOUT must be positive")
	}
	if c.PriceLookback <= 0 {
		problems = append(problems, "PRICE_LOOKBACK must be positive")
	}
	if c.NewsTimeout <= 0 {
		problems = append(problems, "NEWS_TIMEOUT must be positive")
	}
	if c.BatchTimeout <= 0 {
		problems = append(problems, "BATCH_TIMEOUT must be positive")
	}
	if c.MaxConcurrency < 0 {
		problems = append(problems, "MAX_CONCURRENCY must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RetryPolicy returns the retry schedule shared by the price and news fetchers.
func (c *Config) RetryPolicy() fetcher.RetryPolicy {
	p := fetcher.DefaultRetryPolicy()
	p.MaxAttempts = uint(c.RetryMaxAttempts)
	p.InitialInterval = c.RetryInitialWait
	p.MaxInterval = c.RetryMaxWait
	return p
}

// News returns the news feed settings.
func (c *Config) News() news.Config {
	return news.Config{
		BaseURL:    c.NewsBaseURL,
		RegionTerm: c.NewsRegionTerm,
		Language:   c.NewsLanguage,
		Country:    c.NewsCountry,
		Timeout:    c.NewsTimeout,
		Policy:     c.RetryPolicy(),
	}
}
