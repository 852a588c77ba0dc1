package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default agent.ai webhook bases for the scraping integrations.
// The microblog integration has no default and stays disabled until configured.
const (
	DefaultLinkedInProfileWebhookURL = "https://api.agent.ai/v1/agent/26q8jefoy5cu92k8/webhook/2ba10d43"
	DefaultLinkedInPostsWebhookURL   = "https://api.agent.ai/v1/agent/p4hl6dhlhp9txrg7/webhook/a55a1a47"
)

// Config holds the application configuration
type Config struct {
	AppEnv string

	// GitHub
	GitHubToken  string
	GitHubAPIURL string

	// Webhooks
	LinkedInProfileWebhookURL string
	LinkedInPostsWebhookURL   string
	TwitterPostsWebhookURL    string

	// Outbound calls
	HTTPTimeout time.Duration

	// Ingestion
	IngestTimeout      time.Duration
	IngestConcurrency  int
	IngestMaxFileBytes int

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		AppEnv:                    getEnv("APP_ENV", "prod"),
		GitHubToken:               getEnv("GITHUB_TOKEN", ""),
		GitHubAPIURL:              getEnv("GITHUB_API_URL", "https://api.github.com/"),
		LinkedInProfileWebhookURL: strings.TrimSuffix(getEnv("LINKEDIN_PROFILE_WEBHOOK_URL", DefaultLinkedInProfileWebhookURL), "/"),
		LinkedInPostsWebhookURL:   strings.TrimSuffix(getEnv("LINKEDIN_POSTS_WEBHOOK_URL", DefaultLinkedInPostsWebhookURL), "/"),
		TwitterPostsWebhookURL:    strings.TrimSuffix(getEnv("TWITTER_POSTS_WEBHOOK_URL", ""), "/"),
		HTTPTimeout:               getDuration("HTTP_TIMEOUT", 10*time.Second),
		IngestTimeout:             getDuration("INGEST_TIMEOUT", 60*time.Second),
		IngestConcurrency:         getInt("INGEST_CONCURRENCY", 8),
		IngestMaxFileBytes:        getInt("INGEST_MAX_FILE_BYTES", 1<<20),
		APIPort:                   getEnv("API_PORT", "8000"),
		APIHost:                   getEnv("API_HOST", "0.0.0.0"),
		APIEndpoint:               getEnv("API_ENDPOINT", "http://localhost:8000"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt returns an integer environment variable, or the default when unset.
// Unparseable values are kept as -1 so Validate can report them.
func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return -1
	}
	return d
}

// Validate validates the configuration
func (c *Config) Validate() error {
	webhooks := []struct {
		field string
		value string
	}{
		{"LINKEDIN_PROFILE_WEBHOOK_URL", c.LinkedInProfileWebhookURL},
		{"LINKEDIN_POSTS_WEBHOOK_URL", c.LinkedInPostsWebhookURL},
		{"GITHUB_API_URL", c.GitHubAPIURL},
	}
	for _, w := range webhooks {
		if !isHTTPURL(w.value) {
			return &ConfigError{Field: w.field, Message: "must be an http(s) URL"}
		}
	}
	if c.TwitterPostsWebhookURL != "" && !isHTTPURL(c.TwitterPostsWebhookURL) {
		return &ConfigError{Field: "TWITTER_POSTS_WEBHOOK_URL", Message: "must be an http(s) URL"}
	}
	if c.HTTPTimeout <= 0 {
		return &ConfigError{Field: "HTTP_TIMEOUT", Message: "must be a positive duration"}
	}
	if c.IngestTimeout <= 0 {
		return &ConfigError{Field: "INGEST_TIMEOUT", Message: "must be a positive duration"}
	}
	if c.IngestConcurrency <= 0 {
		return &ConfigError{Field: "INGEST_CONCURRENCY", Message: "must be a positive integer"}
	}
	if c.IngestMaxFileBytes <= 0 {
		return &ConfigError{Field: "INGEST_MAX_FILE_BYTES", Message: "must be a positive integer"}
	}
	return nil
}

// HasGitHubToken reports whether a default GitHub credential is configured
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
