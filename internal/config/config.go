// Package config handles configuration loading for the handoff services.
// Values come from an optional yaml file with environment variables taking
// precedence, so deployments can wire everything through the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store driver names.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration values for the application.
type Config struct {
	// Job descriptor store
	StoreDriver string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// Blob store
	Bucket    string
	AWSRegion string

	// Key layout inside the bucket.
	// AllowedPrefix bounds the keys callers may request upload URLs for.
	AllowedPrefix string
	UploadPrefix  string
	JobPrefix     string

	// Presigned URL lifetimes
	UploadURLTTL   time.Duration
	DownloadURLTTL time.Duration

	// External API surface, used to build callback URLs in job manifests.
	APIBaseURL string
	APIStage   string

	// Rate limiting for the public endpoints. Zero disables it.
	RateLimit      float64
	RateLimitBurst int

	// Worker-specific configuration
	WorkerID                  string
	WorkerConcurrency         int
	WorkerPollInterval        time.Duration
	WorkerMaxBackoff          time.Duration
	WorkerDownloadParallelism int
	WorkerDir                 string

	// URL of the controller (e.g. "http://localhost:6161")
	ControllerURL string

	// OTLP collector endpoint for traces
	OTELEndpoint string
}

// Load reads configuration from the given yaml file (optional) and the
// environment. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store_driver", DriverPostgres)
	v.SetDefault("port", 6161)
	v.SetDefault("s3_bucket_name", "")
	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("allowed_prefix", "")
	v.SetDefault("upload_prefix", "zip_processed_by_processor")
	v.SetDefault("job_prefix", "my_jobs_to_send")
	v.SetDefault("upload_url_ttl", "15m")
	v.SetDefault("download_url_ttl", "10h")
	v.SetDefault("api_base_url", "http://localhost:6161")
	v.SetDefault("api_stage", "")
	v.SetDefault("rate_limit", 0.0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("worker_id", "")
	v.SetDefault("worker_concurrency", 1)
	v.SetDefault("worker_poll_interval", "1s")
	v.SetDefault("worker_max_backoff", "30s")
	v.SetDefault("worker_download_parallelism", 4)
	v.SetDefault("worker_dir", "")
	v.SetDefault("controller_url", "http://localhost:6161")
	v.SetDefault("otel_exporter_otlp_endpoint", "localhost:4317")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// Environment overrides. Only non-empty values win, so an exported but
	// empty variable does not clobber a config file entry.
	envKeys := map[string]string{
		"database_url":                "DATABASE_URL",
		"store_driver":                "STORE_DRIVER",
		"port":                        "PORT",
		"s3_bucket_name":              "S3_BUCKET_NAME",
		"aws_region":                  "AWS_REGION",
		"allowed_prefix":              "ALLOWED_PREFIX",
		"upload_prefix":               "UPLOAD_PREFIX",
		"job_prefix":                  "JOB_PREFIX",
		"upload_url_ttl":              "UPLOAD_URL_TTL",
		"download_url_ttl":            "DOWNLOAD_URL_TTL",
		"api_base_url":                "API_BASE_URL",
		"api_stage":                   "API_STAGE",
		"rate_limit":                  "RATE_LIMIT",
		"rate_limit_burst":            "RATE_LIMIT_BURST",
		"worker_id":                   "WORKER_ID",
		"worker_concurrency":          "WORKER_CONCURRENCY",
		"worker_poll_interval":        "WORKER_POLL_INTERVAL",
		"worker_max_backoff":          "WORKER_MAX_BACKOFF",
		"worker_download_parallelism": "WORKER_DOWNLOAD_PARALLELISM",
		"worker_dir":                  "WORKER_DIR",
		"controller_url":              "CONTROLLER_URL",
		"otel_exporter_otlp_endpoint": "OTEL_EXPORTER_OTLP_ENDPOINT",
	}
	for key, env := range envKeys {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}

	cfg := &Config{
		StoreDriver:               v.GetString("store_driver"),
		DatabaseURL:               v.GetString("database_url"),
		HTTPPort:                  v.GetInt("port"),
		Bucket:                    v.GetString("s3_bucket_name"),
		AWSRegion:                 v.GetString("aws_region"),
		AllowedPrefix:             v.GetString("allowed_prefix"),
		UploadPrefix:              v.GetString("upload_prefix"),
		JobPrefix:                 v.GetString("job_prefix"),
		UploadURLTTL:              v.GetDuration("upload_url_ttl"),
		DownloadURLTTL:            v.GetDuration("download_url_ttl"),
		APIBaseURL:                strings.TrimRight(v.GetString("api_base_url"), "/"),
		APIStage:                  strings.Trim(v.GetString("api_stage"), "/"),
		RateLimit:                 v.GetFloat64("rate_limit"),
		RateLimitBurst:            v.GetInt("rate_limit_burst"),
		WorkerID:                  v.GetString("worker_id"),
		WorkerConcurrency:         v.GetInt("worker_concurrency"),
		WorkerPollInterval:        v.GetDuration("worker_poll_interval"),
		WorkerMaxBackoff:          v.GetDuration("worker_max_backoff"),
		WorkerDownloadParallelism: v.GetInt("worker_download_parallelism"),
		WorkerDir:                 v.GetString("worker_dir"),
		ControllerURL:             strings.TrimRight(v.GetString("controller_url"), "/"),
		OTELEndpoint:              v.GetString("otel_exporter_otlp_endpoint"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database_url is required (env: DATABASE_URL)")
		}
	case DriverMemory:
		// No backing service needed; used for local development and tests.
	default:
		return nil, fmt.Errorf("unknown store_driver %q (want %s or %s)", cfg.StoreDriver, DriverPostgres, DriverMemory)
	}

	if cfg.UploadURLTTL <= 0 {
		return nil, fmt.Errorf("upload_url_ttl must be positive")
	}
	if cfg.DownloadURLTTL <= 0 {
		return nil, fmt.Errorf("download_url_ttl must be positive")
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}
	if cfg.WorkerDownloadParallelism <= 0 {
		cfg.WorkerDownloadParallelism = 1
	}

	return cfg, nil
}

// BaseURL returns the external API root including the deployment stage,
// e.g. "https://api.example.com/dev".
func (c *Config) BaseURL() string {
	if c.APIStage == "" {
		return c.APIBaseURL
	}
	return c.APIBaseURL + "/" + c.APIStage
}
