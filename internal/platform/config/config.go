package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	hubstrings "hub/pkg/platform/strings"
)

// Config is the resolved runtime configuration for the hub worker and hubctl.
// Resolution order is defaults, then the optional YAML file, then environment.
type Config struct {
	AdminAddr string
	// AdminToken guards the operator resubmit endpoint. Empty disables it.
	AdminToken string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	IdentityStore ServiceConfig
	StageBased    ServiceConfig
	Jembi         JembiConfig

	Retry RetryConfig

	// CatalogCacheTTL bounds how long messageset and schedule lookups are cached.
	CatalogCacheTTL time.Duration
	// StageMarkerTTL bounds how long per-record pipeline markers are kept.
	StageMarkerTTL time.Duration
	// TaskMaxAttempts caps redeliveries of a stage that keeps failing transiently.
	TaskMaxAttempts int
}

// PostgresConfig locates the record store.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

// RedisConfig controls the go-redis client used for stage markers and caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig controls the pipeline task queue.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Partitions    int32
	Replication   int16
}

// ServiceConfig addresses a token-authenticated seed service.
type ServiceConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// JembiConfig addresses the compliance reporting service.
type JembiConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	// InsecureSkipVerify disables TLS verification. Defaults to true to match
	// the deployed Jembi endpoints; turn it off once they present valid certs.
	InsecureSkipVerify bool
	// RequestsPerSecond throttles outbound submissions; zero disables it.
	RequestsPerSecond float64
}

// RetryConfig parameterises the submission retry policy.
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	JitterFraction float64
}

// configFile mirrors the YAML schema. Durations are Go duration strings.
type configFile struct {
	AdminAddr  string `yaml:"admin_addr"`
	AdminToken string `yaml:"admin_token"`
	Postgres   struct {
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"postgres"`
	Redis struct {
		URL      string `yaml:"url"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		Topic         string   `yaml:"topic"`
		ConsumerGroup string   `yaml:"consumer_group"`
		Partitions    int32    `yaml:"partitions"`
	} `yaml:"kafka"`
	Services struct {
		IdentityStore serviceFile `yaml:"identity_store"`
		StageBased    serviceFile `yaml:"stage_based_messaging"`
	} `yaml:"services"`
	Jembi struct {
		BaseURL            string  `yaml:"base_url"`
		Username           string  `yaml:"username"`
		Password           string  `yaml:"password"`
		Timeout            string  `yaml:"timeout"`
		InsecureSkipVerify *bool   `yaml:"insecure_skip_verify"`
		RequestsPerSecond  float64 `yaml:"requests_per_second"`
	} `yaml:"jembi"`
	Retry struct {
		MaxAttempts    int     `yaml:"max_attempts"`
		BaseDelay      string  `yaml:"base_delay"`
		JitterFraction float64 `yaml:"jitter_fraction"`
	} `yaml:"retry"`
	CatalogCacheTTL string `yaml:"catalog_cache_ttl"`
	StageMarkerTTL  string `yaml:"stage_marker_ttl"`
	TaskMaxAttempts int    `yaml:"task_max_attempts"`
}

type serviceFile struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// Defaults returns the baseline configuration used before file and env overrides.
func Defaults() Config {
	return Config{
		AdminAddr: ":8080",
		Postgres:  PostgresConfig{MaxOpenConns: 10},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			Topic:         "hub.pipeline",
			ConsumerGroup: "hub-worker",
			Partitions:    6,
			Replication:   1,
		},
		IdentityStore: ServiceConfig{Timeout: 10 * time.Second},
		StageBased:    ServiceConfig{Timeout: 10 * time.Second},
		Jembi: JembiConfig{
			Timeout:            30 * time.Second,
			InsecureSkipVerify: true,
		},
		Retry: RetryConfig{
			MaxAttempts:    11,
			BaseDelay:      time.Second,
			JitterFraction: 0.25,
		},
		CatalogCacheTTL: 10 * time.Minute,
		StageMarkerTTL:  30 * 24 * time.Hour,
		TaskMaxAttempts: 5,
	}
}

// Load resolves configuration: defaults -> YAML file at path (if non-empty) -> env.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var file configFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if err := applyFile(&cfg, file); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks invariants that would otherwise surface as confusing runtime errors.
func (c Config) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.JitterFraction < 0 {
		return fmt.Errorf("retry jitter fraction must be >= 0, got %v", c.Retry.JitterFraction)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry base delay must be >= 0, got %v", c.Retry.BaseDelay)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

func applyFile(cfg *Config, f configFile) error {
	setString(&cfg.AdminAddr, f.AdminAddr)
	setString(&cfg.AdminToken, f.AdminToken)
	if f.TaskMaxAttempts > 0 {
		cfg.TaskMaxAttempts = f.TaskMaxAttempts
	}
	setString(&cfg.Postgres.DSN, f.Postgres.DSN)
	if f.Postgres.MaxOpenConns > 0 {
		cfg.Postgres.MaxOpenConns = f.Postgres.MaxOpenConns
	}
	setString(&cfg.Redis.URL, f.Redis.URL)
	if f.Redis.PoolSize > 0 {
		cfg.Redis.PoolSize = f.Redis.PoolSize
	}
	if len(f.Kafka.Brokers) > 0 {
		cfg.Kafka.Brokers = f.Kafka.Brokers
	}
	setString(&cfg.Kafka.Topic, f.Kafka.Topic)
	setString(&cfg.Kafka.ConsumerGroup, f.Kafka.ConsumerGroup)
	if f.Kafka.Partitions > 0 {
		cfg.Kafka.Partitions = f.Kafka.Partitions
	}
	if err := applyServiceFile(&cfg.IdentityStore, f.Services.IdentityStore); err != nil {
		return fmt.Errorf("identity_store: %w", err)
	}
	if err := applyServiceFile(&cfg.StageBased, f.Services.StageBased); err != nil {
		return fmt.Errorf("stage_based_messaging: %w", err)
	}
	setString(&cfg.Jembi.BaseURL, f.Jembi.BaseURL)
	setString(&cfg.Jembi.Username, f.Jembi.Username)
	setString(&cfg.Jembi.Password, f.Jembi.Password)
	if err := setDuration(&cfg.Jembi.Timeout, f.Jembi.Timeout); err != nil {
		return fmt.Errorf("jembi.timeout: %w", err)
	}
	if f.Jembi.InsecureSkipVerify != nil {
		cfg.Jembi.InsecureSkipVerify = *f.Jembi.InsecureSkipVerify
	}
	if f.Jembi.RequestsPerSecond > 0 {
		cfg.Jembi.RequestsPerSecond = f.Jembi.RequestsPerSecond
	}
	if f.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = f.Retry.MaxAttempts
	}
	if err := setDuration(&cfg.Retry.BaseDelay, f.Retry.BaseDelay); err != nil {
		return fmt.Errorf("retry.base_delay: %w", err)
	}
	if f.Retry.JitterFraction > 0 {
		cfg.Retry.JitterFraction = f.Retry.JitterFraction
	}
	if err := setDuration(&cfg.StageMarkerTTL, f.StageMarkerTTL); err != nil {
		return fmt.Errorf("stage_marker_ttl: %w", err)
	}
	if err := setDuration(&cfg.CatalogCacheTTL, f.CatalogCacheTTL); err != nil {
		return fmt.Errorf("catalog_cache_ttl: %w", err)
	}
	return nil
}

func applyServiceFile(dst *ServiceConfig, f serviceFile) error {
	setString(&dst.URL, f.URL)
	setString(&dst.Token, f.Token)
	return setDuration(&dst.Timeout, f.Timeout)
}

func applyEnv(cfg *Config) error {
	setString(&cfg.AdminAddr, os.Getenv("HUB_ADMIN_ADDR"))
	setString(&cfg.AdminToken, os.Getenv("HUB_ADMIN_TOKEN"))
	setString(&cfg.Postgres.DSN, os.Getenv("DATABASE_URL"))
	setString(&cfg.Redis.URL, os.Getenv("REDIS_URL"))
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = hubstrings.SplitList(brokers, ",")
	}
	setString(&cfg.Kafka.Topic, os.Getenv("KAFKA_TOPIC"))
	setString(&cfg.IdentityStore.URL, os.Getenv("IDENTITY_STORE_URL"))
	setString(&cfg.IdentityStore.Token, os.Getenv("IDENTITY_STORE_TOKEN"))
	setString(&cfg.StageBased.URL, os.Getenv("STAGE_BASED_MESSAGING_URL"))
	setString(&cfg.StageBased.Token, os.Getenv("STAGE_BASED_MESSAGING_TOKEN"))
	setString(&cfg.Jembi.BaseURL, os.Getenv("JEMBI_BASE_URL"))
	setString(&cfg.Jembi.Username, os.Getenv("JEMBI_USERNAME"))
	setString(&cfg.Jembi.Password, os.Getenv("JEMBI_PASSWORD"))
	if v := os.Getenv("JEMBI_INSECURE_SKIP_VERIFY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("JEMBI_INSECURE_SKIP_VERIFY: %w", err)
		}
		cfg.Jembi.InsecureSkipVerify = b
	}
	if v := os.Getenv("SUBMISSION_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SUBMISSION_MAX_ATTEMPTS: %w", err)
		}
		cfg.Retry.MaxAttempts = n
	}
	return setDuration(&cfg.Retry.BaseDelay, os.Getenv("SUBMISSION_BASE_DELAY"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
