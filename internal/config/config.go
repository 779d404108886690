package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Document store drivers.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds the tgassist configuration shared by the bot and the summarizer.
type Config struct {
	Telegram      TelegramConfig      `yaml:"telegram"`
	Database      DatabaseConfig      `yaml:"database"`
	Documents     DocumentsConfig     `yaml:"documents"`
	Redis         RedisConfig         `yaml:"redis"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Book          BookConfig          `yaml:"book"`
	Notifications NotificationsConfig `yaml:"notifications"`
	HTTP          HTTPConfig          `yaml:"http"`
	Summarizer    SummarizerConfig    `yaml:"summarizer"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// TelegramConfig holds bot API settings.
type TelegramConfig struct {
	Token           string `yaml:"token"`
	ChannelUsername string `yaml:"channel_username"` // without leading @
	AdminID         int64  `yaml:"admin_id"`
	PollTimeoutSec  int    `yaml:"poll_timeout_sec"`
	Workers         int    `yaml:"workers"` // updates handled concurrently
	Debug           bool   `yaml:"debug"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	DSN                string `yaml:"dsn"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	ReadinessTimeout   int    `yaml:"readiness_timeout_sec"`
}

// DocumentsConfig selects the document store backend.
type DocumentsConfig struct {
	Driver      string `yaml:"driver"` // postgres, redis (default: postgres)
	Table       string `yaml:"table"`
	RPCFunction string `yaml:"rpc_function"`
}

// RedisConfig holds Redis settings for the redis document driver and the embedding cache.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	IndexName        string   `yaml:"index_name"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	EmbeddingCache   bool     `yaml:"embedding_cache"`
	CacheTTLHours    int      `yaml:"cache_ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RetrievalConfig holds similarity retrieval settings.
type RetrievalConfig struct {
	Limit         int     `yaml:"limit"`
	Threshold     float64 `yaml:"threshold"`
	TierTimeoutMs int     `yaml:"tier_timeout_ms"`
}

// BookConfig points to the gated bonus file.
type BookConfig struct {
	Path    string `yaml:"path"`
	Caption string `yaml:"caption"`
}

// NotificationsConfig controls the reminder scheduler.
type NotificationsConfig struct {
	Enabled     bool `yaml:"enabled"`
	TickSec     int  `yaml:"tick_sec"`
	SendDelayMs int  `yaml:"send_delay_ms"`
}

// HTTPConfig holds ops HTTP server settings (/health, /metrics).
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AuthTokens      []string `yaml:"auth_tokens"` // Bearer tokens for /metrics; empty disables auth
}

// SummarizerConfig holds settings for the offline metadata generator.
type SummarizerConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	InputDir   string `yaml:"input_dir"`
	OutputPath string `yaml:"output_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// TierTimeout returns the per-tier retrieval timeout.
func (r RetrievalConfig) TierTimeout() time.Duration {
	return time.Duration(r.TierTimeoutMs) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in raw YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Telegram.PollTimeoutSec <= 0 {
		c.Telegram.PollTimeoutSec = 60
	}
	if c.Telegram.Workers <= 0 {
		c.Telegram.Workers = 8
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeSec <= 0 {
		c.Database.ConnMaxLifetimeSec = 300
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Documents.Driver == "" {
		c.Documents.Driver = DriverPostgres
	}
	if c.Documents.Table == "" {
		c.Documents.Table = "documents"
	}
	if c.Documents.RPCFunction == "" {
		c.Documents.RPCFunction = "search_similar_documents"
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "tgassist:"
	}
	if c.Redis.IndexName == "" {
		c.Redis.IndexName = "tgassist-docs"
	}
	if c.Redis.HNSWM <= 0 {
		c.Redis.HNSWM = 16
	}
	if c.Redis.HNSWEFConstruct <= 0 {
		c.Redis.HNSWEFConstruct = 200
	}
	if c.Redis.CacheTTLHours <= 0 {
		c.Redis.CacheTTLHours = 24 * 7
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Retrieval.Limit <= 0 {
		c.Retrieval.Limit = 5
	}
	if c.Retrieval.TierTimeoutMs <= 0 {
		c.Retrieval.TierTimeoutMs = 3000
	}
	if c.Notifications.TickSec <= 0 {
		c.Notifications.TickSec = 60
	}
	if c.Notifications.SendDelayMs <= 0 {
		c.Notifications.SendDelayMs = 100
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = "gpt-4o-mini"
	}
	if c.Summarizer.MaxTokens <= 0 {
		c.Summarizer.MaxTokens = 1000
	}
	if c.Summarizer.InputDir == "" {
		c.Summarizer.InputDir = "data/pdf"
	}
	if c.Summarizer.OutputPath == "" {
		c.Summarizer.OutputPath = "configs/pdf_descriptions.json"
	}
}

// Validate checks the configuration for correctness.
// Credentials are checked by the binary that needs them.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	switch c.Documents.Driver {
	case DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("documents.driver must be %q or %q, got %q", DriverPostgres, DriverRedis, c.Documents.Driver)
	}
	if c.NeedsRedis() && len(c.Redis.Addrs) == 0 {
		return fmt.Errorf("redis.addrs is required when documents.driver is redis or redis.embedding_cache is on")
	}
	if !isIdentifier(c.Documents.Table) || !isIdentifier(c.Documents.RPCFunction) {
		return fmt.Errorf("documents.table and documents.rpc_function must be plain SQL identifiers")
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		return fmt.Errorf("retrieval.threshold must be within [0,1], got %g", c.Retrieval.Threshold)
	}
	return nil
}

// ValidateBot checks the settings only the Telegram bot needs.
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.ChannelUsername == "" {
		return fmt.Errorf("telegram.channel_username is required")
	}
	if strings.HasPrefix(c.Telegram.ChannelUsername, "@") {
		return fmt.Errorf("telegram.channel_username must not start with @")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	return nil
}

// NeedsRedis reports whether any component is backed by Redis.
func (c *Config) NeedsRedis() bool {
	return c.Documents.Driver == DriverRedis || c.Redis.EmbeddingCache
}

var identRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isIdentifier(s string) bool { return identRegex.MatchString(s) }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
