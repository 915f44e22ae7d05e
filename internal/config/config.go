package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds the docapi configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Upload     UploadConfig     `yaml:"upload"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds document store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds document layout settings for the redis driver.
type StorageConfig struct {
	KeyPrefix        string   `yaml:"key_prefix"`
	FilterableFields []string `yaml:"filterable_fields"` // meta fields indexed for filter pushdown
	PageSize         int      `yaml:"page_size"`
}

// UploadConfig holds CSV upload settings.
type UploadConfig struct {
	Dir         string `yaml:"dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) << 20
}

// PreprocessConfig holds document segmentation settings.
type PreprocessConfig struct {
	CleanWhitespace         *bool  `yaml:"clean_whitespace"`
	CleanEmptyLines         *bool  `yaml:"clean_empty_lines"`
	SplitLength             int    `yaml:"split_length"` // words per chunk
	SplitOverlap            int    `yaml:"split_overlap"`
	RespectSentenceBoundary *bool  `yaml:"respect_sentence_boundary"`
	Language                string `yaml:"language"` // pt, en
}

// EmbeddingConfig holds the optional embedding provider. An empty provider disables embeddings.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	BatchSize   int    `yaml:"batch_size"`
	Instruction string `yaml:"instruction"`
}

// Enabled reports whether ingestion should embed chunks.
func (e EmbeddingConfig) Enabled() bool { return e.Provider != "" }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "docapi:"
	}
	if c.Storage.PageSize <= 0 {
		c.Storage.PageSize = 500
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "file-upload"
	}
	if c.Upload.MaxUploadMB <= 0 {
		c.Upload.MaxUploadMB = 32
	}
	if c.Preprocess.CleanWhitespace == nil {
		c.Preprocess.CleanWhitespace = boolPtr(true)
	}
	if c.Preprocess.CleanEmptyLines == nil {
		c.Preprocess.CleanEmptyLines = boolPtr(true)
	}
	if c.Preprocess.RespectSentenceBoundary == nil {
		c.Preprocess.RespectSentenceBoundary = boolPtr(true)
	}
	if c.Preprocess.SplitLength <= 0 {
		c.Preprocess.SplitLength = 100
	}
	if c.Preprocess.Language == "" {
		c.Preprocess.Language = "pt"
	}
	if c.Embedding.Enabled() {
		if c.Embedding.BaseURL == "" {
			c.Embedding.BaseURL = "https://api.openai.com/v1"
		}
		if c.Embedding.BatchSize <= 0 {
			c.Embedding.BatchSize = 64
		}
	}
}

var fieldNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}

	for _, f := range c.Storage.FilterableFields {
		if !fieldNameRegex.MatchString(f) {
			return fmt.Errorf("storage.filterable_fields: %q must match %s", f, fieldNameRegex.String())
		}
	}

	switch c.Preprocess.Language {
	case "pt", "en":
	default:
		return fmt.Errorf("preprocess.language must be \"pt\" or \"en\", got %q", c.Preprocess.Language)
	}
	if c.Preprocess.SplitOverlap < 0 || c.Preprocess.SplitOverlap >= c.Preprocess.SplitLength {
		return fmt.Errorf(
			"preprocess.split_overlap must be in [0, %d), got %d",
			c.Preprocess.SplitLength, c.Preprocess.SplitOverlap,
		)
	}

	if c.Embedding.Enabled() && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when embedding.provider is set")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

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
