package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = []string{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverMemory
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "valkey"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "redis" or "memory", got "valkey"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_FilterableFields(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		wantErr bool
	}{
		{"plain", []string{"name", "categoria"}, false},
		{"underscore and digits", []string{"_split_id", "field2"}, false},
		{"space", []string{"nome da startup"}, true},
		{"dot", []string{"meta.name"}, true},
		{"empty", []string{""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Storage.FilterableFields = tt.fields

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Preprocess(t *testing.T) {
	cfg := validConfig()
	cfg.Preprocess.Language = "de"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported language")
	}

	cfg = validConfig()
	cfg.Preprocess.SplitOverlap = cfg.Preprocess.SplitLength
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for overlap >= length")
	}
}

func TestValidate_EmbeddingRequiresModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "openai"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected Driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "docapi:" {
		t.Errorf("expected KeyPrefix='docapi:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Storage.PageSize != 500 {
		t.Errorf("expected PageSize=500, got %d", cfg.Storage.PageSize)
	}
	if cfg.Upload.Dir != "file-upload" {
		t.Errorf("expected Upload.Dir='file-upload', got %q", cfg.Upload.Dir)
	}
	if cfg.Upload.MaxUploadBytes() != 32<<20 {
		t.Errorf("expected MaxUploadBytes=32MiB, got %d", cfg.Upload.MaxUploadBytes())
	}
	if cfg.Preprocess.SplitLength != 100 {
		t.Errorf("expected SplitLength=100, got %d", cfg.Preprocess.SplitLength)
	}
	if cfg.Preprocess.Language != "pt" {
		t.Errorf("expected Language=pt, got %q", cfg.Preprocess.Language)
	}
	if !*cfg.Preprocess.CleanWhitespace || !*cfg.Preprocess.CleanEmptyLines || !*cfg.Preprocess.RespectSentenceBoundary {
		t.Error("expected preprocess switches to default to true")
	}
	if cfg.Embedding.BatchSize != 0 || cfg.Embedding.BaseURL != "" {
		t.Error("expected embedding defaults to stay unset while embedding is disabled")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 120, ShutdownSec: 5},
		Database:   DatabaseConfig{Driver: DriverMemory, ReadinessTimeout: 15},
		Storage:    StorageConfig{KeyPrefix: "custom:", PageSize: 50},
		Preprocess: PreprocessConfig{CleanWhitespace: &off, SplitLength: 200, Language: "en"},
		Embedding:  EmbeddingConfig{Provider: "nebius", BaseURL: "https://api.studio.nebius.ai/v1/", BatchSize: 8},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected Driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if *cfg.Preprocess.CleanWhitespace {
		t.Error("expected explicit clean_whitespace=false to survive defaults")
	}
	if cfg.Preprocess.SplitLength != 200 || cfg.Preprocess.Language != "en" {
		t.Errorf("preprocess overridden: %+v", cfg.Preprocess)
	}
	if cfg.Embedding.BatchSize != 8 || cfg.Embedding.BaseURL != "https://api.studio.nebius.ai/v1/" {
		t.Errorf("embedding overridden: %+v", cfg.Embedding)
	}
}

func TestApplyDefaults_EmbeddingEnabled(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small"}}
	cfg.ApplyDefaults()

	if cfg.Embedding.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("expected OpenAI base url, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.Embedding.BatchSize != 64 {
		t.Errorf("expected BatchSize=64, got %d", cfg.Embedding.BatchSize)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("DOCAPI_TEST_PORT", "9090")
	t.Setenv("DOCAPI_TEST_KEY", "")

	data := []byte(`
http:
  port: ${DOCAPI_TEST_PORT}
database:
  driver: memory
auth:
  api_keys: ["${DOCAPI_TEST_KEY:-fallback}"]
storage:
  filterable_fields: [name, categoria]
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "fallback" {
		t.Errorf("expected default api key, got %v", cfg.Auth.APIKeys)
	}
	if strings.Join(cfg.Storage.FilterableFields, ",") != "name,categoria" {
		t.Errorf("unexpected filterable fields %v", cfg.Storage.FilterableFields)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\ndatabase:\n  driver: redis\n")); err == nil {
		t.Error("expected validation error for missing addrs")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected port from config/local.yaml")
	}
}
