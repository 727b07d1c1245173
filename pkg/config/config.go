package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for schemasense-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (the augmenter API key) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Upload constraints enforced before the engine runs
	Upload UploadConfig `yaml:"upload"`

	// Engine tuning knobs
	Engine EngineConfig `yaml:"engine"`

	// Optional LLM-backed column description augmenter
	Augmenter AugmenterConfig `yaml:"augmenter"`
}

// UploadConfig bounds what the analyze endpoint accepts.
type UploadConfig struct {
	// MaxFileSizeBytes rejects payloads above this size (default 100 MiB).
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" env:"MAX_FILE_SIZE_BYTES" env-default:"104857600"`

	// AllowedExtensionsStr is a comma-separated list of accepted file
	// extensions (with leading dot).
	AllowedExtensionsStr string `yaml:"allowed_extensions" env:"ALLOWED_EXTENSIONS" env-default:".csv,.tsv,.txt"`

	// AllowedExtensions is the parsed form of AllowedExtensionsStr.
	AllowedExtensions []string `yaml:"-"`
}

// AllNullPolicy controls how columns with no non-null values are typed.
type AllNullPolicy string

const (
	// AllNullPolicyVarchar types all-null columns as nullable VARCHAR(255).
	AllNullPolicyVarchar AllNullPolicy = "varchar"
	// AllNullPolicyFlag does the same but adds a recommendation to consider
	// excluding the column from the table.
	AllNullPolicyFlag AllNullPolicy = "flag"
)

// EngineConfig holds inference engine tuning knobs.
type EngineConfig struct {
	// AnalysisTimeoutSeconds is the wall-clock budget for one analysis.
	AnalysisTimeoutSeconds int `yaml:"analysis_timeout_seconds" env:"ANALYSIS_TIMEOUT_SECONDS" env-default:"300"`

	// SampleValueLimit caps how many distinct sample values are kept per column.
	SampleValueLimit int `yaml:"sample_value_limit" env:"SAMPLE_VALUE_LIMIT" env-default:"5"`

	// MatchThreshold is the fraction of non-null values that must match a
	// pattern before a logical type is assigned (0..1].
	MatchThreshold float64 `yaml:"match_threshold" env:"MATCH_THRESHOLD" env-default:"0.90"`

	// MaxColumnWorkers bounds per-column parallelism within one analysis.
	MaxColumnWorkers int `yaml:"max_column_workers" env:"MAX_COLUMN_WORKERS" env-default:"8"`

	// AllNullColumnPolicy is "varchar" or "flag".
	AllNullColumnPolicy AllNullPolicy `yaml:"all_null_column_policy" env:"ALL_NULL_COLUMN_POLICY" env-default:"varchar"`
}

// AugmenterConfig holds settings for the optional description service.
// An OpenAI-compatible chat completion endpoint is assumed.
type AugmenterConfig struct {
	Enabled        bool   `yaml:"enabled" env:"AUGMENTER_ENABLED" env-default:"false"`
	Endpoint       string `yaml:"endpoint" env:"AUGMENTER_ENDPOINT" env-default:"https://api.groq.com/openai/v1"`
	Model          string `yaml:"model" env:"AUGMENTER_MODEL" env-default:"gemma2-9b-it"`
	APIKey         string `yaml:"-" env:"AUGMENTER_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"AUGMENTER_TIMEOUT_SECONDS" env-default:"30"`
	BatchSize      int    `yaml:"batch_size" env:"AUGMENTER_BATCH_SIZE" env-default:"15"`
}

// IsAvailable returns true if the augmenter is configured for live calls.
func (a *AugmenterConfig) IsAvailable() bool {
	return a.Enabled && a.Endpoint != "" && a.Model != "" && strings.TrimSpace(a.APIKey) != ""
}

// Load reads configuration from config.yaml with environment variable
// overrides. Missing config.yaml is not an error; env vars and defaults
// still apply. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// Fall back to env-only configuration when no YAML file is present.
		if err2 := cleanenv.ReadEnv(cfg); err2 != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err2)
		}
	}

	cfg.parseComplexFields()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() {
	c.Upload.AllowedExtensions = parseExtensions(c.Upload.AllowedExtensionsStr)
}

func (c *Config) validate() error {
	if c.Upload.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max_file_size_bytes must be positive, got %d", c.Upload.MaxFileSizeBytes)
	}
	if c.Engine.MatchThreshold <= 0 || c.Engine.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be in (0, 1], got %v", c.Engine.MatchThreshold)
	}
	if c.Engine.SampleValueLimit < 1 {
		return fmt.Errorf("sample_value_limit must be at least 1, got %d", c.Engine.SampleValueLimit)
	}
	switch c.Engine.AllNullColumnPolicy {
	case AllNullPolicyVarchar, AllNullPolicyFlag:
	default:
		return fmt.Errorf("all_null_column_policy must be %q or %q, got %q",
			AllNullPolicyVarchar, AllNullPolicyFlag, c.Engine.AllNullColumnPolicy)
	}
	if c.Augmenter.TimeoutSeconds >= c.Engine.AnalysisTimeoutSeconds {
		return fmt.Errorf("augmenter timeout (%ds) must be shorter than the analysis budget (%ds)",
			c.Augmenter.TimeoutSeconds, c.Engine.AnalysisTimeoutSeconds)
	}
	return nil
}

// parseExtensions parses the comma-separated extension list, normalizing to
// lower case with a leading dot.
func parseExtensions(value string) []string {
	var exts []string
	for _, raw := range strings.Split(value, ",") {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

// ExtensionAllowed reports whether the given filename carries an accepted
// delimited-text extension.
func (u *UploadConfig) ExtensionAllowed(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range u.AllowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
