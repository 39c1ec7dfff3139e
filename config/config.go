package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the research assistant
type Config struct {
	General   GeneralConfig   `mapstructure:"general" json:"general" yaml:"general"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" json:"pipeline" yaml:"pipeline"`
	LLM       LLMConfig       `mapstructure:"llm" json:"llm" yaml:"llm"`
	Search    SearchConfig    `mapstructure:"search" json:"search" yaml:"search"`
	Storage   StorageConfig   `mapstructure:"storage" json:"storage" yaml:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry" yaml:"telemetry"`
	Server    ServerConfig    `mapstructure:"server" json:"server" yaml:"server"`
	Schedule  ScheduleConfig  `mapstructure:"schedule" json:"schedule" yaml:"schedule"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug" json:"debug" yaml:"debug"`
	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// PipelineConfig is the per-run configuration of the retrieval-to-answer
// pipeline. A copy is stored on every research result.
type PipelineConfig struct {
	TopK               int           `mapstructure:"top_k" json:"top_k" yaml:"top_k" validate:"gte=1"`
	MaxPages           int           `mapstructure:"max_pages" json:"max_pages" yaml:"max_pages" validate:"gte=1"`
	RelevanceThreshold float64       `mapstructure:"relevance_threshold" json:"relevance_threshold" yaml:"relevance_threshold" validate:"gte=0,lte=1"`
	EnableGrading      bool          `mapstructure:"enable_grading" json:"enable_grading" yaml:"enable_grading"`
	MinContentLength   int           `mapstructure:"min_content_length" json:"min_content_length" yaml:"min_content_length" validate:"gte=0"`
	MaxContentLength   int           `mapstructure:"max_content_length" json:"max_content_length" yaml:"max_content_length" validate:"gte=0"`
	SeleniumEnabled    bool          `mapstructure:"selenium_enabled" json:"selenium_enabled" yaml:"selenium_enabled"`
	EnhancedExtraction bool          `mapstructure:"enhanced_extraction" json:"enhanced_extraction" yaml:"enhanced_extraction"`
	Timeout            time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gte=0"`
	FetchDelay         time.Duration `mapstructure:"fetch_delay" json:"fetch_delay" yaml:"fetch_delay" validate:"gte=0"`
	UserAgent          string        `mapstructure:"user_agent" json:"user_agent" yaml:"user_agent"`
	Institution        string        `mapstructure:"institution" json:"institution" yaml:"institution"`
	HomeURL            string        `mapstructure:"home_url" json:"home_url" yaml:"home_url"`
}

// DefaultPipelineConfig mirrors the defaults registered with viper.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopK:               10,
		MaxPages:           5,
		RelevanceThreshold: 0.6,
		EnableGrading:      true,
		MinContentLength:   0,
		MaxContentLength:   200000,
		SeleniumEnabled:    false,
		EnhancedExtraction: true,
		Timeout:            30 * time.Second,
		FetchDelay:         time.Second,
		UserAgent:          "NCSU Research Assistant Bot 1.0",
		Institution:        "NCSU",
		HomeURL:            "https://www.ncsu.edu/",
	}
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers" json:"providers" yaml:"providers" validate:"required,dive"`
	Routing   LLMRoutingConfig       `mapstructure:"routing" json:"routing" yaml:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type         string        `mapstructure:"type" json:"type" yaml:"type" validate:"required,oneof=openai anthropic ollama gemini mock"`
	APIKey       string        `mapstructure:"api_key" json:"-" yaml:"-"`
	BaseURL      string        `mapstructure:"base_url" json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model        string        `mapstructure:"model" json:"model,omitempty" yaml:"model,omitempty"`
	Temperature  float64       `mapstructure:"temperature" json:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int           `mapstructure:"max_tokens" json:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" json:"retry_backoff" yaml:"retry_backoff"`
}

// LLMRoutingConfig defines which provider serves each pipeline task
type LLMRoutingConfig struct {
	Grading   string `mapstructure:"grading" json:"grading" yaml:"grading"`
	Synthesis string `mapstructure:"synthesis" json:"synthesis" yaml:"synthesis"`
}

// Validate ensures every route points at a configured provider.
func (c LLMConfig) Validate() error {
	if len(c.Providers) == 0 {
		return fmt.Errorf("llm.providers must not be empty")
	}
	for task, name := range map[string]string{"grading": c.Routing.Grading, "synthesis": c.Routing.Synthesis} {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("llm.routing.%s required", task)
		}
		if _, ok := c.Providers[name]; !ok {
			return fmt.Errorf("llm.routing.%s references unknown provider %q", task, name)
		}
	}
	return nil
}

// SearchConfig contains page discovery settings
type SearchConfig struct {
	Provider     string        `mapstructure:"provider" json:"provider" yaml:"provider" validate:"oneof=site browser serper brave index"`
	Site         string        `mapstructure:"site" json:"site" yaml:"site"`
	SearchURL    string        `mapstructure:"search_url" json:"search_url" yaml:"search_url"`
	SerperAPIKey string        `mapstructure:"serper_api_key" json:"-" yaml:"-"`
	BraveAPIKey  string        `mapstructure:"brave_api_key" json:"-" yaml:"-"`
	CatalogPath  string        `mapstructure:"catalog_path" json:"catalog_path" yaml:"catalog_path"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	Domains      DomainPolicy  `mapstructure:"domains" json:"domains" yaml:"domains"`
}

// Validate checks provider-specific requirements.
func (s SearchConfig) Validate() error {
	switch s.Provider {
	case "serper":
		if strings.TrimSpace(s.SerperAPIKey) == "" {
			return fmt.Errorf("search.serper_api_key required for serper provider")
		}
	case "brave":
		if strings.TrimSpace(s.BraveAPIKey) == "" {
			return fmt.Errorf("search.brave_api_key required for brave provider")
		}
	case "index":
		if strings.TrimSpace(s.CatalogPath) == "" {
			return fmt.Errorf("search.catalog_path required for index provider")
		}
	case "site", "browser":
		if strings.TrimSpace(s.SearchURL) == "" {
			return fmt.Errorf("search.search_url required for %s provider", s.Provider)
		}
	}
	return s.Domains.Validate()
}

// StorageConfig contains result persistence settings
type StorageConfig struct {
	Driver   string         `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=none file postgres redis"`
	File     FileConfig     `mapstructure:"file" json:"file" yaml:"file"`
	Redis    RedisConfig    `mapstructure:"redis" json:"redis" yaml:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres" json:"postgres" yaml:"postgres"`
}

// Validate checks the section for the selected driver only.
func (s StorageConfig) Validate() error {
	switch s.Driver {
	case "file":
		if strings.TrimSpace(s.File.OutputDir) == "" {
			return fmt.Errorf("storage.file.output_dir required")
		}
	case "redis":
		return s.Redis.Validate()
	case "postgres":
		return s.Postgres.Validate()
	}
	return nil
}

// FileConfig contains file storage settings
type FileConfig struct {
	OutputDir string `mapstructure:"output_dir" json:"output_dir" yaml:"output_dir"`
	Docx      bool   `mapstructure:"docx" json:"docx" yaml:"docx"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host      string        `mapstructure:"host" json:"host" yaml:"host"`
	Port      string        `mapstructure:"port" json:"port" yaml:"port"`
	Password  string        `mapstructure:"password" json:"-" yaml:"-"`
	DB        int           `mapstructure:"db" json:"db" yaml:"db"`
	KeyPrefix string        `mapstructure:"key_prefix" json:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL         string        `mapstructure:"url" json:"-" yaml:"-"`
	Host        string        `mapstructure:"host" json:"host" yaml:"host"`
	Port        string        `mapstructure:"port" json:"port" yaml:"port"`
	User        string        `mapstructure:"user" json:"user" yaml:"user"`
	Password    string        `mapstructure:"password" json:"-" yaml:"-"`
	DBName      string        `mapstructure:"dbname" json:"dbname" yaml:"dbname"`
	SSLMode     string        `mapstructure:"sslmode" json:"sslmode" yaml:"sslmode"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	AutoMigrate bool          `mapstructure:"auto_migrate" json:"auto_migrate" yaml:"auto_migrate"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN returns the configured URL or builds one from the individual fields.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", p.User, p.Password, net.JoinHostPort(p.Host, p.Port), p.DBName, ssl)
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port" json:"metrics_port" yaml:"metrics_port"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name" yaml:"service_name"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address" json:"address" yaml:"address"`
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
}

// ScheduleConfig lists recurring research questions.
type ScheduleConfig struct {
	Jobs []ScheduleJob `mapstructure:"jobs" json:"jobs" yaml:"jobs" validate:"dive"`
}

// ScheduleJob is a question re-asked on a cron schedule.
type ScheduleJob struct {
	Name  string `mapstructure:"name" json:"name" yaml:"name" validate:"required"`
	Query string `mapstructure:"query" json:"query" yaml:"query" validate:"required"`
	Cron  string `mapstructure:"cron" json:"cron" yaml:"cron" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation followed by the per-section checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, check := range []func() error{
		c.LLM.Validate,
		c.Search.Validate,
		c.Storage.Validate,
		c.Telemetry.Validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	p := DefaultPipelineConfig()
	v.SetDefault("general.log_level", "info")
	v.SetDefault("pipeline.top_k", p.TopK)
	v.SetDefault("pipeline.max_pages", p.MaxPages)
	v.SetDefault("pipeline.relevance_threshold", p.RelevanceThreshold)
	v.SetDefault("pipeline.enable_grading", p.EnableGrading)
	v.SetDefault("pipeline.min_content_length", p.MinContentLength)
	v.SetDefault("pipeline.max_content_length", p.MaxContentLength)
	v.SetDefault("pipeline.selenium_enabled", p.SeleniumEnabled)
	v.SetDefault("pipeline.enhanced_extraction", p.EnhancedExtraction)
	v.SetDefault("pipeline.timeout", p.Timeout)
	v.SetDefault("pipeline.fetch_delay", p.FetchDelay)
	v.SetDefault("pipeline.user_agent", p.UserAgent)
	v.SetDefault("pipeline.institution", p.Institution)
	v.SetDefault("pipeline.home_url", p.HomeURL)

	v.SetDefault("llm.providers.mock.type", "mock")
	v.SetDefault("llm.routing.grading", "mock")
	v.SetDefault("llm.routing.synthesis", "mock")

	v.SetDefault("search.provider", "site")
	v.SetDefault("search.site", "ncsu.edu")
	v.SetDefault("search.search_url", "https://www.ncsu.edu/search/")
	v.SetDefault("search.timeout", 30*time.Second)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.file.output_dir", "results")
	v.SetDefault("storage.redis.key_prefix", "askcampus")
	v.SetDefault("storage.postgres.sslmode", "disable")

	v.SetDefault("telemetry.service_name", "askcampus")

	v.SetDefault("server.address", ":10001")
}

// LoadConfig loads config from the given file (or the default search paths
// when path is empty), applies ASKCAMPUS_* environment overrides and validates
// the result. A missing config file is not an error when path is empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("ASKCAMPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Search.Domains = cfg.Search.Domains.WithSite(cfg.Search.Site).Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
