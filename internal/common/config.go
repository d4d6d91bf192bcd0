package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderVertex    = "vertex"
)

// Store drivers accepted in store.driver. An empty driver disables the journal.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// OCRConfig holds text acquisition configuration
type OCRConfig struct {
	Pdftoppm      string `yaml:"pdftoppm"`
	Tesseract     string `yaml:"tesseract"`
	HeicConverter string `yaml:"heicConverter"`
	Languages     string `yaml:"languages"`
	TessdataDir   string `yaml:"tessdataDir"`
	DPI           int    `yaml:"dpi"`
	// Pages whose embedded text is shorter than this (after trimming) are OCRed.
	MinPageText int    `yaml:"minPageText"`
	TempDir     string `yaml:"tempDir"`
}

// LLMConfig holds language model configuration
type LLMConfig struct {
	Provider           string        `yaml:"provider"`
	Model              string        `yaml:"model"`
	APIKey             string        `yaml:"apiKey"`
	BaseURL            string        `yaml:"baseURL"`
	MaxOutputTokens    int           `yaml:"maxOutputTokens"`
	Temperature        float32       `yaml:"temperature"`
	StopSequences      []string      `yaml:"stopSequences"`
	Timeout            time.Duration `yaml:"timeout"`
	MaxRetries         int           `yaml:"maxRetries"`
	RetryBackoff       time.Duration `yaml:"retryBackoff"`
	RetryMaxBackoff    time.Duration `yaml:"retryMaxBackoff"`
	PromptTemplateFile string        `yaml:"promptTemplateFile"`

	// Vertex only.
	ProjectID       string `yaml:"projectID"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// PipelineConfig holds driver configuration
type PipelineConfig struct {
	DocumentTimeout time.Duration `yaml:"documentTimeout"`
}

// StoreConfig holds journal database configuration
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"maxConns"`
	MinConns        int32         `yaml:"minConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
}

// CacheConfig holds extraction cache configuration. An empty path disables it.
type CacheConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			HeicConverter: "magick",
			Languages:     "eng+ces",
			DPI:           300,
			MinPageText:   10,
		},
		LLM: LLMConfig{
			Provider:        ProviderOpenAI,
			MaxOutputTokens: 2048,
			Temperature:     0,
			Timeout:         60 * time.Second,
			MaxRetries:      3,
			RetryBackoff:    time.Second,
			RetryMaxBackoff: 20 * time.Second,
			Location:        "us-central1",
		},
		Pipeline: PipelineConfig{
			DocumentTimeout: 5 * time.Minute,
		},
		Store: StoreConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers defaults, the optional YAML file at path, a .env file in
// the working directory and the process environment, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file", err)
		}
	}

	// godotenv.Load never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError("CONFIG_ERROR", "load .env", err)
	}

	cfg.applyEnv()
	cfg.fillModelDefault()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.OCR.Pdftoppm = getEnv("PDFTOPPM", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("TESSERACT", c.OCR.Tesseract)
	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)
	c.OCR.Languages = getEnv("OCR_LANGUAGES", c.OCR.Languages)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MinPageText = getEnvAsInt("OCR_MIN_PAGE_TEXT", c.OCR.MinPageText)
	c.OCR.TempDir = getEnv("OCR_TEMP_DIR", c.OCR.TempDir)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.MaxOutputTokens = getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", c.LLM.MaxOutputTokens)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.MaxRetries = getEnvAsInt("LLM_MAX_RETRIES", c.LLM.MaxRetries)
	c.LLM.RetryBackoff = getEnvAsDuration("LLM_RETRY_BACKOFF", c.LLM.RetryBackoff)
	c.LLM.RetryMaxBackoff = getEnvAsDuration("LLM_RETRY_MAX_BACKOFF", c.LLM.RetryMaxBackoff)
	c.LLM.PromptTemplateFile = getEnv("LLM_PROMPT_TEMPLATE_FILE", c.LLM.PromptTemplateFile)
	if stops := getEnv("LLM_STOP_SEQUENCES", ""); stops != "" {
		c.LLM.StopSequences = strings.Split(stops, ",")
	}
	c.LLM.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", c.LLM.ProjectID)
	c.LLM.Location = getEnv("GOOGLE_CLOUD_LOCATION", c.LLM.Location)
	c.LLM.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.LLM.CredentialsFile)

	// Provider-specific key first, then the generic one.
	switch c.LLM.Provider {
	case ProviderOpenAI:
		c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	case ProviderAnthropic:
		c.LLM.APIKey = getEnv("ANTHROPIC_API_KEY", c.LLM.APIKey)
	}
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)

	c.Pipeline.DocumentTimeout = getEnvAsDuration("PIPELINE_DOCUMENT_TIMEOUT", c.Pipeline.DocumentTimeout)

	c.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", c.Store.Driver))
	c.Store.DSN = getEnv("DB_URL", c.Store.DSN)
	c.Store.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Store.MaxConns)
	c.Store.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Store.MinConns)
	c.Store.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Store.MaxConnLifetime)
	c.Store.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Store.MaxConnIdleTime)
	c.Store.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Store.DialTimeout)

	c.Cache.Path = getEnv("CACHE_PATH", c.Cache.Path)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) fillModelDefault() {
	if c.LLM.Model != "" {
		return
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		c.LLM.Model = "gpt-4o-mini"
	case ProviderAnthropic:
		c.LLM.Model = "claude-3-5-haiku-latest"
	case ProviderVertex:
		c.LLM.Model = "gemini-1.5-flash-002"
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration and reports every problem at once.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("llm.provider", c.LLM.Provider, OneOf(ProviderOpenAI, ProviderAnthropic, ProviderVertex))
	v.Field("llm.model", c.LLM.Model, Required)
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		v.Field("llm.apiKey", c.LLM.APIKey, Required)
	case ProviderVertex:
		v.Field("llm.projectID", c.LLM.ProjectID, Required)
		v.Field("llm.location", c.LLM.Location, Required)
	}
	v.Check(c.LLM.Temperature == 0, "llm.temperature", c.LLM.Temperature, "must be 0")
	v.Check(c.LLM.MaxRetries >= 0, "llm.maxRetries", c.LLM.MaxRetries, "must not be negative")
	v.Field("llm.maxOutputTokens", c.LLM.MaxOutputTokens, Positive)
	v.Field("llm.timeout", c.LLM.Timeout, Positive)
	v.Field("pipeline.documentTimeout", c.Pipeline.DocumentTimeout, Positive)
	v.Field("ocr.dpi", c.OCR.DPI, Positive)
	v.Check(c.OCR.MinPageText >= 0, "ocr.minPageText", c.OCR.MinPageText, "must not be negative")
	v.Field("store.driver", c.Store.Driver, OneOf("", StoreDriverSQLite, StoreDriverPostgres))
	if c.Store.Driver != "" {
		v.Field("store.dsn", c.Store.DSN, Required)
	}
	v.Field("log.format", c.Log.Format, OneOf("json", "text"))

	if err := v.Error(); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid configuration", err)
	}
	return nil
}

// String renders the config with secrets masked, for startup logs.
func (c *Config) String() string {
	key := ""
	if c.LLM.APIKey != "" {
		key = "***"
	}
	return fmt.Sprintf("provider=%s model=%s key=%s store=%s cache=%q", c.LLM.Provider, c.LLM.Model, key, c.Store.Driver, c.Cache.Path)
}
