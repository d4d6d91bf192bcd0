package openai

import (
	"log/slog"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config for the OpenAI client.
type Config struct {
	APIKey          string
	BaseURL         string // default https://api.openai.com/v1
	Model           string // e.g., "gpt-4o-mini"
	Temperature     float32
	MaxOutputTokens int
	StopSequences   []string
	Timeout         time.Duration // per HTTP call
}

type Client struct {
	cfg    Config
	api    *goopenai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		cfg:    cfg,
		api:    goopenai.NewClientWithConfig(apiCfg),
		logger: logger,
	}
}

// Model is the model name requests are sent to.
func (c *Client) Model() string { return c.cfg.Model }
