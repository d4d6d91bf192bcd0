// Package anthropic implements extraction over the Anthropic Messages API
// with a forced tool call.
package anthropic

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

const (
	provider   = "anthropic"
	apiVersion = "2023-06-01"
)

// Config for the Anthropic client.
type Config struct {
	APIKey          string
	BaseURL         string // default https://api.anthropic.com
	Model           string
	Temperature     float32
	MaxOutputTokens int
	StopSequences   []string
	Timeout         time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model         string            `json:"model"`
	MaxTokens     int               `json:"max_tokens"`
	System        string            `json:"system,omitempty"`
	Temperature   float32           `json:"temperature"`
	StopSequences []string          `json:"stop_sequences,omitempty"`
	Messages      []message         `json:"messages"`
	Tools         []tool            `json:"tools"`
	ToolChoice    map[string]string `json:"tool_choice"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Name  string          `json:"name,omitempty"`
	Text  string          `json:"text,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// ExtractFields implements llm.FieldExtractor.
func (c *Client) ExtractFields(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", provider,
		"model", c.cfg.Model,
		"prompt_len", len(req.Prompt),
	)

	body := messagesRequest{
		Model:         c.cfg.Model,
		MaxTokens:     c.cfg.MaxOutputTokens,
		System:        req.System,
		Temperature:   c.cfg.Temperature,
		StopSequences: c.cfg.StopSequences,
		Messages:      []message{{Role: "user", Content: req.Prompt}},
		Tools: []tool{{
			Name:        req.FunctionName,
			Description: req.FunctionDescription,
			InputSchema: req.Schema,
		}},
		ToolChoice: map[string]string{"type": "tool", "name": req.FunctionName},
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/messages"
	raw, err := llm.SendJSON(ctx, c.http, provider, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, common.Malformed("decode anthropic response", err)
	}

	var input json.RawMessage
	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == req.FunctionName {
			input = block.Input
			break
		}
	}
	if input == nil {
		c.logger.Error("llm.extract.no_function_call",
			"req_id", rid,
			"stop_reason", resp.StopReason,
			"blocks", len(resp.Content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.Malformed("anthropic response has no tool_use block", nil)
	}

	out, changes, err := llm.DecodeArguments(input)
	if err != nil {
		c.logger.Error("llm.extract.decode_error", "req_id", rid, "error", err)
		return nil, err
	}
	if len(changes) > 0 {
		c.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "changes", changes)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"fields", len(out),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
