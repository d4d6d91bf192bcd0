// Package vertex implements extraction with Gemini on Vertex AI using a
// forced function call.
package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

const provider = "vertex"

type Config struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	StopSequences   []string
	Timeout         time.Duration
}

// generator is the part of *genai.GenerativeModel we use.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	base   *genai.Client
	newGen func(req entity.ExtractionRequest) generator
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex: projectID and location cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-002"
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	c := &Client{cfg: cfg, base: base, logger: logger}
	c.newGen = func(req entity.ExtractionRequest) generator {
		model := base.GenerativeModel(cfg.Model)
		configureModel(model, cfg, req)
		return model
	}
	return c, nil
}

func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

func configureModel(model *genai.GenerativeModel, cfg Config, req entity.ExtractionRequest) {
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:   genai.Ptr(cfg.Temperature),
		StopSequences: cfg.StopSequences,
	}
	if cfg.MaxOutputTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = genai.Ptr(int32(cfg.MaxOutputTokens))
	}
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        req.FunctionName,
			Description: req.FunctionDescription,
			Parameters:  toSchema(req.Schema),
		}},
	}}
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{req.FunctionName},
		},
	}
}

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

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.newGen(req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		apiErr := classify(err)
		c.logger.Error("llm.extract.http_error",
			"req_id", rid,
			"code", status.Code(err).String(),
			"retryable", apiErr.Retryable,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, apiErr
	}

	args, ok := functionArgs(resp, req.FunctionName)
	if !ok {
		c.logger.Error("llm.extract.no_function_call", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.Malformed("vertex response has no function call", nil)
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, common.Malformed("encode function call args", err)
	}

	out, changes, err := llm.DecodeArguments(payload)
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
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func functionArgs(resp *genai.GenerateContentResponse, name string) (map[string]any, bool) {
	if resp == nil {
		return nil, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if fc, ok := part.(genai.FunctionCall); ok && fc.Name == name {
				return fc.Args, true
			}
		}
	}
	return nil, false
}

func classify(err error) *common.APIError {
	st, _ := status.FromError(err)
	retryable := false
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Aborted:
		retryable = true
	case codes.Unknown:
		// non-gRPC error, usually transport
		retryable = !errors.Is(err, context.Canceled)
	}
	return &common.APIError{
		Provider:  provider,
		Body:      st.Code().String() + ": " + st.Message(),
		Retryable: retryable,
		Cause:     err,
	}
}
