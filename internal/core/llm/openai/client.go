package openai

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

const provider = "openai"

// ExtractFields implements llm.FieldExtractor with a chat completion that is
// forced to call the extraction function.
func (c *Client) ExtractFields(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", provider,
		"model", c.cfg.Model,
		"prompt_len", len(req.Prompt),
	)

	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		apiErr := classify(err)
		c.logger.Error("llm.extract.http_error",
			"req_id", rid,
			"status", apiErr.StatusCode,
			"retryable", apiErr.Retryable,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, apiErr
	}

	args, ok := functionArguments(resp, req.FunctionName)
	if !ok {
		c.logger.Error("llm.extract.no_function_call",
			"req_id", rid,
			"choices", len(resp.Choices),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.Malformed("openai response has no function call", nil)
	}

	out, changes, err := llm.DecodeArguments([]byte(args))
	if err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	if len(changes) > 0 {
		c.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "changes", changes)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"fields", len(out),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) buildRequest(req entity.ExtractionRequest) goopenai.ChatCompletionRequest {
	// go-openai drops a zero temperature from the payload, which the API then
	// reads as its default of 1.
	temp := c.cfg.Temperature
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}
	return goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Tools: []goopenai.Tool{{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        req.FunctionName,
				Description: req.FunctionDescription,
				Parameters:  req.Schema,
			},
		}},
		ToolChoice: goopenai.ToolChoice{
			Type:     goopenai.ToolTypeFunction,
			Function: goopenai.ToolFunction{Name: req.FunctionName},
		},
		Temperature: temp,
		MaxTokens:   c.cfg.MaxOutputTokens,
		Stop:        c.cfg.StopSequences,
	}
}

// functionArguments finds the forced call, accepting the legacy
// function_call field some compatible servers still return.
func functionArguments(resp goopenai.ChatCompletionResponse, name string) (string, bool) {
	if len(resp.Choices) == 0 {
		return "", false
	}
	msg := resp.Choices[0].Message
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == name {
			return tc.Function.Arguments, true
		}
	}
	if msg.FunctionCall != nil && msg.FunctionCall.Name == name {
		return msg.FunctionCall.Arguments, true
	}
	return "", false
}

func classify(err error) *common.APIError {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &common.APIError{
			Provider:   provider,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Retryable:  common.RetryableStatus(apiErr.HTTPStatusCode),
			Cause:      err,
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &common.APIError{
			Provider:   provider,
			StatusCode: reqErr.HTTPStatusCode,
			Retryable:  common.RetryableStatus(reqErr.HTTPStatusCode),
			Cause:      err,
		}
	}
	return &common.APIError{Provider: provider, Retryable: !errors.Is(err, context.Canceled), Cause: err}
}
