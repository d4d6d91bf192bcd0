// Package llm builds extraction prompts, talks to model providers and turns
// their structured calls into validated raw extractions.
package llm

import (
	"context"

	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

// FieldExtractor is the interface our pipeline depends on. Implementations
// fail with a *common.APIError for transport or status failures and with
// common.ErrMalformedResponse when no usable structured call came back.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error)
}

// ExtractorFunc adapts a plain function to FieldExtractor.
type ExtractorFunc func(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error)

func (f ExtractorFunc) ExtractFields(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error) {
	return f(ctx, req)
}
