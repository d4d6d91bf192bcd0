package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

// RetryPolicy bounds retries of transient provider failures.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Retrying wraps a FieldExtractor and retries only errors marked retryable
// (5xx, 429, timeouts, connection failures). Malformed responses and 4xx
// errors pass straight through.
type Retrying struct {
	next   FieldExtractor
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next FieldExtractor, policy RetryPolicy, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Backoff <= 0 {
		policy.Backoff = time.Second
	}
	if policy.MaxBackoff < policy.Backoff {
		policy.MaxBackoff = policy.Backoff
	}
	return &Retrying{next: next, policy: policy, logger: logger, sleep: sleepCtx}
}

func (r *Retrying) ExtractFields(ctx context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error) {
	delay := r.policy.Backoff
	for attempt := 0; ; attempt++ {
		out, err := r.next.ExtractFields(ctx, req)
		if err == nil || !common.IsRetryable(err) || attempt >= r.policy.MaxRetries {
			return out, err
		}
		r.logger.Warn("llm.extract.retry",
			"path", common.DocumentPathFromContext(ctx),
			"attempt", attempt+1,
			"max_retries", r.policy.MaxRetries,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
		if sErr := r.sleep(ctx, delay); sErr != nil {
			return nil, err
		}
		delay = min(delay*2, r.policy.MaxBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
