package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/fields"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

// capture keeps every log record for inspection.
type capture struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *capture) Enabled(context.Context, slog.Level) bool { return true }
func (c *capture) Handle(_ context.Context, r slog.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}
func (c *capture) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *capture) WithGroup(string) slog.Handler      { return c }

func (c *capture) messages(msg string) []map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]string
	for _, r := range c.records {
		if r.Message != msg {
			continue
		}
		attrs := map[string]string{}
		r.Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.String()
			return true
		})
		out = append(out, attrs)
	}
	return out
}

type textAcquirer struct{}

func (textAcquirer) Acquire(_ context.Context, doc entity.Document) (entity.Transcript, error) {
	if constants.MapMimeToFormat(doc.MimeType) == constants.FormatUnknown {
		return entity.Transcript{}, common.UnsupportedFormat(doc.Path, doc.MimeType)
	}
	if strings.Contains(doc.Path, "broken") {
		return entity.Transcript{}, common.Acquisition("read "+doc.Path, errors.New("input/output error"))
	}
	return entity.Transcript{Text: "Invoice for " + doc.Path, Pages: 1, Method: constants.MethodText}, nil
}

// extractorByPath fails for the documents listed in errs.
func extractorByPath(errs map[string]error) llm.FieldExtractor {
	return llm.ExtractorFunc(func(_ context.Context, req entity.ExtractionRequest) (entity.RawExtraction, error) {
		for path, err := range errs {
			if strings.HasSuffix(req.Prompt, path) {
				return nil, err
			}
		}
		return entity.RawExtraction{"name": "Acme", "currency": "EUR", "dateInvoiced": "01.02.2023"}, nil
	})
}

type memJournal struct{ entries []entity.Outcome }

func (j *memJournal) Append(_ context.Context, o entity.Outcome) error {
	j.entries = append(j.entries, o)
	return nil
}

func newTestProcessor(t *testing.T, h slog.Handler, ext llm.FieldExtractor, opts ...Option) *Processor {
	t.Helper()
	prompts, err := llm.NewPromptBuilder("")
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(h)
	return NewProcessor(logger, textAcquirer{}, prompts, ext, fields.NewNormalizer(logger), opts...)
}

func docs(paths ...string) []entity.Document {
	out := make([]entity.Document, len(paths))
	for i, p := range paths {
		out[i] = entity.Document{Path: p, MimeType: "application/pdf"}
	}
	return out
}

func TestRunSkipsAPIFailure(t *testing.T) {
	h := &capture{}
	journal := &memJournal{}
	ext := extractorByPath(map[string]error{"b.pdf": &common.APIError{Provider: "openai", StatusCode: 503, Retryable: true}})
	p := newTestProcessor(t, h, ext, WithJournal(journal))

	res := p.Run(context.Background(), docs("a.pdf", "b.pdf", "c.pdf"))

	if len(res.Records) != 2 || res.Records[0].SourcePath != "a.pdf" || res.Records[1].SourcePath != "c.pdf" {
		t.Fatalf("records = %+v", res.Records)
	}
	if *res.Records[0].DateInvoiced != "2023-02-01" || res.Records[0].PaymentMethod != "draft" {
		t.Fatalf("record not normalized: %+v", res.Records[0])
	}
	if len(res.Failures) != 1 || res.Failures[0].Kind != "api_failure" || !errors.Is(res.Failures[0].Err, common.ErrExtraction) {
		t.Fatalf("failures = %+v", res.Failures)
	}
	logged := h.messages("processor.document.failed")
	if len(logged) != 1 || logged[0]["path"] != "b.pdf" || logged[0]["kind"] != "api_failure" || !strings.Contains(logged[0]["error"], "503") {
		t.Fatalf("failure logs = %v", logged)
	}
	if len(journal.entries) != 3 || journal.entries[1].Status != constants.DocumentStatusFailed || journal.entries[2].Record == nil {
		t.Fatalf("journal = %+v", journal.entries)
	}
}

func TestRunAcquisitionFailureKeepsOthers(t *testing.T) {
	h := &capture{}
	res := newTestProcessor(t, h, extractorByPath(nil)).Run(context.Background(), docs("one.pdf", "broken.pdf"))

	if len(res.Records) != 1 || res.Records[0].SourcePath != "one.pdf" {
		t.Fatalf("records = %+v", res.Records)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, common.ErrAcquisition) {
		t.Fatalf("failures = %+v", res.Failures)
	}
	logged := h.messages("processor.document.failed")
	if len(logged) != 1 || logged[0]["path"] != "broken.pdf" || logged[0]["kind"] != "acquisition" {
		t.Fatalf("failure logs = %v", logged)
	}
	if done := h.messages("processor.document.done"); len(done) != 1 || done[0]["path"] != "one.pdf" {
		t.Fatalf("done logs = %v", done)
	}
}

func TestRunMalformedResponse(t *testing.T) {
	h := &capture{}
	ext := extractorByPath(map[string]error{"only.pdf": common.Malformed("no function call in response", nil)})
	res := newTestProcessor(t, h, ext).Run(context.Background(), docs("only.pdf"))

	if len(res.Records) != 0 || len(res.Failures) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !errors.Is(res.Failures[0].Err, common.ErrMalformedResponse) || res.Failures[0].Kind != "malformed_response" {
		t.Fatalf("failure = %+v", res.Failures[0])
	}
	if n := len(h.messages("processor.document.failed")); n != 1 {
		t.Fatalf("logged %d failures", n)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	h := &capture{}
	called := false
	ext := llm.ExtractorFunc(func(context.Context, entity.ExtractionRequest) (entity.RawExtraction, error) {
		called = true
		return entity.RawExtraction{}, nil
	})
	in := []entity.Document{{Path: "notes.txt", MimeType: "text/plain"}}
	res := newTestProcessor(t, h, ext).Run(context.Background(), in)

	if called || len(res.Records) != 0 || res.Failures[0].Kind != "unsupported_format" {
		t.Fatalf("called = %v result = %+v", called, res)
	}
}

func TestRunAppliesDocumentTimeout(t *testing.T) {
	h := &capture{}
	ext := llm.ExtractorFunc(func(ctx context.Context, _ entity.ExtractionRequest) (entity.RawExtraction, error) {
		<-ctx.Done()
		return nil, &common.APIError{Provider: "test", Retryable: true, Cause: ctx.Err()}
	})
	p := newTestProcessor(t, h, ext, WithDocumentTimeout(10*time.Millisecond))
	res := p.Run(context.Background(), docs("slow.pdf", "slower.pdf"))
	if len(res.Failures) != 2 || !errors.Is(res.Failures[0].Err, context.DeadlineExceeded) {
		t.Fatalf("failures = %+v", res.Failures)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ext := llm.ExtractorFunc(func(context.Context, entity.ExtractionRequest) (entity.RawExtraction, error) {
		cancel()
		return entity.RawExtraction{"name": "Acme"}, nil
	})
	res := newTestProcessor(t, &capture{}, ext).Run(ctx, docs("a.pdf", "b.pdf"))
	if len(res.Records) != 1 || len(res.Failures) != 0 {
		t.Fatalf("result = %+v", res)
	}
}
