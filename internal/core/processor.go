package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/core/llm"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

// Acquirer produces the text of a document.
type Acquirer interface {
	Acquire(ctx context.Context, doc entity.Document) (entity.Transcript, error)
}

// PromptBuilder turns a transcript into a model request.
type PromptBuilder interface {
	Build(tr entity.Transcript) (entity.ExtractionRequest, error)
}

// Normalizer maps a raw extraction onto a record. It cannot fail.
type Normalizer interface {
	Normalize(raw entity.RawExtraction, sourcePath string) entity.InvoiceRecord
}

// RecordSink receives every record the run produces, e.g. a CRM client.
type RecordSink interface {
	Submit(ctx context.Context, rec entity.InvoiceRecord) error
}

// Journal keeps an entry per processed document.
type Journal interface {
	Append(ctx context.Context, o entity.Outcome) error
}

// Failure is a document that produced no record.
type Failure struct {
	Document entity.Document
	Kind     string
	Err      error
}

// Result of one run. Records are in input order, failed documents omitted.
type Result struct {
	RunID    string
	Records  []entity.InvoiceRecord
	Failures []Failure
}

// Processor runs documents through acquisition, prompting, extraction and
// normalization, one at a time.
type Processor struct {
	logger     *slog.Logger
	acquirer   Acquirer
	prompts    PromptBuilder
	extractor  llm.FieldExtractor
	normalizer Normalizer
	timeout    time.Duration
	journal    Journal
	sink       RecordSink
	now        func() time.Time
}

type Option func(*Processor)

// WithDocumentTimeout bounds the time spent on each document.
func WithDocumentTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithJournal(j Journal) Option { return func(p *Processor) { p.journal = j } }
func WithSink(s RecordSink) Option { return func(p *Processor) { p.sink = s } }

func NewProcessor(
	logger *slog.Logger,
	acquirer Acquirer,
	prompts PromptBuilder,
	extractor llm.FieldExtractor,
	normalizer Normalizer,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:     logger,
		acquirer:   acquirer,
		prompts:    prompts,
		extractor:  extractor,
		normalizer: normalizer,
		timeout:    5 * time.Minute,
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes docs in order. A failing document is logged once and left
// out of the records; the rest continue. Cancelling ctx stops the run after
// the current document.
func (p *Processor) Run(ctx context.Context, docs []entity.Document) Result {
	res := Result{RunID: uuid.NewString(), Records: make([]entity.InvoiceRecord, 0, len(docs))}
	ctx = common.WithRunID(ctx, res.RunID)
	log := p.logger.With("run_id", res.RunID)
	log.Info("processor.run.start", "documents", len(docs))
	start := p.now()

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			log.Warn("processor.run.cancelled", "processed", i, "remaining", len(docs)-i, "error", err)
			break
		}
		began := p.now()
		rec, tr, err := p.process(ctx, doc)

		out := entity.Outcome{
			RunID:       res.RunID,
			Path:        doc.Path,
			MimeType:    doc.MimeType,
			Method:      tr.Method,
			Pages:       tr.Pages,
			OCRPages:    tr.OCRPages,
			ProcessedAt: began.UTC(),
			ElapsedMS:   p.now().Sub(began).Milliseconds(),
		}
		if err != nil {
			kind := common.KindOf(err)
			log.Error("processor.document.failed", "path", doc.Path, "kind", kind, "error", err)
			res.Failures = append(res.Failures, Failure{Document: doc, Kind: kind, Err: err})
			out.Status, out.Kind, out.Error = constants.DocumentStatusFailed, kind, err.Error()
			p.record(ctx, log, out)
			continue
		}

		log.Info("processor.document.done",
			"path", doc.Path,
			"method", tr.Method,
			"pages", tr.Pages,
			"elapsed_ms", out.ElapsedMS,
		)
		res.Records = append(res.Records, rec)
		out.Status, out.Record = constants.DocumentStatusOK, &rec
		p.record(ctx, log, out)
		if p.sink != nil {
			if err := p.sink.Submit(ctx, rec); err != nil {
				log.Warn("processor.sink.failed", "path", doc.Path, "error", err)
			}
		}
	}

	log.Info("processor.run.done",
		"records", len(res.Records),
		"failures", len(res.Failures),
		"elapsed_ms", p.now().Sub(start).Milliseconds(),
	)
	return res
}

// process handles one document under its own deadline.
func (p *Processor) process(ctx context.Context, doc entity.Document) (entity.InvoiceRecord, entity.Transcript, error) {
	ctx, cancel := context.WithTimeout(common.WithDocumentPath(ctx, doc.Path), p.timeout)
	defer cancel()

	tr, err := p.acquirer.Acquire(ctx, doc)
	if err != nil {
		return entity.InvoiceRecord{}, tr, err
	}
	p.logger.Debug("processor.acquire.done", "path", doc.Path, "method", tr.Method, "chars", len(tr.Text))

	req, err := p.prompts.Build(tr)
	if err != nil {
		return entity.InvoiceRecord{}, tr, fmt.Errorf("build prompt: %w", err)
	}

	raw, err := p.extractor.ExtractFields(ctx, req)
	if err != nil {
		return entity.InvoiceRecord{}, tr, err
	}
	return p.normalizer.Normalize(raw, doc.Path), tr, nil
}

func (p *Processor) record(ctx context.Context, log *slog.Logger, o entity.Outcome) {
	if p.journal == nil {
		return
	}
	// the journal outlives a cancelled run
	if err := p.journal.Append(context.WithoutCancel(ctx), o); err != nil {
		log.Warn("processor.journal.failed", "path", o.Path, "error", err)
	}
}
