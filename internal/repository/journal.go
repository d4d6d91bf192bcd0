package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

const outcomesTable = "document_outcomes"

var outcomeColumns = []string{
	"run_id", "path", "mime_type", "status", "method", "pages", "ocr_pages",
	"kind", "error", "record", "processed_at", "elapsed_ms",
}

// OutcomeFilter narrows List. Zero values match everything.
type OutcomeFilter struct {
	RunID  string
	Status constants.DocumentStatus
	Since  *time.Time
}

// Append stores one outcome.
func (db *DB) Append(ctx context.Context, o entity.Outcome) error {
	var record any
	if o.Record != nil {
		b, err := json.Marshal(o.Record)
		if err != nil {
			return common.WrapError(err, "encode record")
		}
		record = string(b)
	}

	q, args := entsql.Dialect(db.dialect).
		Insert(outcomesTable).
		Columns(outcomeColumns...).
		Values(
			o.RunID, o.Path, o.MimeType, string(o.Status), string(o.Method), o.Pages, o.OCRPages,
			o.Kind, o.Error, record, o.ProcessedAt.UTC().Format(time.RFC3339Nano), o.ElapsedMS,
		).
		Query()

	var res sql.Result
	if err := db.drv.Exec(ctx, q, args, &res); err != nil {
		db.logger.Error("document outcome insert failed", "path", o.Path, "error", err)
		return fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	db.logger.Debug("document outcome stored", "run_id", o.RunID, "path", o.Path, "status", o.Status)
	return nil
}

// List returns matching outcomes in insertion order.
func (db *DB) List(ctx context.Context, f OutcomeFilter) ([]entity.Outcome, error) {
	b := entsql.Dialect(db.dialect)
	sel := b.Select(outcomeColumns...).From(entsql.Table(outcomesTable))

	var preds []*entsql.Predicate
	if f.RunID != "" {
		preds = append(preds, entsql.EQ("run_id", f.RunID))
	}
	if f.Status != "" {
		preds = append(preds, entsql.EQ("status", string(f.Status)))
	}
	if f.Since != nil {
		preds = append(preds, entsql.GTE("processed_at", f.Since.UTC().Format(time.RFC3339Nano)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	q, args := sel.OrderBy("id").Query()

	rows := &entsql.Rows{}
	if err := db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.Outcome
	for rows.Next() {
		var (
			o                  entity.Outcome
			status, method, at string
			record             sql.NullString
		)
		if err := rows.Scan(&o.RunID, &o.Path, &o.MimeType, &status, &method, &o.Pages, &o.OCRPages,
			&o.Kind, &o.Error, &record, &at, &o.ElapsedMS); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
		}
		o.Status = constants.DocumentStatus(status)
		o.Method = constants.ExtractionMethod(method)
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			o.ProcessedAt = t
		}
		if record.Valid {
			var rec entity.InvoiceRecord
			if err := json.Unmarshal([]byte(record.String), &rec); err != nil {
				return nil, common.WrapError(err, "decode record for "+o.Path)
			}
			o.Record = &rec
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	return out, nil
}
