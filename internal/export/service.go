package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
	"github.com/joseph-ayodele/invoice-reader/internal/repository"
)

const (
	invoicesSheet = "Invoices"
	failuresSheet = "Failures"
)

// OutcomeLister is the part of the journal the exporter reads.
type OutcomeLister interface {
	List(ctx context.Context, f repository.OutcomeFilter) ([]entity.Outcome, error)
}

// Service produces XLSX bytes from journal entries.
type Service struct {
	journal OutcomeLister
	logger  *slog.Logger
}

func NewService(journal OutcomeLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{journal: journal, logger: logger}
}

// ExportXLSX returns a workbook with one row per extracted invoice and one
// per failed document matching f.
func (s *Service) ExportXLSX(ctx context.Context, f repository.OutcomeFilter) ([]byte, error) {
	start := time.Now()

	outcomes, err := s.journal.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}

	wb, err := Workbook(outcomes)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := wb.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", f.RunID,
		"rows", len(outcomes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Workbook lays outcomes out on two sheets. Records keep the field order of
// the extraction schema.
func Workbook(outcomes []entity.Outcome) (*excelize.File, error) {
	f := excelize.NewFile()
	// the default sheet becomes the invoices sheet
	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return nil, err
	}

	invHeaders := append(append([]string{}, recordColumns...), "items", "sourcePath", "method", "processedAt")
	if err := writeRow(f, invoicesSheet, 1, toAny(invHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, failuresSheet, 1, []any{"path", "mimeType", "kind", "error", "processedAt"}); err != nil {
		return nil, err
	}

	invRow, failRow := 2, 2
	for _, o := range outcomes {
		at := o.ProcessedAt.UTC().Format(time.RFC3339)
		if o.Status == constants.DocumentStatusFailed || o.Record == nil {
			if err := writeRow(f, failuresSheet, failRow, []any{o.Path, o.MimeType, o.Kind, truncate(o.Error, 500), at}); err != nil {
				return nil, err
			}
			failRow++
			continue
		}
		vals := recordValues(*o.Record)
		vals = append(vals, len(o.Record.InvoiceItems), o.Record.SourcePath, string(o.Method), at)
		if err := writeRow(f, invoicesSheet, invRow, vals); err != nil {
			return nil, err
		}
		invRow++
	}

	// Widen a few columns
	_ = f.SetColWidth(invoicesSheet, "A", "A", 32) // name
	_ = f.SetColWidth(failuresSheet, "A", "A", 60) // path
	_ = f.SetColWidth(failuresSheet, "D", "D", 80) // error
	return f, nil
}

var recordColumns = []string{
	constants.FieldName,
	constants.FieldBillingAddressCity,
	constants.FieldBillingAddressCountry,
	constants.FieldBillingAddressPostal,
	constants.FieldBillingAddressState,
	constants.FieldBillingAddressStreet,
	constants.FieldConstantSymbol,
	constants.FieldDateInvoiced,
	constants.FieldDateOfReceiving,
	constants.FieldDatePaid,
	constants.FieldDeliveryNotes,
	constants.FieldDueDate,
	constants.FieldDUZP,
	constants.FieldGrandTotalAmount,
	constants.FieldCurrency,
	constants.FieldNote,
	constants.FieldOriginalNumber,
	constants.FieldPaymentMethod,
	constants.FieldSICCode,
	constants.FieldSupplyCode,
	constants.FieldTaxAmount,
	constants.FieldTaxRate,
	constants.FieldVariableSymbol,
	constants.FieldVATID,
	constants.FieldWeight,
	constants.FieldAmount,
}

// recordValues follows recordColumns. Absent values are empty cells.
func recordValues(r entity.InvoiceRecord) []any {
	strs := r.StringFields()
	nums := r.NumberFields()
	out := make([]any, 0, len(recordColumns))
	for _, col := range recordColumns {
		switch {
		case col == constants.FieldPaymentMethod:
			out = append(out, r.PaymentMethod)
		case strs[col] != nil:
			out = append(out, deref(*strs[col]))
		case nums[col] != nil:
			if p := *nums[col]; p != nil {
				out = append(out, *p)
			} else {
				out = append(out, nil)
			}
		}
	}
	return out
}

func deref(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
