package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
	"github.com/joseph-ayodele/invoice-reader/internal/repository"
	"github.com/joseph-ayodele/invoice-reader/internal/utils"
)

type fakeJournal struct {
	outcomes []entity.Outcome
	got      repository.OutcomeFilter
}

func (j *fakeJournal) List(_ context.Context, f repository.OutcomeFilter) ([]entity.Outcome, error) {
	j.got = f
	return j.outcomes, nil
}

func TestExportXLSX(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	rec := entity.InvoiceRecord{
		Name:             utils.Ptr("Acme s.r.o."),
		DateInvoiced:     utils.Ptr("2023-02-01"),
		GrandTotalAmount: utils.Ptr(960.0),
		Currency:         utils.Ptr("EUR"),
		PaymentMethod:    "draft",
		InvoiceItems:     []entity.InvoiceItem{{}, {}},
		SourcePath:       "/in/a.pdf",
	}
	j := &fakeJournal{outcomes: []entity.Outcome{
		{Path: "/in/a.pdf", Status: constants.DocumentStatusOK, Method: constants.MethodText, Record: &rec, ProcessedAt: at},
		{Path: "/in/b.png", MimeType: "image/png", Status: constants.DocumentStatusFailed, Kind: "api_failure", Error: "status 503", ProcessedAt: at},
	}}

	b, err := NewService(j, nil).ExportXLSX(context.Background(), repository.OutcomeFilter{RunID: "r1"})
	if err != nil {
		t.Fatal(err)
	}
	if j.got.RunID != "r1" {
		t.Fatalf("filter = %+v", j.got)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	inv, err := f.GetRows(invoicesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(inv) != 2 || inv[0][0] != "name" || inv[1][0] != "Acme s.r.o." {
		t.Fatalf("invoices = %v", inv)
	}
	if len(inv[0]) != 30 || inv[1][7] != "2023-02-01" || inv[1][13] != "960" || inv[1][17] != "draft" || inv[1][26] != "2" {
		t.Fatalf("invoice row = %v", inv[1])
	}

	fails, err := f.GetRows(failuresSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(fails) != 2 || fails[1][0] != "/in/b.png" || fails[1][2] != "api_failure" {
		t.Fatalf("failures = %v", fails)
	}
}
