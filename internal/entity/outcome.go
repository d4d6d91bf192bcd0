package entity

import (
	"time"

	"github.com/joseph-ayodele/invoice-reader/constants"
)

// Outcome is the journal entry for one processed document. Record is nil
// for failures; Kind and Error are empty for successes.
type Outcome struct {
	RunID       string                     `json:"run_id"`
	Path        string                     `json:"path"`
	MimeType    string                     `json:"mime_type"`
	Status      constants.DocumentStatus   `json:"status"`
	Method      constants.ExtractionMethod `json:"method,omitempty"`
	Pages       int                        `json:"pages"`
	OCRPages    int                        `json:"ocr_pages"`
	Kind        string                     `json:"kind,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Record      *InvoiceRecord             `json:"record,omitempty"`
	ProcessedAt time.Time                  `json:"processed_at"`
	ElapsedMS   int64                      `json:"elapsed_ms"`
}
