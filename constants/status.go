package constants

// DocumentStatus is the outcome recorded for a document in the journal.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusOK     DocumentStatus = "OK"     // record produced
	DocumentStatusFailed DocumentStatus = "FAILED" // excluded from output
)

// ExtractionMethod says where a transcript's text came from.
type ExtractionMethod string

const (
	MethodText  ExtractionMethod = "text"  // embedded PDF text only
	MethodOCR   ExtractionMethod = "ocr"   // every page went through OCR
	MethodMixed ExtractionMethod = "mixed" // some pages each way
)
