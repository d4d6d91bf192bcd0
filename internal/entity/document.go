package entity

import "github.com/joseph-ayodele/invoice-reader/constants"

// Document is a reference to one input file. The pipeline only reads it.
type Document struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
}

// Transcript is the plain text acquired from one document. Text may be empty.
type Transcript struct {
	Text       string                     `json:"text"`
	Pages      int                        `json:"pages"`
	OCRPages   int                        `json:"ocr_pages"`
	Method     constants.ExtractionMethod `json:"method"`
	SourceType constants.Format           `json:"source_type"`
}
