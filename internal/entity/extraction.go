package entity

// ExtractionRequest is everything a model backend needs for one structured call.
type ExtractionRequest struct {
	System              string         `json:"system"`
	Prompt              string         `json:"prompt"`
	FunctionName        string         `json:"function_name"`
	FunctionDescription string         `json:"function_description"`
	Schema              map[string]any `json:"schema"`
}

// RawExtraction is the argument object of the model's structured call, after
// sentinel stripping and repair. Absent fields are missing keys.
type RawExtraction map[string]any
