package llm

import (
	"github.com/joseph-ayodele/invoice-reader/constants"
)

const (
	FunctionName        = "extract_invoice_data"
	FunctionDescription = "Extracts specified fields from invoice text."
)

// InvoiceSchema returns the parameters schema of the extraction function as a
// generic map. It is static: nothing in it depends on the document.
func InvoiceSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	num := func() map[string]any { return map[string]any{"type": "number"} }
	date := func() map[string]any { return map[string]any{"type": "string", "format": "date"} }

	props := map[string]any{
		constants.FieldDateInvoiced:     date(),
		constants.FieldDateOfReceiving:  date(),
		constants.FieldDatePaid:         date(),
		constants.FieldDueDate:          date(),
		constants.FieldGrandTotalAmount: num(),
		constants.FieldTaxAmount:        num(),
		constants.FieldTaxRate:          num(),
		constants.FieldAmount:           num(),
		constants.FieldCurrency: map[string]any{
			"type":        "string",
			"description": "ISO 4217 currency code",
			"pattern":     "^[A-Z]{3}$",
		},
		constants.FieldPaymentMethod: map[string]any{
			"type": "string",
			"enum": constants.PaymentMethodsAsStrings(),
		},
		constants.FieldInvoiceItems: map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					constants.FieldItemQuantity:  num(),
					constants.FieldItemUnitPrice: num(),
					constants.FieldItemTaxRate:   num(),
				},
			},
		},
	}
	for _, f := range constants.StringFields {
		if _, ok := props[f]; !ok {
			props[f] = str()
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{constants.FieldName, constants.FieldCurrency},
	}
}

// validationSchema is InvoiceSchema made tolerant of absence: no required
// keys, every scalar may be null, unknown keys rejected. Sentinels are
// stripped before validation, so "none" and a missing key are the same thing
// by the time this runs.
func validationSchema() map[string]any {
	s := InvoiceSchema()
	delete(s, "required")
	s["additionalProperties"] = false
	props := s["properties"].(map[string]any)
	for k, v := range props {
		p := v.(map[string]any)
		nullable(p)
		if k == constants.FieldInvoiceItems {
			items := p["items"].(map[string]any)
			items["additionalProperties"] = false
			for _, iv := range items["properties"].(map[string]any) {
				nullable(iv.(map[string]any))
			}
			continue
		}
		delete(p, "format")
	}
	return s
}

func nullable(p map[string]any) {
	if t, ok := p["type"].(string); ok {
		p["type"] = []any{t, "null"}
	}
	if enum, ok := p["enum"].([]string); ok {
		vals := make([]any, 0, len(enum)+1)
		for _, e := range enum {
			vals = append(vals, e)
		}
		p["enum"] = append(vals, nil)
	}
}
