// Package fields turns a raw extraction into an InvoiceRecord.
package fields

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
	"github.com/joseph-ayodele/invoice-reader/internal/utils"
)

// Normalizer maps raw extractions onto records. It never fails: anything it
// cannot read becomes an absent field.
type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize builds the record for sourcePath. Applying it to rec.Raw() with
// the same path returns rec unchanged.
func (n *Normalizer) Normalize(raw entity.RawExtraction, sourcePath string) entity.InvoiceRecord {
	rec := entity.InvoiceRecord{SourcePath: sourcePath}

	for key, dst := range rec.StringFields() {
		v, ok := present(raw, key)
		if !ok {
			continue
		}
		s, ok := asString(v)
		if !ok || s == "" {
			continue
		}
		if slices.Contains(constants.DateFields, key) {
			d, ok := ParseDate(s)
			if !ok {
				n.logger.Debug("fields.date.unparsed", "path", sourcePath, "field", key, "value", s)
				continue
			}
			s = d
		}
		*dst = utils.Ptr(s)
	}

	for key, dst := range rec.NumberFields() {
		if v, ok := present(raw, key); ok {
			*dst = asNumber(v)
		}
	}

	rec.PaymentMethod = string(constants.DefaultPaymentMethod)
	if v, ok := present(raw, constants.FieldPaymentMethod); ok {
		if s, ok := v.(string); ok {
			if pm, ok := constants.CanonicalizePaymentMethod(s); ok {
				rec.PaymentMethod = string(pm)
			}
		}
	}

	if v, ok := raw[constants.FieldInvoiceItems]; ok && v != nil {
		rec.InvoiceItems = items(v)
	}
	return rec
}

func present(raw entity.RawExtraction, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || utils.IsSentinel(v) {
		return nil, false
	}
	return v, true
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return utils.FormatNumber(t), true
	case int:
		return utils.FormatNumber(float64(t)), true
	}
	return "", false
}

func asNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return utils.Ptr(t)
	case int:
		return utils.Ptr(float64(t))
	case string:
		if f, ok := utils.ParseNumber(t); ok {
			return utils.Ptr(f)
		}
	}
	return nil
}

// items keeps order and keeps an empty list distinct from a missing one.
func items(v any) []entity.InvoiceItem {
	var list []map[string]any
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if m, ok := el.(map[string]any); ok {
				list = append(list, m)
			}
		}
	case []map[string]any:
		list = t
	default:
		return nil
	}

	out := make([]entity.InvoiceItem, 0, len(list))
	for _, m := range list {
		out = append(out, entity.InvoiceItem{
			Quantity:  asNumber(m[constants.FieldItemQuantity]),
			UnitPrice: asNumber(m[constants.FieldItemUnitPrice]),
			TaxRate:   asNumber(m[constants.FieldItemTaxRate]),
		})
	}
	return out
}
