package llm

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
	"github.com/joseph-ayodele/invoice-reader/internal/utils"
)

var (
	reFence    = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	reCurrency = regexp.MustCompile(`^[A-Z]{3}$`)
)

var currencySymbols = map[string]string{
	"€":   "EUR",
	"$":   "USD",
	"US$": "USD",
	"£":   "GBP",
	"KČ":  "CZK",
	"KC":  "CZK",
	"ZŁ":  "PLN",
	"FT":  "HUF",
}

// DecodeArguments turns the raw argument payload of a structured call into a
// RawExtraction. Sentinels ("none", "null", "", null) are removed, values are
// repaired where the intent is unambiguous, and the result is validated.
// The second return lists every key that was dropped or coerced.
//
// Missing or unparseable JSON and schema violations that survive repair are
// reported as common.ErrMalformedResponse.
func DecodeArguments(raw []byte) (entity.RawExtraction, []string, error) {
	payload := strings.TrimSpace(string(raw))
	if m := reFence.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}
	if payload == "" {
		return nil, nil, common.Malformed("empty structured call arguments", nil)
	}

	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, nil, common.Malformed("arguments are not valid JSON", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, nil, common.Malformed("arguments are not a JSON object", nil)
	}

	out, changes := repair(obj)
	if err := ValidateExtraction(out); err != nil {
		return nil, changes, common.Malformed("arguments do not match schema", err)
	}
	return entity.RawExtraction(out), changes, nil
}

func repair(in map[string]any) (map[string]any, []string) {
	out := make(map[string]any, len(in))
	var changes []string
	note := func(k, why string) { changes = append(changes, k+"("+why+")") }

	for k, v := range in {
		if utils.IsSentinel(v) {
			continue
		}
		switch {
		case k == constants.FieldInvoiceItems:
			items, ok := repairItems(v)
			if !ok {
				note(k, "type")
				continue
			}
			out[k] = items

		case k == constants.FieldPaymentMethod:
			s, ok := v.(string)
			if !ok {
				note(k, "type")
				continue
			}
			pm, ok := constants.CanonicalizePaymentMethod(s)
			if !ok {
				note(k, "enum")
				continue
			}
			if string(pm) != s {
				note(k, "canonical")
			}
			out[k] = string(pm)

		case k == constants.FieldCurrency:
			s, ok := v.(string)
			if !ok {
				note(k, "type")
				continue
			}
			cur := strings.ToUpper(strings.TrimSpace(s))
			if code, ok := currencySymbols[cur]; ok {
				cur = code
			}
			if !reCurrency.MatchString(cur) {
				note(k, "pattern")
				continue
			}
			out[k] = cur

		case slices.Contains(constants.NumberFields, k):
			f, ok := toNumber(v)
			if !ok {
				note(k, "number")
				continue
			}
			if _, isNum := v.(float64); !isNum {
				note(k, "coerced")
			}
			out[k] = f

		case slices.Contains(constants.StringFields, k), slices.Contains(constants.DateFields, k):
			s, ok := toString(v)
			if !ok {
				note(k, "type")
				continue
			}
			out[k] = s

		default:
			note(k, "unknown")
		}
	}
	slices.Sort(changes)
	return out, changes
}

func repairItems(v any) ([]any, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	items := make([]any, 0, len(arr))
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		item := map[string]any{}
		for _, k := range constants.ItemFields {
			if utils.IsSentinel(m[k]) {
				continue
			}
			if f, ok := toNumber(m[k]); ok {
				item[k] = f
			}
		}
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return items, true
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		return utils.ParseNumber(t)
	}
	return 0, false
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return utils.FormatNumber(t), true
	}
	return "", false
}
