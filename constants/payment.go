package constants

import (
	"strings"
)

type PaymentMethod string

const (
	PaymentDraft        PaymentMethod = "draft"
	PaymentCash         PaymentMethod = "cash"
	PaymentPostal       PaymentMethod = "postal"
	PaymentDelivery     PaymentMethod = "delivery"
	PaymentCreditCard   PaymentMethod = "creditcard"
	PaymentAdvance      PaymentMethod = "advance"
	PaymentEncashment   PaymentMethod = "encashment"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentCompensation PaymentMethod = "compensation"
)

// DefaultPaymentMethod is assigned when the document does not state one.
const DefaultPaymentMethod = PaymentDraft

var allPaymentMethods = []PaymentMethod{
	PaymentDraft,
	PaymentCash,
	PaymentPostal,
	PaymentDelivery,
	PaymentCreditCard,
	PaymentAdvance,
	PaymentEncashment,
	PaymentCheque,
	PaymentCompensation,
}

func PaymentMethodsAsStrings() []string {
	result := make([]string, len(allPaymentMethods))
	for i, pm := range allPaymentMethods {
		result[i] = string(pm)
	}
	return result
}

// CanonicalizePaymentMethod maps free text onto one of the enumerated methods.
// The bool is false when nothing matched.
func CanonicalizePaymentMethod(input string) (PaymentMethod, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	// synonyms map
	synonyms := map[string]PaymentMethod{
		"credit card":      PaymentCreditCard,
		"card":             PaymentCreditCard,
		"debit card":       PaymentCreditCard,
		"check":            PaymentCheque,
		"cash on delivery": PaymentDelivery,
		"cod":              PaymentDelivery,
		"dobírka":          PaymentDelivery,
		"hotově":           PaymentCash,
		"hotovost":         PaymentCash,
		"zápočet":          PaymentCompensation,
		"záloha":           PaymentAdvance,
		"složenka":         PaymentPostal,
		"inkaso":           PaymentEncashment,
		"převodem":         PaymentDraft,
		"bank transfer":    PaymentDraft,
		"transfer":         PaymentDraft,
	}

	if pm, ok := synonyms[normalized]; ok {
		return pm, true
	}

	for _, pm := range allPaymentMethods {
		if normalized == string(pm) {
			return pm, true
		}
	}
	return "", false
}
