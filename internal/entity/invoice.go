package entity

import "github.com/joseph-ayodele/invoice-reader/constants"

// InvoiceRecord is the normalized output for one document. Every field is
// always serialized; absent values encode as JSON null.
type InvoiceRecord struct {
	Name                     *string       `json:"name"`
	BillingAddressCity       *string       `json:"billingAddressCity"`
	BillingAddressCountry    *string       `json:"billingAddressCountry"`
	BillingAddressPostalCode *string       `json:"billingAddressPostalCode"`
	BillingAddressState      *string       `json:"billingAddressState"`
	BillingAddressStreet     *string       `json:"billingAddressStreet"`
	ConstantSymbol           *string       `json:"constantSymbol"`
	DateInvoiced             *string       `json:"dateInvoiced"`
	DateOfReceiving          *string       `json:"dateOfReceiving"`
	DatePaid                 *string       `json:"datePaid"`
	DeliveryNotes            *string       `json:"deliveryNotes"`
	DueDate                  *string       `json:"dueDate"`
	DUZP                     *string       `json:"duzp"`
	GrandTotalAmount         *float64      `json:"grandTotalAmount"`
	Currency                 *string       `json:"currency"`
	Note                     *string       `json:"note"`
	OriginalNumber           *string       `json:"originalNumber"`
	PaymentMethod            string        `json:"paymentMethod"`
	SICCode                  *string       `json:"sicCode"`
	SupplyCode               *string       `json:"supplyCode"`
	TaxAmount                *float64      `json:"taxAmount"`
	TaxRate                  *float64      `json:"taxRate"`
	VariableSymbol           *string       `json:"variableSymbol"`
	VATID                    *string       `json:"vatId"`
	Weight                   *string       `json:"weight"`
	Amount                   *float64      `json:"amount"`
	InvoiceItems             []InvoiceItem `json:"invoiceItems"`
	SourcePath               string        `json:"sourcePath"`
}

// InvoiceItem is one line of an invoice. Components the document did not
// state are nil.
type InvoiceItem struct {
	Quantity  *float64 `json:"quantity"`
	UnitPrice *float64 `json:"unitPrice"`
	TaxRate   *float64 `json:"taxRate"`
}

// StringFields returns pointers to the record's free-text fields keyed by
// schema name. Dates are included.
func (r *InvoiceRecord) StringFields() map[string]**string {
	return map[string]**string{
		constants.FieldName:                  &r.Name,
		constants.FieldBillingAddressCity:    &r.BillingAddressCity,
		constants.FieldBillingAddressCountry: &r.BillingAddressCountry,
		constants.FieldBillingAddressPostal:  &r.BillingAddressPostalCode,
		constants.FieldBillingAddressState:   &r.BillingAddressState,
		constants.FieldBillingAddressStreet:  &r.BillingAddressStreet,
		constants.FieldConstantSymbol:        &r.ConstantSymbol,
		constants.FieldDateInvoiced:          &r.DateInvoiced,
		constants.FieldDateOfReceiving:       &r.DateOfReceiving,
		constants.FieldDatePaid:              &r.DatePaid,
		constants.FieldDeliveryNotes:         &r.DeliveryNotes,
		constants.FieldDueDate:               &r.DueDate,
		constants.FieldDUZP:                  &r.DUZP,
		constants.FieldCurrency:              &r.Currency,
		constants.FieldNote:                  &r.Note,
		constants.FieldOriginalNumber:        &r.OriginalNumber,
		constants.FieldSICCode:               &r.SICCode,
		constants.FieldSupplyCode:            &r.SupplyCode,
		constants.FieldVariableSymbol:        &r.VariableSymbol,
		constants.FieldVATID:                 &r.VATID,
		constants.FieldWeight:                &r.Weight,
	}
}

// NumberFields returns pointers to the record's top-level numeric fields.
func (r *InvoiceRecord) NumberFields() map[string]**float64 {
	return map[string]**float64{
		constants.FieldGrandTotalAmount: &r.GrandTotalAmount,
		constants.FieldTaxAmount:        &r.TaxAmount,
		constants.FieldTaxRate:          &r.TaxRate,
		constants.FieldAmount:           &r.Amount,
	}
}

// Raw converts the record back into extraction form. Absent fields are
// omitted. Normalizing the result with the same source path yields an
// equal record.
func (r InvoiceRecord) Raw() RawExtraction {
	out := RawExtraction{}
	for k, p := range r.StringFields() {
		if *p != nil {
			out[k] = **p
		}
	}
	for k, p := range r.NumberFields() {
		if *p != nil {
			out[k] = **p
		}
	}
	if r.PaymentMethod != "" {
		out[constants.FieldPaymentMethod] = r.PaymentMethod
	}
	if r.InvoiceItems != nil {
		items := make([]any, 0, len(r.InvoiceItems))
		for _, it := range r.InvoiceItems {
			m := map[string]any{}
			if it.Quantity != nil {
				m[constants.FieldItemQuantity] = *it.Quantity
			}
			if it.UnitPrice != nil {
				m[constants.FieldItemUnitPrice] = *it.UnitPrice
			}
			if it.TaxRate != nil {
				m[constants.FieldItemTaxRate] = *it.TaxRate
			}
			items = append(items, m)
		}
		out[constants.FieldInvoiceItems] = items
	}
	return out
}
