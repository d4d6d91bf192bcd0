package constants

// Invoice field names as they appear in the extraction schema and in JSON output.
const (
	FieldName                  = "name"
	FieldBillingAddressCity    = "billingAddressCity"
	FieldBillingAddressCountry = "billingAddressCountry"
	FieldBillingAddressPostal  = "billingAddressPostalCode"
	FieldBillingAddressState   = "billingAddressState"
	FieldBillingAddressStreet  = "billingAddressStreet"
	FieldConstantSymbol        = "constantSymbol"
	FieldDateInvoiced          = "dateInvoiced"
	FieldDateOfReceiving       = "dateOfReceiving"
	FieldDatePaid              = "datePaid"
	FieldDeliveryNotes         = "deliveryNotes"
	FieldDueDate               = "dueDate"
	FieldDUZP                  = "duzp"
	FieldGrandTotalAmount      = "grandTotalAmount"
	FieldCurrency              = "currency"
	FieldNote                  = "note"
	FieldOriginalNumber        = "originalNumber"
	FieldPaymentMethod         = "paymentMethod"
	FieldSICCode               = "sicCode"
	FieldSupplyCode            = "supplyCode"
	FieldTaxAmount             = "taxAmount"
	FieldTaxRate               = "taxRate"
	FieldVariableSymbol        = "variableSymbol"
	FieldVATID                 = "vatId"
	FieldWeight                = "weight"
	FieldAmount                = "amount"
	FieldInvoiceItems          = "invoiceItems"
	FieldItemQuantity          = "quantity"
	FieldItemUnitPrice         = "unitPrice"
	FieldItemTaxRate           = "taxRate"
)

// DateFields are normalized to YYYY-MM-DD.
var DateFields = []string{FieldDateInvoiced, FieldDateOfReceiving, FieldDatePaid, FieldDueDate}

// NumberFields are top-level numeric fields.
var NumberFields = []string{FieldGrandTotalAmount, FieldTaxAmount, FieldTaxRate, FieldAmount}

// StringFields are top-level free-text fields, dates excluded. Weight keeps
// its unit ("10 kg") and is therefore text.
var StringFields = []string{
	FieldName,
	FieldBillingAddressCity,
	FieldBillingAddressCountry,
	FieldBillingAddressPostal,
	FieldBillingAddressState,
	FieldBillingAddressStreet,
	FieldConstantSymbol,
	FieldDeliveryNotes,
	FieldDUZP,
	FieldCurrency,
	FieldNote,
	FieldOriginalNumber,
	FieldSICCode,
	FieldSupplyCode,
	FieldVariableSymbol,
	FieldVATID,
	FieldWeight,
}

// ItemFields are the numeric keys of an invoice line item.
var ItemFields = []string{FieldItemQuantity, FieldItemUnitPrice, FieldItemTaxRate}
