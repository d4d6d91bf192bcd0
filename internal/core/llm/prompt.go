package llm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/joseph-ayodele/invoice-reader/constants"
	"github.com/joseph-ayodele/invoice-reader/internal/core/text"
	"github.com/joseph-ayodele/invoice-reader/internal/entity"
)

const SystemPrompt = "You extract data from invoices and provide structured JSON output."

// DefaultPromptTemplate is rendered with the normalized transcript in
// {{.Transcript}} and the payment methods in {{.PaymentMethods}}.
const DefaultPromptTemplate = `You are provided with the text of an invoice below.
Extract the specified fields and return them by calling the extract_invoice_data function.
Use the string "none" if the data is missing or unreadable. Never guess.
Pay special attention to extracting the 'name' and billing address fields accurately.
Look for common labels like 'Bill To:', 'Invoice To:', 'Client:', 'Sold To:' or 'Odběratel:'.

Fields:
- name (the company or individual the invoice is addressed to)
- billingAddressCity
- billingAddressCountry
- billingAddressPostalCode
- billingAddressState
- billingAddressStreet
- constantSymbol
- dateInvoiced (format: YYYY-MM-DD)
- dateOfReceiving (format: YYYY-MM-DD)
- datePaid (format: YYYY-MM-DD)
- deliveryNotes
- dueDate (format: YYYY-MM-DD)
- duzp
- grandTotalAmount (format: numeric, two decimal places)
- currency (format: ISO 4217 code, e.g., USD, EUR, GBP, CZK)
- note
- originalNumber
- paymentMethod (one of: {{.PaymentMethods}})
- sicCode
- supplyCode
- taxAmount (format: numeric, two decimal places)
- taxRate (format: numeric, e.g., 21)
- variableSymbol
- vatId
- weight (text, include unit if available)
- amount (format: numeric, two decimal places)
- invoiceItems (each item has quantity, unitPrice, taxRate; all numeric)

Example output:
{
  "name": "Company ABC",
  "billingAddressCity": "Prague",
  "billingAddressCountry": "Czech Republic",
  "billingAddressPostalCode": "11000",
  "billingAddressState": "Prague",
  "billingAddressStreet": "Wenceslas Square 1",
  "constantSymbol": "0308",
  "dateInvoiced": "2023-08-01",
  "dateOfReceiving": "none",
  "datePaid": "2023-08-05",
  "deliveryNotes": "Handle with care",
  "dueDate": "2023-08-15",
  "duzp": "none",
  "grandTotalAmount": 960.00,
  "currency": "EUR",
  "note": "Thank you for your business",
  "originalNumber": "INV-2023-0001",
  "paymentMethod": "draft",
  "sicCode": "none",
  "supplyCode": "none",
  "taxAmount": 160.00,
  "taxRate": 21.0,
  "variableSymbol": "20230001",
  "vatId": "CZ12345678",
  "weight": "10 kg",
  "amount": 800.00,
  "invoiceItems": [
    {"quantity": 3, "unitPrice": 125.00, "taxRate": 21},
    {"quantity": 2, "unitPrice": 212.50, "taxRate": 21}
  ]
}

Invoice text:
{{.Transcript}}`

type promptData struct {
	Transcript     string
	PaymentMethods string
}

// PromptBuilder renders extraction requests from a fixed template.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the template once. An empty path selects
// DefaultPromptTemplate.
func NewPromptBuilder(templateFile string) (*PromptBuilder, error) {
	src := DefaultPromptTemplate
	if templateFile != "" {
		b, err := os.ReadFile(templateFile)
		if err != nil {
			return nil, fmt.Errorf("read prompt template: %w", err)
		}
		src = string(b)
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	if err := tmpl.Execute(io.Discard, promptData{}); err != nil {
		return nil, fmt.Errorf("prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build is deterministic: equal transcripts give equal requests.
func (b *PromptBuilder) Build(tr entity.Transcript) (entity.ExtractionRequest, error) {
	var buf bytes.Buffer
	data := promptData{
		Transcript:     text.Normalize(tr.Text),
		PaymentMethods: strings.Join(constants.PaymentMethodsAsStrings(), ", "),
	}
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return entity.ExtractionRequest{}, fmt.Errorf("render prompt: %w", err)
	}
	return entity.ExtractionRequest{
		System:              SystemPrompt,
		Prompt:              buf.String(),
		FunctionName:        FunctionName,
		FunctionDescription: FunctionDescription,
		Schema:              InvoiceSchema(),
	}, nil
}
