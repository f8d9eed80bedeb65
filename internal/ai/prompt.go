package ai

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// extractedItem and extractedInvoice describe the JSON the model is asked to
// produce. They exist only to generate the schema embedded in the prompts;
// responses are decoded loosely and handed to core.Normalize.
type extractedItem struct {
	Description string  `json:"description" jsonschema_description:"Clear description of the service or product"`
	Quantity    float64 `json:"quantity" jsonschema_description:"Number of units; 1 when not stated"`
	UnitPrice   float64 `json:"unit_price" jsonschema_description:"Price per unit"`
	Total       float64 `json:"total" jsonschema_description:"Line total"`
}

type extractedInvoice struct {
	InvoiceNumber string          `json:"invoice_number,omitempty" jsonschema_description:"Invoice number if printed"`
	Date          string          `json:"date,omitempty" jsonschema_description:"Issue date as YYYY-MM-DD"`
	ClientName    string          `json:"client_name,omitempty" jsonschema_description:"Vendor or bill-to party depending on context"`
	ClientAddress string          `json:"client_address,omitempty"`
	Items         []extractedItem `json:"items"`
	TotalAmount   float64         `json:"total_amount,omitempty" jsonschema_description:"Grand total as printed"`
	Currency      string          `json:"currency,omitempty" jsonschema_description:"ISO 4217 code such as EUR"`
}

func generateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&extractedInvoice{})
}

// invoiceSchemaJSON is the indented schema text embedded in the prompts.
func invoiceSchemaJSON() (string, error) {
	b, err := json.MarshalIndent(generateSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(b), nil
}

func documentPrompt(schema string) string {
	return fmt.Sprintf(`You are an expert financial assistant. Analyze this document (invoice or delivery note).
Extract the invoice number, date, client name, client address, line items, total amount and currency.
Reply with a single JSON object matching this schema:
%s

If a field is missing, use null. Do not wrap the JSON in markdown code fences.
If the document cannot be read at all, reply {"error": "<reason>"}.`, schema)
}

func voicePrompt(schema, transcript string) string {
	return fmt.Sprintf(`You are an expert financial assistant processing a voice note for an invoice.
Extract only the client the invoice is for, the items or services provided (quantity and price per unit)
and the total amount if it is stated; otherwise the total is unit price times quantity.
Ignore conversational filler. If the speaker says "factura para Pepsi", the client is Pepsi.
Reply with a single JSON object matching this schema:
%s

Voice note transcript:
%s`, schema, transcript)
}

func pdfTextPrompt(schema, text string) string {
	return documentPrompt(schema) + "\n\nDocument text:\n" + text
}

func comparePrompt(invoiceText, deliveryNoteText string) string {
	return fmt.Sprintf(`Compare the following invoice text with the delivery note text.
Identify any discrepancies in items, quantities or prices.

Invoice:
%s

Delivery Note:
%s

Output a summary of discrepancies or "No discrepancies found".`, invoiceText, deliveryNoteText)
}
