package app

// AddClientRequest is the input for registering a client manually.
type AddClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CompareRequest carries the text of an invoice and of the delivery note it
// should match.
type CompareRequest struct {
	InvoiceText      string `json:"invoice_text"`
	DeliveryNoteText string `json:"delivery_note_text"`
}
