package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "Pending"
	InvoiceStatusPaid    InvoiceStatus = "Paid"
	InvoiceStatusOverdue InvoiceStatus = "Overdue"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

const (
	ClientStatusActive = "Active"

	// UnknownClientName is shown for invoices whose client row no longer exists,
	// and used when an extraction names no client at all.
	UnknownClientName = "Unknown Client"

	DefaultInvoiceNumber   = "Draft"
	DefaultItemDescription = "Item"
	DefaultCurrency        = "EUR"

	// DateLayout is the canonical invoice date format. Lexicographic order on
	// this layout is chronological order.
	DateLayout = "2006-01-02"
)

// LineItem is a single row of an invoice. It has no identity of its own and is
// stored serialized inside its invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Invoice is the canonical invoice record shared by persistence and rendering.
// Items keep document reading order.
type Invoice struct {
	ID            int             `json:"id,omitempty"`
	OwnerID       int             `json:"owner_id,omitempty"`
	ClientID      int             `json:"client_id,omitempty"`
	ClientName    string          `json:"client_name"`
	ClientAddress string          `json:"client_address,omitempty"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Items         []LineItem      `json:"items"`
	Status        InvoiceStatus   `json:"status"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
}

// ItemsTotal returns the sum of the line totals.
func (inv *Invoice) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range inv.Items {
		sum = sum.Add(it.Total)
	}
	return sum
}

// NewInvoice is the input to Store.AddInvoice. Date may be empty, in which case
// the store uses the current date.
type NewInvoice struct {
	ClientName    string
	InvoiceNumber string
	Date          string
	Currency      string
	Amount        decimal.Decimal
	Items         []LineItem
	Status        InvoiceStatus
}

// NewInvoiceFrom builds store input from a normalized record. New records always
// start Pending.
func NewInvoiceFrom(inv *Invoice) NewInvoice {
	return NewInvoice{
		ClientName:    inv.ClientName,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		Currency:      inv.Currency,
		Amount:        inv.Amount,
		Items:         inv.Items,
		Status:        InvoiceStatusPending,
	}
}

// Client is a customer of an owner, keyed for lookup by its exact name.
type Client struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientInput holds the fields for registering a client manually.
type ClientInput struct {
	Name  string
	Email string
	Phone string
}
