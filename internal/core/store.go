package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Store persists accounts, clients and invoices. Every client and invoice
// operation is scoped to an owner (user id); ids belonging to another owner
// behave as if they did not exist.
//
// Storage failures are returned wrapped in ErrStore, ErrDuplicateInvoice,
// ErrDuplicateUser, ErrNotFound or ErrClientUnresolved so callers can decide
// what to show without inspecting driver errors.
type Store interface {
	// AddInvoice resolves (or creates) the client named by in.ClientName and then
	// inserts the invoice. The two steps are separate statements: a failure after
	// the first may leave a client without invoices, but an invoice is never
	// inserted without a resolved client.
	AddInvoice(ctx context.Context, owner int, in NewInvoice) (*Invoice, error)

	// ResolveClient returns the id of the owner's client with exactly this name,
	// creating an Active client when none exists. Two concurrent first uses of
	// the same name can create two clients.
	ResolveClient(ctx context.Context, owner int, name string) (int, error)

	// GetInvoices returns the owner's invoices, newest date first.
	GetInvoices(ctx context.Context, owner int) ([]Invoice, error)

	// GetInvoice returns one invoice, or ErrNotFound.
	GetInvoice(ctx context.Context, owner, id int) (*Invoice, error)

	// DeleteInvoice removes the invoice if it belongs to owner. Another owner's
	// id is a no-op, not an error.
	DeleteInvoice(ctx context.Context, owner, id int) error

	// SetInvoiceStatus changes the status if the invoice belongs to owner.
	SetInvoiceStatus(ctx context.Context, owner, id int, status InvoiceStatus) error

	AddClient(ctx context.Context, owner int, in ClientInput) (*Client, error)
	GetClients(ctx context.Context, owner int) ([]Client, error)

	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)

	Close() error
}

// now is the clock used to stamp undated invoices.
var now = time.Now

// prepareInvoice applies persistence-time defaults and serializes the items.
func prepareInvoice(in NewInvoice) (NewInvoice, string, error) {
	if strings.TrimSpace(in.ClientName) == "" {
		in.ClientName = UnknownClientName
	}
	if strings.TrimSpace(in.InvoiceNumber) == "" {
		in.InvoiceNumber = DefaultInvoiceNumber
	}
	if in.Date == "" {
		in.Date = now().Format(DateLayout)
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if in.Status == "" {
		in.Status = InvoiceStatusPending
	}
	if !in.Status.Valid() {
		return in, "", fmt.Errorf("invalid status %q: %w", in.Status, ErrStore)
	}
	items, err := encodeItems(in.Items)
	if err != nil {
		return in, "", err
	}
	return in, items, nil
}

func encodeItems(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode items: %w: %w", ErrStore, err)
	}
	return string(b), nil
}

func decodeItems(blob string) ([]LineItem, error) {
	items := []LineItem{}
	if strings.TrimSpace(blob) == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, fmt.Errorf("decode items: %w: %w", ErrStore, err)
	}
	return items, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
