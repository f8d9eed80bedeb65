package app

import (
	"context"

	"aura-finance/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// Register creates an account. Usernames (DNI/NIF) need at least 5
	// characters and passwords at least 6.
	Register(ctx context.Context, username, password string) (*core.User, error)

	// Authenticate checks credentials and returns the account, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*core.User, error)

	// GetUser returns the account with the given id.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// StartSession opens an interaction session for a signed-in user.
	StartSession(userID int) *Session

	// Session returns a live session, or false if it is unknown or expired.
	Session(id string) (*Session, bool)

	// EndSession drops the session and its draft.
	EndSession(id string)

	// AnalyzeDocument runs the extraction adapter over an uploaded file and
	// normalizes the result into the session's draft. Any previous draft is
	// discarded first, even when extraction fails.
	AnalyzeDocument(ctx context.Context, sess *Session, data []byte, mimeType string) (*core.Invoice, error)

	// SaveDraft persists the session draft for the session's user and clears it.
	// On failure the draft is kept so the user can retry.
	SaveDraft(ctx context.Context, sess *Session) (*core.Invoice, error)

	// RenderDraft renders the session draft without persisting it.
	RenderDraft(ctx context.Context, sess *Session) (*DocumentResult, error)

	// RenderInvoice renders a stored invoice belonging to owner.
	RenderInvoice(ctx context.Context, owner, invoiceID int) (*DocumentResult, error)

	// RenderRecord renders an arbitrary extraction result after normalizing it.
	RenderRecord(ctx context.Context, raw any) (*DocumentResult, error)

	// ListInvoices returns the owner's invoices, newest first.
	ListInvoices(ctx context.Context, owner int) (*InvoiceListResult, error)

	// DeleteInvoice deletes one of the owner's invoices. Ids owned by someone
	// else are ignored.
	DeleteInvoice(ctx context.Context, owner, invoiceID int) error

	// SetInvoiceStatus marks an invoice Pending, Paid or Overdue.
	SetInvoiceStatus(ctx context.Context, owner, invoiceID int, status string) error

	// AddClient registers a client manually.
	AddClient(ctx context.Context, owner int, req AddClientRequest) (*core.Client, error)

	// ListClients returns the owner's clients.
	ListClients(ctx context.Context, owner int) (*ClientListResult, error)

	// GetDashboard returns revenue metrics, the active client count and the
	// most recent invoices.
	GetDashboard(ctx context.Context, owner int) (*DashboardResult, error)

	// CompareDocuments summarizes discrepancies between an invoice and a delivery note.
	CompareDocuments(ctx context.Context, req CompareRequest) (*CompareResult, error)
}
