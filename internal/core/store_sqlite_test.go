package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	store, err := NewSQLiteStore("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*sqliteStore)
}

func newTestUser(t *testing.T, s Store, username string) int {
	t.Helper()
	u, err := s.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return u.ID
}

func sampleInvoice(client, number string) NewInvoice {
	return NewInvoice{
		ClientName:    client,
		InvoiceNumber: number,
		Date:          "2024-01-01",
		Currency:      "EUR",
		Amount:        dec("100"),
		Items: []LineItem{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("50"), Total: dec("100")},
		},
	}
}

func TestSQLiteStore_AddInvoiceCreatesClientOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "12345678Z")

	first, err := s.AddInvoice(ctx, owner, sampleInvoice("Acme", "INV-1"))
	require.NoError(t, err)

	clients, err := s.GetClients(ctx, owner)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)
	assert.Equal(t, ClientStatusActive, clients[0].Status)
	assert.Equal(t, clients[0].ID, first.ClientID)

	second, err := s.AddInvoice(ctx, owner, sampleInvoice("Acme", "INV-2"))
	require.NoError(t, err)
	assert.Equal(t, first.ClientID, second.ClientID)

	clients, err = s.GetClients(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	invoices, err := s.GetInvoices(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "12345678Z")

	saved, err := s.AddInvoice(ctx, owner, sampleInvoice("Acme", "INV-1"))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, InvoiceStatusPending, saved.Status)

	got, err := s.GetInvoice(ctx, owner, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.ClientName)
	assert.Equal(t, "INV-1", got.InvoiceNumber)
	assert.Equal(t, "2024-01-01", got.Date)
	assertDec(t, "100", got.Amount)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Consulting", got.Items[0].Description)
	assertDec(t, "100", got.Items[0].Total)
	require.NotNil(t, got.CreatedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStore_Defaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "12345678Z")

	now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	saved, err := s.AddInvoice(ctx, owner, NewInvoice{Amount: dec("10")})
	require.NoError(t, err)

	got, err := s.GetInvoice(ctx, owner, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, UnknownClientName, got.ClientName)
	assert.Equal(t, DefaultInvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, "2024-03-15", got.Date)
	assert.Equal(t, DefaultCurrency, got.Currency)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

func TestSQLiteStore_DuplicateInvoiceNumberPerOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s, "11111111A")
	bob := newTestUser(t, s, "22222222B")

	_, err := s.AddInvoice(ctx, alice, sampleInvoice("Acme", "INV-1"))
	require.NoError(t, err)

	_, err = s.AddInvoice(ctx, alice, sampleInvoice("Acme", "INV-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateInvoice))

	_, err = s.AddInvoice(ctx, bob, sampleInvoice("Acme", "INV-1"))
	assert.NoError(t, err)
}

func TestSQLiteStore_DeleteWrongOwnerIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s, "11111111A")
	bob := newTestUser(t, s, "22222222B")

	saved, err := s.AddInvoice(ctx, alice, sampleInvoice("Acme", "INV-1"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteInvoice(ctx, bob, saved.ID))

	got, err := s.GetInvoice(ctx, alice, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", got.InvoiceNumber)

	require.NoError(t, s.DeleteInvoice(ctx, alice, saved.ID))
	_, err = s.GetInvoice(ctx, alice, saved.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_GetInvoiceOtherOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s, "11111111A")
	bob := newTestUser(t, s, "22222222B")

	saved, err := s.AddInvoice(ctx, alice, sampleInvoice("Acme", "INV-1"))
	require.NoError(t, err)

	_, err = s.GetInvoice(ctx, bob, saved.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	invoices, err := s.GetInvoices(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestSQLiteStore_OrderAndMissingClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "12345678Z")

	older := sampleInvoice("Acme", "INV-1")
	older.Date = "2023-12-01"
	newer := sampleInvoice("Globex", "INV-2")
	newer.Date = "2024-02-01"

	_, err := s.AddInvoice(ctx, owner, older)
	require.NoError(t, err)
	_, err = s.AddInvoice(ctx, owner, newer)
	require.NoError(t, err)

	require.NoError(t, s.db.Exec("DELETE FROM clients WHERE name = ?", "Globex").Error)

	invoices, err := s.GetInvoices(ctx, owner)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-2", invoices[0].InvoiceNumber)
	assert.Equal(t, UnknownClientName, invoices[0].ClientName)
	assert.Equal(t, "INV-1", invoices[1].InvoiceNumber)
	assert.Equal(t, "Acme", invoices[1].ClientName)
}

func TestSQLiteStore_SetInvoiceStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s, "11111111A")
	bob := newTestUser(t, s, "22222222B")

	saved, err := s.AddInvoice(ctx, alice, sampleInvoice("Acme", "INV-1"))
	require.NoError(t, err)

	require.NoError(t, s.SetInvoiceStatus(ctx, bob, saved.ID, InvoiceStatusPaid))
	got, err := s.GetInvoice(ctx, alice, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPending, got.Status)

	require.NoError(t, s.SetInvoiceStatus(ctx, alice, saved.ID, InvoiceStatusPaid))
	got, err = s.GetInvoice(ctx, alice, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, got.Status)

	err = s.SetInvoiceStatus(ctx, alice, saved.ID, "Cancelled")
	assert.True(t, errors.Is(err, ErrStore))
}

func TestSQLiteStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "12345678Z", "hash")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "12345678Z", "other")
	assert.True(t, errors.Is(err, ErrDuplicateUser))

	byName, err := s.GetUserByUsername(ctx, "12345678Z")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	byID, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678Z", byID.Username)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_AddClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "12345678Z")

	c, err := s.AddClient(ctx, owner, ClientInput{Name: "Initech", Email: "ap@initech.test", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, ClientStatusActive, c.Status)

	id, err := s.ResolveClient(ctx, owner, "Initech")
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)
}
