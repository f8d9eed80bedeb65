package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Store backed by PostgreSQL. The schema in
// migrations/ must already be applied.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (s *pgStore) ResolveClient(ctx context.Context, owner int, name string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM clients
		WHERE user_id = $1 AND name = $2
		ORDER BY id
		LIMIT 1`,
		owner, name,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, storeErr("lookup client", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO clients (user_id, name, status)
		VALUES ($1, $2, $3)
		RETURNING id`,
		owner, name, ClientStatusActive,
	).Scan(&id)
	if err != nil {
		return 0, storeErr("create client", err)
	}
	return id, nil
}

func (s *pgStore) AddInvoice(ctx context.Context, owner int, in NewInvoice) (*Invoice, error) {
	in, items, err := prepareInvoice(in)
	if err != nil {
		return nil, err
	}

	clientID, err := s.ResolveClient(ctx, owner, in.ClientName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientUnresolved, err)
	}

	inv := &Invoice{
		OwnerID:       owner,
		ClientID:      clientID,
		ClientName:    in.ClientName,
		InvoiceNumber: in.InvoiceNumber,
		Date:          in.Date,
		Currency:      in.Currency,
		Amount:        in.Amount,
		Items:         in.Items,
		Status:        in.Status,
	}
	if inv.Items == nil {
		inv.Items = []LineItem{}
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO invoices (client_id, user_id, invoice_number, date, currency, amount, status, items)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
		RETURNING id, created_at`,
		clientID, owner, in.InvoiceNumber, in.Date, in.Currency, in.Amount, string(in.Status), items,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("invoice %q: %w", in.InvoiceNumber, ErrDuplicateInvoice)
		}
		return nil, storeErr("insert invoice", err)
	}
	return inv, nil
}

const pgInvoiceSelect = `
	SELECT i.id, i.user_id, COALESCE(i.client_id, 0), COALESCE(c.name, 'Unknown Client'),
	       i.invoice_number, to_char(i.date, 'YYYY-MM-DD'), i.currency, i.amount,
	       i.status, i.items, i.created_at
	FROM invoices i
	LEFT JOIN clients c ON c.id = i.client_id`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv    Invoice
		status string
		items  string
	)
	if err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.ClientID, &inv.ClientName,
		&inv.InvoiceNumber, &inv.Date, &inv.Currency, &inv.Amount,
		&status, &items, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}
	inv.Status = InvoiceStatus(status)
	decoded, err := decodeItems(items)
	if err != nil {
		return nil, err
	}
	inv.Items = decoded
	return &inv, nil
}

func (s *pgStore) GetInvoices(ctx context.Context, owner int) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, pgInvoiceSelect+`
		WHERE i.user_id = $1
		ORDER BY i.date DESC, i.id DESC`,
		owner,
	)
	if err != nil {
		return nil, storeErr("get invoices", err)
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, storeErr("scan invoice", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("get invoices", err)
	}
	return invoices, nil
}

func (s *pgStore) GetInvoice(ctx context.Context, owner, id int) (*Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, pgInvoiceSelect+`
		WHERE i.id = $1 AND i.user_id = $2`,
		id, owner,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, storeErr("get invoice", err)
	}
	return inv, nil
}

func (s *pgStore) DeleteInvoice(ctx context.Context, owner, id int) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM invoices WHERE id = $1 AND user_id = $2", id, owner)
	if err != nil {
		return storeErr("delete invoice", err)
	}
	return nil
}

func (s *pgStore) SetInvoiceStatus(ctx context.Context, owner, id int, status InvoiceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q: %w", status, ErrStore)
	}
	_, err := s.pool.Exec(ctx,
		"UPDATE invoices SET status = $1 WHERE id = $2 AND user_id = $3",
		string(status), id, owner,
	)
	if err != nil {
		return storeErr("update invoice status", err)
	}
	return nil
}

func (s *pgStore) AddClient(ctx context.Context, owner int, in ClientInput) (*Client, error) {
	c := &Client{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (user_id, name, email, phone, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, name, COALESCE(email, ''), COALESCE(phone, ''), status, created_at`,
		owner, in.Name, in.Email, in.Phone, ClientStatusActive,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("create client %q", in.Name), err)
	}
	return c, nil
}

func (s *pgStore) GetClients(ctx context.Context, owner int) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, COALESCE(email, ''), COALESCE(phone, ''), status, created_at
		FROM clients
		WHERE user_id = $1
		ORDER BY id`,
		owner,
	)
	if err != nil {
		return nil, storeErr("get clients", err)
	}
	defer rows.Close()

	clients := []Client{}
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt); err != nil {
			return nil, storeErr("scan client", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("get clients", err)
	}
	return clients, nil
}

func (s *pgStore) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", username, ErrDuplicateUser)
		}
		return nil, storeErr("create user", err)
	}
	return u, nil
}

func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username = $1", username)
}

func (s *pgStore) GetUserByID(ctx context.Context, id int) (*User, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *pgStore) getUser(ctx context.Context, where string, arg any) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
		}
		return nil, storeErr("get user", err)
	}
	return u, nil
}
