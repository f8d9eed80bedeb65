package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID           int    `gorm:"primaryKey"`
	Username     string `gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type clientRow struct {
	ID        int    `gorm:"primaryKey"`
	UserID    int    `gorm:"not null;index:idx_clients_owner_name"`
	Name      string `gorm:"not null;index:idx_clients_owner_name"`
	Email     string
	Phone     string
	Status    string `gorm:"not null;default:Active"`
	CreatedAt time.Time
}

func (clientRow) TableName() string { return "clients" }

type invoiceRow struct {
	ID            int             `gorm:"primaryKey"`
	ClientID      *int            `gorm:"index"`
	UserID        int             `gorm:"not null;uniqueIndex:idx_invoices_owner_number"`
	InvoiceNumber string          `gorm:"not null;uniqueIndex:idx_invoices_owner_number"`
	Date          string          `gorm:"type:text;index"`
	Currency      string          `gorm:"size:3;not null;default:EUR"`
	Amount        decimal.Decimal `gorm:"type:text;not null"`
	Status        string          `gorm:"not null;default:Pending;check:chk_invoices_status,status IN ('Pending','Paid','Overdue')"`
	Items         string          `gorm:"type:text;not null"`
	CreatedAt     time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

// invoiceView is one row of the invoices/clients left join.
type invoiceView struct {
	invoiceRow
	ClientName string
}

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) a single-file SQLite database and
// brings its schema up to date. dsn is anything the sqlite driver accepts,
// e.g. "aura_finance.db" or "file:test?mode=memory&cache=shared".
func NewSQLiteStore(dsn string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	if err := db.AutoMigrate(&userRow{}, &clientRow{}, &invoiceRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *sqliteStore) ResolveClient(ctx context.Context, owner int, name string) (int, error) {
	var found []clientRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", owner, name).
		Order("id").Limit(1).
		Find(&found).Error
	if err != nil {
		return 0, storeErr("lookup client", err)
	}
	if len(found) > 0 {
		return found[0].ID, nil
	}

	row := clientRow{UserID: owner, Name: name, Status: ClientStatusActive}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, storeErr("create client", err)
	}
	return row.ID, nil
}

func (s *sqliteStore) AddInvoice(ctx context.Context, owner int, in NewInvoice) (*Invoice, error) {
	in, items, err := prepareInvoice(in)
	if err != nil {
		return nil, err
	}

	clientID, err := s.ResolveClient(ctx, owner, in.ClientName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientUnresolved, err)
	}

	row := invoiceRow{
		ClientID:      &clientID,
		UserID:        owner,
		InvoiceNumber: in.InvoiceNumber,
		Date:          in.Date,
		Currency:      in.Currency,
		Amount:        in.Amount,
		Status:        string(in.Status),
		Items:         items,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("invoice %q: %w", in.InvoiceNumber, ErrDuplicateInvoice)
		}
		return nil, storeErr("insert invoice", err)
	}

	inv, err := row.toInvoice(in.ClientName)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r invoiceRow) toInvoice(clientName string) (*Invoice, error) {
	items, err := decodeItems(r.Items)
	if err != nil {
		return nil, err
	}
	createdAt := r.CreatedAt
	inv := &Invoice{
		ID:            r.ID,
		OwnerID:       r.UserID,
		ClientName:    clientName,
		InvoiceNumber: r.InvoiceNumber,
		Date:          r.Date,
		Currency:      r.Currency,
		Amount:        r.Amount,
		Items:         items,
		Status:        InvoiceStatus(r.Status),
		CreatedAt:     &createdAt,
	}
	if r.ClientID != nil {
		inv.ClientID = *r.ClientID
	}
	return inv, nil
}

func (s *sqliteStore) invoiceQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("invoices AS i").
		Select("i.*, COALESCE(c.name, ?) AS client_name", UnknownClientName).
		Joins("LEFT JOIN clients c ON c.id = i.client_id")
}

func (s *sqliteStore) GetInvoices(ctx context.Context, owner int) ([]Invoice, error) {
	var views []invoiceView
	err := s.invoiceQuery(ctx).
		Where("i.user_id = ?", owner).
		Order("i.date DESC, i.id DESC").
		Scan(&views).Error
	if err != nil {
		return nil, storeErr("get invoices", err)
	}

	invoices := make([]Invoice, 0, len(views))
	for _, v := range views {
		inv, err := v.toInvoice(v.ClientName)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

func (s *sqliteStore) GetInvoice(ctx context.Context, owner, id int) (*Invoice, error) {
	var views []invoiceView
	err := s.invoiceQuery(ctx).
		Where("i.id = ? AND i.user_id = ?", id, owner).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, storeErr("get invoice", err)
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return views[0].toInvoice(views[0].ClientName)
}

func (s *sqliteStore) DeleteInvoice(ctx context.Context, owner, id int) error {
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner).
		Delete(&invoiceRow{}).Error
	if err != nil {
		return storeErr("delete invoice", err)
	}
	return nil
}

func (s *sqliteStore) SetInvoiceStatus(ctx context.Context, owner, id int, status InvoiceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q: %w", status, ErrStore)
	}
	err := s.db.WithContext(ctx).
		Model(&invoiceRow{}).
		Where("id = ? AND user_id = ?", id, owner).
		Update("status", string(status)).Error
	if err != nil {
		return storeErr("update invoice status", err)
	}
	return nil
}

func (s *sqliteStore) AddClient(ctx context.Context, owner int, in ClientInput) (*Client, error) {
	row := clientRow{
		UserID: owner,
		Name:   in.Name,
		Email:  in.Email,
		Phone:  in.Phone,
		Status: ClientStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, storeErr(fmt.Sprintf("create client %q", in.Name), err)
	}
	c := row.toClient()
	return &c, nil
}

func (r clientRow) toClient() Client {
	return Client{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func (s *sqliteStore) GetClients(ctx context.Context, owner int) ([]Client, error) {
	var rows []clientRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", owner).Order("id").Find(&rows).Error; err != nil {
		return nil, storeErr("get clients", err)
	}
	clients := make([]Client, 0, len(rows))
	for _, r := range rows {
		clients = append(clients, r.toClient())
	}
	return clients, nil
}

func (s *sqliteStore) CreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	row := userRow{Username: username, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("user %q: %w", username, ErrDuplicateUser)
		}
		return nil, storeErr("create user", err)
	}
	return row.toUser(), nil
}

func (r userRow) toUser() *User {
	return &User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

func (s *sqliteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *sqliteStore) GetUserByID(ctx context.Context, id int) (*User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *sqliteStore) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Where(where, arg).Limit(1).Find(&rows).Error; err != nil {
		return nil, storeErr("get user", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
	}
	return rows[0].toUser(), nil
}
