package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aura-finance/internal/ai"
	"aura-finance/internal/core"
	"aura-finance/internal/logger"
	"aura-finance/internal/render"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrValidation is returned for rejected user input.
	ErrValidation = errors.New("validation failed")

	// ErrNoDraft is returned when a draft operation finds nothing extracted.
	ErrNoDraft = errors.New("no extracted invoice in session")

	// ErrExtractionUnavailable is returned when no extraction adapter is configured.
	ErrExtractionUnavailable = errors.New("document extraction is not configured")

	// ErrRender wraps PDF generation failures.
	ErrRender = errors.New("render failed")
)

const (
	minUsernameLen = 5
	minPasswordLen = 6

	// recentInvoices is how many invoices the dashboard lists.
	recentInvoices = 10
)

type appService struct {
	store     core.Store
	extractor ai.Extractor
	renderer  *render.Renderer
	sessions  *SessionStore
	log       zerolog.Logger
	now       func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// extractor may be nil, in which case extraction and comparison fail with
// ErrExtractionUnavailable.
func NewAppService(
	store core.Store,
	extractor ai.Extractor,
	renderer *render.Renderer,
	sessions *SessionStore,
) ApplicationService {
	return &appService{
		store:     store,
		extractor: extractor,
		renderer:  renderer,
		sessions:  sessions,
		log:       logger.WithComponent("app"),
		now:       time.Now,
	}
}

// Register creates an account with a bcrypt password hash.
func (s *appService) Register(ctx context.Context, username, password string) (*core.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen {
		return nil, fmt.Errorf("%w: username must be at least %d characters", ErrValidation, minUsernameLen)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("user_id", user.ID).Msg("account registered")
	return user, nil
}

func (s *appService) Authenticate(ctx context.Context, username, password string) (*core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *appService) StartSession(userID int) *Session {
	return s.sessions.Create(userID)
}

func (s *appService) Session(id string) (*Session, bool) {
	return s.sessions.Get(id)
}

func (s *appService) EndSession(id string) {
	s.sessions.Delete(id)
}

func (s *appService) AnalyzeDocument(ctx context.Context, sess *Session, data []byte, mimeType string) (*core.Invoice, error) {
	sess.ClearDraft()

	if s.extractor == nil {
		return nil, ErrExtractionUnavailable
	}

	start := s.now()
	raw, err := s.extractor.Extract(ctx, data, mimeType)
	if err != nil {
		s.log.Warn().Err(err).Str("mime", mimeType).Msg("extraction failed")
		return nil, err
	}

	inv, err := core.Normalize(raw)
	if err != nil {
		return nil, &ai.ExtractionError{Op: "normalize", Err: err}
	}
	sess.setDraft(inv)

	s.log.Info().
		Int("user_id", sess.UserID).
		Str("invoice_number", inv.InvoiceNumber).
		Int("items", len(inv.Items)).
		Dur("took", s.now().Sub(start)).
		Msg("document extracted")
	return inv, nil
}

func (s *appService) SaveDraft(ctx context.Context, sess *Session) (*core.Invoice, error) {
	draft := sess.Draft()
	if draft == nil {
		return nil, ErrNoDraft
	}

	saved, err := s.store.AddInvoice(ctx, sess.UserID, core.NewInvoiceFrom(draft))
	if err != nil {
		return nil, err
	}
	sess.ClearDraft()

	saved.ClientAddress = draft.ClientAddress
	s.log.Info().Int("user_id", sess.UserID).Int("invoice_id", saved.ID).Msg("invoice saved")
	return saved, nil
}

func (s *appService) RenderDraft(ctx context.Context, sess *Session) (*DocumentResult, error) {
	draft := sess.Draft()
	if draft == nil {
		return nil, ErrNoDraft
	}
	return s.render(draft)
}

func (s *appService) RenderInvoice(ctx context.Context, owner, invoiceID int) (*DocumentResult, error) {
	inv, err := s.store.GetInvoice(ctx, owner, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.render(inv)
}

func (s *appService) RenderRecord(ctx context.Context, raw any) (*DocumentResult, error) {
	inv, err := core.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return s.render(inv)
}

// render fills the presentation defaults a stored record would have and draws it.
func (s *appService) render(inv *core.Invoice) (*DocumentResult, error) {
	if inv.Date == "" {
		inv.Date = s.now().Format(core.DateLayout)
	}
	if inv.Currency == "" {
		inv.Currency = core.DefaultCurrency
	}
	data, err := s.renderer.Bytes(inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return &DocumentResult{Filename: render.Filename(inv), Data: data}, nil
}

func (s *appService) ListInvoices(ctx context.Context, owner int) (*InvoiceListResult, error) {
	invoices, err := s.store.GetInvoices(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) DeleteInvoice(ctx context.Context, owner, invoiceID int) error {
	return s.store.DeleteInvoice(ctx, owner, invoiceID)
}

func (s *appService) SetInvoiceStatus(ctx context.Context, owner, invoiceID int, status string) error {
	st := core.InvoiceStatus(status)
	if !st.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.store.SetInvoiceStatus(ctx, owner, invoiceID, st)
}

func (s *appService) AddClient(ctx context.Context, owner int, req AddClientRequest) (*core.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrValidation)
	}
	return s.store.AddClient(ctx, owner, core.ClientInput{
		Name:  name,
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
}

func (s *appService) ListClients(ctx context.Context, owner int) (*ClientListResult, error) {
	clients, err := s.store.GetClients(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

func (s *appService) GetDashboard(ctx context.Context, owner int) (*DashboardResult, error) {
	invoices, err := s.store.GetInvoices(ctx, owner)
	if err != nil {
		return nil, err
	}
	clients, err := s.store.GetClients(ctx, owner)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, c := range clients {
		if c.Status == core.ClientStatusActive {
			active++
		}
	}

	recent := invoices
	if len(recent) > recentInvoices {
		recent = recent[:recentInvoices]
	}

	return &DashboardResult{
		Metrics:        core.ComputeMetrics(invoices, s.now()),
		ActiveClients:  active,
		RecentInvoices: recent,
	}, nil
}

func (s *appService) CompareDocuments(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	if strings.TrimSpace(req.InvoiceText) == "" || strings.TrimSpace(req.DeliveryNoteText) == "" {
		return nil, fmt.Errorf("%w: both documents are required", ErrValidation)
	}
	if s.extractor == nil {
		return nil, ErrExtractionUnavailable
	}
	summary, err := s.extractor.CompareDocuments(ctx, req.InvoiceText, req.DeliveryNoteText)
	if err != nil {
		return nil, err
	}
	return &CompareResult{Summary: summary}, nil
}
