package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"aura-finance/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the auth settings.
type Handler struct {
	svc        app.ApplicationService
	jwtSecret  string
	sessionTTL time.Duration
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins []string, jwtSecret string, sessionTTL time.Duration) http.Handler {
	h := &Handler{
		svc:        svc,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Public ───────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Protected (401 JSON if unauthenticated) ──────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Uploads manage their own, larger body limit.
		r.Post("/api/extract", h.extract)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20))

			r.Get("/api/auth/me", h.me)
			r.Get("/api/dashboard", h.dashboard)

			r.Get("/api/draft", h.getDraft)
			r.Delete("/api/draft", h.discardDraft)
			r.Post("/api/draft/save", h.saveDraft)
			r.Get("/api/draft/pdf", h.draftPDF)

			r.Get("/api/invoices", h.listInvoices)
			r.Get("/api/invoices/{id}/pdf", h.invoicePDF)
			r.Delete("/api/invoices/{id}", h.deleteInvoice)
			r.Post("/api/invoices/{id}/status", h.setInvoiceStatus)

			r.Get("/api/clients", h.listClients)
			r.Post("/api/clients", h.addClient)

			r.Post("/api/compare", h.compare)

			r.Get("/api/planning", notImplemented)
		})
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// invoiceID parses the {id} URL parameter, writing 400 when it is not a number.
func invoiceID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid invoice id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
