package web

import (
	"net/http"

	"aura-finance/internal/app"
)

// dashboard handles GET /api/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	result, err := h.svc.GetDashboard(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listInvoices handles GET /api/invoices.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	result, err := h.svc.ListInvoices(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// invoicePDF handles GET /api/invoices/{id}/pdf.
func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	claims := authFromContext(r.Context())
	doc, err := h.svc.RenderInvoice(r.Context(), claims.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePDF(w, doc)
}

// deleteInvoice handles DELETE /api/invoices/{id}. Deleting an id the caller
// does not own is not an error.
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	claims := authFromContext(r.Context())
	if err := h.svc.DeleteInvoice(r.Context(), claims.UserID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setInvoiceStatus handles POST /api/invoices/{id}/status.
func (h *Handler) setInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := invoiceID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	claims := authFromContext(r.Context())
	if err := h.svc.SetInvoiceStatus(r.Context(), claims.UserID, id, req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listClients handles GET /api/clients.
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	result, err := h.svc.ListClients(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// addClient handles POST /api/clients.
func (h *Handler) addClient(w http.ResponseWriter, r *http.Request) {
	var req app.AddClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	claims := authFromContext(r.Context())
	client, err := h.svc.AddClient(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, client)
}

// compare handles POST /api/compare.
func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req app.CompareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CompareDocuments(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
