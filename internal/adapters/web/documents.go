package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"aura-finance/internal/ai"
	"aura-finance/internal/app"
)

// maxUploadSize caps uploaded invoice documents and voice notes.
const maxUploadSize = 20 << 20

// extract handles POST /api/extract (multipart/form-data, field "file").
// The file's content type is sniffed from its first 512 bytes; when the sniff
// is inconclusive the part's declared type is used if it is a supported one.
func (h *Handler) extract(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "file exceeds the 20 MB limit", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "invalid multipart form", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "file field is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, "failed to read file", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		writeError(w, r, "file is empty", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	mimeType := detectMediaType(data, header.Header.Get("Content-Type"))
	if ai.ClassifyMedia(mimeType) == ai.MediaUnsupported {
		writeError(w, r, fmt.Sprintf("unsupported file type %q; upload an image, a PDF or an audio note", mimeType),
			"UNSUPPORTED_TYPE", http.StatusUnsupportedMediaType)
		return
	}

	inv, err := h.svc.AnalyzeDocument(r.Context(), claims.Session, data, mimeType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, inv)
}

// detectMediaType sniffs data and falls back to the declared type.
func detectMediaType(data []byte, declared string) string {
	header := data
	if len(header) > 512 {
		header = header[:512]
	}
	sniffed := stripParams(http.DetectContentType(header))
	if ai.ClassifyMedia(sniffed) != ai.MediaUnsupported {
		return sniffed
	}
	declared = stripParams(declared)
	if ai.ClassifyMedia(declared) != ai.MediaUnsupported {
		return declared
	}
	return sniffed
}

func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// getDraft handles GET /api/draft.
func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	draft := authFromContext(r.Context()).Session.Draft()
	if draft == nil {
		writeServiceError(w, r, app.ErrNoDraft)
		return
	}
	writeJSON(w, draft)
}

// discardDraft handles DELETE /api/draft.
func (h *Handler) discardDraft(w http.ResponseWriter, r *http.Request) {
	authFromContext(r.Context()).Session.ClearDraft()
	w.WriteHeader(http.StatusNoContent)
}

// saveDraft handles POST /api/draft/save.
func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.SaveDraft(r.Context(), authFromContext(r.Context()).Session)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, inv)
}

// draftPDF handles GET /api/draft/pdf.
func (h *Handler) draftPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.RenderDraft(r.Context(), authFromContext(r.Context()).Session)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePDF(w, doc)
}

// writePDF sends a rendered invoice as a download.
func writePDF(w http.ResponseWriter, doc *app.DocumentResult) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}
