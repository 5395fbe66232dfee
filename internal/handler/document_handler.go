package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

// DocumentService - операции над документами, которые нужны HTTP-слою
type DocumentService interface {
	CreateDocument(ctx context.Context, caller domain.Caller, input domain.DocumentInput) (*domain.Document, error)
	UpdateDocument(ctx context.Context, caller domain.Caller, id uuid.UUID, patch domain.DocumentPatch) (*domain.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	GetDocumentBySlug(ctx context.Context, slug string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, caller domain.Caller, id uuid.UUID) error
}

type DocumentHandler struct {
	responder
	documents DocumentService
}

func NewDocumentHandler(documents DocumentService, m *metrics.Metrics, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		responder: responder{logger: logger.With(zap.String("handler", "documents")), metrics: m},
		documents: documents,
	}
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input domain.DocumentInput
	if !h.decode(w, r, &input) {
		return
	}

	doc, err := h.documents.CreateDocument(r.Context(), caller, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var patch domain.DocumentPatch
	if !h.decode(w, r, &patch) {
		return
	}

	doc, err := h.documents.UpdateDocument(r.Context(), caller, id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) GetDocumentBySlug(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetDocumentBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.documents.DeleteDocument(r.Context(), caller, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
