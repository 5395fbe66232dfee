package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

// BiddingDocumentService - вложения процедуры закупки
type BiddingDocumentService interface {
	AddBiddingDocument(ctx context.Context, caller domain.Caller, biddingID uuid.UUID, input domain.BiddingDocumentInput, fileName string, data []byte) (*domain.BiddingDocument, error)
	PublishBiddingDocument(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.BiddingDocument, error)
	ListBiddingDocuments(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingDocument, error)
	GetBiddingDocument(ctx context.Context, id uuid.UUID) (*domain.BiddingDocument, error)
}

type BiddingDocumentHandler struct {
	responder
	attachments   BiddingDocumentService
	maxUploadSize int64
}

func NewBiddingDocumentHandler(attachments BiddingDocumentService, maxUploadSize int64, m *metrics.Metrics, logger *zap.Logger) *BiddingDocumentHandler {
	return &BiddingDocumentHandler{
		responder:     responder{logger: logger.With(zap.String("handler", "bidding_documents")), metrics: m},
		attachments:   attachments,
		maxUploadSize: maxUploadSize,
	}
}

// AddBiddingDocument принимает multipart: file + document_type, annex_number, phase, title, display_title, order
func (h *BiddingDocumentHandler) AddBiddingDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	biddingID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	header, data, ok := h.readUpload(w, r, h.maxUploadSize)
	if !ok {
		return
	}

	input := domain.BiddingDocumentInput{
		DocumentType: domain.BiddingDocumentType(r.FormValue("document_type")),
		Phase:        domain.Phase(r.FormValue("phase")),
		Title:        r.FormValue("title"),
		DisplayTitle: optionalForm(r, "display_title"),
	}
	var err error
	if input.AnnexNumber, err = formInt(r, "annex_number"); err != nil {
		h.fail(w, r, err)
		return
	}
	if input.Order, err = formInt(r, "order"); err != nil {
		h.fail(w, r, err)
		return
	}

	doc, err := h.attachments.AddBiddingDocument(r.Context(), caller, biddingID, input, header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *BiddingDocumentHandler) PublishBiddingDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.attachments.PublishBiddingDocument(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *BiddingDocumentHandler) ListBiddingDocuments(w http.ResponseWriter, r *http.Request) {
	biddingID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	docs, err := h.attachments.ListBiddingDocuments(r.Context(), biddingID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if docs == nil {
		docs = []domain.BiddingDocument{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *BiddingDocumentHandler) GetBiddingDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.attachments.GetBiddingDocument(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// formInt читает необязательное целое поле формы
func formInt(r *http.Request, key string) (*int, error) {
	raw := r.FormValue(key)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.InvalidField(key, "must be an integer")
	}
	return &value, nil
}
