package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

// BiddingService - операции над закупками и их журналом
type BiddingService interface {
	CreateBidding(ctx context.Context, caller domain.Caller, input domain.BiddingInput) (*domain.Bidding, error)
	UpdateBidding(ctx context.Context, caller domain.Caller, id uuid.UUID, patch domain.BiddingPatch) (*domain.Bidding, error)
	UpdateStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, status domain.BiddingStatus, payload domain.StatusPayload) (*domain.Bidding, error)
	DeleteBidding(ctx context.Context, caller domain.Caller, id uuid.UUID) error
	GetBidding(ctx context.Context, id uuid.UUID) (*domain.Bidding, error)
	ListMovements(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingMovement, error)
	AddMovement(ctx context.Context, caller domain.Caller, biddingID uuid.UUID, input domain.MovementInput) (*domain.BiddingMovement, error)
}

type BiddingHandler struct {
	responder
	biddings BiddingService
}

// statusRequest - новый статус и сопутствующие данные (победитель, итоговая сумма)
type statusRequest struct {
	Status domain.BiddingStatus `json:"status"`
	domain.StatusPayload
}

func NewBiddingHandler(biddings BiddingService, m *metrics.Metrics, logger *zap.Logger) *BiddingHandler {
	return &BiddingHandler{
		responder: responder{logger: logger.With(zap.String("handler", "biddings")), metrics: m},
		biddings:  biddings,
	}
}

func (h *BiddingHandler) CreateBidding(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input domain.BiddingInput
	if !h.decode(w, r, &input) {
		return
	}

	bidding, err := h.biddings.CreateBidding(r.Context(), caller, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bidding)
}

func (h *BiddingHandler) GetBidding(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	bidding, err := h.biddings.GetBidding(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bidding)
}

func (h *BiddingHandler) UpdateBidding(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var patch domain.BiddingPatch
	if !h.decode(w, r, &patch) {
		return
	}

	bidding, err := h.biddings.UpdateBidding(r.Context(), caller, id, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bidding)
}

func (h *BiddingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	bidding, err := h.biddings.UpdateStatus(r.Context(), caller, id, req.Status, req.StatusPayload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bidding)
}

func (h *BiddingHandler) DeleteBidding(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.biddings.DeleteBidding(r.Context(), caller, id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BiddingHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	movements, err := h.biddings.ListMovements(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if movements == nil {
		movements = []domain.BiddingMovement{}
	}
	writeJSON(w, http.StatusOK, movements)
}

func (h *BiddingHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input domain.MovementInput
	if !h.decode(w, r, &input) {
		return
	}

	movement, err := h.biddings.AddMovement(r.Context(), caller, id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, movement)
}
