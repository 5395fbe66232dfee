package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/auth"
	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

const kindUnauthenticated = "Unauthenticated"

// errorResponse - тело ответа при ошибке: {"kind","message","details"}
type errorResponse struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// responder переводит результаты сервисов в HTTP-ответы и логирует отказы
type responder struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor возвращает HTTP-код для вида доменной ошибки
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindDocumentNotFound, domain.KindBiddingNotFound, domain.KindBiddingDocumentNotFound:
		return http.StatusNotFound
	case domain.KindDuplicateDocument, domain.KindDuplicateUpload, domain.KindDuplicateBidding,
		domain.KindConcurrentModification, domain.KindDeletionForbidden,
		domain.KindStructuralChangeForbidden, domain.KindInvalidStatusTransition:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func (h *responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Kind:    "Internal",
			Message: "internal server error",
		})
		return
	}

	status := statusFor(derr.Kind)
	h.metrics.IncRejection(string(derr.Kind))
	h.logger.Info("request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("kind", string(derr.Kind)),
		zap.Int("status", status),
		zap.String("message", derr.Message))
	writeJSON(w, status, errorResponse{Kind: string(derr.Kind), Message: derr.Message, Details: derr.Details})
}

// badRequest - тело запроса не удалось разобрать
func (h *responder) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "BadRequest", Message: message})
}

// caller возвращает вызывающего; без идентичности отвечает 401
func (h *responder) caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Kind:    kindUnauthenticated,
			Message: "authentication required",
		})
		return domain.Caller{}, false
	}
	return caller, true
}

func (h *responder) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.badRequest(w, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func (h *responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.badRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// readUpload разбирает multipart-запрос и читает поле file целиком
func (h *responder) readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipart.FileHeader, []byte, bool) {
	tooLarge := func() {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Kind:    "PayloadTooLarge",
			Message: fmt.Sprintf("request exceeds %d bytes", maxBytes),
		})
	}
	if r.ContentLength > maxBytes {
		tooLarge()
		return nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge()
			return nil, nil, false
		}
		h.badRequest(w, "failed to parse form")
		return nil, nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, domain.MissingRequiredField("file"))
		return nil, nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, fmt.Errorf("failed to read uploaded file: %w", err))
		return nil, nil, false
	}
	return header, data, true
}

// optionalForm возвращает nil для пустого поля формы
func optionalForm(r *http.Request, key string) *string {
	value := r.FormValue(key)
	if value == "" {
		return nil
	}
	return &value
}
