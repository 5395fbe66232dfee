package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

// VersionService - журнал версий документа
type VersionService interface {
	CreateVersion(ctx context.Context, caller domain.Caller, documentID uuid.UUID, input domain.VersionInput) (*domain.DocumentVersion, error)
	UploadVersion(ctx context.Context, caller domain.Caller, documentID uuid.UUID, upload domain.VersionUpload, data []byte) (*domain.DocumentVersion, error)
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error)
	CurrentVersion(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, error)
	OpenCurrentFile(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, io.ReadCloser, error)
	ListCurrentVersions(ctx context.Context) ([]domain.DocumentVersion, error)
}

type VersionHandler struct {
	responder
	versions      VersionService
	maxUploadSize int64
}

func NewVersionHandler(versions VersionService, maxUploadSize int64, m *metrics.Metrics, logger *zap.Logger) *VersionHandler {
	return &VersionHandler{
		responder:     responder{logger: logger.With(zap.String("handler", "versions")), metrics: m},
		versions:      versions,
		maxUploadSize: maxUploadSize,
	}
}

// PromoteVersion регистрирует версию, файл которой уже лежит в хранилище
func (h *VersionHandler) PromoteVersion(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	documentID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var input domain.VersionInput
	if !h.decode(w, r, &input) {
		return
	}

	version, err := h.versions.CreateVersion(r.Context(), caller, documentID, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

// UploadVersion принимает multipart: file + identification_number, approval_date, change_description
func (h *VersionHandler) UploadVersion(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	documentID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	header, data, ok := h.readUpload(w, r, h.maxUploadSize)
	if !ok {
		return
	}

	upload := domain.VersionUpload{
		IdentificationNumber: r.FormValue("identification_number"),
		ApprovalDate:         r.FormValue("approval_date"),
		ChangeDescription:    optionalForm(r, "change_description"),
		FileName:             header.Filename,
	}

	version, err := h.versions.UploadVersion(r.Context(), caller, documentID, upload, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.versions.ListVersions(r.Context(), documentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if versions == nil {
		versions = []domain.DocumentVersion{}
	}
	writeJSON(w, http.StatusOK, versions)
}

// CurrentVersion отвечает 204, если у документа еще нет версий
func (h *VersionHandler) CurrentVersion(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	version, err := h.versions.CurrentVersion(r.Context(), documentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if version == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// DownloadCurrent отдает файл действующей версии
func (h *VersionHandler) DownloadCurrent(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	version, body, err := h.versions.OpenCurrentFile(r.Context(), documentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if version == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	defer body.Close()

	name := path.Base(version.FileRef)
	if version.MimeType != nil {
		w.Header().Set("Content-Type", *version.MimeType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Length", fmt.Sprint(version.FileSize))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, name, url.PathEscape(name)))
	w.Header().Set("ETag", `"`+version.FileHash+`"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("failed to stream version file",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
	}
}

// ListCurrentVersions - действующие версии всех документов
func (h *VersionHandler) ListCurrentVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.versions.ListCurrentVersions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if versions == nil {
		versions = []domain.DocumentVersion{}
	}
	writeJSON(w, http.StatusOK, versions)
}
