package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

// VersionService ведет журнал версий документов
type VersionService struct {
	docs        DocumentStore
	versions    VersionLedger
	storage     FileStorage
	permissions *PermissionService
	validate    *validator.Validate
	clock       Clock
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewVersionService(
	docs DocumentStore,
	versions VersionLedger,
	storage FileStorage,
	permissions *PermissionService,
	clock Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *VersionService {
	return &VersionService{
		docs:        docs,
		versions:    versions,
		storage:     storage,
		permissions: permissions,
		validate:    newValidator(),
		clock:       clock,
		metrics:     m,
		logger:      logger.With(zap.String("service", "versions")),
	}
}

// CreateVersion делает новую версию действующей; файл уже лежит в хранилище
func (s *VersionService) CreateVersion(
	ctx context.Context,
	caller domain.Caller,
	documentID uuid.UUID,
	input domain.VersionInput,
) (*domain.DocumentVersion, error) {
	if err := s.permissions.Check(caller, OperationPromoteVersion); err != nil {
		return nil, err
	}

	input.IdentificationNumber = strings.TrimSpace(input.IdentificationNumber)
	input.FileRef = strings.TrimSpace(input.FileRef)
	input.FileHash = strings.ToLower(strings.TrimSpace(input.FileHash))
	if err := s.validate.Struct(input); err != nil {
		return nil, translateValidation(err)
	}
	approval, err := parseDate("approval_date", &input.ApprovalDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	exists, err := s.versions.HashExists(ctx, documentID, input.FileHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.DuplicateUpload(documentID.String(), input.FileHash)
	}

	version := &domain.DocumentVersion{
		ID:                   uuid.New(),
		DocumentID:           documentID,
		IdentificationNumber: input.IdentificationNumber,
		ApprovalDate:         *approval,
		ChangeDescription:    trimPtr(input.ChangeDescription),
		FileRef:              input.FileRef,
		FileSize:             input.FileSize,
		FileHash:             input.FileHash,
		MimeType:             trimPtr(input.MimeType),
		CreatedBy:            caller.ID,
	}
	if err := s.versions.Promote(ctx, version); err != nil {
		return nil, err
	}

	s.metrics.IncVersionPromoted()
	s.logger.Info("document version promoted",
		zap.String("document_id", documentID.String()),
		zap.String("version_id", version.ID.String()),
		zap.Int("version_number", version.VersionNumber),
		zap.String("caller", caller.ID),
	)
	return version, nil
}

// UploadVersion сохраняет файл во внешнем хранилище и делает его новой действующей версией.
// При отказе сохраненный объект удаляется.
func (s *VersionService) UploadVersion(
	ctx context.Context,
	caller domain.Caller,
	documentID uuid.UUID,
	upload domain.VersionUpload,
	data []byte,
) (*domain.DocumentVersion, error) {
	if err := s.permissions.Check(caller, OperationPromoteVersion); err != nil {
		return nil, err
	}
	upload.IdentificationNumber = strings.TrimSpace(upload.IdentificationNumber)
	if err := s.validate.Struct(upload); err != nil {
		return nil, translateValidation(err)
	}
	if _, err := parseDate("approval_date", &upload.ApprovalDate); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.MissingRequiredField("file")
	}
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	stored, err := s.storage.Store(ctx, objectKey(documentsKeyPrefix, documentID, upload.FileName, s.clock.Now()), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store version file: %w", err)
	}

	mimeType := stored.MimeType
	version, err := s.CreateVersion(ctx, caller, documentID, domain.VersionInput{
		IdentificationNumber: upload.IdentificationNumber,
		ApprovalDate:         upload.ApprovalDate,
		ChangeDescription:    upload.ChangeDescription,
		FileRef:              stored.Path,
		FileSize:             stored.Size,
		FileHash:             stored.Hash,
		MimeType:             &mimeType,
	})
	if err != nil {
		removeObjects(ctx, s.storage, s.logger, []string{stored.Path})
		return nil, err
	}
	return version, nil
}

// ListVersions возвращает версии документа от новой к старой
func (s *VersionService) ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versions.ListByDocument(ctx, documentID)
}

// CurrentVersion возвращает действующую версию; nil если версий еще нет
func (s *VersionService) CurrentVersion(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, error) {
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versions.GetCurrent(ctx, documentID)
}

// OpenCurrentFile открывает файл действующей версии; nil если версий еще нет
func (s *VersionService) OpenCurrentFile(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, io.ReadCloser, error) {
	current, err := s.CurrentVersion(ctx, documentID)
	if err != nil || current == nil {
		return nil, nil, err
	}
	body, err := s.storage.Open(ctx, current.FileRef)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open version file: %w", err)
	}
	return current, body, nil
}

// ListCurrentVersions - по одной действующей версии на документ
func (s *VersionService) ListCurrentVersions(ctx context.Context) ([]domain.DocumentVersion, error) {
	return s.versions.ListCurrent(ctx)
}

// objectKey строит уникальный ключ объекта: prefix/owner/<unix>-<uuid>.<ext>
func objectKey(prefix string, owner uuid.UUID, fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	return fmt.Sprintf("%s/%s/%d-%s%s", prefix, owner, now.UTC().Unix(), uuid.New(), ext)
}
