package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
	"transparencia/internal/rules"
)

const biddingsKeyPrefix = "biddings"

// BiddingDocumentService управляет вложениями закупок и их публикацией
type BiddingDocumentService struct {
	biddings    BiddingStore
	attachments BiddingDocumentStore
	storage     FileStorage
	permissions *PermissionService
	validate    *validator.Validate
	clock       Clock
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewBiddingDocumentService(
	biddings BiddingStore,
	attachments BiddingDocumentStore,
	storage FileStorage,
	permissions *PermissionService,
	clock Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BiddingDocumentService {
	return &BiddingDocumentService{
		biddings:    biddings,
		attachments: attachments,
		storage:     storage,
		permissions: permissions,
		validate:    newValidator(),
		clock:       clock,
		metrics:     m,
		logger:      logger.With(zap.String("service", "bidding_documents")),
	}
}

// AddBiddingDocument сохраняет файл и создает вложение-черновик
func (s *BiddingDocumentService) AddBiddingDocument(
	ctx context.Context,
	caller domain.Caller,
	biddingID uuid.UUID,
	input domain.BiddingDocumentInput,
	fileName string,
	data []byte,
) (*domain.BiddingDocument, error) {
	if err := s.permissions.Check(caller, OperationAddBiddingDocument); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.DocumentType = domain.BiddingDocumentType(strings.ToUpper(strings.TrimSpace(string(input.DocumentType))))
	input.Phase = domain.Phase(strings.ToUpper(strings.TrimSpace(string(input.Phase))))
	if err := s.validate.Struct(input); err != nil {
		return nil, translateValidation(err)
	}
	if err := rules.ValidateDocumentType(input.DocumentType, input.Phase); err != nil {
		return nil, err
	}
	if err := rules.ValidateAnnexNumber(input.DocumentType, input.AnnexNumber); err != nil {
		return nil, err
	}
	if input.Order != nil && *input.Order < 0 {
		return nil, domain.InvalidField("order", "must not be negative")
	}
	if len(data) == 0 {
		return nil, domain.MissingRequiredField("file")
	}

	if _, err := s.biddings.GetByID(ctx, biddingID); err != nil {
		return nil, err
	}

	stored, err := s.storage.Store(ctx, objectKey(biddingsKeyPrefix, biddingID, fileName, s.clock.Now()), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store bidding document: %w", err)
	}

	mimeType := stored.MimeType
	doc := &domain.BiddingDocument{
		ID:           uuid.New(),
		BiddingID:    biddingID,
		DocumentType: input.DocumentType,
		AnnexNumber:  input.AnnexNumber,
		Phase:        input.Phase,
		Title:        input.Title,
		DisplayTitle: trimPtr(input.DisplayTitle),
		Status:       domain.BiddingDocumentDraft,
		FileRef:      stored.Path,
		FileSize:     stored.Size,
		FileHash:     stored.Hash,
		MimeType:     &mimeType,
		CreatedBy:    caller.ID,
	}
	if input.Order != nil {
		doc.Order = *input.Order
	}

	if err := s.attachments.Create(ctx, doc, input.Order == nil); err != nil {
		removeObjects(ctx, s.storage, s.logger, []string{stored.Path})
		return nil, err
	}

	s.logger.Info("bidding document added",
		zap.String("bidding_id", biddingID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("type", string(doc.DocumentType)),
		zap.String("caller", caller.ID),
	)
	return doc, nil
}

// PublishBiddingDocument публикует вложение и добавляет запись в журнал закупки
func (s *BiddingDocumentService) PublishBiddingDocument(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
) (*domain.BiddingDocument, error) {
	if err := s.permissions.Check(caller, OperationPublishBiddingDocument); err != nil {
		return nil, err
	}

	doc, movement, err := s.attachments.Publish(ctx, id, caller.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.metrics.IncAttachmentPublished()
	s.logger.Info("bidding document published",
		zap.String("bidding_id", doc.BiddingID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("movement_id", movement.ID.String()),
		zap.String("caller", caller.ID),
	)
	return doc, nil
}

// ListBiddingDocuments возвращает вложения закупки в порядке отображения
func (s *BiddingDocumentService) ListBiddingDocuments(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingDocument, error) {
	if _, err := s.biddings.GetByID(ctx, biddingID); err != nil {
		return nil, err
	}
	return s.attachments.ListByBidding(ctx, biddingID)
}

func (s *BiddingDocumentService) GetBiddingDocument(ctx context.Context, id uuid.UUID) (*domain.BiddingDocument, error) {
	return s.attachments.GetByID(ctx, id)
}
