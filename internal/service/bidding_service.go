package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
)

const biddingCreatedDescription = "Bidding created"

// BiddingService ведет процедуры закупок и журнал их хода
type BiddingService struct {
	biddings    BiddingStore
	movements   MovementLedger
	storage     FileStorage
	permissions *PermissionService
	validate    *validator.Validate
	clock       Clock
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewBiddingService(
	biddings BiddingStore,
	movements MovementLedger,
	storage FileStorage,
	permissions *PermissionService,
	clock Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BiddingService {
	return &BiddingService{
		biddings:    biddings,
		movements:   movements,
		storage:     storage,
		permissions: permissions,
		validate:    newValidator(),
		clock:       clock,
		metrics:     m,
		logger:      logger.With(zap.String("service", "biddings")),
	}
}

// CreateBidding создает закупку в статусе PLANNING вместе с первой записью журнала
func (s *BiddingService) CreateBidding(ctx context.Context, caller domain.Caller, input domain.BiddingInput) (*domain.Bidding, error) {
	if err := s.permissions.Check(caller, OperationCreateBidding); err != nil {
		return nil, err
	}

	input.Number = strings.TrimSpace(input.Number)
	input.Title = strings.TrimSpace(input.Title)
	input.Object = strings.TrimSpace(input.Object)
	if err := s.validate.Struct(input); err != nil {
		return nil, translateValidation(err)
	}

	b := &domain.Bidding{
		ID:         uuid.New(),
		Number:     input.Number,
		Title:      input.Title,
		Object:     input.Object,
		Modality:   input.Modality,
		Type:       input.Type,
		LegalBasis: trimPtr(input.LegalBasis),
		IsSRP:      input.IsSRP,
		Notes:      trimPtr(input.Notes),
		Status:     domain.BiddingStatusPlanning,
		CreatedBy:  caller.ID,
	}
	if err := setBiddingDates(b, input.PublicationDate, input.OpeningDate, input.ClosingDate); err != nil {
		return nil, err
	}
	if err := setMoney(&b.EstimatedValue, "estimated_value", input.EstimatedValue); err != nil {
		return nil, err
	}

	exists, err := s.biddings.NumberExists(ctx, b.Number)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.DuplicateBidding(b.Number)
	}

	movement := domain.NewMovement(b.ID, domain.PhaseOpening, biddingCreatedDescription, caller.ID, s.clock.Now())
	if err := s.biddings.Create(ctx, b, movement); err != nil {
		return nil, err
	}

	s.logger.Info("bidding created",
		zap.String("bidding_id", b.ID.String()),
		zap.String("number", b.Number),
		zap.String("modality", string(b.Modality)),
		zap.String("caller", caller.ID),
	)
	return b, nil
}

// UpdateBidding меняет описательные поля; статус меняется только через UpdateStatus
func (s *BiddingService) UpdateBidding(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
	patch domain.BiddingPatch,
) (*domain.Bidding, error) {
	if err := s.permissions.Check(caller, OperationUpdateBidding); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return nil, domain.MissingRequiredField("title")
		}
		patch.Title = &t
	}
	if patch.Object != nil {
		o := strings.TrimSpace(*patch.Object)
		patch.Object = &o
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, translateValidation(err)
	}

	b, err := s.biddings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Object != nil {
		b.Object = *patch.Object
	}
	if patch.Modality != nil {
		b.Modality = *patch.Modality
	}
	if patch.Type != nil {
		b.Type = *patch.Type
	}
	if patch.IsSRP != nil {
		b.IsSRP = *patch.IsSRP
	}
	mergeText(&b.LegalBasis, patch.LegalBasis)
	mergeText(&b.Notes, patch.Notes)
	if err := setBiddingDates(b, patch.PublicationDate, patch.OpeningDate, patch.ClosingDate); err != nil {
		return nil, err
	}
	if err := setMoney(&b.EstimatedValue, "estimated_value", patch.EstimatedValue); err != nil {
		return nil, err
	}

	if err := s.biddings.UpdateFields(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("bidding updated", zap.String("bidding_id", b.ID.String()), zap.String("caller", caller.ID))
	return b, nil
}

// UpdateStatus меняет статус закупки; смена статуса всегда сопровождается записью журнала
func (s *BiddingService) UpdateStatus(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
	status domain.BiddingStatus,
	payload domain.StatusPayload,
) (*domain.Bidding, error) {
	if err := s.permissions.Check(caller, OperationChangeBiddingStatus); err != nil {
		return nil, err
	}

	status = domain.BiddingStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, domain.InvalidField("status", "unknown status "+string(status))
	}
	payload.Winner = trimPtr(payload.Winner)
	payload.WinnerDocument = trimPtr(payload.WinnerDocument)
	payload.Notes = trimPtr(payload.Notes)
	if err := s.validate.Struct(payload); err != nil {
		return nil, translateValidation(err)
	}

	if status.RequiresAward() {
		var missing []string
		if payload.Winner == nil {
			missing = append(missing, "winner")
		}
		if payload.FinalValue == nil {
			missing = append(missing, "final_value")
		}
		if len(missing) > 0 {
			return nil, domain.IncompleteAwardData(status, missing)
		}
	}
	if err := checkMoney("final_value", payload.FinalValue); err != nil {
		return nil, err
	}

	b, movement, err := s.biddings.ChangeStatus(ctx, id, status, payload, caller.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if movement != nil {
		s.metrics.IncStatusChange(string(status))
		s.logger.Info("bidding status changed",
			zap.String("bidding_id", id.String()),
			zap.String("status", string(status)),
			zap.String("phase", string(movement.Phase)),
			zap.String("caller", caller.ID),
		)
	}
	return b, nil
}

// DeleteBidding удаляет закупку, которая еще не вышла из планирования
func (s *BiddingService) DeleteBidding(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := s.permissions.Check(caller, OperationDeleteBidding); err != nil {
		return err
	}

	refs, err := s.biddings.Delete(ctx, id)
	if err != nil {
		return err
	}
	removeObjects(ctx, s.storage, s.logger, refs)

	s.logger.Info("bidding deleted", zap.String("bidding_id", id.String()), zap.String("caller", caller.ID))
	return nil
}

func (s *BiddingService) GetBidding(ctx context.Context, id uuid.UUID) (*domain.Bidding, error) {
	return s.biddings.GetByID(ctx, id)
}

// ListMovements возвращает журнал закупки в хронологическом порядке
func (s *BiddingService) ListMovements(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingMovement, error) {
	if _, err := s.biddings.GetByID(ctx, biddingID); err != nil {
		return nil, err
	}
	return s.movements.ListByBidding(ctx, biddingID)
}

// AddMovement добавляет ручную запись в журнал закупки
func (s *BiddingService) AddMovement(
	ctx context.Context,
	caller domain.Caller,
	biddingID uuid.UUID,
	input domain.MovementInput,
) (*domain.BiddingMovement, error) {
	if err := s.permissions.Check(caller, OperationAddMovement); err != nil {
		return nil, err
	}

	input.Description = strings.TrimSpace(input.Description)
	if err := s.validate.Struct(input); err != nil {
		return nil, translateValidation(err)
	}
	if !input.Phase.Valid() {
		return nil, domain.InvalidField("phase", "unknown phase "+string(input.Phase))
	}

	at := s.clock.Now()
	date, err := parseDate("date", input.Date)
	if err != nil {
		return nil, err
	}
	if date != nil {
		at = *date
	}

	movement := domain.NewMovement(biddingID, input.Phase, input.Description, caller.ID, at)
	if err := s.movements.Append(ctx, movement); err != nil {
		return nil, err
	}
	s.logger.Info("bidding movement added",
		zap.String("bidding_id", biddingID.String()),
		zap.String("phase", string(movement.Phase)),
		zap.String("caller", caller.ID),
	)
	return movement, nil
}

func setBiddingDates(b *domain.Bidding, publication, opening, closing *string) error {
	targets := []struct {
		field string
		value *string
		dst   **time.Time
	}{
		{"publication_date", publication, &b.PublicationDate},
		{"opening_date", opening, &b.OpeningDate},
		{"closing_date", closing, &b.ClosingDate},
	}
	for _, t := range targets {
		if t.value == nil {
			continue
		}
		parsed, err := parseDate(t.field, t.value)
		if err != nil {
			return err
		}
		*t.dst = parsed
	}
	if b.OpeningDate != nil && b.ClosingDate != nil && b.ClosingDate.Before(*b.OpeningDate) {
		return domain.InvalidField("closing_date", "must not be before opening_date")
	}
	return nil
}

