package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"transparencia/internal/domain"
	"transparencia/internal/metrics"
	"transparencia/internal/rules"
	"transparencia/internal/slug"
)

const (
	minDocumentYear    = 1900
	maxYearsAhead      = 10
	maxTitleLength     = 255
	documentsKeyPrefix = "documents"
)

// DocumentService ведет реестр институциональных документов
type DocumentService struct {
	docs        DocumentStore
	storage     FileStorage
	permissions *PermissionService
	clock       Clock
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewDocumentService(
	docs DocumentStore,
	storage FileStorage,
	permissions *PermissionService,
	clock Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docs:        docs,
		storage:     storage,
		permissions: permissions,
		clock:       clock,
		metrics:     m,
		logger:      logger.With(zap.String("service", "documents")),
	}
}

// CreateDocument проверяет классификацию и поля и сохраняет документ в статусе DRAFT
func (s *DocumentService) CreateDocument(ctx context.Context, caller domain.Caller, input domain.DocumentInput) (*domain.Document, error) {
	if err := s.permissions.Check(caller, OperationCreateDocument); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:                       uuid.New(),
		CategoryMacro:            strings.TrimSpace(input.CategoryMacro),
		Subcategory:              strings.TrimSpace(input.Subcategory),
		CategoryMacroProcurement: trimPtr(input.CategoryMacroProcurement),
		SubcategoryProcurement:   trimPtr(input.SubcategoryProcurement),
		Title:                    strings.TrimSpace(input.Title),
		ShortDescription:         trimPtr(input.ShortDescription),
		IssuingBody:              trimPtr(input.IssuingBody),
		DocumentNumber:           trimPtr(input.DocumentNumber),
		CounterpartyOrPartner:    trimPtr(input.CounterpartyOrPartner),
		ValidityMonths:           input.ValidityMonths,
		Period:                   trimPtr(input.Period),
		Year:                     input.Year,
		Situation:                trimPtr(input.Situation),
		VisibilityAreas:          areasToArray(input.VisibilityAreas),
		Status:                   domain.DocumentStatusDraft,
		CreatedBy:                caller.ID,
	}
	if input.DisplayOrder != nil {
		doc.DisplayOrder = *input.DisplayOrder
	}
	if err := setMoney(&doc.GlobalValue, string(rules.FieldGlobalValue), input.GlobalValue); err != nil {
		return nil, err
	}
	if err := setDates(doc, input.ValidityStart, input.ValidityEnd, input.DocumentDate); err != nil {
		return nil, err
	}

	rs, err := s.validateDocument(doc)
	if err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, doc); err != nil {
		return nil, err
	}

	doc.Slug = slug.Make(doc.Title)
	if err := s.docs.Create(ctx, doc, input.DisplayOrder == nil); err != nil {
		return nil, s.explainConflict(ctx, doc, err)
	}

	s.metrics.IncDocumentCreated(doc.CategoryMacro)
	s.logger.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("category", doc.CategoryMacro),
		zap.String("subcategory", doc.Subcategory),
		zap.Bool("versionable", rs.Versionable),
		zap.String("caller", caller.ID),
	)
	return doc, nil
}

// UpdateDocument применяет частичное обновление и заново проверяет итоговые значения
func (s *DocumentService) UpdateDocument(
	ctx context.Context,
	caller domain.Caller,
	id uuid.UUID,
	patch domain.DocumentPatch,
) (*domain.Document, error) {
	if err := s.permissions.Check(caller, OperationUpdateDocument); err != nil {
		return nil, err
	}

	current, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.permissions.CheckDocumentEdit(caller, current); err != nil {
		return nil, err
	}

	statusChange := patch.Status != nil && *patch.Status != current.Status
	if statusChange {
		if err := s.permissions.Check(caller, OperationChangeDocumentStatus); err != nil {
			return nil, err
		}
		if !patch.Status.Valid() {
			return nil, domain.InvalidField("status", "unknown status "+string(*patch.Status))
		}
		if !domain.CanTransitionDocument(current.Status, *patch.Status) {
			return nil, domain.InvalidStatusTransition(string(current.Status), string(*patch.Status))
		}
	}

	if current.StructurallyLocked() {
		if patch.CategoryMacro != nil && strings.TrimSpace(*patch.CategoryMacro) != current.CategoryMacro {
			return nil, domain.StructuralChangeForbidden("category_macro")
		}
		if patch.Subcategory != nil && strings.TrimSpace(*patch.Subcategory) != current.Subcategory {
			return nil, domain.StructuralChangeForbidden("subcategory")
		}
	}

	updated := *current
	if err := mergeDocumentPatch(&updated, patch); err != nil {
		return nil, err
	}
	if _, err := s.validateDocument(&updated); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, &updated); err != nil {
		return nil, err
	}

	if statusChange {
		updated.Status = *patch.Status
		if updated.Status == domain.DocumentStatusPublished && updated.PublishedAt == nil {
			now := s.clock.Now()
			updated.PublishedAt = &now
		}
	}

	if err := s.docs.Update(ctx, &updated); err != nil {
		return nil, s.explainConflict(ctx, &updated, err)
	}

	fields := []zap.Field{
		zap.String("document_id", updated.ID.String()),
		zap.Int("revision", updated.Revision),
		zap.String("caller", caller.ID),
	}
	if statusChange {
		fields = append(fields, zap.String("from", string(current.Status)), zap.String("to", string(updated.Status)))
	}
	s.logger.Info("document updated", fields...)
	return &updated, nil
}

// GetDocument возвращает документ по идентификатору
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	return s.docs.GetByID(ctx, id)
}

// GetDocumentBySlug возвращает документ по публичному адресу
func (s *DocumentService) GetDocumentBySlug(ctx context.Context, value string) (*domain.Document, error) {
	return s.docs.GetBySlug(ctx, strings.TrimSpace(value))
}

// DeleteDocument удаляет документ, который ни разу не публиковался, вместе с файлами версий
func (s *DocumentService) DeleteDocument(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := s.permissions.Check(caller, OperationDeleteDocument); err != nil {
		return err
	}

	refs, err := s.docs.Delete(ctx, id)
	if err != nil {
		return err
	}
	removeObjects(ctx, s.storage, s.logger, refs)

	s.logger.Info("document deleted",
		zap.String("document_id", id.String()),
		zap.Int("files", len(refs)),
		zap.String("caller", caller.ID),
	)
	return nil
}

// validateDocument нормализует классификацию и проверяет правила категории.
// Подкатегория по умолчанию подставляется в doc.
func (s *DocumentService) validateDocument(doc *domain.Document) (rules.RuleSet, error) {
	if doc.Title == "" {
		return rules.RuleSet{}, domain.MissingRequiredField(string(rules.FieldTitle))
	}
	if len([]rune(doc.Title)) > maxTitleLength {
		return rules.RuleSet{}, domain.InvalidField(string(rules.FieldTitle),
			fmt.Sprintf("must be at most %d characters long", maxTitleLength))
	}

	if err := checkLengths(doc); err != nil {
		return rules.RuleSet{}, err
	}

	sub, rs, err := rules.Resolve(doc.CategoryMacro, doc.Subcategory)
	if err != nil {
		return rules.RuleSet{}, err
	}
	doc.Subcategory = sub

	if err := checkAreas(doc.VisibilityAreas); err != nil {
		return rules.RuleSet{}, err
	}
	if err := resolveProcurement(doc); err != nil {
		return rules.RuleSet{}, err
	}

	if err := rules.CheckRequired(rs, documentFieldPresent(doc)); err != nil {
		return rules.RuleSet{}, err
	}
	if err := rules.CheckSituation(rs, doc.Situation); err != nil {
		return rules.RuleSet{}, err
	}

	maxYear := s.clock.Now().Year() + maxYearsAhead
	if doc.Year == 0 {
		return rules.RuleSet{}, domain.MissingRequiredField(string(rules.FieldYear))
	}
	if doc.Year < minDocumentYear || doc.Year > maxYear {
		return rules.RuleSet{}, domain.InvalidField(string(rules.FieldYear),
			fmt.Sprintf("must be between %d and %d", minDocumentYear, maxYear))
	}

	if doc.ValidityMonths != nil && *doc.ValidityMonths < 0 {
		return rules.RuleSet{}, domain.InvalidField(string(rules.FieldValidityMonths), "must not be negative")
	}
	if doc.ValidityStart != nil && doc.ValidityEnd != nil && doc.ValidityEnd.Before(*doc.ValidityStart) {
		return rules.RuleSet{}, domain.InvalidField(string(rules.FieldValidityEnd), "must not be before validity_start")
	}
	if doc.DisplayOrder < 0 {
		return rules.RuleSet{}, domain.InvalidField("display_order", "must not be negative")
	}
	return rs, nil
}

// checkLengths сверяет текстовые поля с размерами колонок
func checkLengths(doc *domain.Document) error {
	limits := []struct {
		field rules.Field
		value *string
		max   int
	}{
		{rules.FieldIssuingBody, doc.IssuingBody, 255},
		{rules.FieldDocumentNumber, doc.DocumentNumber, 64},
		{rules.FieldCounterpartyOrPartner, doc.CounterpartyOrPartner, 255},
		{rules.FieldPeriod, doc.Period, 64},
		{rules.FieldSituation, doc.Situation, 32},
	}
	for _, l := range limits {
		if l.value != nil && len([]rune(*l.value)) > l.max {
			return domain.InvalidField(string(l.field), fmt.Sprintf("must be at most %d characters long", l.max))
		}
	}
	return nil
}

// checkDuplicate: номер документа уникален в пределах категории, подкатегории и года
func (s *DocumentService) checkDuplicate(ctx context.Context, doc *domain.Document) error {
	if doc.DocumentNumber == nil {
		return nil
	}
	existing, err := s.docs.FindDuplicate(ctx, doc.CategoryMacro, doc.Subcategory, doc.Year, *doc.DocumentNumber, doc.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	_, rs, err := rules.Resolve(existing.CategoryMacro, existing.Subcategory)
	if err != nil {
		return err
	}
	return domain.DuplicateDocument(existing.ID.String(), rs.Versionable)
}

// explainConflict: если запись проиграла гонку за номер документа, вызывающий
// получает DuplicateDocument с найденным документом, а не ConcurrentModification
func (s *DocumentService) explainConflict(ctx context.Context, doc *domain.Document, err error) error {
	if !errors.Is(err, domain.ErrConcurrentModification) {
		return err
	}
	if dup := s.checkDuplicate(ctx, doc); errors.Is(dup, domain.ErrDuplicateDocument) {
		return dup
	}
	return err
}

func mergeDocumentPatch(doc *domain.Document, patch domain.DocumentPatch) error {
	if patch.CategoryMacro != nil {
		category := strings.TrimSpace(*patch.CategoryMacro)
		if category != doc.CategoryMacro && patch.Subcategory == nil {
			// подкатегория прежней категории в новой не действует
			doc.Subcategory = ""
		}
		doc.CategoryMacro = category
	}
	if patch.Subcategory != nil {
		doc.Subcategory = strings.TrimSpace(*patch.Subcategory)
	}
	if patch.CategoryMacroProcurement != nil {
		doc.CategoryMacroProcurement = trimPtr(patch.CategoryMacroProcurement)
	}
	if patch.SubcategoryProcurement != nil {
		doc.SubcategoryProcurement = trimPtr(patch.SubcategoryProcurement)
	}
	if patch.Title != nil {
		doc.Title = strings.TrimSpace(*patch.Title)
	}
	mergeText(&doc.ShortDescription, patch.ShortDescription)
	mergeText(&doc.IssuingBody, patch.IssuingBody)
	mergeText(&doc.DocumentNumber, patch.DocumentNumber)
	mergeText(&doc.CounterpartyOrPartner, patch.CounterpartyOrPartner)
	mergeText(&doc.Period, patch.Period)
	mergeText(&doc.Situation, patch.Situation)
	if patch.ValidityMonths != nil {
		doc.ValidityMonths = patch.ValidityMonths
	}
	if patch.Year != nil {
		doc.Year = *patch.Year
	}
	if patch.VisibilityAreas != nil {
		doc.VisibilityAreas = areasToArray(patch.VisibilityAreas)
	}
	if patch.DisplayOrder != nil {
		doc.DisplayOrder = *patch.DisplayOrder
	}
	if err := setMoney(&doc.GlobalValue, string(rules.FieldGlobalValue), patch.GlobalValue); err != nil {
		return err
	}
	return setDates(doc, patch.ValidityStart, patch.ValidityEnd, patch.DocumentDate)
}

// mergeText: пустая строка в патче очищает поле
func mergeText(dst **string, value *string) {
	if value != nil {
		*dst = trimPtr(value)
	}
}

func setMoney(dst *decimal.NullDecimal, field string, value *decimal.Decimal) error {
	if value == nil {
		return nil
	}
	if err := checkMoney(field, value); err != nil {
		return err
	}
	*dst = decimal.NewNullDecimal(*value)
	return nil
}

func setDates(doc *domain.Document, validityStart, validityEnd, documentDate *string) error {
	targets := []struct {
		field string
		value *string
		dst   **time.Time
	}{
		{string(rules.FieldValidityStart), validityStart, &doc.ValidityStart},
		{string(rules.FieldValidityEnd), validityEnd, &doc.ValidityEnd},
		{string(rules.FieldDocumentDate), documentDate, &doc.DocumentDate},
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
	return nil
}

func areasToArray(areas []domain.VisibilityArea) pq.StringArray {
	out := make(pq.StringArray, 0, len(areas))
	seen := make(map[domain.VisibilityArea]bool, len(areas))
	for _, a := range areas {
		a = domain.VisibilityArea(strings.ToUpper(strings.TrimSpace(string(a))))
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, string(a))
	}
	return out
}

func checkAreas(areas pq.StringArray) error {
	if len(areas) == 0 {
		return domain.MissingRequiredField("visibility_areas")
	}
	for _, a := range areas {
		if !domain.VisibilityArea(a).Valid() {
			return domain.InvalidField("visibility_areas", "unknown area "+a)
		}
	}
	return nil
}

// resolveProcurement проверяет вторичную классификацию; без раздела PROCUREMENT она сбрасывается
func resolveProcurement(doc *domain.Document) error {
	if !doc.HasArea(domain.AreaProcurement) {
		doc.CategoryMacroProcurement = nil
		doc.SubcategoryProcurement = nil
		return nil
	}
	if doc.CategoryMacroProcurement == nil {
		if doc.SubcategoryProcurement != nil {
			return domain.MissingRequiredField("category_macro_procurement")
		}
		return nil
	}
	sub := ""
	if doc.SubcategoryProcurement != nil {
		sub = *doc.SubcategoryProcurement
	}
	resolved, err := rules.ResolveProcurement(*doc.CategoryMacroProcurement, sub)
	if err != nil {
		return err
	}
	doc.SubcategoryProcurement = &resolved
	return nil
}

func documentFieldPresent(doc *domain.Document) func(rules.Field) bool {
	return func(f rules.Field) bool {
		switch f {
		case rules.FieldTitle:
			return doc.Title != ""
		case rules.FieldShortDescription:
			return present(doc.ShortDescription)
		case rules.FieldIssuingBody:
			return present(doc.IssuingBody)
		case rules.FieldDocumentNumber:
			return present(doc.DocumentNumber)
		case rules.FieldCounterpartyOrPartner:
			return present(doc.CounterpartyOrPartner)
		case rules.FieldGlobalValue:
			return doc.GlobalValue.Valid
		case rules.FieldValidityMonths:
			return doc.ValidityMonths != nil
		case rules.FieldValidityStart:
			return doc.ValidityStart != nil
		case rules.FieldValidityEnd:
			return doc.ValidityEnd != nil
		case rules.FieldPeriod:
			return present(doc.Period)
		case rules.FieldYear:
			return doc.Year != 0
		case rules.FieldDocumentDate:
			return doc.DocumentDate != nil
		case rules.FieldSituation:
			return present(doc.Situation)
		}
		return false
	}
}

// removeObjects удаляет файлы после удаления записей; ошибки не отменяют операцию
func removeObjects(ctx context.Context, storage FileStorage, logger *zap.Logger, refs []string) {
	if storage == nil {
		return
	}
	for _, ref := range refs {
		if err := storage.Delete(ctx, ref); err != nil {
			logger.Warn("failed to delete stored object", zap.String("path", ref), zap.Error(err))
		}
	}
}
