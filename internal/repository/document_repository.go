package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"transparencia/internal/domain"
	"transparencia/internal/slug"
)

const documentColumns = `id, slug, category_macro, subcategory, category_macro_procurement,
        subcategory_procurement, title, short_description, issuing_body, document_number,
        counterparty_or_partner, global_value, validity_months, validity_start, validity_end,
        period, year, document_date, situation, visibility_areas, status, display_order,
        current_version_id, published_at, revision, created_by, created_at, updated_at`

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create сохраняет документ; slug дополняется числовым суффиксом при совпадении,
// порядок отображения назначается как max+1 внутри категории, если autoOrder
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document, autoOrder bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if autoOrder {
		err = tx.GetContext(ctx, &doc.DisplayOrder,
			`SELECT COALESCE(MAX(display_order), 0) + 1 FROM documents WHERE category_macro = $1`,
			doc.CategoryMacro)
		if err != nil {
			return fmt.Errorf("failed to compute display order: %w", err)
		}
	}

	var taken []string
	err = tx.SelectContext(ctx, &taken,
		`SELECT slug FROM documents WHERE slug = $1 OR slug LIKE $2`,
		doc.Slug, doc.Slug+"-%")
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	doc.Slug = slug.Disambiguate(doc.Slug, taken)

	query := `
        INSERT INTO documents (
            id, slug, category_macro, subcategory, category_macro_procurement,
            subcategory_procurement, title, short_description, issuing_body, document_number,
            counterparty_or_partner, global_value, validity_months, validity_start, validity_end,
            period, year, document_date, situation, visibility_areas, status, display_order,
            created_by
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
        RETURNING revision, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		doc.ID,
		doc.Slug,
		doc.CategoryMacro,
		doc.Subcategory,
		doc.CategoryMacroProcurement,
		doc.SubcategoryProcurement,
		doc.Title,
		doc.ShortDescription,
		doc.IssuingBody,
		doc.DocumentNumber,
		doc.CounterpartyOrPartner,
		doc.GlobalValue,
		doc.ValidityMonths,
		doc.ValidityStart,
		doc.ValidityEnd,
		doc.Period,
		doc.Year,
		doc.DocumentDate,
		doc.Situation,
		doc.VisibilityAreas,
		doc.Status,
		doc.DisplayOrder,
		doc.CreatedBy,
	).Scan(&doc.Revision, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return translateDocumentError(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.DocumentNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetBySlug(ctx context.Context, s string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc, `SELECT `+documentColumns+` FROM documents WHERE slug = $1`, s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.DocumentNotFound(s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document by slug: %w", err)
	}
	return &doc, nil
}

// FindDuplicate ищет документ с той же классификацией, годом и номером; nil если нет
func (r *DocumentRepository) FindDuplicate(
	ctx context.Context,
	category, subcategory string,
	year int,
	number string,
	excludeID uuid.UUID,
) (*domain.Document, error) {
	var doc domain.Document
	query := `
        SELECT ` + documentColumns + `
        FROM documents
        WHERE category_macro = $1
        AND subcategory = $2
        AND year = $3
        AND document_number = $4
        AND id <> $5
        LIMIT 1`

	err := r.db.GetContext(ctx, &doc, query, category, subcategory, year, number, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error checking duplicate document: %w", err)
	}
	return &doc, nil
}

// Update записывает изменяемые поля; ревизия защищает от перезаписи чужих изменений
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	query := `
        UPDATE documents
        SET category_macro = $1,
            subcategory = $2,
            category_macro_procurement = $3,
            subcategory_procurement = $4,
            title = $5,
            short_description = $6,
            issuing_body = $7,
            document_number = $8,
            counterparty_or_partner = $9,
            global_value = $10,
            validity_months = $11,
            validity_start = $12,
            validity_end = $13,
            period = $14,
            year = $15,
            document_date = $16,
            situation = $17,
            visibility_areas = $18,
            status = $19,
            display_order = $20,
            published_at = $21,
            revision = revision + 1,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $22 AND revision = $23
        RETURNING revision, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		doc.CategoryMacro,
		doc.Subcategory,
		doc.CategoryMacroProcurement,
		doc.SubcategoryProcurement,
		doc.Title,
		doc.ShortDescription,
		doc.IssuingBody,
		doc.DocumentNumber,
		doc.CounterpartyOrPartner,
		doc.GlobalValue,
		doc.ValidityMonths,
		doc.ValidityStart,
		doc.ValidityEnd,
		doc.Period,
		doc.Year,
		doc.DocumentDate,
		doc.Situation,
		doc.VisibilityAreas,
		doc.Status,
		doc.DisplayOrder,
		doc.PublishedAt,
		doc.ID,
		doc.Revision,
	).Scan(&doc.Revision, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ConcurrentModification("document")
	}
	if err != nil {
		return translateDocumentError(err)
	}
	return nil
}

// Delete удаляет документ, который ни разу не публиковался, вместе с версиями.
// Возвращает пути файлов версий для очистки хранилища
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var publishedAt sql.NullTime
	err = tx.GetContext(ctx, &publishedAt, `SELECT published_at FROM documents WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.DocumentNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock document: %w", err)
	}
	if publishedAt.Valid {
		return nil, domain.DeletionForbidden("a document that has been published can only be archived")
	}

	var fileRefs []string
	if err := tx.SelectContext(ctx, &fileRefs, `SELECT file_ref FROM document_versions WHERE document_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get version files: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return fileRefs, nil
}

func translateDocumentError(err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintDocumentSlug, constraintDocumentNumber:
			return domain.ConcurrentModification("document")
		}
	}
	if isContention(err) {
		return domain.ConcurrentModification("document")
	}
	return fmt.Errorf("failed to write document: %w", err)
}
