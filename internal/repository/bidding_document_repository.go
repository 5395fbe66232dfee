package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"transparencia/internal/domain"
)

const biddingDocumentColumns = `id, bidding_id, document_type, annex_number, phase, title, display_title,
        status, display_order, file_ref, file_size, file_hash, mime_type, published_at,
        created_by, created_at, updated_at`

type BiddingDocumentRepository struct {
	db *sqlx.DB
}

func NewBiddingDocumentRepository(db *sqlx.DB) *BiddingDocumentRepository {
	return &BiddingDocumentRepository{db: db}
}

// Create сохраняет вложение; при autoOrder порядок = max+1 внутри закупки
func (r *BiddingDocumentRepository) Create(ctx context.Context, doc *domain.BiddingDocument, autoOrder bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBidding(ctx, tx, doc.BiddingID, nil); err != nil {
		return err
	}

	if autoOrder {
		err = tx.GetContext(ctx, &doc.Order,
			`SELECT COALESCE(MAX(display_order), 0) + 1 FROM bidding_documents WHERE bidding_id = $1`,
			doc.BiddingID)
		if err != nil {
			return fmt.Errorf("failed to compute display order: %w", err)
		}
	}

	query := `
        INSERT INTO bidding_documents (
            id, bidding_id, document_type, annex_number, phase, title, display_title,
            status, display_order, file_ref, file_size, file_hash, mime_type, created_by
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		doc.ID,
		doc.BiddingID,
		doc.DocumentType,
		doc.AnnexNumber,
		doc.Phase,
		doc.Title,
		doc.DisplayTitle,
		doc.Status,
		doc.Order,
		doc.FileRef,
		doc.FileSize,
		doc.FileHash,
		doc.MimeType,
		doc.CreatedBy,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bidding document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *BiddingDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BiddingDocument, error) {
	var doc domain.BiddingDocument
	err := r.db.GetContext(ctx, &doc, `SELECT `+biddingDocumentColumns+` FROM bidding_documents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.BiddingDocumentNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bidding document: %w", err)
	}
	return &doc, nil
}

func (r *BiddingDocumentRepository) ListByBidding(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingDocument, error) {
	var docs []domain.BiddingDocument
	query := `SELECT ` + biddingDocumentColumns + ` FROM bidding_documents WHERE bidding_id = $1 ORDER BY display_order, created_at`
	if err := r.db.SelectContext(ctx, &docs, query, biddingID); err != nil {
		return nil, fmt.Errorf("failed to get bidding documents: %w", err)
	}
	return docs, nil
}

// Publish публикует вложение и добавляет запись журнала закупки в одной транзакции
func (r *BiddingDocumentRepository) Publish(
	ctx context.Context,
	id uuid.UUID,
	publishedBy string,
	at time.Time,
) (*domain.BiddingDocument, *domain.BiddingMovement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var doc domain.BiddingDocument
	err = tx.GetContext(ctx, &doc, `SELECT `+biddingDocumentColumns+` FROM bidding_documents WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.BiddingDocumentNotFound(id.String())
	}
	if err != nil {
		return nil, nil, translateBiddingError(err)
	}
	if doc.Status == domain.BiddingDocumentPublished {
		return nil, nil, domain.InvalidStatusTransition(string(doc.Status), string(domain.BiddingDocumentPublished))
	}

	doc.Status = domain.BiddingDocumentPublished
	doc.PublishedAt = &at

	err = tx.QueryRowContext(ctx, `
        UPDATE bidding_documents
        SET status = $1,
            published_at = $2,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $3
        RETURNING updated_at`,
		doc.Status, doc.PublishedAt, doc.ID,
	).Scan(&doc.UpdatedAt)
	if err != nil {
		return nil, nil, translateBiddingError(err)
	}

	movement := domain.NewMovement(doc.BiddingID, doc.Phase, domain.PublishedDescription(doc.Label()), publishedBy, at)
	if err := insertMovement(ctx, tx, movement); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, translateBiddingError(err)
	}
	return &doc, movement, nil
}
