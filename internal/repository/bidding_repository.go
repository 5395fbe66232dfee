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

const biddingColumns = `id, number, title, object, modality, type, legal_basis, is_srp,
        publication_date, opening_date, closing_date, estimated_value, final_value,
        winner, winner_document, notes, status, created_by, created_at, updated_at`

type BiddingRepository struct {
	db *sqlx.DB
}

func NewBiddingRepository(db *sqlx.DB) *BiddingRepository {
	return &BiddingRepository{db: db}
}

// Create сохраняет закупку вместе с первой записью журнала
func (r *BiddingRepository) Create(ctx context.Context, bidding *domain.Bidding, movement *domain.BiddingMovement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO biddings (
            id, number, title, object, modality, type, legal_basis, is_srp,
            publication_date, opening_date, closing_date, estimated_value, notes, status, created_by
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		bidding.ID,
		bidding.Number,
		bidding.Title,
		bidding.Object,
		bidding.Modality,
		bidding.Type,
		bidding.LegalBasis,
		bidding.IsSRP,
		bidding.PublicationDate,
		bidding.OpeningDate,
		bidding.ClosingDate,
		bidding.EstimatedValue,
		bidding.Notes,
		bidding.Status,
		bidding.CreatedBy,
	).Scan(&bidding.CreatedAt, &bidding.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintBiddingNumber {
			return domain.DuplicateBidding(bidding.Number)
		}
		return fmt.Errorf("failed to create bidding: %w", err)
	}

	if err := insertMovement(ctx, tx, movement); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *BiddingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bidding, error) {
	var bidding domain.Bidding
	err := r.db.GetContext(ctx, &bidding, `SELECT `+biddingColumns+` FROM biddings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.BiddingNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bidding: %w", err)
	}
	return &bidding, nil
}

func (r *BiddingRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM biddings WHERE number = $1)`, number)
	if err != nil {
		return false, fmt.Errorf("failed to check bidding number: %w", err)
	}
	return exists, nil
}

// UpdateFields обновляет описательные поля. Статус здесь не записывается
func (r *BiddingRepository) UpdateFields(ctx context.Context, bidding *domain.Bidding) error {
	query := `
        UPDATE biddings
        SET title = $1,
            object = $2,
            modality = $3,
            type = $4,
            legal_basis = $5,
            is_srp = $6,
            publication_date = $7,
            opening_date = $8,
            closing_date = $9,
            estimated_value = $10,
            notes = $11,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $12
        RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		bidding.Title,
		bidding.Object,
		bidding.Modality,
		bidding.Type,
		bidding.LegalBasis,
		bidding.IsSRP,
		bidding.PublicationDate,
		bidding.OpeningDate,
		bidding.ClosingDate,
		bidding.EstimatedValue,
		bidding.Notes,
		bidding.ID,
	).Scan(&bidding.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BiddingNotFound(bidding.ID.String())
	}
	if err != nil {
		return fmt.Errorf("failed to update bidding: %w", err)
	}
	return nil
}

// ChangeStatus - единственный путь записи статуса. При фактической смене статуса
// в той же транзакции добавляется запись журнала с фазой из карты статус->фаза
func (r *BiddingRepository) ChangeStatus(
	ctx context.Context,
	id uuid.UUID,
	newStatus domain.BiddingStatus,
	payload domain.StatusPayload,
	changedBy string,
	at time.Time,
) (*domain.Bidding, *domain.BiddingMovement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var bidding domain.Bidding
	err = tx.GetContext(ctx, &bidding, `SELECT `+biddingColumns+` FROM biddings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.BiddingNotFound(id.String())
	}
	if err != nil {
		return nil, nil, translateBiddingError(err)
	}

	oldStatus := bidding.Status
	bidding.ApplyStatusPayload(payload)
	bidding.Status = newStatus

	query := `
        UPDATE biddings
        SET status = $1,
            winner = $2,
            winner_document = $3,
            final_value = $4,
            notes = $5,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $6
        RETURNING updated_at`

	err = tx.QueryRowContext(ctx, query,
		bidding.Status,
		bidding.Winner,
		bidding.WinnerDocument,
		bidding.FinalValue,
		bidding.Notes,
		bidding.ID,
	).Scan(&bidding.UpdatedAt)
	if err != nil {
		return nil, nil, translateBiddingError(err)
	}

	var movement *domain.BiddingMovement
	if oldStatus != newStatus {
		movement = domain.NewStatusMovement(bidding.ID, oldStatus, newStatus, changedBy, at)
		if err := insertMovement(ctx, tx, movement); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, translateBiddingError(err)
	}
	return &bidding, movement, nil
}

// Delete удаляет закупку в статусе PLANNING вместе с журналом и вложениями.
// Возвращает пути файлов вложений для очистки хранилища
func (r *BiddingRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status domain.BiddingStatus
	if err := lockBidding(ctx, tx, id, &status); err != nil {
		return nil, err
	}
	if status != domain.BiddingStatusPlanning {
		return nil, domain.DeletionForbidden(
			fmt.Sprintf("bidding in status %s cannot be deleted; revoke or annul it instead", status))
	}

	var fileRefs []string
	if err := tx.SelectContext(ctx, &fileRefs, `SELECT file_ref FROM bidding_documents WHERE bidding_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to get bidding files: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bidding_movements WHERE bidding_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete bidding movements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bidding_documents WHERE bidding_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete bidding documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM biddings WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to delete bidding: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return fileRefs, nil
}

// lockBidding блокирует строку закупки до конца транзакции; status может быть nil
func lockBidding(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status *domain.BiddingStatus) error {
	var current domain.BiddingStatus
	err := tx.GetContext(ctx, &current, `SELECT status FROM biddings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BiddingNotFound(id.String())
	}
	if err != nil {
		return translateBiddingError(err)
	}
	if status != nil {
		*status = current
	}
	return nil
}

func translateBiddingError(err error) error {
	if isContention(err) {
		return domain.ConcurrentModification("bidding")
	}
	return fmt.Errorf("failed to write bidding: %w", err)
}
