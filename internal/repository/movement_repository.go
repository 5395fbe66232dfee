package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"transparencia/internal/domain"
)

const movementColumns = `id, bidding_id, phase, description, date, created_by, created_at`

// MovementRepository - журнал хода закупки; записи только добавляются
type MovementRepository struct {
	db *sqlx.DB
}

func NewMovementRepository(db *sqlx.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// Append добавляет ручную запись в журнал
func (r *MovementRepository) Append(ctx context.Context, movement *domain.BiddingMovement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockBidding(ctx, tx, movement.BiddingID, nil); err != nil {
		return err
	}
	if err := insertMovement(ctx, tx, movement); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateBiddingError(err)
	}
	return nil
}

func (r *MovementRepository) ListByBidding(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingMovement, error) {
	var movements []domain.BiddingMovement
	query := `SELECT ` + movementColumns + ` FROM bidding_movements WHERE bidding_id = $1 ORDER BY date, created_at`
	if err := r.db.SelectContext(ctx, &movements, query, biddingID); err != nil {
		return nil, fmt.Errorf("failed to get bidding movements: %w", err)
	}
	return movements, nil
}

func insertMovement(ctx context.Context, q sqlx.QueryerContext, movement *domain.BiddingMovement) error {
	query := `
        INSERT INTO bidding_movements (id, bidding_id, phase, description, date, created_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`

	err := q.QueryRowxContext(ctx, query,
		movement.ID,
		movement.BiddingID,
		movement.Phase,
		movement.Description,
		movement.Date,
		movement.CreatedBy,
	).Scan(&movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append bidding movement: %w", err)
	}
	return nil
}
