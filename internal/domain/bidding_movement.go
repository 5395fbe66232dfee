package domain

import (
	"time"

	"github.com/google/uuid"
)

// BiddingMovement - запись журнала хода закупки, только добавление
type BiddingMovement struct {
	ID          uuid.UUID `json:"id" db:"id"`
	BiddingID   uuid.UUID `json:"bidding_id" db:"bidding_id"`
	Phase       Phase     `json:"phase" db:"phase"`
	Description string    `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// MovementInput - ручная запись журнала, добавляемая сотрудником
type MovementInput struct {
	Phase       Phase   `json:"phase" validate:"required"`
	Description string  `json:"description" validate:"required,max=2000"`
	Date        *string `json:"date,omitempty"`
}

// NewMovement создает запись журнала для закупки
func NewMovement(biddingID uuid.UUID, phase Phase, description, createdBy string, at time.Time) *BiddingMovement {
	return &BiddingMovement{
		ID:          uuid.New(),
		BiddingID:   biddingID,
		Phase:       phase,
		Description: description,
		Date:        at,
		CreatedBy:   createdBy,
	}
}

// NewStatusMovement - запись о смене статуса, фаза берется из карты статус->фаза
func NewStatusMovement(biddingID uuid.UUID, from, to BiddingStatus, createdBy string, at time.Time) *BiddingMovement {
	return NewMovement(biddingID, PhaseForStatus(to), StatusChangeDescription(from, to), createdBy, at)
}
