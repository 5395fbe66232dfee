package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	BiddingStatus   string
	BiddingModality string
	BiddingType     string
	Phase           string
)

const (
	BiddingStatusPlanning     BiddingStatus = "PLANNING"
	BiddingStatusPublished    BiddingStatus = "PUBLISHED"
	BiddingStatusInProgress   BiddingStatus = "IN_PROGRESS"
	BiddingStatusSuspended    BiddingStatus = "SUSPENDED"
	BiddingStatusHomologated  BiddingStatus = "HOMOLOGATED"
	BiddingStatusAwarded      BiddingStatus = "AWARDED"
	BiddingStatusCompleted    BiddingStatus = "COMPLETED"
	BiddingStatusRevoked      BiddingStatus = "REVOKED"
	BiddingStatusAnnulled     BiddingStatus = "ANNULLED"
	BiddingStatusNoBidders    BiddingStatus = "NO_BIDDERS"
	BiddingStatusUnsuccessful BiddingStatus = "UNSUCCESSFUL"
)

const (
	PhaseOpening      Phase = "OPENING"
	PhaseInquiries    Phase = "INQUIRIES"
	PhaseJudgment     Phase = "JUDGMENT"
	PhaseAppeal       Phase = "APPEAL"
	PhaseHomologation Phase = "HOMOLOGATION"
	PhaseContracting  Phase = "CONTRACTING"
	PhaseExecution    Phase = "EXECUTION"
	PhaseClosure      Phase = "CLOSURE"
)

// Модальности закупки
const (
	ModalityTrading             BiddingModality = "TRADING"
	ModalityCompetition         BiddingModality = "COMPETITION"
	ModalityContest             BiddingModality = "CONTEST"
	ModalityAuction             BiddingModality = "AUCTION"
	ModalityCompetitiveDialogue BiddingModality = "COMPETITIVE_DIALOGUE"
	ModalityDirectPurchase      BiddingModality = "DIRECT_PURCHASE"
	ModalityUnenforceability    BiddingModality = "UNENFORCEABILITY"
)

// Критерии оценки предложений
const (
	TypeLowestPrice       BiddingType = "LOWEST_PRICE"
	TypeHighestDiscount   BiddingType = "HIGHEST_DISCOUNT"
	TypeBestTechnique     BiddingType = "BEST_TECHNIQUE"
	TypeTechniqueAndPrice BiddingType = "TECHNIQUE_AND_PRICE"
	TypeHighestBid        BiddingType = "HIGHEST_BID"
	TypeBestContent       BiddingType = "BEST_CONTENT"
)

// BiddingNumberPattern - формат номера закупки NNN/YYYY
const BiddingNumberPattern = `^\d{3}/\d{4}$`

// MinObjectLength - минимальная длина описания предмета закупки
const MinObjectLength = 20

var allBiddingStatuses = []BiddingStatus{
	BiddingStatusPlanning, BiddingStatusPublished, BiddingStatusInProgress, BiddingStatusSuspended,
	BiddingStatusHomologated, BiddingStatusAwarded, BiddingStatusCompleted, BiddingStatusRevoked,
	BiddingStatusAnnulled, BiddingStatusNoBidders, BiddingStatusUnsuccessful,
}

var allPhases = []Phase{
	PhaseOpening, PhaseInquiries, PhaseJudgment, PhaseAppeal,
	PhaseHomologation, PhaseContracting, PhaseExecution, PhaseClosure,
}

var statusPhases = map[BiddingStatus]Phase{
	BiddingStatusHomologated: PhaseHomologation,
	BiddingStatusAwarded:     PhaseContracting,
	BiddingStatusCompleted:   PhaseClosure,
}

// Bidding - процедура закупки
type Bidding struct {
	ID              uuid.UUID           `json:"id" db:"id"`
	Number          string              `json:"number" db:"number"`
	Title           string              `json:"title" db:"title"`
	Object          string              `json:"object" db:"object"`
	Modality        BiddingModality     `json:"modality" db:"modality"`
	Type            BiddingType         `json:"type" db:"type"`
	LegalBasis      *string             `json:"legal_basis,omitempty" db:"legal_basis"`
	IsSRP           bool                `json:"is_srp" db:"is_srp"`
	PublicationDate *time.Time          `json:"publication_date,omitempty" db:"publication_date"`
	OpeningDate     *time.Time          `json:"opening_date,omitempty" db:"opening_date"`
	ClosingDate     *time.Time          `json:"closing_date,omitempty" db:"closing_date"`
	EstimatedValue  decimal.NullDecimal `json:"estimated_value" db:"estimated_value"`
	FinalValue      decimal.NullDecimal `json:"final_value" db:"final_value"`
	Winner          *string             `json:"winner,omitempty" db:"winner"`
	WinnerDocument  *string             `json:"winner_document,omitempty" db:"winner_document"`
	Notes           *string             `json:"notes,omitempty" db:"notes"`
	Status          BiddingStatus       `json:"status" db:"status"`
	CreatedBy       string              `json:"created_by" db:"created_by"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" db:"updated_at"`
}

// BiddingInput - данные для создания закупки
type BiddingInput struct {
	Number          string           `json:"number" validate:"required,bidding_number"`
	Title           string           `json:"title" validate:"required,max=255"`
	Object          string           `json:"object" validate:"required,min=20"`
	Modality        BiddingModality  `json:"modality" validate:"required,bidding_modality"`
	Type            BiddingType      `json:"type" validate:"required,bidding_type"`
	LegalBasis      *string          `json:"legal_basis,omitempty" validate:"omitempty,max=255"`
	IsSRP           bool             `json:"is_srp"`
	PublicationDate *string          `json:"publication_date,omitempty"`
	OpeningDate     *string          `json:"opening_date,omitempty"`
	ClosingDate     *string          `json:"closing_date,omitempty"`
	EstimatedValue  *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// BiddingPatch - частичное обновление описательных полей; статус меняется только через ChangeStatus
type BiddingPatch struct {
	Title           *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Object          *string          `json:"object,omitempty" validate:"omitempty,min=20"`
	Modality        *BiddingModality `json:"modality,omitempty" validate:"omitempty,bidding_modality"`
	Type            *BiddingType     `json:"type,omitempty" validate:"omitempty,bidding_type"`
	LegalBasis      *string          `json:"legal_basis,omitempty" validate:"omitempty,max=255"`
	IsSRP           *bool            `json:"is_srp,omitempty"`
	PublicationDate *string          `json:"publication_date,omitempty"`
	OpeningDate     *string          `json:"opening_date,omitempty"`
	ClosingDate     *string          `json:"closing_date,omitempty"`
	EstimatedValue  *decimal.Decimal `json:"estimated_value,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// StatusPayload - данные, передаваемые вместе со сменой статуса
type StatusPayload struct {
	Winner         *string          `json:"winner,omitempty" validate:"omitempty,max=255"`
	WinnerDocument *string          `json:"winner_document,omitempty" validate:"omitempty,max=32"`
	FinalValue     *decimal.Decimal `json:"final_value,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

func (s BiddingStatus) Valid() bool {
	for _, st := range allBiddingStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// RequiresAward - статусы, для которых обязательны победитель и итоговая сумма
func (s BiddingStatus) RequiresAward() bool {
	return s == BiddingStatusHomologated || s == BiddingStatusAwarded
}

func (p Phase) Valid() bool {
	for _, ph := range allPhases {
		if ph == p {
			return true
		}
	}
	return false
}

// AllPhases возвращает фазы в порядке процедуры
func AllPhases() []Phase {
	out := make([]Phase, len(allPhases))
	copy(out, allPhases)
	return out
}

func (m BiddingModality) Valid() bool {
	switch m {
	case ModalityTrading, ModalityCompetition, ModalityContest, ModalityAuction,
		ModalityCompetitiveDialogue, ModalityDirectPurchase, ModalityUnenforceability:
		return true
	}
	return false
}

func (t BiddingType) Valid() bool {
	switch t {
	case TypeLowestPrice, TypeHighestDiscount, TypeBestTechnique,
		TypeTechniqueAndPrice, TypeHighestBid, TypeBestContent:
		return true
	}
	return false
}

// PhaseForStatus возвращает фазу журнала для нового статуса; по умолчанию OPENING
func PhaseForStatus(s BiddingStatus) Phase {
	if p, ok := statusPhases[s]; ok {
		return p
	}
	return PhaseOpening
}

// StatusChangeDescription - текст записи журнала о смене статуса
func StatusChangeDescription(from, to BiddingStatus) string {
	return fmt.Sprintf("Status changed from %s to %s", from, to)
}

// ApplyStatusPayload переносит данные запроса в запись закупки
func (b *Bidding) ApplyStatusPayload(p StatusPayload) {
	if p.Winner != nil {
		b.Winner = p.Winner
	}
	if p.WinnerDocument != nil {
		b.WinnerDocument = p.WinnerDocument
	}
	if p.FinalValue != nil {
		b.FinalValue = decimal.NewNullDecimal(*p.FinalValue)
	}
	if p.Notes != nil {
		b.Notes = p.Notes
	}
}
