package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	BiddingDocumentType   string
	BiddingDocumentStatus string
)

const (
	DocTypeEdital          BiddingDocumentType = "EDITAL"
	DocTypeNotice          BiddingDocumentType = "NOTICE"
	DocTypeAnnex           BiddingDocumentType = "ANNEX"
	DocTypeMinutes         BiddingDocumentType = "MINUTES"
	DocTypeContract        BiddingDocumentType = "CONTRACT"
	DocTypeAddendum        BiddingDocumentType = "ADDENDUM"
	DocTypeHomologationAct BiddingDocumentType = "HOMOLOGATION_ACT"
	DocTypeAppealDecision  BiddingDocumentType = "APPEAL_DECISION"
	DocTypeOther           BiddingDocumentType = "OTHER"

	BiddingDocumentDraft     BiddingDocumentStatus = "DRAFT"
	BiddingDocumentPublished BiddingDocumentStatus = "PUBLISHED"
)

// BiddingDocument - вложение процедуры закупки (извещение, приложение, протокол, контракт)
type BiddingDocument struct {
	ID           uuid.UUID             `json:"id" db:"id"`
	BiddingID    uuid.UUID             `json:"bidding_id" db:"bidding_id"`
	DocumentType BiddingDocumentType   `json:"document_type" db:"document_type"`
	AnnexNumber  *int                  `json:"annex_number,omitempty" db:"annex_number"`
	Phase        Phase                 `json:"phase" db:"phase"`
	Title        string                `json:"title" db:"title"`
	DisplayTitle *string               `json:"display_title,omitempty" db:"display_title"`
	Status       BiddingDocumentStatus `json:"status" db:"status"`
	Order        int                   `json:"order" db:"display_order"`
	FileRef      string                `json:"file_ref" db:"file_ref"`
	FileSize     int64                 `json:"file_size" db:"file_size"`
	FileHash     string                `json:"file_hash" db:"file_hash"`
	MimeType     *string               `json:"mime_type,omitempty" db:"mime_type"`
	PublishedAt  *time.Time            `json:"published_at,omitempty" db:"published_at"`
	CreatedBy    string                `json:"created_by" db:"created_by"`
	CreatedAt    time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at" db:"updated_at"`
}

// BiddingDocumentInput - метаданные вложения
type BiddingDocumentInput struct {
	DocumentType BiddingDocumentType `json:"document_type" validate:"required"`
	AnnexNumber  *int                `json:"annex_number,omitempty"`
	Phase        Phase               `json:"phase" validate:"required"`
	Title        string              `json:"title" validate:"required,max=255"`
	DisplayTitle *string             `json:"display_title,omitempty" validate:"omitempty,max=255"`
	Order        *int                `json:"order,omitempty"`
}

func (t BiddingDocumentType) Valid() bool {
	switch t {
	case DocTypeEdital, DocTypeNotice, DocTypeAnnex, DocTypeMinutes, DocTypeContract,
		DocTypeAddendum, DocTypeHomologationAct, DocTypeAppealDecision, DocTypeOther:
		return true
	}
	return false
}

// DisplayLabel - подпись вложения для журнала и списков
func DisplayLabel(docType BiddingDocumentType, annexNumber *int, displayTitle *string, title string) string {
	hasDisplay := displayTitle != nil && *displayTitle != ""
	if docType == DocTypeAnnex && annexNumber != nil {
		if hasDisplay {
			return fmt.Sprintf("Annex %d – %s", *annexNumber, *displayTitle)
		}
		return fmt.Sprintf("Annex %d", *annexNumber)
	}
	if hasDisplay {
		return *displayTitle
	}
	return title
}

// Label возвращает подпись вложения
func (d *BiddingDocument) Label() string {
	return DisplayLabel(d.DocumentType, d.AnnexNumber, d.DisplayTitle, d.Title)
}

// PublishedDescription - текст записи журнала о публикации вложения
func PublishedDescription(label string) string {
	return "document published: " + label
}
