package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type (
	DocumentStatus string
	VisibilityArea string
)

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusPublished DocumentStatus = "PUBLISHED"
	DocumentStatusArchived  DocumentStatus = "ARCHIVED"

	AreaTransparency VisibilityArea = "TRANSPARENCY"
	AreaProcurement  VisibilityArea = "PROCUREMENT"
)

// DateLayout - формат календарных дат во входных данных
const DateLayout = "2006-01-02"

// Document - институциональный документ, публикуемый на портале
type Document struct {
	ID                       uuid.UUID           `json:"id" db:"id"`
	Slug                     string              `json:"slug" db:"slug"`
	CategoryMacro            string              `json:"category_macro" db:"category_macro"`
	Subcategory              string              `json:"subcategory" db:"subcategory"`
	CategoryMacroProcurement *string             `json:"category_macro_procurement,omitempty" db:"category_macro_procurement"`
	SubcategoryProcurement   *string             `json:"subcategory_procurement,omitempty" db:"subcategory_procurement"`
	Title                    string              `json:"title" db:"title"`
	ShortDescription         *string             `json:"short_description,omitempty" db:"short_description"`
	IssuingBody              *string             `json:"issuing_body,omitempty" db:"issuing_body"`
	DocumentNumber           *string             `json:"document_number,omitempty" db:"document_number"`
	CounterpartyOrPartner    *string             `json:"counterparty_or_partner,omitempty" db:"counterparty_or_partner"`
	GlobalValue              decimal.NullDecimal `json:"global_value" db:"global_value"`
	ValidityMonths           *int                `json:"validity_months,omitempty" db:"validity_months"`
	ValidityStart            *time.Time          `json:"validity_start,omitempty" db:"validity_start"`
	ValidityEnd              *time.Time          `json:"validity_end,omitempty" db:"validity_end"`
	Period                   *string             `json:"period,omitempty" db:"period"`
	Year                     int                 `json:"year" db:"year"`
	DocumentDate             *time.Time          `json:"document_date,omitempty" db:"document_date"`
	Situation                *string             `json:"situation,omitempty" db:"situation"`
	VisibilityAreas          pq.StringArray      `json:"visibility_areas" db:"visibility_areas"`
	Status                   DocumentStatus      `json:"status" db:"status"`
	DisplayOrder             int                 `json:"display_order" db:"display_order"`
	CurrentVersionID         *uuid.UUID          `json:"current_version_id,omitempty" db:"current_version_id"`
	PublishedAt              *time.Time          `json:"published_at,omitempty" db:"published_at"`
	Revision                 int                 `json:"revision" db:"revision"`
	CreatedBy                string              `json:"created_by" db:"created_by"`
	CreatedAt                time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at" db:"updated_at"`
}

// DocumentInput - данные для создания документа
type DocumentInput struct {
	CategoryMacro            string           `json:"category_macro"`
	Subcategory              string           `json:"subcategory"`
	CategoryMacroProcurement *string          `json:"category_macro_procurement,omitempty"`
	SubcategoryProcurement   *string          `json:"subcategory_procurement,omitempty"`
	Title                    string           `json:"title"`
	ShortDescription         *string          `json:"short_description,omitempty"`
	IssuingBody              *string          `json:"issuing_body,omitempty"`
	DocumentNumber           *string          `json:"document_number,omitempty"`
	CounterpartyOrPartner    *string          `json:"counterparty_or_partner,omitempty"`
	GlobalValue              *decimal.Decimal `json:"global_value,omitempty"`
	ValidityMonths           *int             `json:"validity_months,omitempty"`
	ValidityStart            *string          `json:"validity_start,omitempty"`
	ValidityEnd              *string          `json:"validity_end,omitempty"`
	Period                   *string          `json:"period,omitempty"`
	Year                     int              `json:"year"`
	DocumentDate             *string          `json:"document_date,omitempty"`
	Situation                *string          `json:"situation,omitempty"`
	VisibilityAreas          []VisibilityArea `json:"visibility_areas"`
	DisplayOrder             *int             `json:"display_order,omitempty"`
}

// DocumentPatch - частичное обновление: nil означает "не менять"
type DocumentPatch struct {
	CategoryMacro            *string          `json:"category_macro,omitempty"`
	Subcategory              *string          `json:"subcategory,omitempty"`
	CategoryMacroProcurement *string          `json:"category_macro_procurement,omitempty"`
	SubcategoryProcurement   *string          `json:"subcategory_procurement,omitempty"`
	Title                    *string          `json:"title,omitempty"`
	ShortDescription         *string          `json:"short_description,omitempty"`
	IssuingBody              *string          `json:"issuing_body,omitempty"`
	DocumentNumber           *string          `json:"document_number,omitempty"`
	CounterpartyOrPartner    *string          `json:"counterparty_or_partner,omitempty"`
	GlobalValue              *decimal.Decimal `json:"global_value,omitempty"`
	ValidityMonths           *int             `json:"validity_months,omitempty"`
	ValidityStart            *string          `json:"validity_start,omitempty"`
	ValidityEnd              *string          `json:"validity_end,omitempty"`
	Period                   *string          `json:"period,omitempty"`
	Year                     *int             `json:"year,omitempty"`
	DocumentDate             *string          `json:"document_date,omitempty"`
	Situation                *string          `json:"situation,omitempty"`
	VisibilityAreas          []VisibilityArea `json:"visibility_areas,omitempty"`
	DisplayOrder             *int             `json:"display_order,omitempty"`
	Status                   *DocumentStatus  `json:"status,omitempty"`
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusPublished, DocumentStatusArchived:
		return true
	}
	return false
}

func (a VisibilityArea) Valid() bool {
	return a == AreaTransparency || a == AreaProcurement
}

// CanTransitionDocument проверяет допустимость смены статуса публикации
func CanTransitionDocument(from, to DocumentStatus) bool {
	switch from {
	case DocumentStatusDraft:
		return to == DocumentStatusPublished
	case DocumentStatusPublished:
		return to == DocumentStatusArchived
	case DocumentStatusArchived:
		return to == DocumentStatusPublished
	}
	return false
}

// StructurallyLocked - документ, хотя бы раз опубликованный с действующей версией,
// нельзя переклассифицировать. Архивирование блокировку не снимает.
func (d *Document) StructurallyLocked() bool {
	return d.WasPublished() && d.CurrentVersionID != nil
}

// HasArea проверяет, показывается ли документ в указанном разделе
func (d *Document) HasArea(area VisibilityArea) bool {
	for _, a := range d.VisibilityAreas {
		if a == string(area) {
			return true
		}
	}
	return false
}

// WasPublished - документ хотя бы раз был опубликован
func (d *Document) WasPublished() bool {
	return d.PublishedAt != nil
}
