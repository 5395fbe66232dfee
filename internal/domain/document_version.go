package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentVersion - неизменяемая версия документа; действующая ровно одна
type DocumentVersion struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	DocumentID           uuid.UUID `json:"document_id" db:"document_id"`
	VersionNumber        int       `json:"version_number" db:"version_number"`
	IdentificationNumber string    `json:"identification_number" db:"identification_number"`
	ApprovalDate         time.Time `json:"approval_date" db:"approval_date"`
	ChangeDescription    *string   `json:"change_description,omitempty" db:"change_description"`
	FileRef              string    `json:"file_ref" db:"file_ref"`
	FileSize             int64     `json:"file_size" db:"file_size"`
	FileHash             string    `json:"file_hash" db:"file_hash"`
	MimeType             *string   `json:"mime_type,omitempty" db:"mime_type"`
	IsCurrent            bool      `json:"is_current" db:"is_current"`
	CreatedBy            string    `json:"created_by" db:"created_by"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// VersionInput - метаданные новой версии; файл уже сохранен во внешнем хранилище
type VersionInput struct {
	IdentificationNumber string  `json:"identification_number" validate:"required,max=64"`
	ApprovalDate         string  `json:"approval_date" validate:"required"`
	ChangeDescription    *string `json:"change_description,omitempty"`
	FileRef              string  `json:"file_ref" validate:"required,max=512"`
	FileSize             int64   `json:"file_size" validate:"required,gt=0"`
	FileHash             string  `json:"file_hash" validate:"required,hexadecimal,min=32,max=128"`
	MimeType             *string `json:"mime_type,omitempty" validate:"omitempty,max=128"`
}

// StoredFile - результат сохранения файла во внешнем хранилище
type StoredFile struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Hash     string `json:"hash"`
}

// VersionUpload - метаданные версии, файл которой передается вместе с запросом
type VersionUpload struct {
	IdentificationNumber string  `json:"identification_number" validate:"required,max=64"`
	ApprovalDate         string  `json:"approval_date" validate:"required"`
	ChangeDescription    *string `json:"change_description,omitempty"`
	FileName             string  `json:"file_name"`
}
