package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"transparencia/internal/domain"
)

// DocumentStore - хранилище документов (repository.DocumentRepository)
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document, autoOrder bool) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Document, error)
	FindDuplicate(ctx context.Context, category, subcategory string, year int, number string, excludeID uuid.UUID) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
}

// VersionLedger - журнал версий документов (repository.VersionRepository)
type VersionLedger interface {
	Promote(ctx context.Context, version *domain.DocumentVersion) error
	HashExists(ctx context.Context, documentID uuid.UUID, hash string) (bool, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error)
	GetCurrent(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, error)
	ListCurrent(ctx context.Context) ([]domain.DocumentVersion, error)
}

// BiddingStore - хранилище закупок (repository.BiddingRepository)
type BiddingStore interface {
	Create(ctx context.Context, bidding *domain.Bidding, movement *domain.BiddingMovement) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bidding, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	UpdateFields(ctx context.Context, bidding *domain.Bidding) error
	ChangeStatus(ctx context.Context, id uuid.UUID, status domain.BiddingStatus, payload domain.StatusPayload, changedBy string, at time.Time) (*domain.Bidding, *domain.BiddingMovement, error)
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
}

// MovementLedger - журнал хода закупки (repository.MovementRepository)
type MovementLedger interface {
	Append(ctx context.Context, movement *domain.BiddingMovement) error
	ListByBidding(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingMovement, error)
}

// BiddingDocumentStore - вложения закупок (repository.BiddingDocumentRepository)
type BiddingDocumentStore interface {
	Create(ctx context.Context, doc *domain.BiddingDocument, autoOrder bool) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BiddingDocument, error)
	ListByBidding(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingDocument, error)
	Publish(ctx context.Context, id uuid.UUID, publishedBy string, at time.Time) (*domain.BiddingDocument, *domain.BiddingMovement, error)
}

// FileStorage - внешнее файловое хранилище (s3.Client)
type FileStorage interface {
	Store(ctx context.Context, key string, data []byte) (*domain.StoredFile, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// Clock внедряется для тестируемости границ года и дат публикации
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
