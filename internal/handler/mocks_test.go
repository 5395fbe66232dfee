package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"transparencia/internal/domain"
)

type mockDocumentService struct{ mock.Mock }

func (m *mockDocumentService) CreateDocument(ctx context.Context, caller domain.Caller, input domain.DocumentInput) (*domain.Document, error) {
	args := m.Called(ctx, caller, input)
	doc, _ := args.Get(0).(*domain.Document)
	return doc, args.Error(1)
}

func (m *mockDocumentService) UpdateDocument(ctx context.Context, caller domain.Caller, id uuid.UUID, patch domain.DocumentPatch) (*domain.Document, error) {
	args := m.Called(ctx, caller, id, patch)
	doc, _ := args.Get(0).(*domain.Document)
	return doc, args.Error(1)
}

func (m *mockDocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*domain.Document)
	return doc, args.Error(1)
}

func (m *mockDocumentService) GetDocumentBySlug(ctx context.Context, slug string) (*domain.Document, error) {
	args := m.Called(ctx, slug)
	doc, _ := args.Get(0).(*domain.Document)
	return doc, args.Error(1)
}

func (m *mockDocumentService) DeleteDocument(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

type mockVersionService struct{ mock.Mock }

func (m *mockVersionService) CreateVersion(ctx context.Context, caller domain.Caller, documentID uuid.UUID, input domain.VersionInput) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, caller, documentID, input)
	v, _ := args.Get(0).(*domain.DocumentVersion)
	return v, args.Error(1)
}

func (m *mockVersionService) UploadVersion(ctx context.Context, caller domain.Caller, documentID uuid.UUID, upload domain.VersionUpload, data []byte) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, caller, documentID, upload, data)
	v, _ := args.Get(0).(*domain.DocumentVersion)
	return v, args.Error(1)
}

func (m *mockVersionService) ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	versions, _ := args.Get(0).([]domain.DocumentVersion)
	return versions, args.Error(1)
}

func (m *mockVersionService) CurrentVersion(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	v, _ := args.Get(0).(*domain.DocumentVersion)
	return v, args.Error(1)
}

func (m *mockVersionService) OpenCurrentFile(ctx context.Context, documentID uuid.UUID) (*domain.DocumentVersion, io.ReadCloser, error) {
	args := m.Called(ctx, documentID)
	v, _ := args.Get(0).(*domain.DocumentVersion)
	body, _ := args.Get(1).(io.ReadCloser)
	return v, body, args.Error(2)
}

func (m *mockVersionService) ListCurrentVersions(ctx context.Context) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx)
	versions, _ := args.Get(0).([]domain.DocumentVersion)
	return versions, args.Error(1)
}

type mockBiddingService struct{ mock.Mock }

func (m *mockBiddingService) CreateBidding(ctx context.Context, caller domain.Caller, input domain.BiddingInput) (*domain.Bidding, error) {
	args := m.Called(ctx, caller, input)
	b, _ := args.Get(0).(*domain.Bidding)
	return b, args.Error(1)
}

func (m *mockBiddingService) UpdateBidding(ctx context.Context, caller domain.Caller, id uuid.UUID, patch domain.BiddingPatch) (*domain.Bidding, error) {
	args := m.Called(ctx, caller, id, patch)
	b, _ := args.Get(0).(*domain.Bidding)
	return b, args.Error(1)
}

func (m *mockBiddingService) UpdateStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, status domain.BiddingStatus, payload domain.StatusPayload) (*domain.Bidding, error) {
	args := m.Called(ctx, caller, id, status, payload)
	b, _ := args.Get(0).(*domain.Bidding)
	return b, args.Error(1)
}

func (m *mockBiddingService) DeleteBidding(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *mockBiddingService) GetBidding(ctx context.Context, id uuid.UUID) (*domain.Bidding, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Bidding)
	return b, args.Error(1)
}

func (m *mockBiddingService) ListMovements(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingMovement, error) {
	args := m.Called(ctx, biddingID)
	movements, _ := args.Get(0).([]domain.BiddingMovement)
	return movements, args.Error(1)
}

func (m *mockBiddingService) AddMovement(ctx context.Context, caller domain.Caller, biddingID uuid.UUID, input domain.MovementInput) (*domain.BiddingMovement, error) {
	args := m.Called(ctx, caller, biddingID, input)
	movement, _ := args.Get(0).(*domain.BiddingMovement)
	return movement, args.Error(1)
}

type mockBiddingDocumentService struct{ mock.Mock }

func (m *mockBiddingDocumentService) AddBiddingDocument(ctx context.Context, caller domain.Caller, biddingID uuid.UUID, input domain.BiddingDocumentInput, fileName string, data []byte) (*domain.BiddingDocument, error) {
	args := m.Called(ctx, caller, biddingID, input, fileName, data)
	doc, _ := args.Get(0).(*domain.BiddingDocument)
	return doc, args.Error(1)
}

func (m *mockBiddingDocumentService) PublishBiddingDocument(ctx context.Context, caller domain.Caller, id uuid.UUID) (*domain.BiddingDocument, error) {
	args := m.Called(ctx, caller, id)
	doc, _ := args.Get(0).(*domain.BiddingDocument)
	return doc, args.Error(1)
}

func (m *mockBiddingDocumentService) ListBiddingDocuments(ctx context.Context, biddingID uuid.UUID) ([]domain.BiddingDocument, error) {
	args := m.Called(ctx, biddingID)
	docs, _ := args.Get(0).([]domain.BiddingDocument)
	return docs, args.Error(1)
}

func (m *mockBiddingDocumentService) GetBiddingDocument(ctx context.Context, id uuid.UUID) (*domain.BiddingDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*domain.BiddingDocument)
	return doc, args.Error(1)
}
