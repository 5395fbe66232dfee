package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"transparencia/internal/domain"
)

type BiddingServiceSuite struct {
	suite.Suite
	ctx         context.Context
	store       *memProcurement
	storage     *memStorage
	biddings    *BiddingService
	attachments *BiddingDocumentService
}

func TestBiddingServiceSuite(t *testing.T) {
	suite.Run(t, new(BiddingServiceSuite))
}

func (s *BiddingServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newMemProcurement()
	s.storage = newMemStorage()
	clock := fixedClock{now: testNow}
	perms := NewPermissionService()
	s.biddings = NewBiddingService(s.store, s.store, s.storage, perms, clock, nil, zap.NewNop())
	s.attachments = NewBiddingDocumentService(s.store, memAttachments{s.store}, s.storage, perms, clock, nil, zap.NewNop())
}

func biddingInput() domain.BiddingInput {
	return domain.BiddingInput{
		Number:      "012/2025",
		Title:       "Office supplies",
		Object:      "Acquisition of office paper",
		Modality:    domain.ModalityTrading,
		Type:        domain.TypeLowestPrice,
		OpeningDate: strPtr("2025-04-01"),
		ClosingDate: strPtr("2025-04-15"),
	}
}

func (s *BiddingServiceSuite) create() *domain.Bidding {
	b, err := s.biddings.CreateBidding(s.ctx, adminUser, biddingInput())
	s.Require().NoError(err)
	return b
}

func (s *BiddingServiceSuite) movements(id uuid.UUID) []domain.BiddingMovement {
	list, err := s.biddings.ListMovements(s.ctx, id)
	s.Require().NoError(err)
	return list
}

func (s *BiddingServiceSuite) TestCreateBidding_ObjectLength() {
	input := biddingInput()
	input.Object = "Paper A4."

	_, err := s.biddings.CreateBidding(s.ctx, adminUser, input)
	var derr *domain.Error
	s.Require().ErrorAs(err, &derr)
	s.Equal(domain.KindInvalidField, derr.Kind)
	s.Equal("object", derr.Details["field"])
	s.Empty(s.store.biddings)

	input.Object = "Acquisition of A4 paper.."
	s.Require().Len(input.Object, 25)
	b, err := s.biddings.CreateBidding(s.ctx, adminUser, input)
	s.Require().NoError(err)
	s.Equal(domain.BiddingStatusPlanning, b.Status)

	movements := s.movements(b.ID)
	s.Require().Len(movements, 1)
	s.Equal(domain.PhaseOpening, movements[0].Phase)
	s.Equal("Bidding created", movements[0].Description)
	s.Equal(adminUser.ID, movements[0].CreatedBy)
}

func (s *BiddingServiceSuite) TestCreateBidding_Validation() {
	tests := []struct {
		name   string
		mutate func(*domain.BiddingInput)
		kind   domain.Kind
		field  string
	}{
		{"number pattern", func(in *domain.BiddingInput) { in.Number = "12/2025" }, domain.KindInvalidField, "number"},
		{"missing number", func(in *domain.BiddingInput) { in.Number = "" }, domain.KindMissingRequiredField, "number"},
		{"unknown modality", func(in *domain.BiddingInput) { in.Modality = "RAFFLE" }, domain.KindInvalidField, "modality"},
		{"unknown type", func(in *domain.BiddingInput) { in.Type = "CHEAPEST" }, domain.KindInvalidField, "type"},
		{"closing before opening", func(in *domain.BiddingInput) { in.ClosingDate = strPtr("2025-03-01") }, domain.KindInvalidField, "closing_date"},
		{"bad date", func(in *domain.BiddingInput) { in.PublicationDate = strPtr("yesterday") }, domain.KindInvalidField, "publication_date"},
		{"money precision", func(in *domain.BiddingInput) {
			v := decimal.RequireFromString("99.999")
			in.EstimatedValue = &v
		}, domain.KindInvalidField, "estimated_value"},
		{"long legal basis", func(in *domain.BiddingInput) { in.LegalBasis = strPtr(strings.Repeat("L", 256)) }, domain.KindInvalidField, "legal_basis"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			input := biddingInput()
			tt.mutate(&input)

			_, err := s.biddings.CreateBidding(s.ctx, adminUser, input)

			var derr *domain.Error
			s.Require().ErrorAs(err, &derr)
			s.Equal(tt.kind, derr.Kind)
			s.Equal(tt.field, derr.Details["field"])
		})
	}
}

func (s *BiddingServiceSuite) TestCreateBidding_DuplicateNumber() {
	s.create()
	_, err := s.biddings.CreateBidding(s.ctx, adminUser, biddingInput())
	s.ErrorIs(err, domain.ErrDuplicateBidding)
}

func (s *BiddingServiceSuite) TestCreateBidding_OnlyAdmin() {
	_, err := s.biddings.CreateBidding(s.ctx, editorUser, domain.BiddingInput{})
	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *BiddingServiceSuite) TestUpdateStatus_PayloadLengths() {
	b := s.create()
	value := decimal.RequireFromString("1000.00")

	_, err := s.biddings.UpdateStatus(s.ctx, editorUser, b.ID, domain.BiddingStatusAwarded, domain.StatusPayload{
		Winner:         strPtr("Acme Ltd"),
		WinnerDocument: strPtr(strings.Repeat("1", 33)),
		FinalValue:     &value,
	})

	var derr *domain.Error
	s.Require().ErrorAs(err, &derr)
	s.Equal(domain.KindInvalidField, derr.Kind)
	s.Equal("winner_document", derr.Details["field"])
	s.Len(s.movements(b.ID), 1)
}

func (s *BiddingServiceSuite) TestUpdateStatus_AwardGuard() {
	b := s.create()

	_, err := s.biddings.UpdateStatus(s.ctx, editorUser, b.ID, domain.BiddingStatusHomologated, domain.StatusPayload{})

	var derr *domain.Error
	s.Require().ErrorAs(err, &derr)
	s.Equal(domain.KindIncompleteAwardData, derr.Kind)
	s.Equal([]string{"winner", "final_value"}, derr.Details["missing"])

	stored, err := s.biddings.GetBidding(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(domain.BiddingStatusPlanning, stored.Status)
	s.Len(s.movements(b.ID), 1)

	_, err = s.biddings.UpdateStatus(s.ctx, editorUser, b.ID, domain.BiddingStatusAwarded, domain.StatusPayload{
		Winner: strPtr("Paper Co"),
	})
	s.ErrorIs(err, domain.ErrIncompleteAwardData)
}

func (s *BiddingServiceSuite) TestUpdateStatus_HistoryPairing() {
	b := s.create()
	final := decimal.RequireFromString("12345.67")

	steps := []struct {
		status  domain.BiddingStatus
		payload domain.StatusPayload
		phase   domain.Phase
	}{
		{domain.BiddingStatusPublished, domain.StatusPayload{}, domain.PhaseOpening},
		{domain.BiddingStatusInProgress, domain.StatusPayload{}, domain.PhaseOpening},
		{domain.BiddingStatusHomologated, domain.StatusPayload{Winner: strPtr("Paper Co"), FinalValue: &final}, domain.PhaseHomologation},
		{domain.BiddingStatusAwarded, domain.StatusPayload{Winner: strPtr("Paper Co"), FinalValue: &final}, domain.PhaseContracting},
		{domain.BiddingStatusCompleted, domain.StatusPayload{}, domain.PhaseClosure},
	}

	previous := domain.BiddingStatusPlanning
	for i, step := range steps {
		updated, err := s.biddings.UpdateStatus(s.ctx, editorUser, b.ID, step.status, step.payload)
		s.Require().NoError(err)
		s.Equal(step.status, updated.Status)

		movements := s.movements(b.ID)
		s.Require().Len(movements, i+2)
		last := movements[len(movements)-1]
		s.Equal(step.phase, last.Phase)
		s.Equal(domain.StatusChangeDescription(previous, step.status), last.Description)
		previous = step.status
	}

	stored, err := s.biddings.GetBidding(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("Paper Co", *stored.Winner)
	s.True(stored.FinalValue.Decimal.Equal(final))
}

func (s *BiddingServiceSuite) TestUpdateStatus_SameStatusWritesNoMovement() {
	b := s.create()

	updated, err := s.biddings.UpdateStatus(s.ctx, editorUser, b.ID, domain.BiddingStatusPlanning, domain.StatusPayload{
		Notes: strPtr("waiting for budget approval"),
	})
	s.Require().NoError(err)
	s.Equal("waiting for budget approval", *updated.Notes)
	s.Len(s.movements(b.ID), 1)
}

func (s *BiddingServiceSuite) TestUpdateStatus_UnknownStatus() {
	b := s.create()
	_, err := s.biddings.UpdateStatus(s.ctx, editorUser, b.ID, "FINISHED", domain.StatusPayload{})
	s.ErrorIs(err, domain.ErrInvalidField)

	_, err = s.biddings.UpdateStatus(s.ctx, authorUser, b.ID, domain.BiddingStatusPublished, domain.StatusPayload{})
	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *BiddingServiceSuite) TestDeleteBidding() {
	b := s.create()
	_, err := s.biddings.UpdateStatus(s.ctx, adminUser, b.ID, domain.BiddingStatusInProgress, domain.StatusPayload{})
	s.Require().NoError(err)

	err = s.biddings.DeleteBidding(s.ctx, adminUser, b.ID)
	s.ErrorIs(err, domain.ErrDeletionForbidden)

	input := biddingInput()
	input.Number = "013/2025"
	planning, err := s.biddings.CreateBidding(s.ctx, adminUser, input)
	s.Require().NoError(err)
	_, err = s.attachments.AddBiddingDocument(s.ctx, editorUser, planning.ID, domain.BiddingDocumentInput{
		DocumentType: domain.DocTypeEdital,
		Phase:        domain.PhaseOpening,
		Title:        "Edital",
	}, "edital.pdf", []byte("edital"))
	s.Require().NoError(err)

	s.ErrorIs(s.biddings.DeleteBidding(s.ctx, editorUser, planning.ID), domain.ErrUnauthorized)
	s.Require().NoError(s.biddings.DeleteBidding(s.ctx, adminUser, planning.ID))

	s.Empty(s.store.movements[planning.ID])
	s.Empty(s.storage.objects)
	_, err = s.biddings.GetBidding(s.ctx, planning.ID)
	s.ErrorIs(err, domain.ErrBiddingNotFound)
}

func (s *BiddingServiceSuite) TestUpdateBidding() {
	b := s.create()

	updated, err := s.biddings.UpdateBidding(s.ctx, editorUser, b.ID, domain.BiddingPatch{
		Title:       strPtr("Office supplies 2025"),
		ClosingDate: strPtr("2025-04-30"),
		LegalBasis:  strPtr("Law 14.133/2021"),
	})
	s.Require().NoError(err)
	s.Equal("Office supplies 2025", updated.Title)
	s.Equal("2025-04-30", updated.ClosingDate.Format(domain.DateLayout))
	s.Equal(domain.BiddingStatusPlanning, updated.Status)
	s.Equal("Acquisition of office paper", updated.Object)

	_, err = s.biddings.UpdateBidding(s.ctx, editorUser, b.ID, domain.BiddingPatch{Object: strPtr("too short")})
	s.ErrorIs(err, domain.ErrInvalidField)

	_, err = s.biddings.UpdateBidding(s.ctx, editorUser, uuid.New(), domain.BiddingPatch{Title: strPtr("x")})
	s.ErrorIs(err, domain.ErrBiddingNotFound)
}

func (s *BiddingServiceSuite) TestAddMovement() {
	b := s.create()

	m, err := s.biddings.AddMovement(s.ctx, editorUser, b.ID, domain.MovementInput{
		Phase:       domain.PhaseInquiries,
		Description: "Clarification request answered",
		Date:        strPtr("2025-04-03"),
	})
	s.Require().NoError(err)
	s.Equal("2025-04-03", m.Date.Format(domain.DateLayout))
	s.Len(s.movements(b.ID), 2)

	_, err = s.biddings.AddMovement(s.ctx, editorUser, b.ID, domain.MovementInput{Phase: "LOBBY", Description: "x"})
	s.ErrorIs(err, domain.ErrInvalidField)

	_, err = s.biddings.AddMovement(s.ctx, editorUser, b.ID, domain.MovementInput{Phase: domain.PhaseJudgment})
	s.ErrorIs(err, domain.ErrMissingRequiredField)

	_, err = s.biddings.AddMovement(s.ctx, editorUser, uuid.New(), domain.MovementInput{Phase: domain.PhaseJudgment, Description: "x"})
	s.ErrorIs(err, domain.ErrBiddingNotFound)
}

func (s *BiddingServiceSuite) TestAttachments() {
	b := s.create()

	_, err := s.attachments.AddBiddingDocument(s.ctx, editorUser, b.ID, domain.BiddingDocumentInput{
		DocumentType: domain.DocTypeAnnex, Phase: domain.PhaseOpening, Title: "annex.pdf",
	}, "annex.pdf", []byte("annex"))
	s.ErrorIs(err, domain.ErrInvalidAnnexNumber)

	_, err = s.attachments.AddBiddingDocument(s.ctx, editorUser, b.ID, domain.BiddingDocumentInput{
		DocumentType: domain.DocTypeEdital, Phase: domain.PhaseJudgment, Title: "edital.pdf",
	}, "edital.pdf", []byte("edital"))
	s.ErrorIs(err, domain.ErrInvalidPhaseForType)
	s.Empty(s.storage.objects, "rejected before the file is stored")

	edital, err := s.attachments.AddBiddingDocument(s.ctx, editorUser, b.ID, domain.BiddingDocumentInput{
		DocumentType: domain.DocTypeEdital, Phase: domain.PhaseOpening, Title: "edital.pdf",
	}, "edital.pdf", []byte("edital"))
	s.Require().NoError(err)
	s.Equal(1, edital.Order)

	annex, err := s.attachments.AddBiddingDocument(s.ctx, editorUser, b.ID, domain.BiddingDocumentInput{
		DocumentType: domain.DocTypeAnnex,
		AnnexNumber:  intPtr(2),
		Phase:        domain.PhaseOpening,
		Title:        "annex-2.pdf",
		DisplayTitle: strPtr("Price sheet"),
	}, "annex-2.pdf", []byte("annex 2"))
	s.Require().NoError(err)
	s.Equal(2, annex.Order)
	s.Equal(domain.BiddingDocumentDraft, annex.Status)

	_, err = s.attachments.PublishBiddingDocument(s.ctx, editorUser, annex.ID)
	s.ErrorIs(err, domain.ErrUnauthorized)

	published, err := s.attachments.PublishBiddingDocument(s.ctx, adminUser, annex.ID)
	s.Require().NoError(err)
	s.Equal(domain.BiddingDocumentPublished, published.Status)
	s.Require().NotNil(published.PublishedAt)

	movements := s.movements(b.ID)
	s.Require().Len(movements, 2)
	s.Equal("document published: Annex 2 – Price sheet", movements[1].Description)
	s.Equal(domain.PhaseOpening, movements[1].Phase)

	_, err = s.attachments.PublishBiddingDocument(s.ctx, adminUser, annex.ID)
	s.ErrorIs(err, domain.ErrInvalidStatusTransition)
	s.Len(s.movements(b.ID), 2)

	list, err := s.attachments.ListBiddingDocuments(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(edital.ID, list[0].ID)

	_, err = s.attachments.ListBiddingDocuments(s.ctx, uuid.New())
	s.ErrorIs(err, domain.ErrBiddingNotFound)
}
