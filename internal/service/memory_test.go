package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"transparencia/internal/domain"
	"transparencia/internal/slug"
)

// memRecords повторяет транзакционную семантику DocumentRepository и VersionRepository в памяти
type memRecords struct {
	mu          sync.Mutex
	docs        map[uuid.UUID]domain.Document
	versions    map[uuid.UUID][]domain.DocumentVersion
	failPromote error
	// beforeCreate выполняется до записи, как конкурирующая транзакция
	beforeCreate func()
}

func newMemRecords() *memRecords {
	return &memRecords{
		docs:     make(map[uuid.UUID]domain.Document),
		versions: make(map[uuid.UUID][]domain.DocumentVersion),
	}
}

func (m *memRecords) Create(_ context.Context, doc *domain.Document, autoOrder bool) error {
	if m.beforeCreate != nil {
		m.beforeCreate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.numberTaken(doc) {
		return domain.ConcurrentModification("document")
	}

	var taken []string
	maxOrder := 0
	for _, d := range m.docs {
		if d.Slug == doc.Slug || strings.HasPrefix(d.Slug, doc.Slug+"-") {
			taken = append(taken, d.Slug)
		}
		if d.CategoryMacro == doc.CategoryMacro && d.DisplayOrder > maxOrder {
			maxOrder = d.DisplayOrder
		}
	}
	if autoOrder {
		doc.DisplayOrder = maxOrder + 1
	}
	doc.Slug = slug.Disambiguate(doc.Slug, taken)
	doc.Revision = 1
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memRecords) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.DocumentNotFound(id.String())
	}
	return &d, nil
}

func (m *memRecords) GetBySlug(_ context.Context, s string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Slug == s {
			return &d, nil
		}
	}
	return nil, domain.DocumentNotFound(s)
}

func (m *memRecords) FindDuplicate(_ context.Context, category, subcategory string, year int, number string, excludeID uuid.UUID) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID != excludeID && d.CategoryMacro == category && d.Subcategory == subcategory &&
			d.Year == year && d.DocumentNumber != nil && *d.DocumentNumber == number {
			return &d, nil
		}
	}
	return nil, nil
}

// numberTaken повторяет уникальный индекс documents_classification_number_idx
func (m *memRecords) numberTaken(doc *domain.Document) bool {
	if doc.DocumentNumber == nil {
		return false
	}
	for _, d := range m.docs {
		if d.ID != doc.ID && d.CategoryMacro == doc.CategoryMacro && d.Subcategory == doc.Subcategory &&
			d.Year == doc.Year && d.DocumentNumber != nil && *d.DocumentNumber == *doc.DocumentNumber {
			return true
		}
	}
	return false
}

func (m *memRecords) Update(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[doc.ID]
	if !ok || stored.Revision != doc.Revision || m.numberTaken(doc) {
		return domain.ConcurrentModification("document")
	}
	doc.Revision++
	doc.UpdatedAt = time.Now()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memRecords) Delete(_ context.Context, id uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.DocumentNotFound(id.String())
	}
	if d.WasPublished() {
		return nil, domain.DeletionForbidden("document has been published; archive it instead")
	}
	var refs []string
	for _, v := range m.versions[id] {
		refs = append(refs, v.FileRef)
	}
	delete(m.versions, id)
	delete(m.docs, id)
	return refs, nil
}

func (m *memRecords) Promote(_ context.Context, version *domain.DocumentVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[version.DocumentID]
	if !ok {
		return domain.DocumentNotFound(version.DocumentID.String())
	}
	next := 1
	for _, v := range m.versions[version.DocumentID] {
		if v.VersionNumber >= next {
			next = v.VersionNumber + 1
		}
		if v.FileHash == version.FileHash {
			return domain.DuplicateUpload(version.DocumentID.String(), version.FileHash)
		}
	}
	if m.failPromote != nil {
		err := m.failPromote
		m.failPromote = nil
		return err
	}

	versions := m.versions[version.DocumentID]
	for i := range versions {
		versions[i].IsCurrent = false
	}
	version.VersionNumber = next
	version.IsCurrent = true
	version.CreatedAt = time.Now()
	m.versions[version.DocumentID] = append(versions, *version)

	d.CurrentVersionID = &version.ID
	d.Revision++
	m.docs[d.ID] = d
	return nil
}

func (m *memRecords) HashExists(_ context.Context, documentID uuid.UUID, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[documentID] {
		if v.FileHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRecords) ListByDocument(_ context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.DocumentVersion(nil), m.versions[documentID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (m *memRecords) GetCurrent(_ context.Context, documentID uuid.UUID) (*domain.DocumentVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[documentID] {
		if v.IsCurrent {
			return &v, nil
		}
	}
	return nil, nil
}

func (m *memRecords) ListCurrent(_ context.Context) ([]domain.DocumentVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DocumentVersion
	for _, versions := range m.versions {
		for _, v := range versions {
			if v.IsCurrent {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// memProcurement хранит закупки, журнал и вложения; реализует BiddingStore и MovementLedger
type memProcurement struct {
	mu          sync.Mutex
	biddings    map[uuid.UUID]domain.Bidding
	movements   map[uuid.UUID][]domain.BiddingMovement
	attachments map[uuid.UUID]domain.BiddingDocument
}

func newMemProcurement() *memProcurement {
	return &memProcurement{
		biddings:    make(map[uuid.UUID]domain.Bidding),
		movements:   make(map[uuid.UUID][]domain.BiddingMovement),
		attachments: make(map[uuid.UUID]domain.BiddingDocument),
	}
}

func (m *memProcurement) Create(_ context.Context, b *domain.Bidding, movement *domain.BiddingMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.biddings {
		if existing.Number == b.Number {
			return domain.DuplicateBidding(b.Number)
		}
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	m.biddings[b.ID] = *b
	m.movements[b.ID] = append(m.movements[b.ID], *movement)
	return nil
}

func (m *memProcurement) GetByID(_ context.Context, id uuid.UUID) (*domain.Bidding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.biddings[id]
	if !ok {
		return nil, domain.BiddingNotFound(id.String())
	}
	return &b, nil
}

func (m *memProcurement) NumberExists(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.biddings {
		if b.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *memProcurement) UpdateFields(_ context.Context, b *domain.Bidding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.biddings[b.ID]
	if !ok {
		return domain.BiddingNotFound(b.ID.String())
	}
	b.Status = stored.Status
	m.biddings[b.ID] = *b
	return nil
}

func (m *memProcurement) ChangeStatus(
	_ context.Context,
	id uuid.UUID,
	status domain.BiddingStatus,
	payload domain.StatusPayload,
	changedBy string,
	at time.Time,
) (*domain.Bidding, *domain.BiddingMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.biddings[id]
	if !ok {
		return nil, nil, domain.BiddingNotFound(id.String())
	}
	old := b.Status
	b.ApplyStatusPayload(payload)
	b.Status = status

	var movement *domain.BiddingMovement
	if old != status {
		movement = domain.NewStatusMovement(id, old, status, changedBy, at)
		m.movements[id] = append(m.movements[id], *movement)
	}
	m.biddings[id] = b
	return &b, movement, nil
}

func (m *memProcurement) Delete(_ context.Context, id uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.biddings[id]
	if !ok {
		return nil, domain.BiddingNotFound(id.String())
	}
	if b.Status != domain.BiddingStatusPlanning {
		return nil, domain.DeletionForbidden("only biddings in PLANNING can be deleted")
	}
	var refs []string
	for aid, a := range m.attachments {
		if a.BiddingID == id {
			refs = append(refs, a.FileRef)
			delete(m.attachments, aid)
		}
	}
	delete(m.movements, id)
	delete(m.biddings, id)
	return refs, nil
}

func (m *memProcurement) Append(_ context.Context, movement *domain.BiddingMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.biddings[movement.BiddingID]; !ok {
		return domain.BiddingNotFound(movement.BiddingID.String())
	}
	m.movements[movement.BiddingID] = append(m.movements[movement.BiddingID], *movement)
	return nil
}

func (m *memProcurement) ListByBidding(_ context.Context, biddingID uuid.UUID) ([]domain.BiddingMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.BiddingMovement(nil), m.movements[biddingID]...), nil
}

// memAttachments - BiddingDocumentStore поверх тех же данных
type memAttachments struct {
	*memProcurement
}

func (m memAttachments) Create(_ context.Context, doc *domain.BiddingDocument, autoOrder bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.biddings[doc.BiddingID]; !ok {
		return domain.BiddingNotFound(doc.BiddingID.String())
	}
	if autoOrder {
		maxOrder := 0
		for _, a := range m.attachments {
			if a.BiddingID == doc.BiddingID && a.Order > maxOrder {
				maxOrder = a.Order
			}
		}
		doc.Order = maxOrder + 1
	}
	m.attachments[doc.ID] = *doc
	return nil
}

func (m memAttachments) GetByID(_ context.Context, id uuid.UUID) (*domain.BiddingDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[id]
	if !ok {
		return nil, domain.BiddingDocumentNotFound(id.String())
	}
	return &a, nil
}

func (m memAttachments) ListByBidding(_ context.Context, biddingID uuid.UUID) ([]domain.BiddingDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BiddingDocument
	for _, a := range m.attachments {
		if a.BiddingID == biddingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m memAttachments) Publish(_ context.Context, id uuid.UUID, publishedBy string, at time.Time) (*domain.BiddingDocument, *domain.BiddingMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[id]
	if !ok {
		return nil, nil, domain.BiddingDocumentNotFound(id.String())
	}
	if a.Status == domain.BiddingDocumentPublished {
		return nil, nil, domain.InvalidStatusTransition(string(a.Status), string(domain.BiddingDocumentPublished))
	}
	a.Status = domain.BiddingDocumentPublished
	a.PublishedAt = &at
	movement := domain.NewMovement(a.BiddingID, a.Phase, domain.PublishedDescription(a.Label()), publishedBy, at)
	m.attachments[id] = a
	m.movements[a.BiddingID] = append(m.movements[a.BiddingID], *movement)
	return &a, movement, nil
}

// memStorage - файловое хранилище в памяти
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Store(_ context.Context, key string, data []byte) (*domain.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := sha256.Sum256(data)
	s.objects[key] = data
	return &domain.StoredFile{
		Path:     key,
		Size:     int64(len(data)),
		MimeType: "application/pdf",
		Hash:     hex.EncodeToString(sum[:]),
	}, nil
}

func (s *memStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	s.deleted = append(s.deleted, path)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var (
	testNow    = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)
	adminUser  = domain.Caller{ID: "admin-1", Role: domain.RoleAdmin}
	editorUser = domain.Caller{ID: "editor-1", Role: domain.RoleEditor}
	authorUser = domain.Caller{ID: "author-1", Role: domain.RoleAuthor}
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
