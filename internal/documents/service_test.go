package documents

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

type mockRepository struct {
	docs   map[int64]*Document
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{docs: make(map[int64]*Document), nextID: 1}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepository) ListByTenant(_ context.Context, tenantID int64) ([]Document, error) {
	var out []Document
	for _, d := range m.docs {
		if d.TenantID != nil && *d.TenantID == tenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockRepository) ListByProperty(_ context.Context, propertyID int64) ([]Document, error) {
	var out []Document
	for _, d := range m.docs {
		if d.PropertyID != nil && *d.PropertyID == propertyID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, d Document) (int64, error) {
	d.ID = m.nextID
	m.nextID++
	m.docs[d.ID] = &d
	return d.ID, nil
}

func (m *mockRepository) SetOCRResult(_ context.Context, id int64, status OCRStatus, text string) error {
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.OCRStatus = status
	d.OCRText = text
	return nil
}

type memoryStore struct {
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Put(_ context.Context, key string, body []byte, _ string) error {
	m.objects[key] = body
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object missing")
	}
	return body, nil
}

func (m *memoryStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

type stubExtractor struct {
	lines []string
	err   error
}

func (s *stubExtractor) ExtractLines(context.Context, []byte) ([]string, error) {
	return s.lines, s.err
}

type stubRecorder struct {
	recorded []finance.RecordChequeRequest
}

func (s *stubRecorder) RecordCheque(_ context.Context, req finance.RecordChequeRequest) (*finance.Cheque, error) {
	s.recorded = append(s.recorded, req)
	return &finance.Cheque{ID: int64(len(s.recorded))}, nil
}

type stubEnqueuer struct {
	ids []int64
}

func (s *stubEnqueuer) EnqueueOCR(_ context.Context, id int64) error {
	s.ids = append(s.ids, id)
	return nil
}

func newTestService(repo Repository, store ObjectStore, extractor TextExtractor, enqueuer OCREnqueuer, recorder ChequeRecorder) *Service {
	gate := authz.NewGate(authz.NewMatrix(), nil)
	return NewService(slog.Default(), repo, store, extractor, enqueuer, recorder, gate)
}

func managerPrincipal() *authz.Principal {
	return &authz.Principal{UserID: 1, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{1}}
}

func TestUploadChequeEntersOCRQueue(t *testing.T) {
	repo := newMockRepository()
	store := newMemoryStore()
	enqueuer := &stubEnqueuer{}
	svc := newTestService(repo, store, &stubExtractor{}, enqueuer, &stubRecorder{})

	doc, err := svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName:    "aug-rent.png",
		ContentType: "image/png",
		Body:        []byte("scan"),
		Category:    CategoryCheque,
	})
	require.NoError(t, err)
	assert.Equal(t, OCRPending, doc.OCRStatus)
	assert.Equal(t, []int64{doc.ID}, enqueuer.ids)
	assert.Contains(t, store.objects, doc.StorageKey)

	photo, err := svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName:    "lobby.jpg",
		ContentType: "image/jpeg",
		Body:        []byte("pixels"),
		Category:    CategoryPhoto,
	})
	require.NoError(t, err)
	assert.Equal(t, OCRNone, photo.OCRStatus)
	assert.Len(t, enqueuer.ids, 1, "only cheques are queued for extraction")
}

func TestUploadRejectsUnknownCategoryAndEmptyFile(t *testing.T) {
	svc := newTestService(newMockRepository(), newMemoryStore(), &stubExtractor{}, &stubEnqueuer{}, &stubRecorder{})

	_, err := svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName: "x.pdf", Body: []byte("data"), Category: Category("RECEIPT"),
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName: "x.pdf", Category: CategoryOther,
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRunOCRCompleteCheque(t *testing.T) {
	repo := newMockRepository()
	store := newMemoryStore()
	recorder := &stubRecorder{}
	extractor := &stubExtractor{lines: []string{
		"Cheque No: 778899",
		"$ 2,000.00",
		"Date: 2026-08-01",
	}}
	svc := newTestService(repo, store, extractor, &stubEnqueuer{}, recorder)

	doc, err := svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName: "cheque.png", ContentType: "image/png", Body: []byte("scan"), Category: CategoryCheque,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunOCR(context.Background(), doc.ID))

	updated, err := repo.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, OCRCompleted, updated.OCRStatus)
	assert.Contains(t, updated.OCRText, "Cheque No: 778899")

	require.Len(t, recorder.recorded, 1)
	rec := recorder.recorded[0]
	assert.Equal(t, "778899", rec.ChequeNumber)
	assert.Equal(t, int64(200000), rec.AmountCents)
	require.NotNil(t, rec.ChequeDate)
	require.NotNil(t, rec.DocumentID)
	assert.Equal(t, doc.ID, *rec.DocumentID)
}

func TestRunOCRPartialWhenFieldsMissing(t *testing.T) {
	repo := newMockRepository()
	recorder := &stubRecorder{}
	extractor := &stubExtractor{lines: []string{"Cheque No: 778899", "smudged"}}
	svc := newTestService(repo, newMemoryStore(), extractor, &stubEnqueuer{}, recorder)

	doc, err := svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName: "cheque.png", ContentType: "image/png", Body: []byte("scan"), Category: CategoryCheque,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RunOCR(context.Background(), doc.ID))

	updated, err := repo.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, OCRPartial, updated.OCRStatus)
	require.Len(t, recorder.recorded, 1, "partial cheques are still recorded for manual completion")
	assert.Zero(t, recorder.recorded[0].AmountCents)
}

func TestRunOCRFailureMarksDocument(t *testing.T) {
	repo := newMockRepository()
	extractor := &stubExtractor{err: errors.New("textract unavailable")}
	svc := newTestService(repo, newMemoryStore(), extractor, &stubEnqueuer{}, &stubRecorder{})

	doc, err := svc.Upload(context.Background(), managerPrincipal(), UploadRequest{
		FileName: "cheque.png", ContentType: "image/png", Body: []byte("scan"), Category: CategoryCheque,
	})
	require.NoError(t, err)

	err = svc.RunOCR(context.Background(), doc.ID)
	require.Error(t, err, "error propagates so the task queue retries")

	updated, getErr := repo.Get(context.Background(), doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, OCRFailed, updated.OCRStatus)
}

func TestTenantReadsOnlyOwnDocuments(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, newMemoryStore(), &stubExtractor{}, &stubEnqueuer{}, &stubRecorder{})

	own, other := int64(5), int64(6)
	mustCreate := func(tenantID int64) int64 {
		id, err := repo.Create(context.Background(), Document{
			TenantID: &tenantID, FileName: "lease.pdf", Category: CategoryLease, UploadedBy: 2,
		})
		require.NoError(t, err)
		return id
	}
	ownID := mustCreate(own)
	otherID := mustCreate(other)

	tenant := &authz.Principal{UserID: 10, Role: authz.RoleTenant, TenantID: own}

	doc, err := svc.Get(context.Background(), tenant, ownID)
	require.NoError(t, err)
	assert.Equal(t, ownID, doc.ID)

	_, err = svc.Get(context.Background(), tenant, otherID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.ListByTenant(context.Background(), tenant, other)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}
