package documents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

// OCREnqueuer hands a document off to the background OCR pipeline.
type OCREnqueuer interface {
	EnqueueOCR(ctx context.Context, documentID int64) error
}

// ChequeRecorder is satisfied by the finance service. Extracted cheque
// fields land there regardless of how complete they are.
type ChequeRecorder interface {
	RecordCheque(ctx context.Context, req finance.RecordChequeRequest) (*finance.Cheque, error)
}

const signedURLExpiry = 15 * time.Minute

type UploadRequest struct {
	FileName    string
	ContentType string
	Body        []byte
	Category    Category
	PropertyID  *int64
	TenantID    *int64
	InvoiceID   *int64
}

type Service struct {
	logger    *slog.Logger
	repo      Repository
	store     ObjectStore
	extractor TextExtractor
	enqueuer  OCREnqueuer
	cheques   ChequeRecorder
	gate      *authz.Gate
}

func NewService(logger *slog.Logger, repo Repository, store ObjectStore, extractor TextExtractor, enqueuer OCREnqueuer, cheques ChequeRecorder, gate *authz.Gate) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		store:     store,
		extractor: extractor,
		enqueuer:  enqueuer,
		cheques:   cheques,
		gate:      gate,
	}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func documentRef(d *Document) *authz.ResourceRef {
	ref := &authz.ResourceRef{OwnerUserID: d.UploadedBy}
	if d.TenantID != nil {
		ref.TenantID = *d.TenantID
	}
	if d.PropertyID != nil {
		ref.PropertyID = *d.PropertyID
	}
	return ref
}

func validCategory(c Category) bool {
	switch c {
	case CategoryLease, CategoryCheque, CategoryInvoice, CategoryPhoto, CategoryOther:
		return true
	}
	return false
}

// Upload stores the file and its metadata row. Cheques go straight to
// the OCR queue; everything else never enters the pipeline.
func (s *Service) Upload(ctx context.Context, p *authz.Principal, req UploadRequest) (*Document, error) {
	if d := s.gate.Authorize(p, authz.PermTenantUpdate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if req.FileName == "" || len(req.Body) == 0 {
		return nil, fmt.Errorf("file is required: %w", httpx.ErrValidation)
	}
	if !validCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, httpx.ErrValidation)
	}

	key := ObjectKey(req.FileName)
	if err := s.store.Put(ctx, key, req.Body, req.ContentType); err != nil {
		return nil, err
	}

	status := OCRNone
	if req.Category == CategoryCheque {
		status = OCRPending
	}
	id, err := s.repo.Create(ctx, Document{
		PropertyID:  req.PropertyID,
		TenantID:    req.TenantID,
		FileName:    req.FileName,
		StorageKey:  key,
		ContentType: req.ContentType,
		SizeBytes:   int64(len(req.Body)),
		Category:    req.Category,
		OCRStatus:   status,
		UploadedBy:  p.UserID,
	})
	if err != nil {
		return nil, err
	}

	if status == OCRPending && s.enqueuer != nil {
		if err := s.enqueuer.EnqueueOCR(ctx, id); err != nil {
			s.logger.Error("failed to enqueue ocr", "document_id", id, "error", err)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermTenantRead, documentRef(doc)); !d.Allowed {
		return nil, denyErr(d)
	}
	return doc, nil
}

// DownloadURL returns a time-limited link instead of proxying bytes.
func (s *Service) DownloadURL(ctx context.Context, p *authz.Principal, id int64) (string, error) {
	doc, err := s.Get(ctx, p, id)
	if err != nil {
		return "", err
	}
	return s.store.SignedURL(ctx, doc.StorageKey, signedURLExpiry)
}

func (s *Service) ListByTenant(ctx context.Context, p *authz.Principal, tenantID int64) ([]Document, error) {
	if d := s.gate.Authorize(p, authz.PermTenantRead, &authz.ResourceRef{TenantID: tenantID}); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *Service) ListByProperty(ctx context.Context, p *authz.Principal, propertyID int64) ([]Document, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyRead, &authz.ResourceRef{PropertyID: propertyID}); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.ListByProperty(ctx, propertyID)
}

// RunOCR is executed by the worker, not by a request handler, so it
// carries no principal. Extraction failures mark the document FAILED
// and return the error so asynq can retry.
func (s *Service) RunOCR(ctx context.Context, documentID int64) error {
	doc, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Category != CategoryCheque {
		return s.repo.SetOCRResult(ctx, documentID, OCRNone, "")
	}

	image, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return s.failOCR(ctx, documentID, err)
	}
	lines, err := s.extractor.ExtractLines(ctx, image)
	if err != nil {
		return s.failOCR(ctx, documentID, err)
	}

	fields := ParseChequeFields(lines)
	if _, err := s.cheques.RecordCheque(ctx, finance.RecordChequeRequest{
		DocumentID:   &doc.ID,
		ChequeNumber: fields.ChequeNumber,
		AmountCents:  fields.AmountCents,
		ChequeDate:   fields.Date,
	}); err != nil {
		return s.failOCR(ctx, documentID, err)
	}

	status := OCRCompleted
	if !fields.Complete() {
		status = OCRPartial
	}
	if err := s.repo.SetOCRResult(ctx, documentID, status, strings.Join(lines, "\n")); err != nil {
		return err
	}
	s.logger.Info("ocr finished", "document_id", documentID, "status", status)
	return nil
}

func (s *Service) failOCR(ctx context.Context, documentID int64, cause error) error {
	if err := s.repo.SetOCRResult(ctx, documentID, OCRFailed, ""); err != nil {
		s.logger.Error("failed to mark ocr failure", "document_id", documentID, "error", err)
	}
	return fmt.Errorf("documents: ocr %d: %w", documentID, cause)
}
