package announcements

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

// Notifier enqueues one email task per recipient.
type Notifier interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

type CreateRequest struct {
	PropertyID int64  `json:"property_id" validate:"required"`
	Title      string `json:"title" validate:"required,max=200"`
	Body       string `json:"body" validate:"required,max=8000"`
}

type UpdateRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body  *string `json:"body,omitempty" validate:"omitempty,max=8000"`
}

type Service struct {
	repo     Repository
	gate     *authz.Gate
	notifier Notifier
	logger   *slog.Logger
}

func NewService(repo Repository, gate *authz.Gate, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, gate: gate, notifier: notifier, logger: logger}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func (s *Service) ListByProperty(ctx context.Context, propertyID int64) ([]Announcement, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Announcement, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateRequest) (*Announcement, error) {
	if d := s.gate.Authorize(p, authz.PermAmenityManage, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, Announcement{
		PropertyID: req.PropertyID,
		Title:      req.Title,
		Body:       req.Body,
		Status:     StatusDraft,
		CreatedBy:  p.UserID,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdateRequest) (*Announcement, error) {
	if d := s.gate.Authorize(p, authz.PermAmenityManage, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusPublished {
		return nil, fmt.Errorf("published announcements are immutable: %w", httpx.ErrConflict)
	}
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Body != nil {
		a.Body = *req.Body
	}
	if err := s.repo.Update(ctx, *a); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Publish marks the announcement live and fans out one email task per
// active tenant of the property. Enqueue failures are logged, not
// surfaced: delivery is best effort and retried by the worker.
func (s *Service) Publish(ctx context.Context, p *authz.Principal, id int64) (*Announcement, error) {
	if d := s.gate.Authorize(p, authz.PermAmenityManage, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusPublished {
		return nil, fmt.Errorf("announcement already published: %w", httpx.ErrConflict)
	}
	if err := s.repo.MarkPublished(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		emails, err := s.repo.TenantEmails(ctx, a.PropertyID)
		if err != nil {
			s.logger.Error("announcement fan-out failed", slog.Int64("id", id), slog.Any("error", err))
		} else {
			for _, email := range emails {
				if err := s.notifier.EnqueueEmail(ctx, email, a.Title, a.Body); err != nil {
					s.logger.Error("announcement enqueue failed",
						slog.Int64("id", id), slog.String("to", email), slog.Any("error", err))
				}
			}
		}
	}
	return s.repo.Get(ctx, id)
}
