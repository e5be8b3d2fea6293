package amenities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

type Service struct {
	repo Repository
	gate *authz.Gate
}

func NewService(repo Repository, gate *authz.Gate) *Service {
	return &Service{repo: repo, gate: gate}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func (s *Service) ListByProperty(ctx context.Context, propertyID int64) ([]Amenity, error) {
	return s.repo.ListByProperty(ctx, propertyID)
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateAmenityRequest) (*Amenity, error) {
	if d := s.gate.Authorize(p, authz.PermAmenityManage, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, Amenity{
		PropertyID:  req.PropertyID,
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		IsActive:    true,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdateAmenityRequest) (*Amenity, error) {
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
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Capacity != nil {
		a.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, *a); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Book reserves an amenity slot for the calling tenant. Overlapping
// confirmed bookings on the same amenity are rejected.
func (s *Service) Book(ctx context.Context, p *authz.Principal, amenityID int64, req BookAmenityRequest) (*Booking, error) {
	if d := s.gate.Authorize(p, authz.PermAmenityBook, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("booking end must be after start: %w", httpx.ErrValidation)
	}
	if p.TenantID == 0 {
		return nil, fmt.Errorf("no tenant profile: %w", httpx.ErrForbidden)
	}
	a, err := s.repo.Get(ctx, amenityID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, fmt.Errorf("amenity %q is unavailable: %w", a.Name, httpx.ErrConflict)
	}
	id, err := s.repo.Book(ctx, Booking{
		AmenityID: amenityID,
		TenantID:  p.TenantID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Status:    BookingConfirmed,
	})
	if err != nil {
		if errors.Is(err, ErrOverlap) {
			return nil, fmt.Errorf("slot already booked: %w", httpx.ErrConflict)
		}
		return nil, err
	}
	return s.repo.GetBooking(ctx, id)
}

// CancelBooking is allowed for the booking's tenant or an amenity
// manager.
func (s *Service) CancelBooking(ctx context.Context, p *authz.Principal, bookingID int64) error {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	manage := s.gate.Authorize(p, authz.PermAmenityManage, nil)
	if !manage.Allowed {
		own := s.gate.Authorize(p, authz.PermAmenityBook, nil)
		if !own.Allowed || p.TenantID == 0 || p.TenantID != b.TenantID {
			return fmt.Errorf("insufficient permissions: %s: %w", authz.PermAmenityManage, httpx.ErrForbidden)
		}
	}
	return s.repo.CancelBooking(ctx, bookingID)
}

func (s *Service) Bookings(ctx context.Context, amenityID int64, from, to time.Time) ([]Booking, error) {
	return s.repo.ListBookings(ctx, amenityID, from, to)
}
