package properties

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

// Service wraps property business rules behind the authorization gate.
type Service struct {
	repo  Repository
	gate  *authz.Gate
	audit *shared.AuditLogger
}

func NewService(repo Repository, gate *authz.Gate, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, gate: gate, audit: audit}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

func propertyRef(id int64) *authz.ResourceRef {
	return &authz.ResourceRef{PropertyID: id}
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id int64) (*Property, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyRead, propertyRef(id)); !d.Allowed {
		return nil, denyErr(d)
	}
	prop, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// List applies the assignment restriction for scoped principals: a
// property manager only ever sees the properties assigned to them.
func (s *Service) List(ctx context.Context, p *authz.Principal, req ListPropertiesRequest) ([]Property, int, error) {
	d := s.gate.Authorize(p, authz.PermPropertyRead, nil)
	if !d.Allowed {
		return nil, 0, denyErr(d)
	}
	if d.Permission.Scope() == authz.ScopeAssigned {
		if len(p.AssignedPropertyIDs) == 0 {
			return nil, 0, nil
		}
		req.restrictToIDs = p.AssignedPropertyIDs
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreatePropertyRequest) (*Property, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyCreate, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.Create(ctx, Property{
		Name:         req.Name,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		PropertyType: req.PropertyType,
		Notes:        req.Notes,
		CreatedBy:    p.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "property.create", "property", id, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *authz.Principal, id int64, req UpdatePropertyRequest) (*Property, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyUpdate, propertyRef(id)); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.AddressLine1 != nil {
		updates["address_line1"] = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		updates["address_line2"] = *req.AddressLine2
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.PropertyType != nil {
		updates["property_type"] = *req.PropertyType
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, p, "property.update", "property", id, map[string]any{"fields": len(updates)})
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, p *authz.Principal, id int64) error {
	if d := s.gate.Authorize(p, authz.PermPropertyDelete, propertyRef(id)); !d.Allowed {
		return denyErr(d)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "property.delete", "property", id, nil)
	return nil
}

func (s *Service) ListUnits(ctx context.Context, p *authz.Principal, propertyID int64) ([]Unit, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyRead, propertyRef(propertyID)); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.ListUnits(ctx, propertyID)
}

func (s *Service) CreateUnit(ctx context.Context, p *authz.Principal, propertyID int64, req CreateUnitRequest) (*Unit, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyUpdate, propertyRef(propertyID)); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.CreateUnit(ctx, Unit{
		PropertyID:  propertyID,
		UnitNumber:  req.UnitNumber,
		Floor:       req.Floor,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaSqm:     req.AreaSqm,
		MonthlyRent: req.MonthlyRent,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, p, "unit.create", "unit", id, map[string]any{"property_id": propertyID})
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) UpdateUnit(ctx context.Context, p *authz.Principal, unitID int64, req UpdateUnitRequest) (*Unit, error) {
	unit, err := s.repo.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermPropertyUpdate, propertyRef(unit.PropertyID)); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}

	updates := map[string]interface{}{}
	if req.Floor != nil {
		updates["floor"] = *req.Floor
	}
	if req.Bedrooms != nil {
		updates["bedrooms"] = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		updates["bathrooms"] = *req.Bathrooms
	}
	if req.AreaSqm != nil {
		updates["area_sqm"] = *req.AreaSqm
	}
	if req.MonthlyRent != nil {
		updates["monthly_rent"] = *req.MonthlyRent
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateUnit(ctx, unitID, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.GetUnit(ctx, unitID)
}

func (s *Service) ListParkingSpots(ctx context.Context, p *authz.Principal, propertyID int64) ([]ParkingSpot, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyRead, propertyRef(propertyID)); !d.Allowed {
		return nil, denyErr(d)
	}
	return s.repo.ListParkingSpots(ctx, propertyID)
}

func (s *Service) CreateParkingSpot(ctx context.Context, p *authz.Principal, propertyID int64, req CreateParkingSpotRequest) (*ParkingSpot, error) {
	if d := s.gate.Authorize(p, authz.PermPropertyUpdate, propertyRef(propertyID)); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), httpx.ErrValidation)
	}
	id, err := s.repo.CreateParkingSpot(ctx, ParkingSpot{PropertyID: propertyID, SpotNumber: req.SpotNumber, Level: req.Level})
	if err != nil {
		return nil, err
	}
	return s.repo.GetParkingSpot(ctx, id)
}

func (s *Service) AssignParkingSpot(ctx context.Context, p *authz.Principal, spotID int64, req AssignParkingSpotRequest) (*ParkingSpot, error) {
	spot, err := s.repo.GetParkingSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if d := s.gate.Authorize(p, authz.PermPropertyUpdate, propertyRef(spot.PropertyID)); !d.Allowed {
		return nil, denyErr(d)
	}
	if err := s.repo.SetParkingSpotTenant(ctx, spotID, req.TenantID); err != nil {
		return nil, err
	}
	return s.repo.GetParkingSpot(ctx, spotID)
}

func (s *Service) recordAudit(ctx context.Context, p *authz.Principal, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
