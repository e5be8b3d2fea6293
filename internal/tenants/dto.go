package tenants

import "time"

type CreateTenantRequest struct {
	FirstName  string     `json:"first_name" validate:"required,max=100"`
	LastName   string     `json:"last_name" validate:"required,max=100"`
	Email      string     `json:"email" validate:"required,email"`
	Phone      string     `json:"phone" validate:"required,max=32"`
	PropertyID *int64     `json:"property_id,omitempty"`
	UnitID     *int64     `json:"unit_id,omitempty"`
	MoveInDate *time.Time `json:"move_in_date,omitempty"`
}

type UpdateTenantRequest struct {
	FirstName  *string    `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName   *string    `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone      *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	PropertyID *int64     `json:"property_id,omitempty"`
	UnitID     *int64     `json:"unit_id,omitempty"`
	MoveInDate *time.Time `json:"move_in_date,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}

type ListTenantsRequest struct {
	PropertyID *int64  `json:"property_id,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
	Search     *string `json:"search,omitempty"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}

type ListTenantsResponse struct {
	Tenants []Tenant `json:"tenants"`
	Total   int      `json:"total"`
}

type CreateLeadRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,max=32"`
	PropertyID *int64 `json:"property_id,omitempty"`
	UnitID     *int64 `json:"unit_id,omitempty"`
	Source     string `json:"source" validate:"required,max=64"`
	Notes      string `json:"notes,omitempty" validate:"max=2000"`
}

type UpdateLeadRequest struct {
	Status *LeadStatus `json:"status,omitempty"`
	Notes  *string     `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ConvertLeadRequest carries the lease terms for the tenancy created
// when a lead signs. Rent and deposit amounts are in cents.
type ConvertLeadRequest struct {
	UnitID          int64     `json:"unit_id" validate:"required"`
	PropertyID      int64     `json:"property_id" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	MonthlyRent     int64     `json:"monthly_rent_cents" validate:"required,gt=0"`
	SecurityDeposit int64     `json:"security_deposit_cents" validate:"gte=0"`
	TempPassword    string    `json:"temp_password" validate:"required,min=8"`
}

type ConvertLeadResponse struct {
	Tenant Tenant `json:"tenant"`
	Lease  Lease  `json:"lease"`
	UserID int64  `json:"user_id"`
}

type CreateLeaseRequest struct {
	TenantID        int64     `json:"tenant_id" validate:"required"`
	PropertyID      int64     `json:"property_id" validate:"required"`
	UnitID          int64     `json:"unit_id" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	MonthlyRent     int64     `json:"monthly_rent_cents" validate:"required,gt=0"`
	SecurityDeposit int64     `json:"security_deposit_cents" validate:"gte=0"`
}

type RenewLeaseRequest struct {
	EndDate     time.Time `json:"end_date" validate:"required"`
	MonthlyRent *int64    `json:"monthly_rent_cents,omitempty" validate:"omitempty,gt=0"`
}
