package tenants

import "time"

// LeadStatus tracks a prospect through the leasing funnel.
type LeadStatus string

const (
	LeadNew       LeadStatus = "NEW"
	LeadContacted LeadStatus = "CONTACTED"
	LeadViewing   LeadStatus = "VIEWING"
	LeadConverted LeadStatus = "CONVERTED"
	LeadLost      LeadStatus = "LOST"
)

// LeaseStatus values follow the lease lifecycle. A draft lease is
// produced by lead conversion and activated once signed.
type LeaseStatus string

const (
	LeaseDraft      LeaseStatus = "DRAFT"
	LeaseActive     LeaseStatus = "ACTIVE"
	LeaseExpired    LeaseStatus = "EXPIRED"
	LeaseTerminated LeaseStatus = "TERMINATED"
)

type Tenant struct {
	ID         int64      `json:"id"`
	UserID     *int64     `json:"user_id,omitempty"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	PropertyID *int64     `json:"property_id,omitempty"`
	UnitID     *int64     `json:"unit_id,omitempty"`
	MoveInDate *time.Time `json:"move_in_date,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Lead struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PropertyID   *int64     `json:"property_id,omitempty"`
	UnitID       *int64     `json:"unit_id,omitempty"`
	Status       LeadStatus `json:"status"`
	Source       string     `json:"source"`
	Notes        string     `json:"notes,omitempty"`
	ConvertedTenantID *int64 `json:"converted_tenant_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Lease struct {
	ID              int64       `json:"id"`
	TenantID        int64       `json:"tenant_id"`
	PropertyID      int64       `json:"property_id"`
	UnitID          int64       `json:"unit_id"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	MonthlyRent     int64       `json:"monthly_rent_cents"`
	SecurityDeposit int64       `json:"security_deposit_cents"`
	Status          LeaseStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
