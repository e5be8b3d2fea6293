package properties

import "time"

// Property statuses for units.
const (
	UnitStatusVacant      = "VACANT"
	UnitStatusOccupied    = "OCCUPIED"
	UnitStatusMaintenance = "MAINTENANCE"
)

// Parking spot statuses.
const (
	SpotStatusAvailable = "AVAILABLE"
	SpotStatusAssigned  = "ASSIGNED"
	SpotStatusBlocked   = "BLOCKED"
)

type Property struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	AddressLine1 string    `json:"address_line1" db:"address_line1"`
	AddressLine2 *string   `json:"address_line2,omitempty" db:"address_line2"`
	City         string    `json:"city" db:"city"`
	State        *string   `json:"state,omitempty" db:"state"`
	PostalCode   *string   `json:"postal_code,omitempty" db:"postal_code"`
	Country      string    `json:"country" db:"country"`
	PropertyType string    `json:"property_type" db:"property_type"`
	TotalUnits   int       `json:"total_units" db:"total_units"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedBy    int64     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Unit struct {
	ID          int64     `json:"id" db:"id"`
	PropertyID  int64     `json:"property_id" db:"property_id"`
	UnitNumber  string    `json:"unit_number" db:"unit_number"`
	Floor       int       `json:"floor" db:"floor"`
	Bedrooms    int       `json:"bedrooms" db:"bedrooms"`
	Bathrooms   int       `json:"bathrooms" db:"bathrooms"`
	AreaSqm     float64   `json:"area_sqm" db:"area_sqm"`
	MonthlyRent float64   `json:"monthly_rent" db:"monthly_rent"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type ParkingSpot struct {
	ID         int64     `json:"id" db:"id"`
	PropertyID int64     `json:"property_id" db:"property_id"`
	SpotNumber string    `json:"spot_number" db:"spot_number"`
	Level      int       `json:"level" db:"level"`
	Status     string    `json:"status" db:"status"`
	TenantID   *int64    `json:"tenant_id,omitempty" db:"tenant_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
