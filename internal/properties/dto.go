package properties

type CreatePropertyRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	AddressLine1 string  `json:"address_line1" validate:"required,max=200"`
	AddressLine2 *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City         string  `json:"city" validate:"required,max=100"`
	State        *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode   *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country      string  `json:"country" validate:"required,len=2"`
	PropertyType string  `json:"property_type" validate:"required,oneof=RESIDENTIAL COMMERCIAL MIXED"`
	Notes        *string `json:"notes,omitempty"`
}

type UpdatePropertyRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=200"`
	AddressLine1 *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State        *string `json:"state,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Country      *string `json:"country,omitempty" validate:"omitempty,len=2"`
	PropertyType *string `json:"property_type,omitempty" validate:"omitempty,oneof=RESIDENTIAL COMMERCIAL MIXED"`
	IsActive     *bool   `json:"is_active,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type ListPropertiesRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`

	// restrictToIDs limits results to an assignment set; empty means
	// unrestricted. Populated by the service for scoped principals.
	restrictToIDs []int64
}

type CreateUnitRequest struct {
	UnitNumber  string  `json:"unit_number" validate:"required,max=20"`
	Floor       int     `json:"floor" validate:"gte=-5,lte=200"`
	Bedrooms    int     `json:"bedrooms" validate:"gte=0,lte=20"`
	Bathrooms   int     `json:"bathrooms" validate:"gte=0,lte=20"`
	AreaSqm     float64 `json:"area_sqm" validate:"gt=0"`
	MonthlyRent float64 `json:"monthly_rent" validate:"gte=0"`
}

type UpdateUnitRequest struct {
	Floor       *int     `json:"floor,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty" validate:"omitempty,gte=0,lte=20"`
	Bathrooms   *int     `json:"bathrooms,omitempty" validate:"omitempty,gte=0,lte=20"`
	AreaSqm     *float64 `json:"area_sqm,omitempty" validate:"omitempty,gt=0"`
	MonthlyRent *float64 `json:"monthly_rent,omitempty" validate:"omitempty,gte=0"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=VACANT OCCUPIED MAINTENANCE"`
}

type CreateParkingSpotRequest struct {
	SpotNumber string `json:"spot_number" validate:"required,max=20"`
	Level      int    `json:"level" validate:"gte=-10,lte=50"`
}

type AssignParkingSpotRequest struct {
	TenantID *int64 `json:"tenant_id"`
}

type ListPropertiesResponse struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
}
