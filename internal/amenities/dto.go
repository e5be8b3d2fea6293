package amenities

import "time"

type CreateAmenityRequest struct {
	PropertyID  int64  `json:"property_id" validate:"required"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
}

type UpdateAmenityRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type BookAmenityRequest struct {
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
}
