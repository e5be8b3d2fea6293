package amenities

import "time"

type Amenity struct {
	ID          int64     `json:"id"`
	PropertyID  int64     `json:"property_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

type Booking struct {
	ID        int64         `json:"id"`
	AmenityID int64         `json:"amenity_id"`
	TenantID  int64         `json:"tenant_id"`
	StartsAt  time.Time     `json:"starts_at"`
	EndsAt    time.Time     `json:"ends_at"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// Overlaps reports whether two half-open intervals [a.StartsAt,
// a.EndsAt) and [b.StartsAt, b.EndsAt) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
