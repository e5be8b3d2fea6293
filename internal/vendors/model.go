package vendors

import "time"

type Vendor struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contact_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Category     string    `json:"category"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Rating is one performance review left after an approved work order.
type Rating struct {
	ID          int64     `json:"id"`
	VendorID    int64     `json:"vendor_id"`
	WorkOrderID int64     `json:"work_order_id"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	RatedBy     int64     `json:"rated_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Performance carries the derived vendor metrics.
type Performance struct {
	VendorID           int64   `json:"vendor_id"`
	CompletedOrders    int     `json:"completed_orders"`
	AvgCompletionDays  float64 `json:"avg_completion_days"`
	AvgRating          float64 `json:"avg_rating"`
	RatingCount        int     `json:"rating_count"`
}
