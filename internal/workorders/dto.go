package workorders

type CreateWorkOrderRequest struct {
	PropertyID  int64    `json:"property_id" validate:"required"`
	UnitID      *int64   `json:"unit_id,omitempty"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=4000"`
	Category    string   `json:"category" validate:"required,max=64"`
	Priority    Priority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
}

type UpdateWorkOrderRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=4000"`
	Priority    *Priority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Status      *Status   `json:"status,omitempty" validate:"omitempty,oneof=OPEN ASSIGNED IN_PROGRESS COMPLETED APPROVED CANCELLED"`
}

type AssignWorkOrderRequest struct {
	VendorID int64 `json:"vendor_id" validate:"required"`
}

type ListWorkOrdersRequest struct {
	PropertyID *int64    `json:"property_id,omitempty"`
	Status     *Status   `json:"status,omitempty"`
	Priority   *Priority `json:"priority,omitempty"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
}

type ListWorkOrdersResponse struct {
	WorkOrders []WorkOrder `json:"work_orders"`
	Total      int         `json:"total"`
}
