package vendors

type CreateVendorRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required,max=32"`
	Category    string `json:"category" validate:"required,max=64"`
}

type UpdateVendorRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=100"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=64"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type RateVendorRequest struct {
	WorkOrderID int64  `json:"work_order_id" validate:"required"`
	Score       int    `json:"score" validate:"required,gte=1,lte=5"`
	Comment     string `json:"comment,omitempty" validate:"max=2000"`
}
