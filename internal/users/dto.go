package users

import "github.com/ultra-bms/ultra-bms/internal/authz"

type CreateUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	FullName string     `json:"full_name" validate:"required,min=2,max=200"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     authz.Role `json:"role" validate:"required"`
	Phone    *string    `json:"phone,omitempty" validate:"omitempty,max=40"`
	TenantID *int64     `json:"tenant_id,omitempty"`
	VendorID *int64     `json:"vendor_id,omitempty"`
}

type UpdateUserRequest struct {
	FullName string  `json:"full_name" validate:"required,min=2,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

type ChangeRoleRequest struct {
	Role authz.Role `json:"role" validate:"required"`
}

type AssignPropertiesRequest struct {
	PropertyIDs []int64 `json:"property_ids" validate:"required,dive,gt=0"`
}

type ListUsersRequest struct {
	Role     authz.Role `json:"role,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
	Search   string     `json:"search,omitempty"`
	Limit    int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int        `json:"offset" validate:"gte=0"`
}
