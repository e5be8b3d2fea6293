package users

import (
	"time"

	"github.com/ultra-bms/ultra-bms/internal/authz"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	Role         authz.Role `json:"role"`
	Phone        *string    `json:"phone,omitempty"`
	IsActive     bool       `json:"is_active"`
	TenantID     *int64     `json:"tenant_id,omitempty"`
	VendorID     *int64     `json:"vendor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
