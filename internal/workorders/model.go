package workorders

import "time"

// Status follows the work order lifecycle. Approve and cancel are the
// only terminal transitions.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusApproved   Status = "APPROVED"
	StatusCancelled  Status = "CANCELLED"
)

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// transitions maps each status to the set it may move to. Assigning is
// modelled separately because it also sets the vendor.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusOpen, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusApproved, StatusInProgress},
	StatusApproved:   {},
	StatusCancelled:  {},
}

// ResponseSLA is the window a work order may stay open before it
// counts as overdue on the maintenance dashboard.
func ResponseSLA(p Priority) time.Duration {
	switch p {
	case PriorityCritical:
		return 24 * time.Hour
	case PriorityHigh:
		return 3 * 24 * time.Hour
	case PriorityMedium:
		return 7 * 24 * time.Hour
	default:
		return 14 * 24 * time.Hour
	}
}

// Overdue reports whether an unresolved work order has exceeded its
// response SLA.
func (wo *WorkOrder) Overdue(now time.Time) bool {
	switch wo.Status {
	case StatusApproved, StatusCancelled:
		return false
	}
	return now.Sub(wo.CreatedAt) > ResponseSLA(wo.Priority)
}

// CanTransition reports whether moving from one status to another is a
// legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type WorkOrder struct {
	ID          int64      `json:"id"`
	PropertyID  int64      `json:"property_id"`
	UnitID      *int64     `json:"unit_id,omitempty"`
	TenantID    *int64     `json:"tenant_id,omitempty"`
	VendorID    *int64     `json:"vendor_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedBy   int64      `json:"created_by"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ApprovedBy  *int64     `json:"approved_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
