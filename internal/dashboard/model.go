package dashboard

import (
	"time"

	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/workorders"
)

type PropertyOccupancy struct {
	PropertyID       int64   `json:"property_id"`
	PropertyName     string  `json:"property_name"`
	TotalUnits       int     `json:"total_units"`
	OccupiedUnits    int     `json:"occupied_units"`
	VacantUnits      int     `json:"vacant_units"`
	MaintenanceUnits int     `json:"maintenance_units"`
	OccupancyRate    float64 `json:"occupancy_rate"`
}

type OccupancySummary struct {
	Properties    []PropertyOccupancy `json:"properties"`
	TotalUnits    int                 `json:"total_units"`
	OccupiedUnits int                 `json:"occupied_units"`
	OccupancyRate float64             `json:"occupancy_rate"`
}

type MaintenanceSummary struct {
	OpenByPriority map[workorders.Priority]int `json:"open_by_priority"`
	TotalOpen      int                         `json:"total_open"`
	TotalOverdue   int                         `json:"total_overdue"`
}

// Asset is a depreciable building asset (HVAC, elevator, generator).
type Asset struct {
	ID              int64     `json:"id"`
	PropertyID      int64     `json:"property_id"`
	Name            string    `json:"name"`
	CostCents       int64     `json:"cost_cents"`
	SalvageCents    int64     `json:"salvage_cents"`
	UsefulLifeYears int       `json:"useful_life_years"`
	AcquiredAt      time.Time `json:"acquired_at"`
}

type AssetDepreciation struct {
	Asset            Asset `json:"asset"`
	AnnualCents      int64 `json:"annual_depreciation_cents"`
	AccumulatedCents int64 `json:"accumulated_depreciation_cents"`
	BookValueCents   int64 `json:"book_value_cents"`
}

type DepreciationSummary struct {
	AsOf           time.Time           `json:"as_of"`
	Assets         []AssetDepreciation `json:"assets"`
	TotalBookCents int64               `json:"total_book_value_cents"`
}

type Overview struct {
	Occupancy   OccupancySummary       `json:"occupancy"`
	Maintenance *MaintenanceSummary    `json:"maintenance,omitempty"`
	Finance     *finance.MonthlyReport `json:"finance,omitempty"`
}
