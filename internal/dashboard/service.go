package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/workorders"
)

// MaintenanceCounter is satisfied by the work order service.
type MaintenanceCounter interface {
	CountOpenByPriority(ctx context.Context) (map[workorders.Priority]int, error)
	CountOverdue(ctx context.Context) (int, error)
}

// FinanceReporter is satisfied by the finance service; it carries its
// own permission and scope handling.
type FinanceReporter interface {
	MonthlyReport(ctx context.Context, p *authz.Principal, req finance.ReportRequest) (*finance.MonthlyReport, error)
}

type Service struct {
	logger      *slog.Logger
	repo        Repository
	cache       *Cache
	maintenance MaintenanceCounter
	reporter    FinanceReporter
	gate        *authz.Gate
	builds      singleflight.Group
}

func NewService(logger *slog.Logger, repo Repository, cache *Cache, maintenance MaintenanceCounter, reporter FinanceReporter, gate *authz.Gate) *Service {
	return &Service{
		logger:      logger,
		repo:        repo,
		cache:       cache,
		maintenance: maintenance,
		reporter:    reporter,
		gate:        gate,
	}
}

func denyErr(d authz.Decision) error {
	return fmt.Errorf("insufficient permissions: %s: %w", d.Permission, httpx.ErrForbidden)
}

// singleflightBuild collapses concurrent builds of the same cache key
// into one loader execution.
func (s *Service) singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	resultChan := s.builds.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

// propertyScope resolves which properties the principal may aggregate
// over. nil means unrestricted; an empty non-nil slice means nothing.
func (s *Service) propertyScope(p *authz.Principal) ([]int64, error) {
	d := s.gate.Authorize(p, authz.PermPropertyRead, nil)
	if !d.Allowed {
		return nil, denyErr(d)
	}
	if d.Permission.Scope() != "assigned" {
		return nil, nil
	}
	ids := make([]int64, len(p.AssignedPropertyIDs))
	copy(ids, p.AssignedPropertyIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Service) Occupancy(ctx context.Context, p *authz.Principal) (*OccupancySummary, error) {
	scope, err := s.propertyScope(p)
	if err != nil {
		return nil, err
	}
	if scope != nil && len(scope) == 0 {
		return &OccupancySummary{}, nil
	}

	key, err := s.cache.BuildKey(ctx, keyOccupancy(scope))
	if err != nil {
		return nil, err
	}
	var summary OccupancySummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		v, err := s.singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
			return s.buildOccupancy(ctx, scope)
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) buildOccupancy(ctx context.Context, scope []int64) (*OccupancySummary, error) {
	properties, err := s.repo.Occupancy(ctx, scope)
	if err != nil {
		return nil, err
	}
	summary := OccupancySummary{Properties: properties}
	for _, po := range properties {
		summary.TotalUnits += po.TotalUnits
		summary.OccupiedUnits += po.OccupiedUnits
	}
	if summary.TotalUnits > 0 {
		summary.OccupancyRate = float64(summary.OccupiedUnits) / float64(summary.TotalUnits)
	}
	return &summary, nil
}

func (s *Service) Maintenance(ctx context.Context, p *authz.Principal) (*MaintenanceSummary, error) {
	d := s.gate.Authorize(p, authz.PermWorkOrderRead, nil)
	if !d.Allowed {
		return nil, denyErr(d)
	}
	// The aggregate spans every work order; scoped grants only cover
	// the principal's own or assigned rows.
	if d.Permission.Scope() != "" {
		return nil, denyErr(authz.Deny(d.Permission, authz.ReasonScopeViolation))
	}

	key, err := s.cache.BuildKey(ctx, keyMaintenance())
	if err != nil {
		return nil, err
	}
	var summary MaintenanceSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		v, err := s.singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
			counts, err := s.maintenance.CountOpenByPriority(ctx)
			if err != nil {
				return nil, err
			}
			overdue, err := s.maintenance.CountOverdue(ctx)
			if err != nil {
				return nil, err
			}
			out := MaintenanceSummary{OpenByPriority: counts, TotalOverdue: overdue}
			for _, n := range counts {
				out.TotalOpen += n
			}
			return &out, nil
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Depreciation reports straight-line book values as of the given date.
func (s *Service) Depreciation(ctx context.Context, p *authz.Principal, asOf time.Time) (*DepreciationSummary, error) {
	if d := s.gate.Authorize(p, authz.PermFinancialReport, nil); !d.Allowed {
		return nil, denyErr(d)
	}
	scope, err := s.propertyScope(p)
	if err != nil {
		return nil, err
	}
	if scope != nil && len(scope) == 0 {
		return &DepreciationSummary{AsOf: asOf}, nil
	}

	key, err := s.cache.BuildKey(ctx, keyDepreciation(scope, asOf))
	if err != nil {
		return nil, err
	}
	var summary DepreciationSummary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		v, err := s.singleflightBuild(ctx, key, func(ctx context.Context) (interface{}, error) {
			return s.buildDepreciation(ctx, scope, asOf)
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) buildDepreciation(ctx context.Context, scope []int64, asOf time.Time) (*DepreciationSummary, error) {
	assets, err := s.repo.Assets(ctx, scope)
	if err != nil {
		return nil, err
	}
	summary := DepreciationSummary{AsOf: asOf}
	for _, a := range assets {
		entry := DepreciateStraightLine(a, asOf)
		summary.Assets = append(summary.Assets, entry)
		summary.TotalBookCents += entry.BookValueCents
	}
	return &summary, nil
}

// DepreciateStraightLine computes accumulated depreciation month by
// month. Book value never drops below salvage.
func DepreciateStraightLine(a Asset, asOf time.Time) AssetDepreciation {
	entry := AssetDepreciation{Asset: a, BookValueCents: a.CostCents}
	if a.UsefulLifeYears <= 0 || a.CostCents <= a.SalvageCents {
		return entry
	}
	entry.AnnualCents = (a.CostCents - a.SalvageCents) / int64(a.UsefulLifeYears)

	months := monthsBetween(a.AcquiredAt, asOf)
	if months <= 0 {
		return entry
	}
	accumulated := entry.AnnualCents * int64(months) / 12
	if max := a.CostCents - a.SalvageCents; accumulated > max {
		accumulated = max
	}
	entry.AccumulatedCents = accumulated
	entry.BookValueCents = a.CostCents - accumulated
	return entry
}

func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

// Invalidate drops every cached card via a version bump. Writers call
// it after mutations that change the aggregates.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) Finance(ctx context.Context, p *authz.Principal, year, month int) (*finance.MonthlyReport, error) {
	return s.reporter.MonthlyReport(ctx, p, finance.ReportRequest{Year: year, Month: month})
}

// Overview bundles every card for the landing page. A finance-level
// denial leaves the finance card empty rather than failing the page.
func (s *Service) Overview(ctx context.Context, p *authz.Principal, year, month int) (*Overview, error) {
	occupancy, err := s.Occupancy(ctx, p)
	if err != nil {
		return nil, err
	}
	out := &Overview{Occupancy: *occupancy}

	maintenance, err := s.Maintenance(ctx, p)
	switch {
	case err == nil:
		out.Maintenance = maintenance
	case errors.Is(err, httpx.ErrForbidden):
	default:
		return nil, err
	}

	report, err := s.Finance(ctx, p, year, month)
	switch {
	case err == nil:
		out.Finance = report
	case errors.Is(err, httpx.ErrForbidden):
	default:
		return nil, err
	}
	return out, nil
}
