package dashboard

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/workorders"
)

type mockRepo struct {
	occupancy      []PropertyOccupancy
	occupancyCalls int
	lastScope      []int64
	assets         []Asset
	assetCalls     int
}

func (m *mockRepo) Occupancy(_ context.Context, propertyIDs []int64) ([]PropertyOccupancy, error) {
	m.occupancyCalls++
	m.lastScope = propertyIDs
	return m.occupancy, nil
}

func (m *mockRepo) Assets(_ context.Context, propertyIDs []int64) ([]Asset, error) {
	m.assetCalls++
	return m.assets, nil
}

type mockCounter struct {
	counts  map[workorders.Priority]int
	overdue int
	calls   int
}

func (m *mockCounter) CountOpenByPriority(context.Context) (map[workorders.Priority]int, error) {
	m.calls++
	return m.counts, nil
}

func (m *mockCounter) CountOverdue(context.Context) (int, error) {
	return m.overdue, nil
}

type mockReporter struct {
	report *finance.MonthlyReport
	err    error
}

func (m *mockReporter) MonthlyReport(context.Context, *authz.Principal, finance.ReportRequest) (*finance.MonthlyReport, error) {
	return m.report, m.err
}

func newDashboardService(t *testing.T, repo Repository, counter MaintenanceCounter, reporter FinanceReporter) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	gate := authz.NewGate(authz.NewMatrix(), nil)
	return NewService(slog.Default(), repo, cache, counter, reporter, gate)
}

func adminPrincipal() *authz.Principal {
	return &authz.Principal{UserID: 1, Role: authz.RoleSuperAdmin}
}

func TestOccupancyAggregatesAndCaches(t *testing.T) {
	repo := &mockRepo{occupancy: []PropertyOccupancy{
		{PropertyID: 1, PropertyName: "North Tower", TotalUnits: 10, OccupiedUnits: 8, VacantUnits: 2},
		{PropertyID: 2, PropertyName: "South Tower", TotalUnits: 10, OccupiedUnits: 4, VacantUnits: 6},
	}}
	svc := newDashboardService(t, repo, &mockCounter{}, &mockReporter{})

	summary, err := svc.Occupancy(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, 20, summary.TotalUnits)
	assert.Equal(t, 12, summary.OccupiedUnits)
	assert.InDelta(t, 0.6, summary.OccupancyRate, 0.001)

	_, err = svc.Occupancy(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.occupancyCalls, "second read comes from cache")
}

func TestInvalidateForcesRebuild(t *testing.T) {
	repo := &mockRepo{occupancy: []PropertyOccupancy{{PropertyID: 1, TotalUnits: 5, OccupiedUnits: 5}}}
	svc := newDashboardService(t, repo, &mockCounter{}, &mockReporter{})

	_, err := svc.Occupancy(context.Background(), adminPrincipal())
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.Occupancy(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.occupancyCalls)
}

func TestOccupancyScopedToAssignedProperties(t *testing.T) {
	repo := &mockRepo{occupancy: []PropertyOccupancy{{PropertyID: 3, TotalUnits: 4, OccupiedUnits: 2}}}
	svc := newDashboardService(t, repo, &mockCounter{}, &mockReporter{})

	pm := &authz.Principal{UserID: 5, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{3, 1}}
	_, err := svc.Occupancy(context.Background(), pm)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, repo.lastScope, "assigned ids are passed to the query sorted")

	unassigned := &authz.Principal{UserID: 6, Role: authz.RolePropertyManager}
	summary, err := svc.Occupancy(context.Background(), unassigned)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalUnits)
	assert.Equal(t, 1, repo.occupancyCalls, "no query for an empty assignment set")
}

func TestStraightLineDepreciation(t *testing.T) {
	asset := Asset{
		CostCents:       1_200_000,
		SalvageCents:    200_000,
		UsefulLifeYears: 10,
		AcquiredAt:      time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC),
	}

	entry := DepreciateStraightLine(asset, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, int64(100_000), entry.AnnualCents)
	assert.Equal(t, int64(200_000), entry.AccumulatedCents, "two full years elapsed")
	assert.Equal(t, int64(1_000_000), entry.BookValueCents)

	// far past useful life: floor at salvage value
	worn := DepreciateStraightLine(asset, time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, int64(200_000), worn.BookValueCents)

	// acquired in the future: nothing depreciated yet
	fresh := DepreciateStraightLine(asset, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, fresh.AccumulatedCents)
	assert.Equal(t, asset.CostCents, fresh.BookValueCents)
}

func TestOverviewOmitsCardsWithoutAccess(t *testing.T) {
	repo := &mockRepo{occupancy: []PropertyOccupancy{{PropertyID: 1, TotalUnits: 2, OccupiedUnits: 1}}}
	counter := &mockCounter{counts: map[workorders.Priority]int{workorders.PriorityHigh: 3}, overdue: 2}
	reporter := &mockReporter{err: denyErr(authz.Decision{Permission: authz.PermFinancialReport})}
	svc := newDashboardService(t, repo, counter, reporter)

	pm := &authz.Principal{UserID: 5, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{1}}
	overview, err := svc.Overview(context.Background(), pm, 2026, 8)
	require.NoError(t, err)
	assert.Nil(t, overview.Finance, "finance card dropped on forbidden")
	require.NotNil(t, overview.Maintenance)
	assert.Equal(t, 3, overview.Maintenance.TotalOpen)
	assert.Equal(t, 2, overview.Maintenance.TotalOverdue)

	full := &mockReporter{report: &finance.MonthlyReport{Month: "2026-08"}}
	svc = newDashboardService(t, repo, counter, full)
	overview, err = svc.Overview(context.Background(), adminPrincipal(), 2026, 8)
	require.NoError(t, err)
	require.NotNil(t, overview.Finance)
	assert.Equal(t, "2026-08", overview.Finance.Month)
}

func TestMaintenanceDeniedWithoutWorkOrderRead(t *testing.T) {
	svc := newDashboardService(t, &mockRepo{}, &mockCounter{}, &mockReporter{})
	tenant := &authz.Principal{UserID: 9, Role: authz.RoleTenant, TenantID: 1}
	_, err := svc.Maintenance(context.Background(), tenant)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}
