package amenities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

type mockRepository struct {
	amenities     map[int64]*Amenity
	bookings      map[int64]*Booking
	nextAmenityID int64
	nextBookingID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		amenities:     make(map[int64]*Amenity),
		bookings:      make(map[int64]*Booking),
		nextAmenityID: 1,
		nextBookingID: 1,
	}
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Amenity, error) {
	a, ok := m.amenities[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepository) ListByProperty(_ context.Context, propertyID int64) ([]Amenity, error) {
	var out []Amenity
	for _, a := range m.amenities {
		if a.PropertyID == propertyID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, a Amenity) (int64, error) {
	a.ID = m.nextAmenityID
	m.nextAmenityID++
	m.amenities[a.ID] = &a
	return a.ID, nil
}

func (m *mockRepository) Update(_ context.Context, a Amenity) error {
	if _, ok := m.amenities[a.ID]; !ok {
		return ErrNotFound
	}
	m.amenities[a.ID] = &a
	return nil
}

func (m *mockRepository) GetBooking(_ context.Context, id int64) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepository) ListBookings(_ context.Context, amenityID int64, from, to time.Time) ([]Booking, error) {
	var out []Booking
	for _, b := range m.bookings {
		if b.AmenityID == amenityID && b.Status == BookingConfirmed && Overlaps(b.StartsAt, b.EndsAt, from, to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockRepository) Book(_ context.Context, b Booking) (int64, error) {
	for _, existing := range m.bookings {
		if existing.AmenityID == b.AmenityID && existing.Status == BookingConfirmed &&
			Overlaps(existing.StartsAt, existing.EndsAt, b.StartsAt, b.EndsAt) {
			return 0, ErrOverlap
		}
	}
	b.ID = m.nextBookingID
	m.nextBookingID++
	m.bookings[b.ID] = &b
	return b.ID, nil
}

func (m *mockRepository) CancelBooking(_ context.Context, id int64) error {
	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = BookingCancelled
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, authz.NewGate(authz.NewMatrix(), nil))
}

func tenantPrincipal(tenantID int64) *authz.Principal {
	return &authz.Principal{UserID: 40, Role: authz.RoleTenant, TenantID: tenantID}
}

func managerPrincipal() *authz.Principal {
	return &authz.Principal{UserID: 10, Role: authz.RolePropertyManager, AssignedPropertyIDs: []int64{1}}
}

func TestOverlappingBookingRejected(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	gym, err := svc.Create(ctx, managerPrincipal(), CreateAmenityRequest{
		PropertyID: 1, Name: "Gym", Capacity: 20,
	})
	require.NoError(t, err)

	start := time.Date(2026, 9, 2, 18, 0, 0, 0, time.UTC)
	_, err = svc.Book(ctx, tenantPrincipal(5), gym.ID, BookAmenityRequest{
		StartsAt: start, EndsAt: start.Add(time.Hour),
	})
	require.NoError(t, err)

	// A second booking overlapping the middle of the slot is refused.
	_, err = svc.Book(ctx, tenantPrincipal(6), gym.ID, BookAmenityRequest{
		StartsAt: start.Add(30 * time.Minute), EndsAt: start.Add(90 * time.Minute),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))

	// A booking starting exactly when the first ends is fine.
	_, err = svc.Book(ctx, tenantPrincipal(6), gym.ID, BookAmenityRequest{
		StartsAt: start.Add(time.Hour), EndsAt: start.Add(2 * time.Hour),
	})
	require.NoError(t, err)
}

func TestCancelledBookingFreesSlot(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	pool, err := svc.Create(ctx, managerPrincipal(), CreateAmenityRequest{
		PropertyID: 1, Name: "Pool", Capacity: 10,
	})
	require.NoError(t, err)

	start := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	booking, err := svc.Book(ctx, tenantPrincipal(5), pool.ID, BookAmenityRequest{
		StartsAt: start, EndsAt: start.Add(time.Hour),
	})
	require.NoError(t, err)

	// Another tenant cannot cancel someone else's booking.
	err = svc.CancelBooking(ctx, tenantPrincipal(6), booking.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	require.NoError(t, svc.CancelBooking(ctx, tenantPrincipal(5), booking.ID))

	_, err = svc.Book(ctx, tenantPrincipal(6), pool.ID, BookAmenityRequest{
		StartsAt: start, EndsAt: start.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestInactiveAmenityNotBookable(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	sauna, err := svc.Create(ctx, managerPrincipal(), CreateAmenityRequest{
		PropertyID: 1, Name: "Sauna", Capacity: 4,
	})
	require.NoError(t, err)

	off := false
	_, err = svc.Update(ctx, managerPrincipal(), sauna.ID, UpdateAmenityRequest{IsActive: &off})
	require.NoError(t, err)

	start := time.Now().UTC().Add(24 * time.Hour)
	_, err = svc.Book(ctx, tenantPrincipal(5), sauna.ID, BookAmenityRequest{
		StartsAt: start, EndsAt: start.Add(time.Hour),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}
