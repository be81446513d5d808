package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/metrics"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
)

func newService(t *testing.T, st Store) *Service {
	t.Helper()
	return NewService(st, NewLocalLocker(2*time.Second), testRules(t),
		WithClock(func() time.Time { return fixedNow }))
}

func appointment(t *testing.T, doctorID, date, clock string) *models.Appointment {
	return &models.Appointment{
		UserID:   primitive.NewObjectID(),
		DoctorID: doctorID,
		Date:     day(t, date),
		Time:     clock,
		Reason:   "checkup",
	}
}

func TestBookSetsPending(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem)

	a := appointment(t, "doc", "2030-03-04", "10:00")
	require.NoError(t, svc.Book(context.Background(), a))
	assert.False(t, a.ID.IsZero())
	assert.Equal(t, models.StatusPending, a.Status)
	assert.Equal(t, fixedNow, a.CreatedAt)

	err := svc.Book(context.Background(), appointment(t, "doc", "2030-03-04", "10:20"))
	assert.ErrorIs(t, err, ErrSlotConflict)

	err = svc.Book(context.Background(), appointment(t, "doc", "2030-03-04", "10:00"))
	assert.ErrorIs(t, err, ErrDuplicateSlot)

	err = svc.Book(context.Background(), appointment(t, "doc", "2030-03-09", "10:00"))
	assert.ErrorIs(t, err, ErrWeekend)
}

func TestBookConcurrentConflictingSlots(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem)

	clocks := []string{"10:00", "10:05", "10:10", "10:15", "10:20", "10:25"}
	var wg sync.WaitGroup
	var booked atomic.Int32
	for _, clock := range clocks {
		wg.Add(1)
		go func(clock string) {
			defer wg.Done()
			if err := svc.Book(context.Background(), appointment(t, "doc", "2030-03-04", clock)); err == nil {
				booked.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrSlotConflict)
			}
		}(clock)
	}
	wg.Wait()

	assert.EqualValues(t, 1, booked.Load())
	list, err := mem.ActiveForDoctor(context.Background(), "doc", day(t, "2030-03-04"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type racingStore struct {
	*store.Memory
}

func (racingStore) ActiveForDoctor(context.Context, string, time.Time) ([]models.Appointment, error) {
	return nil, nil
}

func (racingStore) CreateAppointment(context.Context, *models.Appointment) error {
	return store.ErrDuplicate
}

func TestBookMapsStoreDuplicate(t *testing.T) {
	svc := newService(t, racingStore{store.NewMemory()})
	err := svc.Book(context.Background(), appointment(t, "doc", "2030-03-04", "10:00"))
	assert.ErrorIs(t, err, ErrDuplicateSlot)
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) { return nil, ErrLockTimeout }

func TestBookRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	svc := NewService(store.NewMemory(), failingLocker{}, testRules(t), WithMetrics(m))

	err := svc.Book(context.Background(), appointment(t, "doc", "2030-03-04", "10:00"))
	assert.ErrorIs(t, err, ErrLockTimeout)

	err = svc.Book(context.Background(), appointment(t, "doc", "2030-03-04", "25:00"))
	assert.ErrorIs(t, err, ErrInvalidTime)

	count, err := testutil.GatherAndCount(reg, "medbook_booking_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTransition(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem)
	ctx := context.Background()

	a := appointment(t, "doc", "2030-03-04", "10:00")
	require.NoError(t, svc.Book(ctx, a))

	_, err := svc.Transition(ctx, a.ID, models.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	confirmed, err := svc.Transition(ctx, a.ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	cancelled, err := svc.Transition(ctx, a.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, fixedNow, *cancelled.CancelledAt)

	_, err = svc.Transition(ctx, a.ID, models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Transition(ctx, primitive.NewObjectID(), models.StatusCancelled)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	// The cancelled slot is free again.
	require.NoError(t, svc.Book(ctx, appointment(t, "doc", "2030-03-04", "10:00")))
}

func TestServiceAvailability(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(t, mem)
	ctx := context.Background()
	require.NoError(t, svc.Book(ctx, appointment(t, "doc", "2030-03-04", "11:00")))

	slots, err := svc.Availability(ctx, "doc", day(t, "2030-03-04"))
	require.NoError(t, err)
	for _, s := range slots {
		if s.Time == "11:00" {
			assert.False(t, s.Available)
		}
	}
}
