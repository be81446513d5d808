package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/metrics"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

// Store is the appointment persistence the booking service needs.
type Store interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	ActiveForDoctor(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error)
	TransitionAppointment(ctx context.Context, id primitive.ObjectID, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error)
}

// Service books appointments with the slot check and the insert performed
// under one per-doctor-day lock. The store's unique slot constraint rejects
// anything that slips past an expired lock.
type Service struct {
	store   Store
	locker  Locker
	rules   *Rules
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.BookingMetrics) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l *logging.Logger) Option { return func(s *Service) { s.logger = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(st Store, locker Locker, rules *Rules, opts ...Option) *Service {
	s := &Service{store: st, locker: locker, rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// Book validates a and inserts it as a pending appointment.
func (s *Service) Book(ctx context.Context, a *models.Appointment) error {
	err := s.book(ctx, a)
	s.metrics.ObserveBooking(outcome(err))
	return err
}

func (s *Service) book(ctx context.Context, a *models.Appointment) error {
	if _, err := ParseClock(a.Time); err != nil {
		return err
	}

	waitStart := time.Now()
	unlock, err := s.locker.Lock(ctx, SlotKey(a.DoctorID, a.Date))
	s.metrics.ObserveLockWait(time.Since(waitStart).Seconds())
	if err != nil {
		return err
	}
	defer unlock()

	existing, err := s.store.ActiveForDoctor(ctx, a.DoctorID, a.Date)
	if err != nil {
		return fmt.Errorf("booking: load doctor schedule: %w", err)
	}
	if err := s.rules.Check(Request{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}, existing); err != nil {
		s.logger.Info("booking rejected", "doctor_id", a.DoctorID, "date", a.Day(), "time", a.Time, "reason", err.Error())
		return err
	}

	a.Status = models.StatusPending
	a.CreatedAt = s.now().UTC()
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("booking: save appointment: %w", err)
	}
	s.logger.Info("appointment booked", "appointment_id", a.ID.Hex(), "doctor_id", a.DoctorID, "date", a.Day(), "time", a.Time)
	return nil
}

// Transition moves an appointment to status to, stamping the matching timestamp.
func (s *Service) Transition(ctx context.Context, id primitive.ObjectID, to models.AppointmentStatus) (*models.Appointment, error) {
	current, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}
	updated, err := s.store.TransitionAppointment(ctx, id, current.Status, to, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	s.metrics.ObserveTransition(string(to))
	s.logger.Info("appointment status changed", "appointment_id", id.Hex(), "from", current.Status, "to", to)
	return updated, nil
}

// Availability lists the bookable slots of a doctor on day.
func (s *Service) Availability(ctx context.Context, doctorID string, day time.Time) ([]Slot, error) {
	existing, err := s.store.ActiveForDoctor(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("booking: load doctor schedule: %w", err)
	}
	return s.rules.Availability(doctorID, day, existing), nil
}

func outcome(err error) string {
	if err == nil {
		return "booked"
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	if errors.Is(err, ErrLockTimeout) {
		return "lock_timeout"
	}
	return "error"
}
