// Package store persists users, appointments and medical records.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrStale is returned by conditional updates whose precondition no longer holds.
	ErrStale = errors.New("store: record changed concurrently")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	ReplaceUser(ctx context.Context, u *models.User) error
	ListDoctors(ctx context.Context, f DoctorFilter) ([]models.User, error)
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	// ActiveForDoctor returns the pending and confirmed appointments of a doctor on day.
	ActiveForDoctor(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error)
	// TransitionAppointment moves an appointment from one status to another and
	// stamps the matching timestamp. It returns ErrStale when the stored status
	// is no longer from.
	TransitionAppointment(ctx context.Context, id primitive.ObjectID, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error)
}

type RecordStore interface {
	CreateRecord(ctx context.Context, r *models.MedicalRecord) error
	GetRecord(ctx context.Context, id primitive.ObjectID) (*models.MedicalRecord, error)
	ReplaceRecord(ctx context.Context, r *models.MedicalRecord) error
	DeleteRecord(ctx context.Context, id primitive.ObjectID) error
	ListRecords(ctx context.Context, f RecordFilter) ([]models.MedicalRecord, error)
}

// Store is the full persistence surface used by handlers.
type Store interface {
	UserStore
	AppointmentStore
	RecordStore
	Ping(ctx context.Context) error
}

type DoctorFilter struct {
	Specialty string
	Query     string
}

type AppointmentFilter struct {
	UserID   *primitive.ObjectID
	DoctorID string
	Status   models.AppointmentStatus
	From     *time.Time
	To       *time.Time
	// Descending sorts newest first; default is oldest first.
	Descending bool
}

type RecordFilter struct {
	Patient    *primitive.ObjectID
	RecordType models.RecordType
	// FollowUpAfter selects records requiring a follow-up on or after the
	// given time, sorted by follow-up date ascending.
	FollowUpAfter *time.Time
}

// statusTimestamp returns the bson field stamped when entering status s.
func statusTimestamp(s models.AppointmentStatus) string {
	switch s {
	case models.StatusConfirmed:
		return "confirmedAt"
	case models.StatusCancelled:
		return "cancelledAt"
	case models.StatusCompleted:
		return "completedAt"
	}
	return ""
}
