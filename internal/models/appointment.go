package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// ActiveStatuses are the statuses that hold a doctor's slot.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

// Active reports whether the appointment still occupies its slot.
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether an appointment may move from s to next.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment links a patient to a doctor on a calendar day and "HH:MM" time.
// Date is always midnight UTC of the booked day.
type Appointment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	PatientName     string             `bson:"patientName,omitempty" json:"patientName,omitempty"`
	DoctorID        string             `bson:"doctorId" json:"doctorId"`
	DoctorName      string             `bson:"doctorName" json:"doctorName"`
	Specialty       string             `bson:"specialty" json:"specialty"`
	Insurance       string             `bson:"insurance,omitempty" json:"insurance,omitempty"`
	ConsultationFee float64            `bson:"consultationFee" json:"consultationFee"`
	Date            time.Time          `bson:"date" json:"date"`
	Time            string             `bson:"time" json:"time"`
	Reason          string             `bson:"reason" json:"reason"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ClinicAddress   string             `bson:"clinicAddress,omitempty" json:"clinicAddress,omitempty"`
	ClinicType      string             `bson:"clinicType,omitempty" json:"clinicType,omitempty"`
	ClinicPhone     string             `bson:"clinicPhone,omitempty" json:"clinicPhone,omitempty"`
	ClinicWebsite   string             `bson:"clinicWebsite,omitempty" json:"clinicWebsite,omitempty"`
	Status          AppointmentStatus  `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	ConfirmedAt     *time.Time         `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CompletedAt     *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Day returns the date formatted as YYYY-MM-DD.
func (a *Appointment) Day() string {
	return a.Date.UTC().Format("2006-01-02")
}
