package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/models"
)

// Memory is an in-process Store for local development and tests. It enforces
// the same unique constraints as the Mongo indexes.
type Memory struct {
	mu           sync.RWMutex
	users        map[primitive.ObjectID]models.User
	appointments map[primitive.ObjectID]models.Appointment
	records      map[primitive.ObjectID]models.MedicalRecord
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[primitive.ObjectID]models.User),
		appointments: make(map[primitive.ObjectID]models.Appointment),
		records:      make(map[primitive.ObjectID]models.MedicalRecord),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

// --- users ---

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if err := m.checkUserUnique(u); err != nil {
		return err
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) checkUserUnique(u *models.User) error {
	for id, existing := range m.users {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return ErrDuplicate
		}
		if u.FirebaseUID != "" && existing.FirebaseUID == u.FirebaseUID {
			return ErrDuplicate
		}
	}
	return nil
}

func (m *Memory) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return m.findUser(func(u *models.User) bool { return u.Email == email })
}

func (m *Memory) FindUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	if uid == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u *models.User) bool { return u.FirebaseUID == uid })
}

func (m *Memory) findUser(match func(*models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(&u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ReplaceUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	if err := m.checkUserUnique(u); err != nil {
		return err
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) ListDoctors(_ context.Context, f DoctorFilter) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(f.Query)
	doctors := make([]models.User, 0)
	for _, u := range m.users {
		if u.Role != models.RoleDoctor {
			continue
		}
		specialty := ""
		if u.DoctorProfile != nil {
			specialty = u.DoctorProfile.Specialty
		}
		if f.Specialty != "" && !strings.EqualFold(specialty, f.Specialty) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName+" "+specialty), q) {
			continue
		}
		doctors = append(doctors, u)
	}
	sort.Slice(doctors, func(i, j int) bool {
		if doctors[i].LastName != doctors[j].LastName {
			return doctors[i].LastName < doctors[j].LastName
		}
		return doctors[i].FirstName < doctors[j].FirstName
	})
	return doctors, nil
}

// --- appointments ---

func (m *Memory) CreateAppointment(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Status.Active() {
		for _, existing := range m.appointments {
			if existing.Status.Active() && existing.DoctorID == a.DoctorID &&
				existing.Date.Equal(a.Date) && existing.Time == a.Time {
				return ErrDuplicate
			}
		}
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListAppointments(_ context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, a := range m.appointments {
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.From != nil && a.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && a.Date.After(*f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Descending {
			return appointmentLess(out[j], out[i])
		}
		return appointmentLess(out[i], out[j])
	})
	return out, nil
}

func appointmentLess(a, b models.Appointment) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.Time < b.Time
}

func (m *Memory) ActiveForDoctor(_ context.Context, doctorID string, day time.Time) ([]models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(day) && a.Status.Active() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (m *Memory) TransitionAppointment(_ context.Context, id primitive.ObjectID, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != from {
		return nil, ErrStale
	}
	a.Status = to
	stamp := at
	switch to {
	case models.StatusConfirmed:
		a.ConfirmedAt = &stamp
	case models.StatusCancelled:
		a.CancelledAt = &stamp
	case models.StatusCompleted:
		a.CompletedAt = &stamp
	}
	m.appointments[id] = a
	return &a, nil
}

// --- medical records ---

func (m *Memory) CreateRecord(_ context.Context, r *models.MedicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	m.records[r.ID] = *r
	return nil
}

func (m *Memory) GetRecord(_ context.Context, id primitive.ObjectID) (*models.MedicalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) ReplaceRecord(_ context.Context, r *models.MedicalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return ErrNotFound
	}
	m.records[r.ID] = *r
	return nil
}

func (m *Memory) DeleteRecord(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) ListRecords(_ context.Context, f RecordFilter) ([]models.MedicalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.MedicalRecord, 0)
	for _, r := range m.records {
		if f.Patient != nil && r.Patient != *f.Patient {
			continue
		}
		if f.RecordType != "" && r.RecordType != f.RecordType {
			continue
		}
		if f.FollowUpAfter != nil {
			if !r.FollowUpRequired || r.FollowUpDate == nil || r.FollowUpDate.Before(*f.FollowUpAfter) {
				continue
			}
		}
		out = append(out, r)
	}
	if f.FollowUpAfter != nil {
		sort.Slice(out, func(i, j int) bool { return out[i].FollowUpDate.Before(*out[j].FollowUpDate) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	}
	return out, nil
}
