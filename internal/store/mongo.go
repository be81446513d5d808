package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/harentsoaR/medbook-api/internal/models"
)

const (
	usersCollection        = "users"
	appointmentsCollection = "appointments"
	recordsCollection      = "medicalrecords"

	// ActiveSlotIndex enforces one pending/confirmed appointment per doctor slot.
	ActiveSlotIndex = "active_slot_unique"
)

// Mongo implements Store on a MongoDB database.
type Mongo struct {
	db           *mongo.Database
	users        *mongo.Collection
	appointments *mongo.Collection
	records      *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		db:           db,
		users:        db.Collection(usersCollection),
		appointments: db.Collection(appointmentsCollection),
		records:      db.Collection(recordsCollection),
	}
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the service relies on. The partial unique
// slot index needs MongoDB 6.0+ for the $in filter.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	active := bson.A{}
	for _, s := range models.ActiveStatuses {
		active = append(active, string(s))
	}

	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{m.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "firebaseUid", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "doctorProfile.specialty", Value: 1}}},
		}},
		{m.appointments, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
				Options: options.Index().
					SetName(ActiveSlotIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": bson.M{"$in": active}}),
			},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}}},
		}},
		{m.records, []mongo.IndexModel{
			{Keys: bson.D{{Key: "patient", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "recordType", Value: 1}}},
		}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("store: create indexes on %s: %w", spec.coll.Name(), err)
		}
	}
	return nil
}

// --- users ---

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := m.users.InsertOne(ctx, u); err != nil {
		return wrapWriteErr("insert user", err)
	}
	return nil
}

func (m *Mongo) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (m *Mongo) FindUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"firebaseUid": uid})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, wrapReadErr("find user", err)
	}
	return &u, nil
}

func (m *Mongo) ReplaceUser(ctx context.Context, u *models.User) error {
	res, err := m.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return wrapWriteErr("replace user", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ListDoctors(ctx context.Context, f DoctorFilter) ([]models.User, error) {
	filter := bson.M{"role": models.RoleDoctor}
	if f.Specialty != "" {
		filter["doctorProfile.specialty"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Specialty) + "$", Options: "i"}
	}
	if f.Query != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"firstName": rx},
			bson.M{"lastName": rx},
			bson.M{"doctorProfile.specialty": rx},
		}
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}})
	cursor, err := m.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: list doctors: %w", err)
	}
	doctors := make([]models.User, 0)
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, fmt.Errorf("store: decode doctors: %w", err)
	}
	return doctors, nil
}

// --- appointments ---

func (m *Mongo) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, err := m.appointments.InsertOne(ctx, a); err != nil {
		return wrapWriteErr("insert appointment", err)
	}
	return nil
}

func (m *Mongo) GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var a models.Appointment
	if err := m.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, wrapReadErr("find appointment", err)
	}
	return &a, nil
}

func (m *Mongo) ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.DoctorID != "" {
		filter["doctorId"] = f.DoctorID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.From != nil || f.To != nil {
		dateRange := bson.M{}
		if f.From != nil {
			dateRange["$gte"] = *f.From
		}
		if f.To != nil {
			dateRange["$lte"] = *f.To
		}
		filter["date"] = dateRange
	}

	dir := 1
	if f.Descending {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: dir}, {Key: "time", Value: dir}})
	return m.findAppointments(ctx, filter, opts)
}

func (m *Mongo) ActiveForDoctor(ctx context.Context, doctorID string, day time.Time) ([]models.Appointment, error) {
	filter := bson.M{
		"doctorId": doctorID,
		"date":     day,
		"status":   bson.M{"$in": models.ActiveStatuses},
	}
	return m.findAppointments(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
}

func (m *Mongo) findAppointments(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Appointment, error) {
	cursor, err := m.appointments.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: find appointments: %w", err)
	}
	appointments := make([]models.Appointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("store: decode appointments: %w", err)
	}
	return appointments, nil
}

func (m *Mongo) TransitionAppointment(ctx context.Context, id primitive.ObjectID, from, to models.AppointmentStatus, at time.Time) (*models.Appointment, error) {
	set := bson.M{"status": to}
	if field := statusTimestamp(to); field != "" {
		set[field] = at
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a models.Appointment
	err := m.appointments.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&a)
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, wrapWriteErr("transition appointment", err)
	}
	if _, getErr := m.GetAppointment(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStale
}

// --- medical records ---

func (m *Mongo) CreateRecord(ctx context.Context, r *models.MedicalRecord) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, err := m.records.InsertOne(ctx, r); err != nil {
		return wrapWriteErr("insert medical record", err)
	}
	return nil
}

func (m *Mongo) GetRecord(ctx context.Context, id primitive.ObjectID) (*models.MedicalRecord, error) {
	var r models.MedicalRecord
	if err := m.records.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, wrapReadErr("find medical record", err)
	}
	return &r, nil
}

func (m *Mongo) ReplaceRecord(ctx context.Context, r *models.MedicalRecord) error {
	res, err := m.records.ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return wrapWriteErr("replace medical record", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteRecord(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.records.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: delete medical record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) ListRecords(ctx context.Context, f RecordFilter) ([]models.MedicalRecord, error) {
	filter := bson.M{}
	if f.Patient != nil {
		filter["patient"] = *f.Patient
	}
	if f.RecordType != "" {
		filter["recordType"] = f.RecordType
	}
	sort := bson.D{{Key: "date", Value: -1}}
	if f.FollowUpAfter != nil {
		filter["followUpRequired"] = true
		filter["followUpDate"] = bson.M{"$gte": *f.FollowUpAfter}
		sort = bson.D{{Key: "followUpDate", Value: 1}}
	}

	cursor, err := m.records.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("store: find medical records: %w", err)
	}
	records := make([]models.MedicalRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("store: decode medical records: %w", err)
	}
	return records, nil
}

func wrapReadErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func wrapWriteErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("store: %s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
