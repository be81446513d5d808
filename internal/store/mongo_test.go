package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/harentsoaR/medbook-api/internal/models"
)

func TestMongoAppointments(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "medical_app." + appointmentsCollection

	mt.Run("insert duplicate slot maps to ErrDuplicate", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: appointments index: " + ActiveSlotIndex,
		}))

		err := s.CreateAppointment(ctx, &models.Appointment{DoctorID: "doc-1", Time: "10:00", Status: models.StatusPending})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	mt.Run("insert assigns an id", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		a := &models.Appointment{DoctorID: "doc-1", Time: "10:00", Status: models.StatusPending}
		require.NoError(t, s.CreateAppointment(ctx, a))
		assert.False(t, a.ID.IsZero())
	})

	mt.Run("get missing appointment", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.GetAppointment(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("active appointments for doctor decode", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		id := primitive.NewObjectID()
		d := time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "doctorId", Value: "doc-1"},
			{Key: "date", Value: d},
			{Key: "time", Value: "10:00"},
			{Key: "status", Value: "pending"},
		}))

		got, err := s.ActiveForDoctor(ctx, "doc-1", d)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		assert.Equal(t, models.StatusPending, got[0].Status)
		assert.True(t, got[0].Date.Equal(d))
	})

	mt.Run("transition returns updated document", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		id := primitive.NewObjectID()
		at := time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: "cancelled"},
			{Key: "cancelledAt", Value: at},
		}}))

		got, err := s.TransitionAppointment(ctx, id, models.StatusPending, models.StatusCancelled, at)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledAt)
		assert.True(t, got.CancelledAt.Equal(at))
	})
}

func TestMongoUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("replace of missing user", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := s.ReplaceUser(ctx, &models.User{ID: primitive.NewObjectID()})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := s.CreateUser(ctx, &models.User{Email: "ada@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		s := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(t, s.EnsureIndexes(ctx))
	})
}
