package handlers

import (
	"context"
	"io"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
	"github.com/harentsoaR/medbook-api/pkg/logging"
)

// Notifier tells a patient about changes to an appointment without blocking.
type Notifier interface {
	NotifyAppointment(patient *models.User, apt *models.Appointment, event services.AppointmentEvent)
}

// PictureUploader stores profile pictures and returns their public URL.
type PictureUploader interface {
	Enabled() bool
	Upload(ctx context.Context, userID, contentType, ext string, size int64, body io.Reader) (string, error)
}

// Handler is the toolbox every route method hangs off.
type Handler struct {
	Store     store.Store
	Booking   *booking.Service
	Notifier  Notifier
	Email     services.EmailSender
	Pictures  PictureUploader
	Identity  services.IdentityVerifier
	JWT       *utils.JWTManager
	Passwords utils.PasswordHasher
	Logger    *logging.Logger
}

// NewHandler fills in no-op collaborators for the optional integrations.
func NewHandler(h Handler) *Handler {
	if h.Logger == nil {
		h.Logger = logging.Default()
	}
	if h.Email == nil {
		h.Email = services.NewLogEmailSender(h.Logger)
	}
	if h.Pictures == nil {
		h.Pictures = services.NewPictureStore(nil, "", "", "", h.Logger)
	}
	return &h
}
