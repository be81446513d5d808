package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
)

type CreateAppointmentRequest struct {
	DoctorID        string  `json:"doctorId" binding:"required"`
	DoctorName      string  `json:"doctorName"`
	Specialty       string  `json:"specialty"`
	Insurance       string  `json:"insurance"`
	ConsultationFee float64 `json:"consultationFee" binding:"gte=0"`
	Date            string  `json:"date" binding:"required"`
	Time            string  `json:"time" binding:"required,hhmm"`
	Reason          string  `json:"reason" binding:"required"`
	Notes           string  `json:"notes"`
	ClinicAddress   string  `json:"clinicAddress"`
	ClinicType      string  `json:"clinicType"`
	ClinicPhone     string  `json:"clinicPhone"`
	ClinicWebsite   string  `json:"clinicWebsite"`
}

// --- CREATE APPOINTMENT ---
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	day, err := booking.ParseDate(req.Date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	patient, ok := h.currentUser(c)
	if !ok {
		return
	}

	apt := &models.Appointment{
		UserID:          patient.ID,
		PatientName:     patient.FullName(),
		DoctorID:        strings.TrimSpace(req.DoctorID),
		DoctorName:      req.DoctorName,
		Specialty:       req.Specialty,
		Insurance:       req.Insurance,
		ConsultationFee: req.ConsultationFee,
		Date:            day,
		Time:            req.Time,
		Reason:          req.Reason,
		Notes:           req.Notes,
		ClinicAddress:   req.ClinicAddress,
		ClinicType:      req.ClinicType,
		ClinicPhone:     req.ClinicPhone,
		ClinicWebsite:   req.ClinicWebsite,
	}
	h.fillDoctorDetails(c, apt)

	if err := h.Booking.Book(c.Request.Context(), apt); err != nil {
		h.respondError(c, err)
		return
	}
	h.notify(patient, apt, services.EventBooked)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": apt})
}

// fillDoctorDetails copies listing details when doctorId names a local doctor.
func (h *Handler) fillDoctorDetails(c *gin.Context, apt *models.Appointment) {
	id, err := primitive.ObjectIDFromHex(apt.DoctorID)
	if err != nil {
		return
	}
	doctor, err := h.Store.GetUser(c.Request.Context(), id)
	if err != nil || doctor.Role != models.RoleDoctor {
		return
	}
	if apt.DoctorName == "" {
		apt.DoctorName = "Dr. " + doctor.FullName()
	}
	if p := doctor.DoctorProfile; p != nil {
		if apt.Specialty == "" {
			apt.Specialty = p.Specialty
		}
		if apt.ConsultationFee == 0 {
			apt.ConsultationFee = p.ConsultationFee
		}
		if apt.ClinicAddress == "" {
			apt.ClinicAddress = p.ClinicAddress
		}
		if apt.ClinicPhone == "" {
			apt.ClinicPhone = p.ClinicPhone
		}
		if apt.ClinicWebsite == "" {
			apt.ClinicWebsite = p.ClinicWebsite
		}
		if apt.ClinicType == "" {
			apt.ClinicType = p.ClinicType
		}
	}
}

// --- LIST APPOINTMENTS (role scoped, with filtering) ---
func (h *Handler) GetAppointments(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidToken, "User not authenticated")
		return
	}

	filter := store.AppointmentFilter{}
	switch middleware.CurrentRole(c) {
	case models.RoleAdmin:
		filter.DoctorID = c.Query("doctorId")
		if p := c.Query("patientId"); p != "" {
			pid, err := primitive.ObjectIDFromHex(p)
			if err != nil {
				invalidID(c, "patient")
				return
			}
			filter.UserID = &pid
		}
	case models.RoleDoctor:
		filter.DoctorID = userID.Hex()
	default:
		filter.UserID = &userID
	}

	if s := c.Query("startDate"); s != "" {
		from, err := booking.ParseDate(s)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.From = &from
	}
	if s := c.Query("endDate"); s != "" {
		to, err := booking.ParseDate(s)
		if err != nil {
			h.respondError(c, err)
			return
		}
		filter.To = &to
	}
	if s := c.Query("status"); s != "" {
		filter.Status = models.AppointmentStatus(strings.ToLower(s))
	}

	appointments, err := h.Store.ListAppointments(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(appointments), "data": appointments})
}

// --- GET ONE APPOINTMENT ---
func (h *Handler) GetAppointment(c *gin.Context) {
	apt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	if !canSeeAppointment(c, apt) {
		forbidden(c, "Not authorized to access this appointment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": apt})
}

// CancelAppointment is open to the patient, the appointment's doctor and admins.
func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transition(c, models.StatusCancelled, services.EventCancelled, canSeeAppointment)
}

// ConfirmAppointment is open to the appointment's doctor and admins.
func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, models.StatusConfirmed, services.EventConfirmed, isAppointmentDoctor)
}

// CompleteAppointment is open to the appointment's doctor and admins.
func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, models.StatusCompleted, "", isAppointmentDoctor)
}

func (h *Handler) transition(c *gin.Context, to models.AppointmentStatus, event services.AppointmentEvent, allowed func(*gin.Context, *models.Appointment) bool) {
	apt, ok := h.loadAppointment(c)
	if !ok {
		return
	}
	if !allowed(c, apt) {
		forbidden(c, "Not authorized to change this appointment")
		return
	}

	updated, err := h.Booking.Transition(c.Request.Context(), apt.ID, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if event != "" {
		if patient, err := h.Store.GetUser(c.Request.Context(), updated.UserID); err == nil {
			h.notify(patient, updated, event)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
}

func (h *Handler) loadAppointment(c *gin.Context) (*models.Appointment, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		invalidID(c, "appointment")
		return nil, false
	}
	apt, err := h.Store.GetAppointment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperr.Send(c, http.StatusNotFound, httperr.CodeNotFound, "Appointment not found")
			return nil, false
		}
		h.respondError(c, err)
		return nil, false
	}
	return apt, true
}

func canSeeAppointment(c *gin.Context, apt *models.Appointment) bool {
	userID, _ := middleware.CurrentUserID(c)
	return apt.UserID == userID || isAppointmentDoctor(c, apt)
}

func isAppointmentDoctor(c *gin.Context, apt *models.Appointment) bool {
	userID, _ := middleware.CurrentUserID(c)
	switch middleware.CurrentRole(c) {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return apt.DoctorID == userID.Hex()
	}
	return false
}

func (h *Handler) notify(patient *models.User, apt *models.Appointment, event services.AppointmentEvent) {
	if h.Notifier != nil {
		h.Notifier.NotifyAppointment(patient, apt, event)
	}
}
