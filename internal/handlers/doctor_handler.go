package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
)

// ListDoctors supports ?specialty= (exact, case-insensitive) and ?q= (name or specialty substring).
func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Store.ListDoctors(c.Request.Context(), store.DoctorFilter{
		Specialty: c.Query("specialty"),
		Query:     c.Query("q"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(doctors), "data": doctors})
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		invalidID(c, "doctor")
		return
	}
	doctor, err := h.Store.GetUser(c.Request.Context(), id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.respondError(c, err)
		return
	}
	if doctor == nil || doctor.Role != models.RoleDoctor {
		httperr.Send(c, http.StatusNotFound, httperr.CodeNotFound, "Doctor not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doctor})
}

// DoctorAvailability lists the day's 30 minute slots for ?date=YYYY-MM-DD.
func (h *Handler) DoctorAvailability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Query parameter date is required")
		return
	}
	day, err := booking.ParseDate(date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	doctorID := c.Param("id")
	slots, err := h.Booking.Availability(c.Request.Context(), doctorID, day)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"doctorId": doctorID,
		"date":     day.Format("2006-01-02"),
		"slots":    slots,
	})
}
