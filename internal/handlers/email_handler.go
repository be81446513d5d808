package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medbook-api/internal/services"
)

// SendAppointmentEmail mails an appointment request to the clinic and a
// confirmation to the patient.
func (h *Handler) SendAppointmentEmail(c *gin.Context) {
	var req services.AppointmentEmail
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := services.SendAppointmentRequest(c.Request.Context(), h.Email, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
