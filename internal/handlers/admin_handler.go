package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
)

type seedDoctor struct {
	first, last, email string
	profile            models.DoctorProfile
}

var sampleDoctors = []seedDoctor{
	{"Sarah", "Johnson", "sarah.johnson@medbook.example", models.DoctorProfile{
		Specialty: "Cardiologist", Qualifications: "MD, FACC", Experience: 10, ConsultationFee: 150,
		Languages: []string{"English", "Spanish"}, Rating: 4.8,
		Description: "Specialized in cardiovascular health with focus on preventive care.",
	}},
	{"Michael", "Chen", "michael.chen@medbook.example", models.DoctorProfile{
		Specialty: "Pediatrician", Qualifications: "MD, FAAP", Experience: 15, ConsultationFee: 120,
		Languages: []string{"English", "Mandarin"}, Rating: 4.9,
		Description: "Dedicated to providing comprehensive care for children of all ages.",
	}},
	{"Emily", "Wilson", "emily.wilson@medbook.example", models.DoctorProfile{
		Specialty: "Dermatologist", Qualifications: "MD, FAAD", Experience: 8, ConsultationFee: 140,
		Languages: []string{"English"}, Rating: 4.7,
		Description: "Expert in treating various skin conditions and cosmetic procedures.",
	}},
	{"James", "Martinez", "james.martinez@medbook.example", models.DoctorProfile{
		Specialty: "Orthopedist", Qualifications: "MD, FAAOS", Experience: 12, ConsultationFee: 160,
		Languages: []string{"English", "Spanish"}, Rating: 4.9,
		Description: "Specializing in sports medicine and joint replacement surgery.",
	}},
}

// SeedDoctors inserts the sample doctors that are not there yet.
func (h *Handler) SeedDoctors(c *gin.Context) {
	ctx := c.Request.Context()
	created := 0
	for _, d := range sampleDoctors {
		_, err := h.Store.FindUserByEmail(ctx, d.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			h.respondError(c, err)
			return
		}

		now := time.Now().UTC()
		profile := d.profile
		doctor := &models.User{
			FirstName:     d.first,
			LastName:      d.last,
			Email:         d.email,
			Role:          models.RoleDoctor,
			DoctorProfile: &profile,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = h.Store.CreateUser(ctx, doctor)
		switch {
		case err == nil:
			created++
		case errors.Is(err, store.ErrDuplicate):
			// Seeded concurrently by another request.
		default:
			h.respondError(c, err)
			return
		}
	}
	h.Logger.Info("sample doctors seeded", "created", created)
	c.JSON(http.StatusOK, gin.H{"success": true, "created": created, "total": len(sampleDoctors)})
}
