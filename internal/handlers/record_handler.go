package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/store"
)

type RecordRequest struct {
	Patient          *string              `json:"patient"`
	RecordType       *models.RecordType   `json:"recordType"`
	Date             *time.Time           `json:"date"`
	Title            *string              `json:"title"`
	Description      *string              `json:"description"`
	TestResults      *models.TestResults  `json:"testResults"`
	Prescription     *models.Prescription `json:"prescription"`
	Procedure        *models.Procedure    `json:"procedure"`
	Vaccination      *models.Vaccination  `json:"vaccination"`
	Status           *models.RecordStatus `json:"status"`
	FollowUpRequired *bool                `json:"followUpRequired"`
	FollowUpDate     *time.Time           `json:"followUpDate"`
	Notes            *string              `json:"notes"`
}

// apply copies the provided fields onto r.
func (req *RecordRequest) apply(r *models.MedicalRecord) {
	if req.RecordType != nil {
		r.RecordType = *req.RecordType
	}
	if req.Date != nil {
		r.Date = req.Date.UTC()
	}
	if req.Title != nil {
		r.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.TestResults != nil {
		r.TestResults = req.TestResults
	}
	if req.Prescription != nil {
		r.Prescription = req.Prescription
	}
	if req.Procedure != nil {
		r.Procedure = req.Procedure
	}
	if req.Vaccination != nil {
		r.Vaccination = req.Vaccination
	}
	if req.Status != nil {
		r.Status = *req.Status
	}
	if req.FollowUpRequired != nil {
		r.FollowUpRequired = *req.FollowUpRequired
	}
	if req.FollowUpDate != nil {
		d := req.FollowUpDate.UTC()
		r.FollowUpDate = &d
	}
	if req.Notes != nil {
		r.Notes = *req.Notes
	}
}

func validateRecord(r *models.MedicalRecord) string {
	switch {
	case !r.RecordType.Valid():
		return "Invalid record type"
	case r.Title == "":
		return "Please add a title"
	case !r.Status.Valid():
		return "Invalid record status"
	case r.TestResults != nil && r.TestResults.Status != "" &&
		r.TestResults.Status != "normal" && r.TestResults.Status != "abnormal" && r.TestResults.Status != "critical":
		return "Invalid test result status"
	}
	return ""
}

// GetMyRecords lists the current patient's records, newest first.
func (h *Handler) GetMyRecords(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	h.listRecords(c, store.RecordFilter{Patient: &userID})
}

// GetUpcomingTests lists test results with a follow-up due from now on.
func (h *Handler) GetUpcomingTests(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	now := time.Now().UTC()
	h.listRecords(c, store.RecordFilter{Patient: &userID, RecordType: models.RecordTestResult, FollowUpAfter: &now})
}

// GetPatientRecords is the doctor/admin view of one patient's records.
func (h *Handler) GetPatientRecords(c *gin.Context) {
	patientID, err := primitive.ObjectIDFromHex(c.Param("patientId"))
	if err != nil {
		invalidID(c, "patient")
		return
	}
	h.listRecords(c, store.RecordFilter{Patient: &patientID})
}

func (h *Handler) listRecords(c *gin.Context, f store.RecordFilter) {
	records, err := h.Store.ListRecords(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(records), "data": records})
}

// GetRecord is open to the owning patient, doctors and admins.
func (h *Handler) GetRecord(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	userID, _ := middleware.CurrentUserID(c)
	role := middleware.CurrentRole(c)
	if record.Patient != userID && role != models.RoleDoctor && role != models.RoleAdmin {
		forbidden(c, "Not authorized to access this record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Patient == nil {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Please add a patient")
		return
	}
	patientID, err := primitive.ObjectIDFromHex(*req.Patient)
	if err != nil {
		invalidID(c, "patient")
		return
	}
	author, ok := h.currentUser(c)
	if !ok {
		return
	}
	if _, err := h.Store.GetUser(c.Request.Context(), patientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperr.Send(c, http.StatusNotFound, httperr.CodeNotFound, "Patient not found")
			return
		}
		h.respondError(c, err)
		return
	}

	now := time.Now().UTC()
	record := &models.MedicalRecord{
		Patient:    patientID,
		Doctor:     author.ID,
		DoctorName: author.FullName(),
		Date:       now,
		Status:     models.RecordCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	req.apply(record)
	if msg := validateRecord(record); msg != "" {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, msg)
		return
	}

	if err := h.Store.CreateRecord(c.Request.Context(), record); err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("medical record created", "record_id", record.ID.Hex(), "doctor_id", author.ID.Hex())
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": record})
}

// UpdateRecord is limited to the authoring doctor and admins.
func (h *Handler) UpdateRecord(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	if !canEditRecord(c, record) {
		forbidden(c, "Not authorized to update this record")
		return
	}

	req.apply(record)
	if msg := validateRecord(record); msg != "" {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, msg)
		return
	}
	record.UpdatedAt = time.Now().UTC()
	if err := h.Store.ReplaceRecord(c.Request.Context(), record); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}

// DeleteRecord is limited to the authoring doctor and admins.
func (h *Handler) DeleteRecord(c *gin.Context) {
	record, ok := h.loadRecord(c)
	if !ok {
		return
	}
	if !canEditRecord(c, record) {
		forbidden(c, "Not authorized to delete this record")
		return
	}
	if err := h.Store.DeleteRecord(c.Request.Context(), record.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

func (h *Handler) loadRecord(c *gin.Context) (*models.MedicalRecord, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		invalidID(c, "record")
		return nil, false
	}
	record, err := h.Store.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperr.Send(c, http.StatusNotFound, httperr.CodeNotFound, "Record not found")
			return nil, false
		}
		h.respondError(c, err)
		return nil, false
	}
	return record, true
}

func canEditRecord(c *gin.Context, r *models.MedicalRecord) bool {
	userID, _ := middleware.CurrentUserID(c)
	return r.Doctor == userID || middleware.CurrentRole(c) == models.RoleAdmin
}
