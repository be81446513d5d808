package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecordType string

const (
	RecordTestResult   RecordType = "test_result"
	RecordDiagnosis    RecordType = "diagnosis"
	RecordPrescription RecordType = "prescription"
	RecordVaccination  RecordType = "vaccination"
	RecordProcedure    RecordType = "procedure"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTestResult, RecordDiagnosis, RecordPrescription, RecordVaccination, RecordProcedure:
		return true
	}
	return false
}

type RecordStatus string

const (
	RecordPending   RecordStatus = "pending"
	RecordCompleted RecordStatus = "completed"
	RecordCancelled RecordStatus = "cancelled"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case RecordPending, RecordCompleted, RecordCancelled:
		return true
	}
	return false
}

type Attachment struct {
	Name string `bson:"name,omitempty" json:"name,omitempty"`
	URL  string `bson:"url,omitempty" json:"url,omitempty"`
	Type string `bson:"type,omitempty" json:"type,omitempty"`
}

type TestResults struct {
	TestName       string       `bson:"testName,omitempty" json:"testName,omitempty"`
	Result         string       `bson:"result,omitempty" json:"result,omitempty"`
	Unit           string       `bson:"unit,omitempty" json:"unit,omitempty"`
	ReferenceRange string       `bson:"referenceRange,omitempty" json:"referenceRange,omitempty"`
	Status         string       `bson:"status,omitempty" json:"status,omitempty"` // normal, abnormal, critical
	Notes          string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Attachments    []Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
}

type Prescription struct {
	Medication   string `bson:"medication,omitempty" json:"medication,omitempty"`
	Dosage       string `bson:"dosage,omitempty" json:"dosage,omitempty"`
	Frequency    string `bson:"frequency,omitempty" json:"frequency,omitempty"`
	Duration     string `bson:"duration,omitempty" json:"duration,omitempty"`
	Instructions string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Refills      int    `bson:"refills,omitempty" json:"refills,omitempty"`
}

type Procedure struct {
	Name          string     `bson:"name,omitempty" json:"name,omitempty"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	Anesthesia    string     `bson:"anesthesia,omitempty" json:"anesthesia,omitempty"`
	Complications string     `bson:"complications,omitempty" json:"complications,omitempty"`
	FollowUpDate  *time.Time `bson:"followUpDate,omitempty" json:"followUpDate,omitempty"`
}

type Vaccination struct {
	Name         string     `bson:"name,omitempty" json:"name,omitempty"`
	Manufacturer string     `bson:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	LotNumber    string     `bson:"lotNumber,omitempty" json:"lotNumber,omitempty"`
	NextDueDate  *time.Time `bson:"nextDueDate,omitempty" json:"nextDueDate,omitempty"`
}

type MedicalRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Patient          primitive.ObjectID `bson:"patient" json:"patient"`
	Doctor           primitive.ObjectID `bson:"doctor" json:"doctor"`
	DoctorName       string             `bson:"doctorName,omitempty" json:"doctorName,omitempty"`
	RecordType       RecordType         `bson:"recordType" json:"recordType"`
	Date             time.Time          `bson:"date" json:"date"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	TestResults      *TestResults       `bson:"testResults,omitempty" json:"testResults,omitempty"`
	Prescription     *Prescription      `bson:"prescription,omitempty" json:"prescription,omitempty"`
	Procedure        *Procedure         `bson:"procedure,omitempty" json:"procedure,omitempty"`
	Vaccination      *Vaccination       `bson:"vaccination,omitempty" json:"vaccination,omitempty"`
	Status           RecordStatus       `bson:"status" json:"status"`
	FollowUpRequired bool               `bson:"followUpRequired" json:"followUpRequired"`
	FollowUpDate     *time.Time         `bson:"followUpDate,omitempty" json:"followUpDate,omitempty"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
