package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the coarse permission tag checked by route middleware.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
}

type EmergencyContact struct {
	Name         string `bson:"name,omitempty" json:"name,omitempty"`
	Relationship string `bson:"relationship,omitempty" json:"relationship,omitempty"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
}

type MedicalCondition struct {
	Condition string     `bson:"condition,omitempty" json:"condition,omitempty"`
	Diagnosis string     `bson:"diagnosis,omitempty" json:"diagnosis,omitempty"`
	Date      *time.Time `bson:"date,omitempty" json:"date,omitempty"`
	Notes     string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Allergy struct {
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Severity string `bson:"severity,omitempty" json:"severity,omitempty"`
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
}

type Medication struct {
	Name         string     `bson:"name,omitempty" json:"name,omitempty"`
	Dosage       string     `bson:"dosage,omitempty" json:"dosage,omitempty"`
	Frequency    string     `bson:"frequency,omitempty" json:"frequency,omitempty"`
	StartDate    *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate      *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	PrescribedBy string     `bson:"prescribedBy,omitempty" json:"prescribedBy,omitempty"`
}

// DoctorProfile holds the public listing details of a doctor account.
type DoctorProfile struct {
	Specialty       string   `bson:"specialty" json:"specialty"`
	Qualifications  string   `bson:"qualifications,omitempty" json:"qualifications,omitempty"`
	Experience      int      `bson:"experience,omitempty" json:"experience,omitempty"`
	ConsultationFee float64  `bson:"consultationFee,omitempty" json:"consultationFee,omitempty"`
	Languages       []string `bson:"languages,omitempty" json:"languages,omitempty"`
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`
	Rating          float64  `bson:"rating,omitempty" json:"rating,omitempty"`
	ClinicAddress   string   `bson:"clinicAddress,omitempty" json:"clinicAddress,omitempty"`
	ClinicPhone     string   `bson:"clinicPhone,omitempty" json:"clinicPhone,omitempty"`
	ClinicWebsite   string   `bson:"clinicWebsite,omitempty" json:"clinicWebsite,omitempty"`
	ClinicType      string   `bson:"clinicType,omitempty" json:"clinicType,omitempty"`
}

type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName        string             `bson:"firstName" json:"firstName"`
	LastName         string             `bson:"lastName" json:"lastName"`
	Email            string             `bson:"email" json:"email"`
	Password         string             `bson:"password" json:"-"` // Hide from JSON responses
	GoogleID         string             `bson:"googleId,omitempty" json:"googleId,omitempty"`
	FirebaseUID      string             `bson:"firebaseUid,omitempty" json:"firebaseUid,omitempty"`
	Role             Role               `bson:"role" json:"role"`
	DateOfBirth      *time.Time         `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Gender           string             `bson:"gender,omitempty" json:"gender,omitempty"`
	BloodGroup       string             `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	Phone            string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address          *Address           `bson:"address,omitempty" json:"address,omitempty"`
	EmergencyContact *EmergencyContact  `bson:"emergencyContact,omitempty" json:"emergencyContact,omitempty"`
	MedicalHistory   []MedicalCondition `bson:"medicalHistory,omitempty" json:"medicalHistory,omitempty"`
	Allergies        []Allergy          `bson:"allergies,omitempty" json:"allergies,omitempty"`
	Medications      []Medication       `bson:"medications,omitempty" json:"medications,omitempty"`
	ProfilePicture   string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	DoctorProfile    *DoctorProfile     `bson:"doctorProfile,omitempty" json:"doctorProfile,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SplitName splits a display name into first and last name.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// ValidGender reports whether g is empty or one of male, female, other.
func ValidGender(g string) bool {
	switch g {
	case "", "male", "female", "other":
		return true
	}
	return false
}
