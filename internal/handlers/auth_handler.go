package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
)

type RegisterUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Name      string `json:"name"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// RegisterUser creates a local account. Admins cannot self-register.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" {
		first, last = models.SplitName(req.Name)
	}
	if first == "" {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Please add a name")
		return
	}

	role := models.Role(req.Role)
	switch {
	case role == "":
		role = models.RolePatient
	case role == models.RoleAdmin:
		forbidden(c, "Admin accounts cannot be self-registered")
		return
	case !role.Valid():
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Invalid role")
		return
	}

	hashed, err := h.Passwords.Hash(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		FirstName: first,
		LastName:  last,
		Email:     models.NormalizeEmail(req.Email),
		Password:  hashed,
		Role:      role,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role == models.RoleDoctor {
		user.DoctorProfile = &models.DoctorProfile{}
	}

	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httperr.Send(c, http.StatusConflict, httperr.CodeDuplicate, "An account with this email already exists")
			return
		}
		h.respondError(c, err)
		return
	}
	h.Logger.Info("user registered", "user_id", user.ID.Hex(), "role", user.Role)
	h.sendToken(c, http.StatusCreated, user)
}

// Login checks a local password and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Store.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidCreds, "Invalid credentials")
			return
		}
		h.respondError(c, err)
		return
	}
	if !h.Passwords.Check(req.Password, user.Password) {
		httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidCreds, "Invalid credentials")
		return
	}
	h.sendToken(c, http.StatusOK, user)
}

// GoogleAuth signs in with a Firebase ID token, linking or creating the
// local account by e-mail.
func (h *Handler) GoogleAuth(c *gin.Context) {
	id, ok := h.verifyIDToken(c)
	if !ok {
		return
	}
	user, _, err := h.findOrCreateExternal(c, id, true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, user)
}

// SyncUser makes sure a Firebase user has a local account.
func (h *Handler) SyncUser(c *gin.Context) {
	id, ok := h.verifyIDToken(c)
	if !ok {
		return
	}
	user, created, err := h.findOrCreateExternal(c, id, false)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "user": user})
}

var errIdentityNoEmail = errors.New("handlers: identity has no e-mail address")

func (h *Handler) verifyIDToken(c *gin.Context) (*services.Identity, bool) {
	var req struct {
		IDToken string `json:"idToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, false
	}
	if h.Identity == nil {
		h.respondError(c, services.ErrIdentityDisabled)
		return nil, false
	}
	id, err := h.Identity.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return id, true
}

// findOrCreateExternal resolves id by firebase uid, then (when byEmail and
// the provider verified the address) by e-mail, and finally creates a
// patient account.
func (h *Handler) findOrCreateExternal(c *gin.Context, id *services.Identity, byEmail bool) (*models.User, bool, error) {
	ctx := c.Request.Context()
	user, err := h.Store.FindUserByFirebaseUID(ctx, id.UID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	if id.Email == "" {
		return nil, false, errIdentityNoEmail
	}

	if byEmail {
		user, err = h.Store.FindUserByEmail(ctx, id.Email)
		switch {
		case err == nil && !id.EmailVerified:
			// Linking needs proof the caller owns the address.
			return nil, false, store.ErrDuplicate
		case err == nil:
			user.FirebaseUID = id.UID
			if id.Provider == "google.com" {
				user.GoogleID = id.UID
			}
			user.UpdatedAt = time.Now().UTC()
			if err := h.Store.ReplaceUser(ctx, user); err != nil {
				return nil, false, err
			}
			return user, false, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, false, err
		}
	}

	name := id.Name
	if name == "" {
		name = id.Email
	}
	first, last := models.SplitName(name)
	now := time.Now().UTC()
	user = &models.User{
		FirstName:      first,
		LastName:       last,
		Email:          models.NormalizeEmail(id.Email),
		FirebaseUID:    id.UID,
		Role:           models.RolePatient,
		ProfilePicture: id.Picture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if id.Provider == "google.com" {
		user.GoogleID = id.UID
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	h.Logger.Info("user created from identity provider", "user_id", user.ID.Hex(), "provider", id.Provider)
	return user, true, nil
}

func (h *Handler) sendToken(c *gin.Context, status int, user *models.User) {
	token, err := h.JWT.Generate(user.ID.Hex(), string(user.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, authResponse{Success: true, Token: token, User: user})
}

// currentUser loads the authenticated account or writes an error reply.
func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidToken, "User not authenticated")
		return nil, false
	}
	user, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httperr.Send(c, http.StatusNotFound, httperr.CodeNotFound, "User not found")
			return nil, false
		}
		h.respondError(c, err)
		return nil, false
	}
	return user, true
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

type UpdateProfileRequest struct {
	Name             *string                   `json:"name"`
	FirstName        *string                   `json:"firstName"`
	LastName         *string                   `json:"lastName"`
	DateOfBirth      *time.Time                `json:"dateOfBirth"`
	Gender           *string                   `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodGroup       *string                   `json:"bloodGroup" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Phone            *string                   `json:"phone"`
	Address          *models.Address           `json:"address"`
	EmergencyContact *models.EmergencyContact  `json:"emergencyContact"`
	MedicalHistory   []models.MedicalCondition `json:"medicalHistory"`
	Allergies        []models.Allergy          `json:"allergies"`
	Medications      []models.Medication       `json:"medications"`
	DoctorProfile    *models.DoctorProfile     `json:"doctorProfile"`
}

// UpdateProfile applies the provided profile fields to the current user.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if req.Name != nil {
		user.FirstName, user.LastName = models.SplitName(*req.Name)
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if user.FirstName == "" {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Name cannot be empty")
		return
	}
	if req.DateOfBirth != nil {
		dob := req.DateOfBirth.UTC()
		user.DateOfBirth = &dob
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.BloodGroup != nil {
		user.BloodGroup = *req.BloodGroup
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.EmergencyContact != nil {
		user.EmergencyContact = req.EmergencyContact
	}
	if req.MedicalHistory != nil {
		user.MedicalHistory = req.MedicalHistory
	}
	if req.Allergies != nil {
		user.Allergies = req.Allergies
	}
	if req.Medications != nil {
		user.Medications = req.Medications
	}
	if req.DoctorProfile != nil {
		if user.Role != models.RoleDoctor {
			forbidden(c, "Only doctors have a doctor profile")
			return
		}
		user.DoctorProfile = req.DoctorProfile
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.Store.ReplaceUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// ChangePassword replaces the local password after checking the current one.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if user.Password == "" {
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "This account signs in with an identity provider and has no password")
		return
	}
	if !h.Passwords.Check(req.CurrentPassword, user.Password) {
		httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidCreds, "Current password is incorrect")
		return
	}

	hashed, err := h.Passwords.Hash(req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	user.Password = hashed
	user.UpdatedAt = time.Now().UTC()
	if err := h.Store.ReplaceUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
}
