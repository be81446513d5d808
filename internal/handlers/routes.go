package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
)

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("handlers: unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := booking.ParseClock(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("handlers: register hhmm: %w", err)
	}
	return nil
}

// RouteOptions carries the middleware RegisterRoutes wires in.
type RouteOptions struct {
	Auth      *middleware.Authenticator
	RateLimit *middleware.RateLimiter
}

func (h *Handler) RegisterRoutes(r *gin.Engine, opts RouteOptions) {
	if err := RegisterValidators(); err != nil {
		panic(err)
	}

	r.GET("/health", h.Health)

	protect := opts.Auth.Middleware()
	limit := func(c *gin.Context) { c.Next() }
	if opts.RateLimit != nil {
		limit = opts.RateLimit.Handler()
	}
	staff := middleware.RequireRoles(models.RoleDoctor, models.RoleAdmin)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", limit, h.RegisterUser)
		auth.POST("/login", limit, h.Login)
		auth.POST("/google", limit, h.GoogleAuth)
		auth.GET("/me", protect, h.GetCurrentUser)
		auth.PUT("/profile", protect, h.UpdateProfile)
		auth.PATCH("/profile", protect, h.UpdateProfile)
		auth.PUT("/change-password", protect, h.ChangePassword)
		auth.POST("/profile/picture", protect, h.UploadProfilePicture)
	}

	api.POST("/users/sync", limit, h.SyncUser)

	doctors := api.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.GET("/:id/availability", h.DoctorAvailability)
	}

	appointments := api.Group("/appointments", protect)
	{
		appointments.GET("", h.GetAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/cancel", h.CancelAppointment)
		appointments.PATCH("/:id/confirm", staff, h.ConfirmAppointment)
		appointments.PATCH("/:id/complete", staff, h.CompleteAppointment)
	}

	records := api.Group("/medical-records", protect)
	{
		records.GET("/my-records", h.GetMyRecords)
		records.GET("/upcoming-tests", h.GetUpcomingTests)
		records.GET("/patient/:patientId", staff, h.GetPatientRecords)
		records.GET("/:id", h.GetRecord)
		records.POST("", staff, h.CreateRecord)
		records.PUT("/:id", staff, h.UpdateRecord)
		records.DELETE("/:id", staff, h.DeleteRecord)
	}

	api.POST("/email/send-appointment", protect, h.SendAppointmentEmail)
	api.POST("/admin/seed", protect, middleware.RequireRoles(models.RoleAdmin), h.SeedDoctors)
}
