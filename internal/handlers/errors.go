package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/harentsoaR/medbook-api/internal/booking"
	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
)

// respondError maps domain errors onto the API error envelope.
func (h *Handler) respondError(c *gin.Context, err error) {
	var be *booking.Error
	switch {
	case errors.As(err, &be):
		switch {
		case be == booking.ErrInvalidTransition:
			httperr.SendReason(c, http.StatusConflict, httperr.CodeInvalidTransition, be.Code, be.Message)
		case be.Kind == booking.KindConflict:
			httperr.SendReason(c, http.StatusConflict, httperr.CodeSchedulingConflict, be.Code, be.Message)
		default:
			httperr.SendReason(c, http.StatusBadRequest, httperr.CodeValidation, be.Code, be.Message)
		}
	case errors.Is(err, booking.ErrLockTimeout):
		httperr.Send(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, "The schedule is busy, please retry")
	case errors.Is(err, store.ErrNotFound):
		httperr.Send(c, http.StatusNotFound, httperr.CodeNotFound, "Resource not found")
	case errors.Is(err, store.ErrDuplicate):
		httperr.Send(c, http.StatusConflict, httperr.CodeDuplicate, "Resource already exists")
	case errors.Is(err, errIdentityNoEmail):
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "The sign-in account has no e-mail address")
	case errors.Is(err, utils.ErrPasswordTooShort):
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, err.Error())
	case errors.Is(err, services.ErrIdentityToken):
		httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidToken, "Invalid Firebase token")
	case errors.Is(err, services.ErrIdentityDisabled), errors.Is(err, services.ErrStorageDisabled):
		httperr.Send(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, err.Error())
	case errors.Is(err, services.ErrEmailDelivery):
		httperr.Send(c, http.StatusBadGateway, httperr.CodeUpstream, "Failed to send email")
	case errors.Is(err, services.ErrStorageUpload):
		httperr.Send(c, http.StatusBadGateway, httperr.CodeUpstream, "Failed to upload file")
	case errors.Is(err, context.DeadlineExceeded):
		httperr.Send(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, "Upstream timed out")
	default:
		h.Logger.Error("request failed", "error", err, "path", c.FullPath(), "request_id", c.GetString("requestID"))
		httperr.Send(c, http.StatusInternalServerError, httperr.CodeInternal, "Server error")
	}
}

// badRequest reports a binding or validation failure.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Invalid value for "+fe.Field()+" ("+fe.Tag()+")")
		return
	}
	httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Invalid request body")
}

func forbidden(c *gin.Context, message string) {
	httperr.Send(c, http.StatusForbidden, httperr.CodeForbidden, message)
}

func invalidID(c *gin.Context, what string) {
	httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Invalid "+what+" ID")
}
