// Package httperr writes the API's error envelope.
package httperr

import "github.com/gin-gonic/gin"

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCreds       = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeForbidden          = "INSUFFICIENT_PERMISSIONS"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeSchedulingConflict = "SCHEDULING_CONFLICT"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeDuplicate          = "DUPLICATE_RESOURCE"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Response is the body of every error reply.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
}

// Send writes an error reply and aborts the handler chain.
func Send(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Error: message, Code: code})
}

// SendReason is Send with a finer-grained reason, e.g. which booking rule failed.
func SendReason(c *gin.Context, status int, code, reason, message string) {
	c.AbortWithStatusJSON(status, Response{Error: message, Code: code, Reason: reason})
}
