package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of failed responses.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeWebhookVerification = "WEBHOOK_VERIFICATION_FAILED"
	CodeInvalidSignature    = "INVALID_WEBHOOK_SIGNATURE"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL_ERROR"
)

// APIError is a caller-facing failure.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func NewValidationError(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func NewNotFoundError(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func NewInternalError() *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal server error"}
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondWithSource(c *gin.Context, data any, source any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "source": source})
}

func abortWithError(c *gin.Context, err *APIError) {
	c.AbortWithStatusJSON(err.Status, gin.H{
		"success": false,
		"error":   err.Message,
		"code":    err.Code,
	})
}
