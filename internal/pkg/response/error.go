package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/pet-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// Error sends a JSON error response.
// AppErrors (directly or wrapped by a structured error) decide the status
// code; anything else is logged and reported as 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		log.Printf("unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	body := ErrorResponse{Error: appErr.Message}
	var d apperror.Detailer
	if errors.As(err, &d) {
		body.Details = d.Details()
	}
	if appErr.Code >= http.StatusInternalServerError {
		log.Printf("server error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(appErr.Code, body)
}

// BadRequest sends a 400 with an optional validation detail.
func BadRequest(c *gin.Context, msg string, err error) {
	body := ErrorResponse{Error: msg}
	if err != nil {
		body.Details = map[string]any{"reason": err.Error()}
	}
	c.JSON(http.StatusBadRequest, body)
}
