package response

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// OK sends a 200 response whose body is payload plus "success": true.
func OK(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusOK, envelope(payload))
}

// Created sends a 201 response whose body is payload plus "success": true.
func Created(c *gin.Context, payload gin.H) {
	c.JSON(http.StatusCreated, envelope(payload))
}

// Error sends the failure envelope. An *apperror.AppError anywhere in the
// chain decides status and message; any other error becomes a generic 500.
// The error is attached to the gin context so the request logger records
// the internal cause.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Error:     appErr.Message,
			Code:      appErr.Code,
			RequestID: getRequestID(c),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "Internal server error",
		Code:      "SYS_000",
		RequestID: getRequestID(c),
	})
}

// Abort writes the failure envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func envelope(payload gin.H) gin.H {
	body := gin.H{"success": true}
	for k, v := range payload {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	return body
}

func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
