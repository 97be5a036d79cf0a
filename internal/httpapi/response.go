package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape of every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Errors  any    `json:"errors"`
}

func OK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Message: message,
		Errors:  []string{},
	})
}

func Created(c *gin.Context, data any, message string) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Data:    data,
		Message: message,
		Errors:  []string{},
	})
}

// Error renders a failure. errs may be a list of messages or a
// field -> messages map; nil becomes an empty list.
func Error(c *gin.Context, status int, message string, errs any) {
	if errs == nil {
		errs = []string{}
	}
	c.JSON(status, Envelope{
		Success: false,
		Data:    nil,
		Message: message,
		Errors:  errs,
	})
}
