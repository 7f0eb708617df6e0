// Package httpapi exposes ingestion, operator commands and queries over HTTP.
// Every response uses the same {code, message, data} envelope.
package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/railctl/internal/errs"
)

// Response represents a standard API response
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Fail maps a service error to its HTTP status.
func Fail(c *gin.Context, err error) {
	c.Error(err)
	Error(c, StatusFor(err), err.Error())
}

// StatusFor returns the HTTP status for a service error.
func StatusFor(err error) int {
	var (
		validation *errs.ValidationError
		notFound   *errs.NotFoundError
		transition *errs.InvalidTransitionError
		config     *errs.ConfigError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &config):
		return http.StatusUnprocessableEntity
	}
	log.Printf("[http] internal error: %v", err)
	return http.StatusInternalServerError
}
