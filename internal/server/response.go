package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mafiacore/internal/game/core"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success writes a 200 with the standard envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    "OK",
		Message: "success",
		Data:    data,
	})
}

// Error writes a domain error with its stable code and the HTTP status its
// kind maps to. Non-domain errors become opaque internal errors.
func Error(c *gin.Context, err error) {
	var domainErr *core.Error
	if !errors.As(err, &domainErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Code:    "INTERNAL_ERROR",
			Message: "internal error",
		})
		return
	}
	c.JSON(statusFor(domainErr.Kind), Response{
		Code:    domainErr.Code,
		Message: domainErr.Error(),
	})
}

// BadRequest writes a 400 validation error for malformed request bodies.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    "VALIDATION_ERROR",
		Message: message,
	})
}

func statusFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindConflict:
		return http.StatusConflict
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindTerminal:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
