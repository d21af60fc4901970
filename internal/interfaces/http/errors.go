package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the body of a successful state transition
type MessageResponse struct {
	Message string `json:"message"`
}

var validationErrors = []error{
	entity.ErrInvalidType,
	entity.ErrInvalidAmount,
	entity.ErrDoctorRequired,
	entity.ErrInvalidPeriod,
	entity.ErrInvalidDate,
	entity.ErrUnknownDoctor,
	workflow.ErrInvalidState,
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	detail := err.Error()
	switch status {
	case http.StatusNotFound:
		detail = "Voucher not found"
	case http.StatusInternalServerError:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		detail = "Internal server error"
	}
	c.JSON(status, ErrorResponse{Detail: detail})
}

func badRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Detail: detail})
}
