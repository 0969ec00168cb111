package response

import (
	"errors"
	"net/http"

	"github.com/annam-hrm/attendance-ingest-go/internal/domain/attendance"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/device"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/employee"
	"github.com/annam-hrm/attendance-ingest-go/internal/domain/ingestlog"
)

func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, Response{Status: "error", Message: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}

// HandleError maps domain errors onto HTTP statuses.
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, device.ErrNotFound),
		errors.Is(err, device.ErrUnknownPunchNotFound),
		errors.Is(err, employee.ErrNotFound),
		errors.Is(err, ingestlog.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, device.ErrAlreadyProcessed),
		errors.Is(err, employee.ErrDeviceUserIDConflict):
		Conflict(w, err.Error())
	default:
		InternalServerError(w, "internal server error")
	}
}
