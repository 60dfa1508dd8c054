package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-exam-service/internal/response"
	"github.com/stemsi/exstem-exam-service/internal/service"
)

// failWithError maps a service error onto a status code and API error code.
// Anything unrecognised is logged and reported as 500.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAssignmentNotFound)
	case errors.Is(err, service.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrInvalidStatus):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidStatus)
	case errors.Is(err, service.ErrInvalidSchedule):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSchedule)
	case errors.Is(err, service.ErrInvalidInput):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())

	case errors.Is(err, service.ErrResultExists):
		response.Fail(c, http.StatusConflict, response.ErrResultSubmitted)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)

	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled service error")
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramUUID parses a path parameter, answering 400 INVALID_ID when malformed.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID,
			map[string]string{name: "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}
