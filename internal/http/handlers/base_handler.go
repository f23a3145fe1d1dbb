// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/modules/booking"
	"crewtrack/internal/modules/checkin"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/modules/pricing"
	"crewtrack/internal/modules/talent"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
	Form  any      `json:"form,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

func writeInternal(c *gin.Context, err error) {
	log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
	writeError(c, http.StatusInternalServerError, "internal", "internal error")
}

func writeCheckInError(c *gin.Context, err error, form *checkin.Form) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, checkin.ErrValidation), errors.Is(err, location.ErrBadRequest):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, location.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, checkin.ErrInFlight):
		status, code = http.StatusConflict, "in_flight"
	case errors.Is(err, location.ErrAlreadyCheckedIn):
		status, code = http.StatusConflict, "already_checked_in"
	case errors.Is(err, location.ErrNotCheckedIn):
		status, code = http.StatusConflict, "not_checked_in"
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("route", c.FullPath()).Msg("check-in mutation failed")
		status, code, msg = http.StatusBadGateway, "store_unavailable", "location store unavailable"
	}
	resp := errorResponse{Error: apiError{Code: code, Message: msg}}
	if form != nil {
		resp.Form = form
	}
	writeJSON(c, status, resp)
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrEmptySelection):
		writeError(c, http.StatusBadRequest, "empty_selection", err.Error())
	case errors.Is(err, booking.ErrBadRequest), errors.Is(err, pricing.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, pricing.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(c, http.StatusConflict, "slot_unavailable", err.Error())
	default:
		log.Error().Err(err).Str("route", c.FullPath()).Msg("booking request failed")
		writeError(c, http.StatusBadGateway, "store_unavailable", "booking store unavailable")
	}
}

func writeTalentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, talent.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "validation", err.Error())
	default:
		writeInternal(c, err)
	}
}
