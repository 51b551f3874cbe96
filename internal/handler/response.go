package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/furnimarket-backend/internal/logger"
	"github.com/shinyyama/furnimarket-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeError maps service errors onto status codes. Anything unrecognized is
// logged and reported as an internal error.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "only the owner can change this listing"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "this listing no longer exists"))
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, NewErrorResponse("conflict", "concurrent update, try again"))
	case errors.Is(err, service.ErrCaptionUnavailable):
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("caption_unavailable", err.Error()))
	case errors.Is(err, service.ErrStorage):
		logger.FromContext(c.Request().Context()).Error().Err(err).Msg("storage_error")
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("storage_unavailable", "storage is unavailable, try again"))
	default:
		logger.FromContext(c.Request().Context()).Error().Err(err).Msg("unhandled_error")
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
	}
}

var mappedErrors = []error{
	service.ErrValidation,
	service.ErrForbidden,
	service.ErrNotFound,
	service.ErrConflict,
	service.ErrCaptionUnavailable,
	service.ErrStorage,
}

func isMapped(err error) bool {
	for _, target := range mappedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
