package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coach-scheduler/internal/scheduling"
)

// getUserID extracts the user_id placed in the context by JWTAuth and
// converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// statusFor maps a scheduling error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, scheduling.ErrInvalidTime), errors.Is(err, scheduling.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, scheduling.ErrSlotUnavailable),
		errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrSessionNotYetElapsed),
		errors.Is(err, scheduling.ErrSessionNotReschedulable),
		errors.Is(err, scheduling.ErrRescheduleAlreadyPending),
		errors.Is(err, scheduling.ErrAlreadyResolved):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes the {success:false, message} envelope for err.
func fail(c echo.Context, err error) error {
	return c.JSON(statusFor(err), echo.Map{"success": false, "message": scheduling.Message(err)})
}

// bad writes a 400 envelope with a fixed message.
func bad(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "unauthorized"})
}

// ok writes a success envelope merged with extra fields.
func ok(c echo.Context, status int, msg string, extra echo.Map) error {
	body := echo.Map{"success": true, "message": msg}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}
