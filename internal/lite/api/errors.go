package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yigit/schoolsphere/internal/lite/store"
)

var (
	errBadCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Incorrect username or password")
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
	errForbidden      = echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
	errBadID          = echo.NewHTTPError(http.StatusBadRequest, "invalid id")
)

// storeStatus maps store sentinels onto responses.
var storeStatus = map[error]int{
	store.ErrNotFound:    http.StatusNotFound,
	store.ErrDuplicate:   http.StatusBadRequest,
	store.ErrUnavailable: http.StatusBadRequest,
	store.ErrReturned:    http.StatusBadRequest,
	store.ErrLoanLimit:   http.StatusBadRequest,
	store.ErrInactive:    http.StatusBadRequest,
	store.ErrInUse:       http.StatusConflict,
}

// errorHandler writes {"detail": ...} for every failure and forwards 5xx
// to the reporter.
func (s *Server) errorHandler(err error, c echo.Context) {
	var (
		code   int
		detail interface{}
	)

	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		code = cause.Code
		detail = cause.Message
		if cause == errUnauthorized || cause == errBadCredentials {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
	case validator.ValidationErrors:
		code = http.StatusBadRequest
		detail = s.validator.fields(cause)
	default:
		if status, ok := storeStatus[cause]; ok {
			code = status
			detail = cause.Error()
			break
		}

		code = http.StatusInternalServerError
		detail = http.StatusText(code)
		principal, _ := c.Get(principalKey).(*Principal)
		s.logger.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("Unhandled request error")
		s.reporter.Report(c.Request(), err, principal)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"detail": detail})
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Writing error response")
	}
}
