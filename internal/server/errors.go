package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/login"
)

// describeError maps gate and backend errors to a status code and a message
// safe to show the operator
func describeError(err error) (int, string) {
	var se *backend.StatusError

	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, login.ErrEmptyCredentials):
		return http.StatusBadRequest, "Username and password are required"
	case errors.Is(err, login.ErrIncorrectCredentials):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, login.ErrNotAdmin):
		return http.StatusForbidden, "Signed in, but this account does not have admin access"
	case errors.Is(err, backend.ErrNotReady):
		return http.StatusServiceUnavailable, "System not ready, please refresh the page"
	case errors.Is(err, login.ErrVerification):
		return http.StatusBadGateway, "Could not confirm admin access, please try again"
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway, "Marketplace backend is unreachable, please try again"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Marketplace backend timed out, please try again"
	case errors.As(err, &se):
		switch {
		case se.Code == http.StatusNotFound:
			return http.StatusNotFound, se.Message
		case se.Code >= 400 && se.Code < 500:
			return http.StatusBadRequest, se.Message
		}
		return http.StatusBadGateway, "Marketplace backend error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
