package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/placement-engine/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *types.ErrValidation
		notFoundErr   *types.ErrNotFound
		configErr     *types.ErrConfiguration
		upstreamErr   *types.ErrUpstreamUnavailable
		validatorErrs validator.ValidationErrors
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr), errors.As(err, &validatorErrs):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal failures from clients.
func publicMessage(err error, status int) string {
	var validatorErrs validator.ValidationErrors
	switch {
	case status >= http.StatusInternalServerError:
		return http.StatusText(status)
	case errors.As(err, &validatorErrs) && len(validatorErrs) > 0:
		ve := validatorErrs[0]
		return "validation error: " + ve.Field() + " - " + ve.Tag()
	default:
		return err.Error()
	}
}
