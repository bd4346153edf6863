package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/power-automate-api/internal/cipp"
	"github.com/jonathan/power-automate-api/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		constructionErr *cipp.ConstructionError
		validationErr   *ErrValidation
		schemaErr       *schemas.ValidationError
		documentErr     *schemas.DocumentError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &constructionErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validationErr), errors.As(err, &schemaErr), errors.As(err, &documentErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// toValidationError converts validator output into an *ErrValidation
// describing the first failing field.
func toValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: "invalid request"}
}
