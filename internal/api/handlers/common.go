package handlers

import (
	"fmt"

	"github.com/streamguard/streamguard/internal/domain"
	"github.com/streamguard/streamguard/pkg/validator"
)

// ListResponse represents a list response
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// bindError converts a gin binding failure into a domain error for the
// error middleware: field-level validation failures become
// domain.ValidationErrors, everything else (malformed JSON, wrong
// types) becomes ErrInvalidInput.
func bindError(err error) error {
	if parsed := validator.ParseValidationErrors(err); len(parsed) > 0 {
		var ve domain.ValidationErrors
		for _, e := range parsed {
			ve.Add(e.Field, e.Message)
		}
		return ve
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
}
