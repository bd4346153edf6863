// Package types provides the request and response shapes of the HTTP API.
package types

import (
	"github.com/go-playground/validator/v10"
)

// validate is shared by all request types. *validator.Validate is safe for concurrent use.
var validate = validator.New()

// ParseAlertBodyRequest is the body of POST /cipp/parse_messages_from_email_alert_body.
type ParseAlertBodyRequest struct {
	APIKey           string   `json:"api_key" validate:"required"`
	Body             string   `json:"body"`
	DomainExclusions []string `json:"domain_exclusions" validate:"max=10000"`
}

// FilterByExclusionsRequest is the body of POST /generic/filter_by_exclusions.
type FilterByExclusionsRequest struct {
	APIKey     string   `json:"api_key" validate:"required"`
	Strings    []string `json:"strings" validate:"max=10000"`
	Exclusions []string `json:"exclusions" validate:"max=10000"`
}

// Response is returned by both processing endpoints. Both lists are always
// present in the JSON output.
type Response struct {
	FilteredMessages []string `json:"filtered_messages"`
	ErrorMessages    []string `json:"error_messages"`
}

// NewResponse builds a Response, replacing nil lists with empty ones.
func NewResponse(messages, errs []string) *Response {
	if messages == nil {
		messages = []string{}
	}
	if errs == nil {
		errs = []string{}
	}
	return &Response{FilteredMessages: messages, ErrorMessages: errs}
}

// Validate validates the ParseAlertBodyRequest using the validator.
func (r *ParseAlertBodyRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the FilterByExclusionsRequest using the validator.
func (r *FilterByExclusionsRequest) Validate() error {
	return validate.Struct(r)
}
