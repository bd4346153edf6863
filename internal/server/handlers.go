package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jonathan/power-automate-api/internal/generic"
	"github.com/jonathan/power-automate-api/internal/logging"
	"github.com/jonathan/power-automate-api/internal/schemas"
	"github.com/jonathan/power-automate-api/internal/types"
)

// handleParseAlertBody extracts summaries from a CIPP alert e-mail body.
func (s *Server) handleParseAlertBody(w http.ResponseWriter, r *http.Request) {
	var req types.ParseAlertBodyRequest
	if err := s.decodeRequest(r, schemas.ParseAlertBodyRequest, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, toValidationError(err).Error())
		return
	}

	logger := logging.FromContext(r.Context())

	outcome, err := s.parser.Parse(req.Body, req.DomainExclusions)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusUnprocessableEntity {
			logger.Warn("rejected domain exclusions", "error", err)
			s.jsonResponse(w, status, types.NewResponse(nil, []string{err.Error()}))
			return
		}
		logger.Error("failed to parse alert body", "error", err)
		s.errorResponse(w, status, "failed to parse alert body")
		return
	}

	if len(outcome.RowErrors) > 0 {
		logger.Warn("alert body contained malformed rows", "row_errors", len(outcome.RowErrors))
	}

	s.jsonResponse(w, http.StatusOK, types.NewResponse(outcome.Messages, outcome.RowErrors))
}

// handleFilterByExclusions drops strings containing any of the exclusions.
func (s *Server) handleFilterByExclusions(w http.ResponseWriter, r *http.Request) {
	var req types.FilterByExclusionsRequest
	if err := s.decodeRequest(r, schemas.FilterByExclusionsRequest, &req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, toValidationError(err).Error())
		return
	}

	filtered := generic.FilterByExclusions(req.Strings, req.Exclusions)
	s.jsonResponse(w, http.StatusOK, types.NewResponse(filtered, nil))
}

// decodeRequest validates the body against the named schema and decodes it into v.
func (s *Server) decodeRequest(r *http.Request, schema string, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &ErrValidation{Field: "body", Message: "failed to read request body"}
	}

	if err := schemas.ValidateRequest(schema, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	return nil
}
