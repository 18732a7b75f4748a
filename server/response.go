package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"racedesk/generator"
	"racedesk/guardrails"
	"racedesk/store"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type guardrailDetails struct {
	Model      string                 `json:"model"`
	Violations []guardrails.Violation `json:"violations"`
	Raw        string                 `json:"raw"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondDomainError maps pipeline and store errors onto HTTP statuses.
func respondDomainError(c *gin.Context, err error) {
	var (
		gerr *generator.GuardrailError
		merr *generator.ModelError
		perr *generator.ParseError
	)
	switch {
	case errors.Is(err, generator.ErrBusy):
		RespondError(c, http.StatusConflict, "busy", err)
	case errors.Is(err, generator.ErrNoEligibleModel):
		RespondError(c, http.StatusServiceUnavailable, "no_eligible_model", err)
	case errors.As(err, &gerr):
		c.JSON(http.StatusUnprocessableEntity, ErrorEnvelope{Error: APIError{
			Message: err.Error(),
			Code:    "guardrail",
			Details: guardrailDetails{Model: gerr.Model, Violations: gerr.Violations, Raw: gerr.Raw},
		}})
	case errors.Is(err, store.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, generator.ErrEmptyReport):
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	case errors.As(err, &merr), errors.As(err, &perr):
		RespondError(c, http.StatusBadGateway, "model_failure", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
