package generator

import (
	"errors"
	"fmt"
	"strings"

	"racedesk/guardrails"
)

var (
	// ErrNoEligibleModel means the candidate list was empty before any call.
	ErrNoEligibleModel = errors.New("no supported models found for this API key")

	// ErrModelUnsupported is wrapped by clients when the provider reports an
	// unknown or unsupported model identifier.
	ErrModelUnsupported = errors.New("model not supported")

	// ErrBusy is returned while another invocation holds the session.
	ErrBusy = errors.New("an instruction is already in progress")

	// ErrEmptyReport rejects generation from blank input.
	ErrEmptyReport = errors.New("raw report is empty")
)

// ModelErrorKind classifies a failed candidate call.
type ModelErrorKind string

const (
	KindUnsupported ModelErrorKind = "unsupported"
	KindTransport   ModelErrorKind = "transport"
	KindCanceled    ModelErrorKind = "canceled"
)

// ModelError wraps the failure of one candidate.
type ModelError struct {
	Model string
	Kind  ModelErrorKind
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s (%s): %v", e.Model, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Retryable reports whether the chain may move on to the next candidate.
// Unsupported models always advance; cancellation never does.
func (e *ModelError) Retryable(failFast bool) bool {
	switch e.Kind {
	case KindUnsupported:
		return true
	case KindTransport:
		return !failFast
	}
	return false
}

// ParseErrorKind classifies a schema failure.
type ParseErrorKind string

const (
	ParseMalformed    ParseErrorKind = "malformed"
	ParseNotObject    ParseErrorKind = "not_object"
	ParseMissingField ParseErrorKind = "missing_field"
	ParseWrongType    ParseErrorKind = "wrong_type"
)

// ParseError reports why model output could not be used as a fragment.
type ParseError struct {
	Kind  ParseErrorKind
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	msg := "parse " + string(e.Kind)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// GuardrailError rejects a fragment. Raw is the model text exactly as returned.
type GuardrailError struct {
	Model      string
	Violations []guardrails.Violation
	Raw        string
}

func (e *GuardrailError) Error() string {
	return fmt.Sprintf("guardrail rejected output from %s: %d violation(s)", e.Model, len(e.Violations))
}

// unsupportedSignatures are substrings providers use for unknown models.
var unsupportedSignatures = []string{"404", "not found", "unsupported", "not supported"}

func looksUnsupported(err error) bool {
	if errors.Is(err, ErrModelUnsupported) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range unsupportedSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
