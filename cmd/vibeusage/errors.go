package main

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	vuerrors "github.com/sawpanic/vibeusage/internal/errors"
)

// Exit codes per spec.md §6's external interface contract. These are
// part of the CLI's contract with automation callers, not an internal
// convenience, so they are assigned deliberately rather than left as
// one generic failure code.
const (
	exitOK             = 0
	exitFailure        = 1
	exitAuthError      = 2
	exitNetworkError   = 3
	exitConfigError    = 4
	exitPartialFailure = 5
)

// partialFailureError marks a fetch where some providers succeeded and
// others failed — distinct from a total failure, which is a general
// error, and from any single provider's own error category.
type partialFailureError struct {
	failed []string
}

func (e *partialFailureError) Error() string {
	return "some providers failed: " + joinProviders(e.failed)
}

func joinProviders(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}

// configError marks a failure in loading or validating configuration,
// so it always maps to exitConfigError regardless of the underlying
// error's shape.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error  { return e.err }

// exitCodeForError classifies an error returned from a subcommand into
// the exit code spec.md §6 documents: category-specific codes for
// structured errors, a dedicated code for partial fetch failure, and a
// generic fallback for everything else.
func exitCodeForError(err error) int {
	if err == nil {
		return exitOK
	}

	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return exitConfigError
	}

	var partial *partialFailureError
	if errors.As(err, &partial) {
		return exitPartialFailure
	}

	var ve *vuerrors.VibeusageError
	if errors.As(err, &ve) {
		switch ve.Category {
		case vuerrors.CategoryAuthentication, vuerrors.CategoryAuthorization:
			return exitAuthError
		case vuerrors.CategoryNetwork:
			return exitNetworkError
		case vuerrors.CategoryConfiguration:
			return exitConfigError
		}
	}

	return exitFailure
}

// errorEnvelope is the documented JSON shape for a failure reported with
// --json: {"error": {message, category, severity, provider?,
// remediation?, details?, timestamp}}.
type errorEnvelope struct {
	Error errorData `json:"error"`
}

type errorData struct {
	Message     string         `json:"message"`
	Category    string         `json:"category"`
	Severity    string         `json:"severity"`
	Provider    string         `json:"provider,omitempty"`
	Remediation string         `json:"remediation,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

func newErrorEnvelope(err error) errorEnvelope {
	ve := vuerrors.Classify(err, "")
	return errorEnvelope{Error: errorData{
		Message:     ve.Message,
		Category:    string(ve.Category),
		Severity:    string(ve.Severity),
		Provider:    ve.Provider,
		Remediation: ve.Remediation,
		Details:     ve.Details,
		Timestamp:   ve.Timestamp.Format(time.RFC3339),
	}}
}

// writeError reports a failure on w: the documented JSON envelope when
// asJSON is set, a plain message otherwise.
func writeError(w io.Writer, asJSON bool, err error) {
	if asJSON {
		_ = json.NewEncoder(w).Encode(newErrorEnvelope(err))
		return
	}
	_, _ = io.WriteString(w, err.Error()+"\n")
}
