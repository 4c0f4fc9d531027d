package errors

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHTTPStatusTableVerbatim(t *testing.T) {
	cases := []struct {
		status         int
		category       Category
		severity       Severity
		shouldRetry    bool
		shouldFallback bool
		retryAfter     bool
	}{
		{401, CategoryAuthentication, SeverityRecoverable, false, true, false},
		{403, CategoryAuthorization, SeverityRecoverable, false, true, false},
		{404, CategoryNotFound, SeverityRecoverable, false, true, false},
		{429, CategoryRateLimited, SeverityTransient, true, false, true},
		{500, CategoryProvider, SeverityTransient, true, true, false},
		{502, CategoryProvider, SeverityTransient, true, true, false},
		{503, CategoryProvider, SeverityTransient, true, true, false},
		{504, CategoryProvider, SeverityTransient, true, true, false},
	}

	for _, tc := range cases {
		m := ClassifyHTTPStatus(tc.status)
		assert.Equal(t, tc.category, m.Category, "status %d category", tc.status)
		assert.Equal(t, tc.severity, m.Severity, "status %d severity", tc.status)
		assert.Equal(t, tc.shouldRetry, m.ShouldRetry, "status %d retry", tc.status)
		assert.Equal(t, tc.shouldFallback, m.ShouldFallback, "status %d fallback", tc.status)
		assert.Equal(t, tc.retryAfter, m.RetryAfterAware, "status %d retry-after", tc.status)
	}
}

func TestClassifyHTTPStatusFallthroughIsTotal(t *testing.T) {
	m418 := ClassifyHTTPStatus(418)
	assert.Equal(t, CategoryUnknown, m418.Category)
	assert.True(t, m418.ShouldFallback)

	m599 := ClassifyHTTPStatus(599)
	assert.Equal(t, CategoryProvider, m599.Category)
	assert.True(t, m599.ShouldRetry)

	m999 := ClassifyHTTPStatus(999)
	assert.Equal(t, CategoryUnknown, m999.Category)
}

func TestExtractErrorMessageProbesKnownKeys(t *testing.T) {
	resp := &http.Response{
		StatusCode: 400,
		Body:       io.NopCloser(bytes.NewBufferString(`{"message":"bad request"}`)),
	}
	assert.Equal(t, "bad request", ExtractErrorMessage(resp))
}

func TestExtractErrorMessageNestedKey(t *testing.T) {
	resp := &http.Response{
		StatusCode: 400,
		Body:       io.NopCloser(bytes.NewBufferString(`{"error":{"message":"nested detail"}}`)),
	}
	assert.Equal(t, "nested detail", ExtractErrorMessage(resp))
}

func TestExtractErrorMessageFallsBackToRawText(t *testing.T) {
	resp := &http.Response{
		StatusCode: 503,
		Body:       io.NopCloser(bytes.NewBufferString(`service unavailable`)),
	}
	assert.Equal(t, "service unavailable", ExtractErrorMessage(resp))
}

func TestExtractErrorMessageFallsBackToStatus(t *testing.T) {
	resp := &http.Response{
		StatusCode: 500,
		Body:       io.NopCloser(bytes.NewBufferString(``)),
	}
	assert.Equal(t, "HTTP 500", ExtractErrorMessage(resp))
}

func TestClassifyPreservesExistingVibeusageError(t *testing.T) {
	original := New("already classified", CategoryParse, SeverityRecoverable)
	got := Classify(original, "claude")
	require.Same(t, original, got)
}
