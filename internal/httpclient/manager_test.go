package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerClientIsStablePerProvider(t *testing.T) {
	m := NewManager()
	a := m.Client("claude", time.Second)
	b := m.Client("claude", time.Second)
	assert.Same(t, a, b)
}

func TestManagerClientPerformsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	m := NewManager()
	client := m.Client("claude", 5*time.Second)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitConfigureDoesNotBlockUnconfiguredProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewManager()
	client := m.Client("gemini", 5*time.Second)
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestBreakerStateStartsClosed(t *testing.T) {
	m := NewManager()
	assert.Equal(t, "closed", m.BreakerState("claude"))
}
