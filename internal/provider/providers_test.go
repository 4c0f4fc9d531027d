package provider

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeMetadataAndStrategies(t *testing.T) {
	c := NewClaude()
	assert.Equal(t, "claude", c.Metadata().ID)
	strategies := c.FetchStrategies()
	require.Len(t, strategies, 1)
	assert.Equal(t, "cli", strategies[0].Name())
}

func TestGeminiMetadataAndStrategies(t *testing.T) {
	g := NewGemini(http.DefaultClient)
	assert.Equal(t, "gemini", g.Metadata().ID)
	strategies := g.FetchStrategies()
	require.Len(t, strategies, 1)
	assert.Equal(t, "api_key", strategies[0].Name())
}
