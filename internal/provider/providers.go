package provider

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/sawpanic/vibeusage/internal/strategy"
)

// Claude is an illustrative provider backed by the claude CLI's usage
// bars. Most CLI-based providers follow this exact shape: one strategy,
// no network client of their own.
type Claude struct {
	Base
}

// NewClaude builds the Claude provider adapter.
func NewClaude() *Claude {
	return &Claude{Base{Meta: Metadata{
		ID:          "claude",
		Name:        "Claude",
		Description: "Anthropic's Claude, usage reported via the claude CLI.",
		Homepage:    "https://www.anthropic.com/claude",
	}}}
}

func (c *Claude) FetchStrategies() []strategy.Strategy {
	return []strategy.Strategy{
		NewCLIStrategy("claude", "claude", "/usage"),
	}
}

// Gemini is an illustrative provider backed by an API key probe, since
// Google AI's quota model doesn't expose a dedicated usage endpoint the
// way a CLI-fronted provider does.
type Gemini struct {
	Base
	client *http.Client
}

// NewGemini builds the Gemini provider adapter. client is the shared,
// pooled HTTP client for the "gemini" provider (see internal/httpclient).
func NewGemini(client *http.Client) *Gemini {
	return &Gemini{
		Base: Base{Meta: Metadata{
			ID:          "gemini",
			Name:        "Gemini",
			Description: "Google's Gemini, validated via an API key probe request.",
			Homepage:    "https://ai.google.dev",
		}},
		client: client,
	}
}

func (g *Gemini) FetchStrategies() []strategy.Strategy {
	credentialDir, err := os.UserConfigDir()
	var filePath string
	if err == nil {
		filePath = filepath.Join(credentialDir, "vibeusage", "credentials", "gemini", "api_key.txt")
	}

	return []strategy.Strategy{
		&APIKeyStrategy{
			ProviderID: "gemini",
			ProbeURL:   "https://generativelanguage.googleapis.com/v1beta/models",
			Credential: CredentialSource{FilePath: filePath, EnvVar: "GEMINI_API_KEY"},
			Client:     g.client,
			AuthHeader: func(req *http.Request, key string) {
				q := req.URL.Query()
				q.Set("key", key)
				req.URL.RawQuery = q.Encode()
			},
		},
	}
}
