package provider

import (
	"context"
	"net/http"
	"os"
	"time"

	vuerrors "github.com/sawpanic/vibeusage/internal/errors"
	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/strategy"
)

// CredentialSource locates an API key, checking a credential file
// before falling back to an environment variable — the same order
// every credential-backed strategy in this system checks.
type CredentialSource struct {
	FilePath string
	EnvVar   string
}

// Load returns the credential and whether one was found.
func (c CredentialSource) Load() (string, bool) {
	if c.FilePath != "" {
		if data, err := os.ReadFile(c.FilePath); err == nil && len(data) > 0 {
			return string(data), true
		}
	}
	if c.EnvVar != "" {
		if value := os.Getenv(c.EnvVar); value != "" {
			return value, true
		}
	}
	return "", false
}

// APIKeyStrategy validates a provider API key with a lightweight probe
// request and reports a minimal usage snapshot from the response. Most
// API-key-authenticated providers don't expose a dedicated usage
// endpoint, so this strategy's snapshot is intentionally thin — it
// proves the key works and does not read rate-limit headers or any
// other usage data from the response.
type APIKeyStrategy struct {
	ProviderID string
	ProbeURL   string
	Credential CredentialSource
	Client     *http.Client
	AuthHeader func(req *http.Request, key string)
}

func (a *APIKeyStrategy) Name() string { return "api_key" }

func (a *APIKeyStrategy) IsAvailable(ctx context.Context) bool {
	_, ok := a.Credential.Load()
	return ok
}

func (a *APIKeyStrategy) Fetch(ctx context.Context) strategy.Result {
	key, ok := a.Credential.Load()
	if !ok {
		return strategy.Fail(vuerrors.New("no API key found", vuerrors.CategoryConfiguration, vuerrors.SeverityRecoverable).WithProvider(a.ProviderID))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.ProbeURL, nil)
	if err != nil {
		return strategy.Fail(err)
	}
	a.AuthHeader(req, key)

	resp, err := a.Client.Do(req)
	if err != nil {
		return strategy.Fail(vuerrors.Classify(err, a.ProviderID))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		message := vuerrors.ExtractErrorMessage(resp)
		classified := vuerrors.ClassifyHTTPError(resp.StatusCode, message)
		classified.WithProvider(a.ProviderID)
		if !vuerrors.ClassifyHTTPStatus(resp.StatusCode).ShouldFallback {
			return strategy.Fatal(classified)
		}
		return strategy.Fail(classified)
	}

	snapshot := &models.UsageSnapshot{
		Provider:  a.ProviderID,
		FetchedAt: time.Now().UTC(),
		Periods: []models.UsagePeriod{
			{Name: "api_key_valid", PeriodType: models.PeriodSession, Utilization: 0},
		},
		Source: "api_key",
	}
	return strategy.Ok(snapshot)
}
