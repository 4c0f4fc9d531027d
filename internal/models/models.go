// Package models defines the immutable data model exchanged through the
// core: usage periods, overage, snapshots, provider status, and the
// fetch-attempt/outcome records the pipeline and orchestrator produce.
package models

import (
	"fmt"
	"time"
)

// PeriodType is the closed set of quota-window kinds a provider reports.
type PeriodType string

const (
	PeriodSession PeriodType = "session"
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodBilling PeriodType = "billing"
)

// UsagePeriod describes a single quota window.
type UsagePeriod struct {
	Name        string     `json:"name"`
	PeriodType  PeriodType `json:"period_type"`
	Utilization int        `json:"utilization"`
	ResetsAt    *time.Time `json:"resets_at,omitempty"`
}

// OverageUsage describes paid usage above the plan allotment. Remaining
// may legitimately be negative; it is reported verbatim, never clamped.
type OverageUsage struct {
	Used      float64 `json:"used"`
	Limit     float64 `json:"limit"`
	Currency  string  `json:"currency"`
	IsEnabled bool    `json:"is_enabled"`
}

// Remaining returns limit minus used, which may be negative.
func (o OverageUsage) Remaining() float64 {
	return o.Limit - o.Used
}

// ProviderIdentity carries optional plan/org/email context for a snapshot.
type ProviderIdentity struct {
	Plan         string `json:"plan,omitempty"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email,omitempty"`
}

// StatusLevel is a provider's reported operational health.
type StatusLevel string

const (
	StatusOperational   StatusLevel = "operational"
	StatusDegraded      StatusLevel = "degraded"
	StatusPartialOutage StatusLevel = "partial_outage"
	StatusMajorOutage   StatusLevel = "major_outage"
	StatusUnknown       StatusLevel = "unknown"
)

// ProviderStatus is a provider's self-reported health, usually sourced
// from a status page adapter.
type ProviderStatus struct {
	Level       StatusLevel `json:"level"`
	Description string      `json:"description,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// UnknownStatus is the default ProviderStatus when no adapter overrides it.
func UnknownStatus() ProviderStatus {
	return ProviderStatus{Level: StatusUnknown, UpdatedAt: time.Now().UTC()}
}

// UsageSnapshot is the atomic, immutable unit exchanged through the
// system: a point-in-time description of one provider's usage.
type UsageSnapshot struct {
	Provider  string            `json:"provider"`
	FetchedAt time.Time         `json:"fetched_at"`
	Periods   []UsagePeriod     `json:"periods"`
	Overage   *OverageUsage     `json:"overage,omitempty"`
	Identity  *ProviderIdentity `json:"identity,omitempty"`
	Status    *ProviderStatus   `json:"status,omitempty"`
	Source    string            `json:"source"`
}

// ValidatePeriod enforces the invariants of spec.md §3 for a single period.
// fetchedAt is the owning snapshot's fetch time, used to judge whether a
// ResetsAt in the past should be treated as a just-happened reset rather
// than a violation.
func ValidatePeriod(p UsagePeriod, fetchedAt time.Time) error {
	if p.Utilization < 0 {
		return fmt.Errorf("period %q: utilization must be >= 0, got %d", p.Name, p.Utilization)
	}
	switch p.PeriodType {
	case PeriodSession, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodBilling:
	default:
		return fmt.Errorf("period %q: unknown period_type %q", p.Name, p.PeriodType)
	}
	// A ResetsAt in the future is fine. A ResetsAt in the past is also
	// fine — it means the window has already rolled and should be read
	// as freshly reset, not as a validation failure.
	_ = fetchedAt
	return nil
}

// ValidateSnapshot enforces the invariants of spec.md §3 on construction
// or deserialization: a successful snapshot is never empty of periods,
// and every period individually validates.
func ValidateSnapshot(s UsageSnapshot) error {
	if s.Provider == "" {
		return fmt.Errorf("snapshot: provider id is required")
	}
	if s.Source == "" {
		return fmt.Errorf("snapshot: source is required")
	}
	if len(s.Periods) == 0 {
		return fmt.Errorf("snapshot %s: periods must not be empty", s.Provider)
	}
	for _, p := range s.Periods {
		if err := ValidatePeriod(p, s.FetchedAt); err != nil {
			return fmt.Errorf("snapshot %s: %w", s.Provider, err)
		}
	}
	return nil
}

// FetchAttempt records one strategy's attempt within a pipeline run.
type FetchAttempt struct {
	Strategy   string `json:"strategy"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// FetchOutcome is the fetch pipeline's return value describing exactly
// what happened for one provider.
type FetchOutcome struct {
	ProviderID    string         `json:"provider_id"`
	Success       bool           `json:"success"`
	Snapshot      *UsageSnapshot `json:"snapshot,omitempty"`
	Source        string         `json:"source,omitempty"`
	Attempts      []FetchAttempt `json:"attempts"`
	Error         string         `json:"error,omitempty"`
	Cached        bool           `json:"cached"`
	Gated         bool           `json:"gated"`
	Fatal         bool           `json:"fatal"`
	Stale         bool           `json:"stale,omitempty"`
	GateRemaining string         `json:"gate_remaining,omitempty"`
}

// FailureRecord is a single timestamped failure kept by the failure gate.
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"error_category"`
	Message   string    `json:"message"`
}

// GateState is the persisted, serializable form of a provider's failure
// gate (see internal/gate for the behavior built on top of it).
type GateState struct {
	ProviderID       string          `json:"provider_id"`
	Failures         []FailureRecord `json:"failures"`
	GatedUntil       *time.Time      `json:"gated_until,omitempty"`
	ConsecutiveCount int             `json:"consecutive_count"`
}
