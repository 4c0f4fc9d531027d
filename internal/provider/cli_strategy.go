package provider

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/strategy"
)

var (
	ansiPattern  = regexp.MustCompile(`\x1b\[[0-9;]*m`)
	usagePattern = regexp.MustCompile(`█\s*([\d.]+)%\s*(?:\(([^)]+)\)|\[([^\]]+)\])`)
)

// CLIStrategy fetches usage by shelling out to a provider's own CLI
// tool and parsing its human-readable usage bar output. It is the
// lowest-friction strategy for providers that ship a CLI but no stable
// usage API.
type CLIStrategy struct {
	ProviderID string
	Command    string
	Args       []string
	Run        func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCLIStrategy builds a strategy that runs command with args and
// parses its stdout for usage bars.
func NewCLIStrategy(providerID, command string, args ...string) *CLIStrategy {
	return &CLIStrategy{
		ProviderID: providerID,
		Command:    command,
		Args:       args,
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			cmd := exec.CommandContext(ctx, name, args...)
			var stdout bytes.Buffer
			cmd.Stdout = &stdout
			err := cmd.Run()
			return stdout.Bytes(), err
		},
	}
}

func (c *CLIStrategy) Name() string { return "cli" }

func (c *CLIStrategy) IsAvailable(ctx context.Context) bool {
	_, err := exec.LookPath(c.Command)
	return err == nil
}

func (c *CLIStrategy) Fetch(ctx context.Context) strategy.Result {
	output, err := c.Run(ctx, c.Command, c.Args...)
	if err != nil {
		if !c.IsAvailable(ctx) {
			return strategy.Fail(errNotFound(c.Command))
		}
		return strategy.Fail(err)
	}

	snapshot := parseUsageBars(c.ProviderID, string(output))
	if snapshot == nil {
		return strategy.Fail(errParse(c.Command))
	}
	return strategy.Ok(snapshot)
}

// parseUsageBars extracts usage periods from lines like
// "█ 45.2% (5-hour session)" after stripping ANSI color codes.
func parseUsageBars(providerID, output string) *models.UsageSnapshot {
	clean := ansiPattern.ReplaceAllString(output, "")

	var periods []models.UsagePeriod
	for _, line := range strings.Split(clean, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "█") {
			continue
		}

		match := usagePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		utilization, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}

		name := match[2]
		if name == "" {
			name = match[3]
		}
		if name == "" {
			name = "Usage"
		}

		periods = append(periods, models.UsagePeriod{
			Name:        name,
			Utilization: int(utilization),
			PeriodType:  classifyPeriodName(name),
		})
	}

	if len(periods) == 0 {
		return nil
	}

	return &models.UsageSnapshot{
		Provider:  providerID,
		FetchedAt: time.Now().UTC(),
		Periods:   periods,
		Source:    "cli",
	}
}

func classifyPeriodName(name string) models.PeriodType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "hour"), strings.Contains(lower, "session"):
		return models.PeriodSession
	case strings.Contains(lower, "week"):
		return models.PeriodWeekly
	case strings.Contains(lower, "month"), strings.Contains(lower, "billing"):
		return models.PeriodMonthly
	case strings.Contains(lower, "day"):
		return models.PeriodDaily
	default:
		return models.PeriodDaily
	}
}

type cliError struct{ msg string }

func (e cliError) Error() string { return e.msg }

func errNotFound(command string) error {
	return cliError{msg: command + ": not found in PATH"}
}

func errParse(command string) error {
	return cliError{msg: command + ": failed to parse usage output"}
}
