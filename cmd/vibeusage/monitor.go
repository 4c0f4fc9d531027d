package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/monitor"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the HTTP monitor server (/health, /metrics, /snapshot, /stream)",
		RunE:  runMonitor,
	}
	cmd.Flags().String("addr", "", "bind address (defaults to monitor.addr in config, or 127.0.0.1:8080)")
	return cmd
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Monitor.Addr
	}

	metrics := monitor.NewMetrics(prometheus.DefaultRegisterer)
	server := monitor.New(monitor.DefaultConfig(addr), a.store, a.gates, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stopFetchLoop := make(chan struct{})
	go runPeriodicFetchLoop(a, server, metrics, stopFetchLoop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		close(stopFetchLoop)
		if err != nil {
			return fmt.Errorf("monitor server: %w", err)
		}
		return nil
	case <-sigCh:
		log.Info().Msg("shutting down monitor server")
		close(stopFetchLoop)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

// runPeriodicFetchLoop drives the orchestrator on a fixed interval so the
// monitor server has something to report: each outcome updates the
// Prometheus metrics and is pushed to every connected /stream client as
// it completes, via the orchestrator's on_complete callback. An interval
// of zero disables the loop — the monitor then only serves whatever the
// store already has cached.
func runPeriodicFetchLoop(a *app, server *monitor.Server, metrics *monitor.Metrics, stop <-chan struct{}) {
	interval := time.Duration(a.cfg.Monitor.IntervalSeconds) * time.Second
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func() {
		start := time.Now()
		ctx := context.Background()
		providers := a.providerSet()
		a.orchestrator.FetchEnabled(ctx, providers, a.cfg.IsProviderEnabled, func(outcome models.FetchOutcome) {
			result := "success"
			if !outcome.Success {
				result = "failure"
			}
			metrics.ObserveOutcome(outcome.ProviderID, result, time.Since(start).Seconds())
			server.Broadcast(outcome)
			a.recordOutcome(ctx, outcome)
		})
	}

	runOnce()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
