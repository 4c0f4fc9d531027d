package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sawpanic/vibeusage/internal/config"
	"github.com/sawpanic/vibeusage/internal/gate"
	"github.com/sawpanic/vibeusage/internal/httpclient"
	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/orchestrator"
	"github.com/sawpanic/vibeusage/internal/pipeline"
	"github.com/sawpanic/vibeusage/internal/provider"
	"github.com/sawpanic/vibeusage/internal/store"
)

// app bundles everything a subcommand needs, built once from the
// resolved config.
type app struct {
	cfg          config.Config
	store        store.Store
	gates        *gate.Manager
	clients      *httpclient.Manager
	orchestrator *orchestrator.Orchestrator
	providers    map[string]provider.Provider
	audit        *store.AuditWriter // nil when store.postgres.enabled is false
}

// recordOutcome appends a fetch outcome to the audit trail when one is
// configured; it is a no-op otherwise.
func (a *app) recordOutcome(ctx context.Context, outcome models.FetchOutcome) {
	if a.audit != nil {
		a.audit.Record(ctx, outcome)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vibeusage.toml"
	}
	return filepath.Join(dir, "vibeusage", "config.toml")
}

func defaultBaseDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".vibeusage"
	}
	return filepath.Join(dir, "vibeusage")
}

func buildApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, &configError{fmt.Errorf("loading config %s: %w", configPath, err)}
	}

	baseDir := cfg.Store.BaseDir
	if baseDir == "" {
		baseDir = defaultBaseDir()
	}

	var st store.Store = store.NewFileStore(baseDir)
	if cfg.Store.Redis.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.Redis.Addr})
		ttl := time.Duration(cfg.Store.Redis.TTLSecs) * time.Second
		st = store.NewRedisTier(st, client, ttl)
	}

	clients := httpclient.NewManager()
	for name, p := range cfg.Providers {
		if p.RPS > 0 {
			clients.ConfigureRateLimit(name, p.RPS, p.Burst)
		}
	}

	gates := gate.NewManager()

	providers := map[string]provider.Provider{
		"claude": provider.NewClaude(),
		"gemini": provider.NewGemini(clients.Client("gemini", 30*time.Second)),
	}

	pl := pipeline.New(gates, st, time.Duration(cfg.Fetch.Timeout)*time.Second, time.Duration(cfg.Fetch.StaleThresholdMinutes)*time.Minute)
	orch := orchestrator.New(pl, cfg.Fetch.MaxConcurrent)

	var audit *store.AuditWriter
	if cfg.Store.Postgres.Enabled {
		db, err := sqlx.Open("postgres", cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, &configError{fmt.Errorf("opening postgres audit store: %w", err)}
		}
		audit = store.NewAuditWriter(db)
	}

	return &app{
		cfg:          cfg,
		store:        st,
		gates:        gates,
		clients:      clients,
		orchestrator: orch,
		providers:    providers,
		audit:        audit,
	}, nil
}

func (a *app) providerSet() orchestrator.ProviderSet {
	set := make(orchestrator.ProviderSet, len(a.providers))
	for id, p := range a.providers {
		set[id] = p.FetchStrategies()
	}
	return set
}
