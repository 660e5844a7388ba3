// Command tarsy is mediacore's single binary. It dispatches on a verb
// (worker, scheduler, api, discord, doctor) the way a teacher-style
// orchestrator splits one binary into cooperating processes instead of
// growing one monolithic server — see spec §6.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fathomhq/mediacore/pkg/api"
	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/cleanup"
	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/database"
	"github.com/fathomhq/mediacore/pkg/events"
	"github.com/fathomhq/mediacore/pkg/httpclient"
	"github.com/fathomhq/mediacore/pkg/ingest"
	"github.com/fathomhq/mediacore/pkg/llm"
	"github.com/fathomhq/mediacore/pkg/masking"
	"github.com/fathomhq/mediacore/pkg/memory"
	"github.com/fathomhq/mediacore/pkg/mission"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/resilience"
	"github.com/fathomhq/mediacore/pkg/scheduler"
)

// Exit codes (spec §6): 0 success, 1 generic failure, 2 configuration
// invalid, 3 an external dependency (database, LLM service) is unavailable.
const (
	exitOK             = 0
	exitFailure        = 1
	exitConfigInvalid  = 2
	exitDependencyDown = 3
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tarsy <worker|scheduler|api|discord|doctor> [flags]")
		return exitFailure
	}
	verb := args[0]

	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	configDir := fs.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	podID := fs.String("pod-id", getEnv("POD_ID", "tarsy-0"), "Unique identifier for this process, used for lease ownership")
	addr := fs.String("addr", getEnv("HTTP_ADDR", ":"+getEnv("HTTP_PORT", "8080")), "HTTP listen address (api verb only)")
	if err := fs.Parse(args[1:]); err != nil {
		return exitFailure
	}

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v (continuing with existing environment)", envPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Printf("configuration invalid: %v", err)
		return exitConfigInvalid
	}

	switch verb {
	case "worker":
		return runWorker(ctx, cfg, *podID)
	case "scheduler":
		return runScheduler(ctx, cfg, *podID)
	case "api":
		return runAPI(ctx, cfg, *addr)
	case "discord":
		return runDiscord(ctx, cfg)
	case "doctor":
		return runDoctor(ctx, cfg, *configDir)
	default:
		fmt.Fprintf(os.Stderr, "unknown verb %q: want worker, scheduler, api, discord, or doctor\n", verb)
		return exitFailure
	}
}

// openDatabase loads DB config from the environment and connects, the
// shape every verb shares with the teacher's cmd/tarsy bootstrap.
func openDatabase(ctx context.Context) (*database.Client, error) {
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}
	return dbClient, nil
}

// connectorRegistry builds the one connector set shared by the ingestion
// pipeline and the scheduler — both take the identical interface shape
// (scheduler.ConnectorRegistry / ingest.ConnectorRegistry), so one registry
// instance serves both.
func connectorRegistry(httpc *httpclient.Client) scheduler.StaticConnectorRegistry {
	return scheduler.StaticConnectorRegistry{
		queue.SourceRSS:    connector.NewRSSConnector(httpc),
		queue.SourceManual: connector.ManualConnector{},
	}
}

func runWorker(ctx context.Context, cfg *config.Config, podID string) int {
	dbClient, err := openDatabase(ctx)
	if err != nil {
		slog.Error("worker: database unavailable", "error", err)
		return exitDependencyDown
	}
	defer dbClient.Close()
	db := dbClient.DB()

	breakers := resilience.NewRegistry(cfg.Breaker)
	httpc := httpclient.New(cfg.HTTP, breakers)
	registry := connectorRegistry(httpc)

	llmClient, err := llm.NewClient(getEnv("LLM_ADDR", "localhost:50051"))
	if err != nil {
		slog.Error("worker: LLM service unavailable", "error", err)
		return exitDependencyDown
	}
	defer llmClient.Close()

	filter := masking.NewFilter(cfg.Masking)

	adapter := memory.NewSQLAdapter(db)
	embedder := memory.NewEmbeddingCache(llmClient)
	memStore := memory.NewStore(adapter, embedder, nil)

	provenance := ingest.NewSQLProvenanceStore(db)
	pipeline := ingest.NewPipeline(registry, httpc, llmClient, filter, embedder, memStore, provenance, cfg)

	store := queue.NewStore(db)
	pool := queue.NewWorkerPool(podID, store, &cfg.Queue, pipeline)

	sweeper := cleanup.NewService(db, cleanup.Config{
		IngestJobRetention: 30 * 24 * time.Hour,
		OutboxRetention:    cfg.Mission.OutboxRetention,
		MemoryRetention:    30 * 24 * time.Hour,
		EventRetention:     7 * 24 * time.Hour,
		Interval:           time.Hour,
	})
	sweeper.Start(ctx)
	defer sweeper.Stop()

	slog.Info("worker: starting", "pod_id", podID, "workers", cfg.Queue.WorkerCount)
	if err := pool.Start(ctx); err != nil {
		slog.Error("worker: pool failed to start", "error", err)
		return exitFailure
	}

	<-ctx.Done()
	slog.Info("worker: shutting down")
	pool.Stop()
	return exitOK
}

func runScheduler(ctx context.Context, cfg *config.Config, podID string) int {
	dbClient, err := openDatabase(ctx)
	if err != nil {
		slog.Error("scheduler: database unavailable", "error", err)
		return exitDependencyDown
	}
	defer dbClient.Close()
	db := dbClient.DB()

	breakers := resilience.NewRegistry(cfg.Breaker)
	httpc := httpclient.New(cfg.HTTP, breakers)
	registry := connectorRegistry(httpc)

	watches := scheduler.NewSQLWatchStore(db)
	jobs := queue.NewStore(db)
	policy := bandit.NewThompson(bandit.RewardBounded)
	sched := scheduler.NewScheduler(watches, jobs, registry, policy, cfg.Queue.TickBatchSize)

	interval := cfg.Queue.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("scheduler: starting", "pod_id", podID, "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler: shutting down")
			return exitOK
		case <-ticker.C:
			if err := sched.Tick(ctx); err != nil {
				slog.Error("scheduler: tick failed", "error", err)
			}
		}
	}
}

func runAPI(ctx context.Context, cfg *config.Config, addr string) int {
	dbClient, err := openDatabase(ctx)
	if err != nil {
		slog.Error("api: database unavailable", "error", err)
		return exitDependencyDown
	}
	defer dbClient.Close()
	db := dbClient.DB()

	eventService := events.NewEventService(db)
	connManager := events.NewConnectionManager(eventService, 10*time.Second)

	dbConfig, err := database.LoadConfigFromEnv()
	if err == nil {
		connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dbConfig.Host, dbConfig.Port, dbConfig.User, dbConfig.Password, dbConfig.Database, dbConfig.SSLMode)
		listener := events.NewNotifyListener(connString, connManager)
		connManager.SetListener(listener)
		if err := listener.Start(ctx); err != nil {
			slog.Warn("api: NOTIFY listener failed to start, falling back to polling-only catchup", "error", err)
		}
	}

	outbox := mission.NewSQLOutboxStore(db)

	adapter := memory.NewSQLAdapter(db)
	llmClient, err := llm.NewClient(getEnv("LLM_ADDR", "localhost:50051"))
	var embedder memory.Embedder
	if err != nil {
		slog.Warn("api: LLM service unavailable, memory search runs without embeddings", "error", err)
	} else {
		defer llmClient.Close()
		embedder = memory.NewEmbeddingCache(llmClient)
	}
	memStore := memory.NewStore(adapter, embedder, nil)

	// This process has no worker pool of its own — /health reports on the
	// database only, matching spec §6's "liveness probe shouldn't restart
	// over an external dependency" policy from the worker pool's own health.
	server := api.NewServer(dbClient, nil, connManager, outbox, memStore)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api: listening", "addr", addr)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("api: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("api: graceful shutdown failed", "error", err)
			return exitFailure
		}
		return exitOK
	case err := <-errCh:
		slog.Error("api: server failed", "error", err)
		return exitFailure
	}
}

// runDiscord is a contract stub: spec's Non-goals exclude a live Discord
// bridge implementation, but §6 still names "discord" as a recognized verb
// so deployment tooling can dispatch on it uniformly.
func runDiscord(ctx context.Context, cfg *config.Config) int {
	slog.Warn("discord: bridge not implemented in this build; see spec Non-goals")
	return exitOK
}

// runDoctor validates configuration and external dependency connectivity
// without doing any work, for use as a readiness gate in deployment
// pipelines (spec §6).
func runDoctor(ctx context.Context, cfg *config.Config, configDir string) int {
	slog.Info("doctor: configuration loaded", "config_dir", configDir)

	dbClient, err := openDatabase(ctx)
	if err != nil {
		slog.Error("doctor: database check failed", "error", err)
		return exitDependencyDown
	}
	defer dbClient.Close()

	status, err := database.Health(ctx, dbClient.DB())
	if err != nil {
		slog.Error("doctor: database unhealthy", "error", err)
		return exitDependencyDown
	}
	slog.Info("doctor: database healthy", "status", status.Status, "open_connections", status.OpenConnections)

	llmAddr := getEnv("LLM_ADDR", "localhost:50051")
	llmClient, err := llm.NewClient(llmAddr)
	if err != nil {
		slog.Error("doctor: LLM service unreachable", "addr", llmAddr, "error", err)
		return exitDependencyDown
	}
	llmClient.Close()
	slog.Info("doctor: LLM service reachable", "addr", llmAddr)

	slog.Info("doctor: all checks passed")
	return exitOK
}
