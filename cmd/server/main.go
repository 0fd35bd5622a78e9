package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"ludarena/auth"
	"ludarena/infrastructure/web"
	"ludarena/internal"
	"ludarena/matchmaking"
	"ludarena/observability"
	"ludarena/repositories"
	"ludarena/rules"
	"ludarena/rules/remote"
	"ludarena/runtime"
	"ludarena/runtime/workers"
	"ludarena/services"
	"ludarena/session"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Arena terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := internal.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Rules oracle
	// A configured URL selects the external sidecar; without one the
	// built-in scripted oracle takes over (local play and development).
	var oracle rules.Oracle
	if config.OracleURL != "" {
		client := remote.NewClient(config.OracleURL, config.OracleTimeout, logger)
		if err := client.Dial(ctx); err != nil {
			return exitRuntime, fmt.Errorf("oracle unreachable at %s: %w", config.OracleURL, err)
		}
		oracle = client
	} else {
		logger.Warn("ORACLE_URL not set, using the built-in scripted oracle")
		oracle = rules.NewScript()
	}

	// 4. Storage, matchmaking, sessions, fanout
	accountRepository := repositories.NewAccountRepository(db)
	recordRepository := repositories.NewRecordRepository(db, logger)
	snapshotRepository := repositories.NewSessionSnapshotRepository(db)
	queueSnapshotRepository := repositories.NewQueueSnapshotRepository(db)

	queue := matchmaking.NewQueue(logger, config.QueueTolerance)
	manager := session.NewManager(logger, oracle)
	hub := runtime.NewHub(logger)
	coordinator := runtime.NewCoordinator(
		logger, queue, manager, hub,
		accountRepository, recordRepository, snapshotRepository, queueSnapshotRepository,
	)

	if err := coordinator.Restore(); err != nil {
		return exitRuntime, fmt.Errorf("restore from disk: %w", err)
	}
	logger.Info("State restored", "sessions", len(manager.Active()), "queued", len(queue.Snapshot()))

	// 5. Monitoring & debug inspector
	monitoring := observability.NewMonitoringManager(logger, observability.Gauges{
		LiveSessions:       func() int { return len(manager.Active()) },
		QueuedAccounts:     func() int { return len(queue.Snapshot()) },
		PendingSettlements: coordinator.Pending().Len,
	})
	coordinator.SetMetrics(monitoring)

	if config.DebugPort > 0 {
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
		internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
			stats := monitoring.GetLatest()
			return map[string]any{
				"live_sessions":       stats.LiveSessions,
				"queued_accounts":     stats.QueuedAccounts,
				"pending_settlements": stats.PendingSettlements,
				"matches_made":        stats.MatchesMade,
				"moves_committed":     stats.MovesCommitted,
				"settlements_applied": stats.SettlementsApplied,
				"rss_mb":              stats.RssMb,
			}
		})
	}

	// 6. Services & HTTP surface
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(accountRepository, tokens)
	profileService := services.NewProfileService(accountRepository, recordRepository)
	arenaService := services.NewArenaService(coordinator, manager, recordRepository)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := web.NewServer(logger, address, authService, profileService, arenaService, tokens, hub)
	server.AttachStats(func() any { return monitoring.GetLatest() })

	// 7. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Error (HTTP & supervisor)
	errChan := make(chan error, 1)

	// 8. Background loops under supervision
	sup := workers.NewSupervisor(logger)
	sup.Add(
		workers.NewSettlementRetryWorker(logger, coordinator, config.SettlementRetryInterval, monitoring.IncrSettlementRetries),
		workers.NewSnapshotSweeperWorker(logger, coordinator, config.SnapshotInterval),
		workers.NewBadgerGCWorker(logger, db, config.BadgerGCInterval),
		workers.NewMonitoringWorker(monitoring),
	)
	go sup.Run(ctx)

	// Use an error channel to capture ListenAndServe() issues asynchronously.
	go func() {
		logger.Info("Starting arena server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 10. Final Cleanup (Graceful Shutdown)
	// Active websocket clients get the close handshake, workers drain,
	// and a last sweep mirrors live sessions for the next boot.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	coordinator.MirrorAll()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
