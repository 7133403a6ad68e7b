package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/waypoint/internal/config"
	"github.com/rpggio/waypoint/internal/domain/activity"
	"github.com/rpggio/waypoint/internal/domain/project"
	"github.com/rpggio/waypoint/internal/mcp"
	"github.com/rpggio/waypoint/internal/scheduler"
	"github.com/rpggio/waypoint/internal/transport"
)

const usage = `usage:
  waypoint              run the server
  waypoint add-key USER_ID [DESCRIPTION]
                        create an API key acting as USER_ID and print it
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := newLogger(cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStores(ctx, cfg.DB)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer db.close()

	args := os.Args[1:]
	switch {
	case len(args) == 0:
		err = serve(ctx, cfg, db, logger)
	case args[0] == "add-key" && len(args) >= 2:
		err = addKey(ctx, db, args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, db *stores, logger *slog.Logger) error {
	// Activity writes go through the dispatcher unless the buffer is disabled.
	activitySvc := activity.NewService(db.activity, logger)
	var activityLog project.ActivityLogger = activitySvc
	var dispatcher *activity.Dispatcher
	if cfg.Activity.Buffer > 0 {
		dispatcher = activity.NewDispatcher(activitySvc, cfg.Activity.Buffer, logger)
		activityLog = dispatcher
	}

	projectSvc := project.NewService(db.projects, db.members, db.tasks, activityLog, activitySvc, logger)

	limiter := transport.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	sched := scheduler.New(db.projects, projectSvc, logger)
	if err := sched.AddProgressSweep(cfg.Progress.Schedule); err != nil {
		return err
	}
	if err := sched.AddFunc("@every 3m", "rate limiter sweep", limiter.Sweep); err != nil {
		return err
	}
	sched.Start()

	mcpServer := mcp.NewServer(mcp.Config{
		Service:       projectSvc,
		Resolver:      db.keys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		DefaultActor:  cfg.Auth.DefaultActor,
		Logger:        logger,
	})

	var runErr error
	if cfg.Transport.Mode == "stdio" {
		runErr = runStdioMode(ctx, logger, mcpServer)
	} else {
		runErr = runHTTPMode(ctx, logger, cfg, mcpServer, projectSvc, db, limiter)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	sched.Stop(shutdownCtx)
	if dispatcher != nil {
		dispatcher.Close()
	}
	return runErr
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	mcpServer *sdkmcp.Server,
	projects transport.ProjectReader,
	db *stores,
	limiter *transport.RateLimiter,
) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	auth := transport.StaticActor(cfg.Auth.DefaultActor)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(db.keys)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr: addr,
		Handler: transport.NewRouter(transport.RouterConfig{
			MCP:       mcpHandler,
			Projects:  projects,
			Health:    db,
			Auth:      auth,
			RateLimit: limiter,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func addKey(ctx context.Context, db *stores, args []string) error {
	userID := args[0]
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	token := "wp_" + hex.EncodeToString(raw)
	if err := db.keys.AddKey(ctx, token, userID, description); err != nil {
		return fmt.Errorf("store key: %w", err)
	}
	fmt.Println(token)
	return nil
}
