package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/ganot/huddle/internal/config"
	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/domain/approval"
	"github.com/ganot/huddle/internal/domain/conversation"
	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/mcp"
	"github.com/ganot/huddle/internal/messaging"
	"github.com/ganot/huddle/internal/metrics"
	"github.com/ganot/huddle/internal/presence"
	"github.com/ganot/huddle/internal/sqlite"
	"github.com/ganot/huddle/internal/stream"
	"github.com/ganot/huddle/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	stdio := flag.Bool("stdio", false, "serve MCP over stdin/stdout for the default tenant instead of HTTP")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if *stdio {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("HUDDLE_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	})).With("instance", cfg.Instance.Name)

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	apiKeys := sqlite.NewAPIKeyRepository(db)
	if cfg.Auth.BootstrapKey != "" {
		if err := apiKeys.Create(context.Background(), cfg.Auth.DefaultTenant, cfg.Auth.BootstrapKey, "bootstrap"); err != nil {
			logger.Warn("bootstrap api key not registered", "error", err)
		}
	}

	hub := stream.NewHub(cfg.Stream.Buffer, logger)
	var broadcaster activity.Broadcaster = hub
	if cfg.NATS.URL != "" {
		natsCfg := messaging.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "huddle-" + cfg.Instance.Name
		bridge, err := messaging.NewBridge(natsCfg, hub, logger)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		defer bridge.Close()
		broadcaster = bridge
	}

	tracker, closeTracker, err := newPresence(cfg)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer closeTracker()

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), broadcaster, logger)
	conversationSvc := conversation.NewService(sqlite.NewConversationRepository(db), activitySvc, logger)
	approvalSvc := approval.NewService(sqlite.NewApprovalRepository(db), activitySvc, logger)
	taskSvc := task.NewService(sqlite.NewTaskRepository(db), activitySvc, logger)

	mcpServices := mcp.Services{
		Activity:      activitySvc,
		Conversations: conversationSvc,
		Approvals:     approvalSvc,
		Tasks:         taskSvc,
		Presence:      tracker,
	}

	if *stdio {
		runStdioMode(logger, mcp.NewServer(mcp.Config{
			Services: mcpServices,
			TenantID: cfg.Auth.DefaultTenant,
			Logger:   logger,
		}))
		return
	}

	auth := transport.StaticTenant(cfg.Auth.DefaultTenant)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(apiKeys)
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = metrics.Handler()
	}

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Activity:      activitySvc,
			Conversations: conversationSvc,
			Approvals:     approvalSvc,
			Tasks:         taskSvc,
			Presence:      tracker,
		},
		Stream: stream.NewHandler(hub, tracker, stream.Options{
			Heartbeat:      cfg.Stream.Heartbeat,
			OriginPatterns: cfg.Stream.OriginPatterns,
			Logger:         logger,
		}),
		Auth:    auth,
		MCP:     mcp.NewHTTPHandler(mcpServices, transport.TenantFromContext, logger),
		Metrics: metricsHandler,
		Logger:  logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "nats", cfg.NATS.URL != "", "redis", cfg.Redis.Addr != "")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

type presenceTracker interface {
	presence.Tracker
	Count(ctx context.Context, tenantID string) (int, error)
}

// newPresence uses Redis when configured so counts span instances. Entries
// expire after two missed heartbeats.
func newPresence(cfg config.Config) (presenceTracker, func(), error) {
	ttl := 2 * cfg.Stream.Heartbeat
	if cfg.Redis.Addr == "" {
		return presence.NewLocal(ttl), func() {}, nil
	}
	r, err := presence.NewRedis(cfg.Redis.Addr, cfg.Instance.Name, ttl)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { _ = r.Close() }, nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		// Activity streams only end when their client leaves.
		logger.Warn("shutdown timed out, closing open streams", "error", err)
		_ = server.Close()
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

// logFileWriter appends to a file and trims it back to the newest
// keepLogSizeBytes once it grows past maxLogSizeBytes.
type logFileWriter struct {
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		file.Close()
		return nil, nil, err
	}
	return writer, file, nil
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.truncateIfNeeded()
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	n, err := w.file.ReadAt(buf, size-keepLogSizeBytes)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	return nil
}
