// Entry point for the docgate HTTP service: structural validation of DIAN
// document pairs plus agent-assisted classification behind a chi router.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valmera/docgate/docval"
	"github.com/valmera/docgate/gemini"
	"github.com/valmera/docgate/server"
)

func main() {
	cfg, err := loadSettings()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The session profile dir is the only startup precondition.
	if err := os.MkdirAll(cfg.UserDataDir, 0o755); err != nil {
		slog.Error("profile dir", "error", err, "path", cfg.UserDataDir)
		os.Exit(1)
	}

	validator := docval.New(docval.Config{Logger: logger})

	gateway := gemini.New(gemini.Config{
		AgentURL:      cfg.AgentURL,
		UserDataDir:   cfg.UserDataDir,
		ProfileDir:    cfg.ProfileDir,
		Headless:      cfg.Headless,
		AnswerTimeout: cfg.AnswerTimeout,
		MaxQueue:      cfg.MaxQueue,
		SnapshotDir:   cfg.SnapshotDir,
		Logger:        logger,
	})
	defer gateway.Close()

	if cfg.Warmup {
		// Best effort. A cold profile still works, just slower on the
		// first classification.
		if err := gateway.Warmup(ctx); err != nil {
			slog.Warn("warmup", "error", err)
		}
	}

	svc := server.New(validator, gateway, server.Profile{
		AgentURL:    cfg.AgentURL,
		UserDataDir: cfg.UserDataDir,
		ProfileDir:  cfg.ProfileDir,
		Headless:    cfg.Headless,
	}, server.NewMetrics(), logger)

	// Optional MCP over stdio.
	if cfg.MCPTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "docgate",
			Version: "1.0.0",
		}, nil)
		validator.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp stdio", "error", err)
			}
		}()
	}

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	svc.RegisterHTTP(r)

	// HTTP server. The write timeout covers the longest classification
	// wait (answer timeout plus session setup).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "headless", cfg.Headless)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
