package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/akshita317/object-detection/internal/config"
	"github.com/akshita317/object-detection/internal/logging"
	"github.com/akshita317/object-detection/internal/provider"
	"github.com/akshita317/object-detection/internal/server"
	"github.com/akshita317/object-detection/internal/session"
	"github.com/akshita317/object-detection/internal/web"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	mode := "mcp"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("object-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "serve":
			mode = "serve"
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
			printHelp()
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is for the MCP protocol
	log := logging.New(cfg.LogLevel, os.Stderr)
	log.WithFields(logrus.Fields{
		"version":  Version,
		"commit":   GitCommit,
		"mode":     mode,
		"provider": cfg.Provider.Kind,
	}).Debug("Starting object-detect")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mode == "serve" {
		err = runHTTP(ctx, cfg, log)
	} else {
		err = runMCP(ctx, cfg, log)
	}
	if err != nil {
		log.WithError(err).Fatal("Server error")
	}
}

func printHelp() {
	fmt.Println("object-detect - object detection with annotated results")
	fmt.Println()
	fmt.Println("Usage: object-detect [serve] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)           Serve MCP over stdin/stdout")
	fmt.Println("  serve            Serve the HTTP API and websocket feed")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  OBJDETECT_PROVIDER=http|ocr|static   Detection provider (default http)")
	fmt.Println("  OBJDETECT_INFERENCE_URL=<url>        Inference endpoint for the http provider")
	fmt.Println("  OBJDETECT_FIXTURE=<file>             YAML fixture for the static provider")
	fmt.Println("  OBJDETECT_MIN_CONFIDENCE=0.5         Drop detections below this confidence")
	fmt.Println("  OBJDETECT_DETECT_TIMEOUT=30s         Per-analysis detection limit")
	fmt.Println("  OBJDETECT_STYLE_FILE=<file>          YAML overlay colours and sizes")
	fmt.Println("  OBJDETECT_EXPORT_DIR=<dir>           Where exports are written")
	fmt.Println("  OBJDETECT_ADDR=:8080                 Listen address for serve")
	fmt.Println("  OBJDETECT_LOG_LEVEL=debug            Log level")
}

func newSession(cfg *config.Config, log logrus.FieldLogger, hub *web.Hub) (*session.Session, error) {
	detector, err := provider.New(cfg.Provider, log)
	if err != nil {
		return nil, err
	}
	if err := detector.Ready(context.Background()); err != nil {
		log.WithError(err).Warn("Detection provider not ready")
	}
	sessCfg := session.Config{
		Style:         cfg.Style,
		DetectTimeout: cfg.Provider.Timeout,
	}
	if hub != nil {
		sessCfg.OnComplete = hub.BroadcastAnalysis
		sessCfg.OnReset = hub.BroadcastReset
	}
	return session.New(detector, sessCfg, log), nil
}

func runMCP(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	sess, err := newSession(cfg, log, nil)
	if err != nil {
		return err
	}
	srv := server.New(sess, server.Options{ExportDir: cfg.ExportDir, Version: Version}, log)
	return srv.Serve(ctx, os.Stdin, os.Stdout)
}

func runHTTP(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	hub := web.NewHub(log)
	sess, err := newSession(cfg, log, hub)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewHandler(sess, hub, cfg.MaxUploadBytes, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.WithField("addr", cfg.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
