// disktray: guidance server for wearable disk tray assembly.
// Detectors stream per-frame detections over WebSocket or HTTP and get
// back the next instruction for the user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-disktray/internal/config"
	"github.com/teslashibe/go-disktray/internal/log"
	"github.com/teslashibe/go-disktray/pkg/session"
	"github.com/teslashibe/go-disktray/pkg/web"
)

var version = "0.1.0"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		os.Exit(1)
	}
	settings := config.FromEnv()

	flag.IntVar(&settings.Port, "port", settings.Port, "HTTP/WebSocket listen port")
	flag.StringVar(&settings.TaskFile, "task", settings.TaskFile, "YAML tuning file (default: built in)")
	flag.StringVar(&settings.LabelsFile, "labels", settings.LabelsFile, "canonical labels file (default: built in)")
	flag.StringVar(&settings.DetectorLabelsFile, "detector-labels", settings.DetectorLabelsFile, "detector label order (default: canonical)")
	flag.StringVar(&settings.LogLevel, "log-level", settings.LogLevel, "log level: debug, info, warn, error")
	flag.Parse()

	log.InitWithOptions(log.Options{Level: settings.LogLevel, File: settings.LogFile})
	logger := log.L()

	cfg, task, err := settings.Session()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger

	sessions := session.NewManager(cfg)
	srv := web.NewServer(settings.Addr(), sessions, logger)

	logger.Info("disktray starting",
		"version", version,
		"addr", settings.Addr(),
		"labels", cfg.Labels.Canonical().Names(),
		"image_guidance", settings.ImageGuidance,
		"video_server", settings.VideoServerURL,
		"restart_after", task.RestartAfter,
		"cooldown", task.DebounceCooldown,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("shutdown timed out")
	}
}
