//go:build linux

// Command blinkd runs the blink interval service on a Linux host with BlueZ.
// Indicator LEDs are driven through periph.io when pins are configured and
// are log-only otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tinygo.org/x/bluetooth"

	"github.com/JasonSeba/sample-ble/blinker"
	"github.com/JasonSeba/sample-ble/blinkservice"
	"github.com/JasonSeba/sample-ble/internal/config"
	"github.com/JasonSeba/sample-ble/internal/indicator"
	"github.com/JasonSeba/sample-ble/internal/logging"
	"github.com/JasonSeba/sample-ble/internal/telemetry"
)

var version = "dev"

const appName = "blinkd"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg, version, appName)
	slog.SetDefault(logger)

	logger.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"adapter", cfg.BLEAdapter,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	outputs, err := openOutputs(cfg, logger)
	if err != nil {
		return err
	}

	var notify func(blinker.Record)
	if cfg.TelemetryEnabled() {
		pub := telemetry.New(cfg, logger)
		go func() {
			if err := pub.Connect(ctx); err != nil {
				logger.Warn("mqtt connect failed; records will be dropped", "err", err)
			}
		}()
		go pub.Run(ctx)
		defer pub.Disconnect()
		notify = pub.Notify
	}

	link := blinkservice.NewLink(bluetooth.NewAdapter(cfg.BLEAdapter), blinkservice.Options{
		LocalName: cfg.LocalName,
		Logger:    logger,
	})
	dev := blinker.New(link, outputs, blinker.Options{
		Logger: logger,
		Idle:   cfg.LoopIdle,
		Notify: notify,
	})

	// No retry: a stack that cannot start halts the daemon.
	if err := dev.Start(link.Enable); err != nil {
		return err
	}
	return dev.Run(ctx)
}

func openOutputs(cfg config.Config, logger *slog.Logger) ([]blinker.Output, error) {
	if cfg.PrimaryPin != "" || cfg.AuxPin != "" {
		if err := indicator.InitHost(); err != nil {
			return nil, err
		}
	}
	primary, err := indicator.Open("primary", cfg.PrimaryPin, logger)
	if err != nil {
		return nil, err
	}
	aux, err := indicator.Open("aux", cfg.AuxPin, logger)
	if err != nil {
		return nil, err
	}
	return []blinker.Output{primary, aux}, nil
}
