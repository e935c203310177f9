package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pool-logger/internal/aqualink"
	"pool-logger/internal/cache"
	"pool-logger/internal/collector"
	"pool-logger/internal/config"
	"pool-logger/internal/db"
	"pool-logger/internal/mqtt"
	"pool-logger/internal/repository"
	"pool-logger/internal/scheduler"
)

// Run wires everything together and drives the selected run mode until the
// context is cancelled or a cycle fails.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"dbHost", cfg.DBHost,
		"dbPort", cfg.DBPort,
		"dbName", cfg.DBName,
		"interval", cfg.Interval,
		"runMode", cfg.RunMode,
		"mqttEnabled", cfg.MQTTBroker != "",
		"cacheEnabled", cfg.RedisAddr != "",
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("database connection successful")

	repo := repository.NewRepository(dbConn, slog.Default())
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	client := aqualink.NewClient(aqualink.Config{
		Username:   cfg.AqualinkUsername,
		Password:   cfg.AqualinkPassword,
		LoginURL:   cfg.AqualinkLoginURL,
		DevicesURL: cfg.AqualinkDevicesURL,
		SessionURL: cfg.AqualinkSessionURL,
	})
	fetcher := collector.New(client, slog.Default())

	var sinks []scheduler.Sink

	if cfg.MQTTBroker != "" {
		publisher := mqtt.NewPublisher(cfg, slog.Default())
		// Bounded connect attempt so a dead broker does not block startup;
		// the sink stays registered and reconnects in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing, will retry in background)", "error", err)
		}
		defer publisher.Disconnect()
		sinks = append(sinks, publisher)
	}

	if cfg.RedisAddr != "" {
		latest, err := cache.New(ctx, cfg.RedisAddr, slog.Default())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := latest.Close(); closeErr != nil {
				slog.Error("cache close", "error", closeErr)
			}
		}()
		sinks = append(sinks, latest)
	}

	sched := scheduler.New(fetcher, repo, slog.Default(), sinks...)

	switch cfg.RunMode {
	case config.RunModeOnce:
		slog.Info("running in single-check mode")
		return sched.RunOnce(ctx)
	case config.RunModeContinuous:
		slog.Info("running in continuous mode")
		return sched.RunContinuous(ctx, cfg.Interval)
	default:
		// Unreachable: config validates RUN_MODE.
		return fmt.Errorf("unknown run mode %q", cfg.RunMode)
	}
}
