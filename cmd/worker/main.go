package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/events"
	"tally/internal/logger"
	"tally/internal/services"
	"tally/internal/worker"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Worker error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()
	logs := services.NewLogService(db)
	w := worker.New(services.NewBudgetService(db, logs), logs, cfg.RecomputeInterval, cfg.LogRetention)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.RunSweeps(ctx)
	})

	if cfg.AMQPURL != "" {
		client, err := events.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			return client.Consume(ctx, w.HandleEvent)
		})
	} else {
		log.Info("AMQP_URL not set, running periodic sweeps only")
	}

	log.Infow("worker started", "interval", cfg.RecomputeInterval, "log_retention", cfg.LogRetention)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("worker stopped")
	return nil
}
