package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_market/internal/config"
	"github.com/fjod/go_market/internal/jobs"
	"github.com/fjod/go_market/internal/notify"
	"github.com/fjod/go_market/internal/order"
)

// The worker binary drains the shared job store and publishes order
// lifecycle events from the outbox. It can run alongside any number of
// server and worker replicas; the claim discipline in the job store
// keeps occurrences exclusive.
func main() {
	cfg := config.Load()

	orderRepo, err := order.NewPostgresRepository(&order.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsDir,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer orderRepo.Close()

	engine := jobs.NewEngine(jobs.NewPostgresStore(orderRepo.DB()))
	engine.RegisterQueue(notify.QueueName, jobs.QueueConfig{
		Workers:             cfg.NotifyWorkers,
		DefaultMaxAttempts:  3,
		DefaultBackoff:      jobs.BackoffExponential,
		DefaultBackoffDelay: time.Second,
	})

	if err := notify.RegisterHandlers(engine, notify.LogEmailSender{}, notify.LogSMSSender{}); err != nil {
		log.Fatalf("failed to register notification handlers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.Start(ctx)

	poller := order.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	log.Printf("worker started, %d notification workers", cfg.NotifyWorkers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down workers...")
	cancel()
	engine.Stop()
	log.Println("workers exited")
}
