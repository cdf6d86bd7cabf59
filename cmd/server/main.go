package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_market/internal/cart"
	"github.com/fjod/go_market/internal/cart/cache"
	"github.com/fjod/go_market/internal/checkout"
	"github.com/fjod/go_market/internal/config"
	"github.com/fjod/go_market/internal/domain"
	h "github.com/fjod/go_market/internal/http"
	"github.com/fjod/go_market/internal/jobs"
	"github.com/fjod/go_market/internal/listing"
	"github.com/fjod/go_market/internal/notify"
	"github.com/fjod/go_market/internal/order"
	"github.com/fjod/go_market/internal/payment"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

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

	if err := orderRepo.RunMigrations(&order.Credentials{MigrationsDirPath: cfg.MigrationsDir}); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// TODO: swap for the catalog service client once its read API ships;
	// until then listings come from a seed file.
	listings := listing.NewMemoryStore()
	if cfg.ListingSeedFile != "" {
		if err := seedListings(listings, cfg.ListingSeedFile); err != nil {
			log.Fatalf("failed to seed listings: %v", err)
		}
	}

	users := notify.NewMemoryDirectory()

	jobStore := jobs.NewPostgresStore(orderRepo.DB())
	engine := jobs.NewEngine(jobStore)
	engine.RegisterQueue(notify.QueueName, jobs.QueueConfig{
		Workers:             cfg.NotifyWorkers,
		DefaultMaxAttempts:  3,
		DefaultBackoff:      jobs.BackoffExponential,
		DefaultBackoffDelay: time.Second,
	})

	dispatcher := notify.NewDispatcher(orderRepo, listings, users, engine)

	cartService := cart.NewService(
		cart.NewMongoRepository(mongoClient.Database(cfg.MongoDB)),
		cache.NewRedisCache(redisClient),
		listings,
	)

	gateway := payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)
	verifier := payment.NewVerifier(cfg.WebhookSecret)

	checkoutService := checkout.NewService(cartService, listings, orderRepo, gateway, dispatcher)
	paymentService := payment.NewService(orderRepo, verifier, dispatcher)

	router := h.NewRouter(
		h.NewCartHandler(cartService),
		h.NewCheckoutHandler(checkoutService, paymentService),
		h.NewOrdersHandler(orderRepo),
		engine,
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "go_market"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func seedListings(store *listing.MemoryStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var listings []*domain.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return err
	}

	store.Seed(listings...)
	log.Printf("seeded %d listings from %s", len(listings), path)
	return nil
}
