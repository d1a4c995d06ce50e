/**
 * @description
 * This is the main entry point for the credit-service. It is responsible for
 * initializing all components of the service: configuration, the database
 * connection pool, the external scoring API client, the event producer, the
 * optional redis cache, the core services, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/scoringclient, pkg/rabbitmq: Clients for the scoring API and RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lendwise/credit-service/internal/api"
	"github.com/lendwise/credit-service/internal/app"
	"github.com/lendwise/credit-service/internal/config"
	"github.com/lendwise/credit-service/internal/store"
	rmrabbit "github.com/lendwise/credit-service/pkg/rabbitmq"
	"github.com/lendwise/credit-service/pkg/scoringclient"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting credit-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish decision and scoring events.
	// A broker outage must not keep the engine from deciding, so the no-op
	// publisher stands in when the connection fails.
	var producer rmrabbit.Publisher
	eventProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL, cfg.CreditEventExchange)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.NoopPublisher{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the external ML scoring API.
	scoringClient := scoringclient.NewClient(cfg.MLAPIBaseURL)

	// Optional redis cache for the score-history view.
	var scoreCache *app.ScoreHistoryCache
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=info component=bootstrap msg=\"redis url missing; score history cache disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; score history cache disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; score history cache disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				scoreCache = app.NewScoreHistoryCache(
					redisClient,
					cfg.ScoreHistoryCachePrefix,
					time.Duration(cfg.ScoreHistoryCacheTTLSecs)*time.Second,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core services with their dependencies.
	decisionService := app.NewDecisionService(repository, producer, cfg.DecisionExpiryDays)
	scoringService := app.NewScoringService(repository, scoringClient, producer, scoreCache)

	// Initialize the API handlers.
	creditHandlers := api.NewCreditHandlers(decisionService, scoringService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/credit", api.CreditRoutes(creditHandlers))

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
