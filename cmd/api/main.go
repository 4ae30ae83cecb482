package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/rachana-boutique/internal/api"
	"github.com/example/rachana-boutique/internal/auth"
	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/command"
	"github.com/example/rachana-boutique/internal/config"
	"github.com/example/rachana-boutique/internal/domain/cart"
	"github.com/example/rachana-boutique/internal/infrastructure/kafka"
	"github.com/example/rachana-boutique/internal/infrastructure/store"
	"github.com/example/rachana-boutique/internal/kvstore"
	"github.com/example/rachana-boutique/internal/notify"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Rachana Boutique - Cart Service")
	log.Println("[API] ========================================")
	log.Printf("[API] Guest cart storage: %s", cfg.KVBackend)
	log.Printf("[API] Event store: %s", cfg.EventStore)
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)

	products, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("[API] Failed to load catalog: %v", err)
	}
	log.Printf("[API] Loaded %d products from %s", len(products), cfg.CatalogPath)

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	// Kafka producers are optional; without brokers events stay local
	var eventPublisher store.Publisher
	hub := notify.NewHub()
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		cartProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaCartTopic)
		closers = append(closers, producer, cartProducer)
		eventPublisher = producer
		hub.AddTap(notify.KafkaTap(cartProducer))
	}

	var db *sql.DB
	connectDB := func() *sql.DB {
		if db == nil {
			db, err = store.ConnectPostgres(cfg.DatabaseURL)
			if err != nil {
				log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
			}
			closers = append(closers, db)
			log.Println("[API] Connected to PostgreSQL")
		}
		return db
	}

	// Signed-in carts
	var eventStore store.EventStoreInterface
	switch cfg.EventStore {
	case "postgres":
		pgStore := store.NewPostgresEventStore(connectDB(), eventPublisher)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("[API] %v", err)
		}
		eventStore = pgStore
	default:
		eventStore = store.NewEventStore(eventPublisher)
	}

	// Guest carts
	kv, err := openKV(ctx, cfg, connectDB, &closers)
	if err != nil {
		log.Fatalf("[API] Failed to open guest cart storage: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenExpiry)
	cmdHandler := command.NewHandler(cart.NewService(eventStore), products)
	handlers := api.NewHandlers(cmdHandler, products, api.NewVisitors(kv, hub))
	router := api.NewRouter(api.RouterConfig{
		Handlers:   handlers,
		JWTService: jwtService,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}

func openKV(ctx context.Context, cfg config.Config, connectDB func() *sql.DB, closers *[]io.Closer) (kvstore.Store, error) {
	switch cfg.KVBackend {
	case "postgres":
		kv := kvstore.NewPostgres(connectDB())
		if err := kv.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return kv, nil
	case "sqlite":
		kv, err := kvstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, kv)
		return kv, nil
	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return kvstore.NewDynamo(dynamodb.NewFromConfig(awsCfg), cfg.DynamoKVTable), nil
	default:
		return kvstore.NewMemory(), nil
	}
}
