package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/zlnvch/cocreate/api"
	"github.com/zlnvch/cocreate/config"
	"github.com/zlnvch/cocreate/mq"
	"github.com/zlnvch/cocreate/mq/memq"
	"github.com/zlnvch/cocreate/mq/sqsmq"
	"github.com/zlnvch/cocreate/pubsub"
	pubsubmemory "github.com/zlnvch/cocreate/pubsub/memory"
	pubsubredis "github.com/zlnvch/cocreate/pubsub/redis"
	"github.com/zlnvch/cocreate/store"
	"github.com/zlnvch/cocreate/store/dynamo"
	"github.com/zlnvch/cocreate/store/memory"
	storeredis "github.com/zlnvch/cocreate/store/redis"
	"github.com/zlnvch/cocreate/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var redisClient goredis.UniversalClient
	if cfg.UsesRedis() {
		redisClient, err = storeredis.NewClient(ctx, cfg.DevMode, cfg.RedisEndpoint)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var kvStore store.Backend
	switch cfg.StorageBackend {
	case config.StorageRedis:
		kvStore = storeredis.NewRedisStore(redisClient)
	case config.StorageDynamo:
		kvStore, err = dynamo.NewDynamoKVStore(ctx, cfg.DevMode, cfg.DynamoDBEndpoint, cfg.DynamoDBTable)
		if err != nil {
			log.Fatalf("Failed to create dynamodb store: %v", err)
		}
	default:
		kvStore = memory.NewMemoryStore()
	}

	var replyQueue mq.MessageQueue
	switch cfg.QueueBackend {
	case config.QueueSQS:
		replyQueue, err = sqsmq.NewSQSMessageQueue(ctx, cfg.DevMode, cfg.SQSEndpoint, cfg.SQSReplyQueue)
		if err != nil {
			log.Fatalf("Failed to create SQS MQ: %v", err)
		}
	default:
		replyQueue = memq.NewMemoryQueue()
	}

	var broker pubsub.Broker
	switch cfg.BrokerBackend {
	case config.BrokerRedis:
		broker = pubsubredis.NewRedisBroker(redisClient)
	default:
		broker = pubsubmemory.NewMemoryBroker()
	}

	shareSecret := cfg.ShareSecret
	if len(shareSecret) == 0 {
		log.Printf("SHARE_SECRET not set, share links will not survive a restart")
		shareSecret = make([]byte, 32)
		if _, err := rand.Read(shareSecret); err != nil {
			log.Fatalf("Failed to generate share secret: %v", err)
		}
	}

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Workspaces live in this process, so only one server may use the store
	instanceId := newInstanceId()
	lease := worker.NewInstanceLease(kvStore, instanceId, worker.DefaultLeaseTTL)
	acquireCtx, cancelAcquire := context.WithTimeout(shutdownCtx, 2*worker.DefaultLeaseTTL)
	err = lease.Acquire(acquireCtx)
	cancelAcquire()
	if err != nil {
		log.Fatalf("Failed to acquire instance lease: %v", err)
	}
	log.Printf("Acquired instance lease as %s", instanceId)

	// Released only after the server has drained
	holdCtx, stopHolding := context.WithCancel(context.Background())
	leaseDone := make(chan struct{})
	go func() {
		defer close(leaseDone)
		lease.Hold(holdCtx, func() {
			log.Printf("Lost instance lease, shutting down")
			stop()
		})
	}()

	cocreateApi, err := api.NewCocreateAPI(kvStore, replyQueue, broker, shareSecret, cfg.ReplyDelay, shutdownCtx)
	if err != nil {
		log.Fatalf("Failed to create cocreate api: %v", err)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	cocreateApi.RegisterRoutes(r, cfg.AllowedOrigin)

	// No WriteTimeout: websocket connections are long lived
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port: %s (storage=%s queue=%s broker=%s)", cfg.Port, cfg.StorageBackend, cfg.QueueBackend, cfg.BrokerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-shutdownCtx.Done()
	stop()

	log.Printf("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	stopHolding()
	<-leaseDone
}

func newInstanceId() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	id, err := uuid.NewV7()
	if err != nil {
		return host
	}
	return host + "/" + id.String()
}
