package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petmarket/config"
	"petmarket/internal/api"
	"petmarket/internal/auth"
	"petmarket/internal/broker"
	"petmarket/internal/redisclient"
	"petmarket/internal/service"
	"petmarket/internal/store"
	"petmarket/internal/util"
	"petmarket/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting petmarket service")

	tp, err := util.InitTracer("petmarket", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer db.Close()
	log.Println("Mongo connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)
	tokenManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.ResetTokenTTL)

	catalogService := service.NewCatalogService(db)
	cartService := service.NewCartService(db)
	purchaseService := service.NewPurchaseService(db, db, db, eventPublisher)
	userService := service.NewUserService(db, db, tokenManager, eventPublisher)
	resetService := service.NewPasswordResetService(db, tokenManager, redisClient, eventPublisher, cfg.Server.BaseURL, cfg.Auth.ResetTokenTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	mailConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications, cfg.Kafka.ConsumerGroup)
	mailWorker := worker.NewMailWorker(mailConsumer, service.NewMailer(cfg.SMTP))
	go func() {
		if err := mailWorker.Start(workerCtx); err != nil {
			log.Printf("Mail worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	authMiddleware := api.NewAuthMiddleware(tokenManager, db)
	handler := api.NewHandler(catalogService, cartService, purchaseService, userService, resetService, authMiddleware)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	mailWorker.Stop()

	log.Println("Server exited")
}
