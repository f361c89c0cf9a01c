package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kaushalvasoya/homeco-real-estate/internal/api"
	"github.com/kaushalvasoya/homeco-real-estate/internal/cache"
	"github.com/kaushalvasoya/homeco-real-estate/internal/config"
	"github.com/kaushalvasoya/homeco-real-estate/internal/db"
	"github.com/kaushalvasoya/homeco-real-estate/internal/email"
	"github.com/kaushalvasoya/homeco-real-estate/internal/services"
	"github.com/kaushalvasoya/homeco-real-estate/internal/storage"
	"github.com/kaushalvasoya/homeco-real-estate/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'worker' (background tasks), 'all' (default), 'seed-admin' (create the initial admin and exit)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	adminService := services.NewAdminService(mongoDb)
	if err := adminService.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database indexes: %v", err)
	}

	// One-shot bootstrap mode: create the admin credential and exit.
	if cfg.RunMode == "seed-admin" {
		seedAdmin(cfg, adminService)
		return
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	emailSender := email.NewSMTPSender(cfg)

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	var wg sync.WaitGroup

	var apiSrv *http.Server
	var workerSrv *asynq.Server

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		router := api.SetupRouter(cfg, mongoDb, taskClient)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	workerMode := func() {
		imageStorage, err := storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize image storage for worker: %v", err)
		}
		processor := tasks.NewTaskProcessor(cfg, emailSender, imageStorage)
		srv, mux := tasks.SetupServer(redisClient, processor)
		workerSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Println("Background task server starting...")
			if err := workerSrv.Run(mux); err != nil {
				log.Fatalf("Background task server error: %v", err)
			}
			fmt.Println("Background task server stopped.")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "worker":
		workerMode()
	case "all":
		apiMode()
		workerMode()
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		fmt.Println("Shutting down API server...")
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	if workerSrv != nil {
		fmt.Println("Shutting down background task server...")
		workerSrv.Shutdown()
	}

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}

// seedAdmin creates the initial admin from ADMIN_EMAIL/ADMIN_PASSWORD. It
// exits non-zero when either variable is missing or the admin already
// exists, so deploy scripts can tell a fresh seed from a re-run.
func seedAdmin(cfg *config.Config, adminService services.IAdminService) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Fatal("seed-admin requires ADMIN_EMAIL and ADMIN_PASSWORD to be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := adminService.Create(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		if errors.Is(err, services.ErrAdminExists) {
			log.Fatalf("Admin %s already exists", cfg.AdminEmail)
		}
		log.Fatalf("Failed to create admin: %v", err)
	}
	fmt.Printf("Created admin %s (%s)\n", admin.Email, admin.ID.Hex())
}
