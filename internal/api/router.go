package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaushalvasoya/homeco-real-estate/internal/api/handlers"
	"github.com/kaushalvasoya/homeco-real-estate/internal/api/middleware"
	"github.com/kaushalvasoya/homeco-real-estate/internal/captcha"
	"github.com/kaushalvasoya/homeco-real-estate/internal/config"
	"github.com/kaushalvasoya/homeco-real-estate/internal/services"
	"github.com/kaushalvasoya/homeco-real-estate/internal/storage"
	"github.com/kaushalvasoya/homeco-real-estate/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, taskClient handlers.IAsynqClient) *gin.Engine {
	imageStorage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize image storage for API: %v", err)
	}

	contactStore, err := services.NewContactStore(cfg.ContactsFile)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize contact store: %v", err)
	}

	adminService := services.NewAdminService(db)
	propertyService := services.NewPropertyService(db, cfg, imageStorage, func(key string) {
		// Inline release failed during record deletion; hand the cleanup to
		// the background worker.
		if taskClient == nil {
			return
		}
		task, opts, err := tasks.NewImageReleaseTask(key)
		if err == nil {
			_, err = taskClient.Enqueue(task, opts...)
		}
		if err != nil {
			log.Printf("WARN: failed to schedule deferred release of image %s: %v", key, err)
		}
	})

	captchaVerifier := captcha.NewTurnstileVerifier(cfg)

	r := gin.Default()

	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	authHandler := handlers.NewAuthHandler(cfg, adminService)
	propertyHandler := handlers.NewPropertyHandler(propertyService, imageStorage)
	contactHandler := handlers.NewContactHandler(contactStore, taskClient)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "API running"})
	})

	authRequired := middleware.AuthMiddleware(cfg.JwtSecret)

	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	properties := r.Group("/api/properties")
	{
		properties.GET("", propertyHandler.List)
		properties.GET("/:id", propertyHandler.GetByID)
		properties.POST("", authRequired, propertyHandler.Create)
		properties.PUT("/:id", authRequired, propertyHandler.Update)
		properties.DELETE("/:id", authRequired, propertyHandler.Delete)
	}

	contact := r.Group("/api/contact")
	{
		contact.POST("", middleware.CaptchaMiddleware(captchaVerifier), contactHandler.Create)
		contact.GET("", authRequired, contactHandler.List)
		contact.PATCH("/:id/read", authRequired, contactHandler.SetRead)
		contact.DELETE("/:id", authRequired, contactHandler.Delete)
	}

	return r
}
