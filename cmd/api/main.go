package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gandhirajj/doctor-appointment-api/internal/config"
	"github.com/gandhirajj/doctor-appointment-api/internal/handlers"
	"github.com/gandhirajj/doctor-appointment-api/internal/metrics"
	"github.com/gandhirajj/doctor-appointment-api/internal/middleware"
	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/services"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage/mongostore"
)

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}
	cfg := config.Load()
	log := newLogger(cfg)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set; token issuance will fail")
	}

	// --- Database ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.MongoDatabase)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		log.WithError(err).Fatal("failed to create indexes")
	}
	log.WithField("database", cfg.MongoDatabase).Info("connected to MongoDB")

	stores := mongostore.New(db)
	notificationSvc := services.NewNotificationService(log)
	h := handlers.NewHandler(stores, notificationSvc, log, cfg.IsProduction())

	// --- Router ---
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Doctor Appointment API is running...")
	})
	r.GET("/metrics", metrics.Handler())

	authenticate := middleware.Authenticate(stores.Users)

	authRoutes := r.Group("/api/auth")
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		authRoutes.Use(middleware.RateLimit(rdb, log, 20, time.Minute))
	}
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/me", authenticate, h.Me)
		authRoutes.GET("/logout", authenticate, h.Logout)
	}

	doctorRoutes := r.Group("/api/doctors")
	{
		doctorRoutes.GET("", h.ListDoctors)
		doctorRoutes.GET("/:id", h.GetDoctor)
		doctorRoutes.POST("", authenticate, middleware.Authorize(models.RoleDoctor), h.CreateDoctor)
		doctorRoutes.PUT("/:id", authenticate, middleware.Authorize(models.RoleDoctor, models.RoleAdmin), h.UpdateDoctor)
		doctorRoutes.POST("/:id/reviews", authenticate, middleware.Authorize(models.RolePatient), h.AddDoctorReview)
	}

	appointmentRoutes := r.Group("/api/appointments")
	appointmentRoutes.Use(authenticate)
	{
		appointmentRoutes.GET("", h.ListAppointments)
		appointmentRoutes.GET("/:id", h.GetAppointment)
		appointmentRoutes.POST("", middleware.Authorize(models.RolePatient), h.CreateAppointment)
		appointmentRoutes.PUT("/:id", h.UpdateAppointment)
		appointmentRoutes.DELETE("/:id", h.DeleteAppointment)
	}

	log.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
