package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bksb/sprechtag-api/internal/handler"
	"github.com/bksb/sprechtag-api/internal/middleware"
	"github.com/bksb/sprechtag-api/internal/models"
	"github.com/bksb/sprechtag-api/internal/repository"
	"github.com/bksb/sprechtag-api/internal/service"
	"github.com/bksb/sprechtag-api/migrations"
	"github.com/bksb/sprechtag-api/pkg/cache"
	"github.com/bksb/sprechtag-api/pkg/config"
	"github.com/bksb/sprechtag-api/pkg/database"
	"github.com/bksb/sprechtag-api/pkg/logger"
	corsmiddleware "github.com/bksb/sprechtag-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bksb/sprechtag-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		logr.Sugar().Fatalw("migrations failed", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	slotRepo := repository.NewSlotRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret:       cfg.JWT.Secret,
		TokenExpiry:       cfg.JWT.Expiration,
		AdminUsername:     cfg.Admin.Username,
		AdminPasswordHash: cfg.Admin.PasswordHash,
	})
	sessionSvc := service.NewSessionService(sessionRepo, authSvc, validate, logr, cfg.Session.TTL)
	bookingSvc := service.NewBookingService(slotRepo, metricsSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, slotRepo, validate, logr)
	exportSvc := service.NewExportService(slotRepo, teacherRepo, service.ExportConfig{
		EventName: cfg.Event.Name,
		Location:  cfg.Event.Location,
	}, logr)

	publicHandler := handler.NewPublicHandler(teacherSvc, bookingSvc)
	authHandler := handler.NewAuthHandler(authSvc, sessionSvc, cfg.Session)
	teacherHandler := handler.NewTeacherHandler(teacherSvc, bookingSvc, exportSvc)
	adminHandler := handler.NewAdminHandler(teacherSvc, bookingSvc, exportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group("/api")
	{
		api.GET("/teachers", publicHandler.ListTeachers)
		api.GET("/slots", publicHandler.ListSlots)
		api.POST("/slots/:id/book", publicHandler.BookSlot)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.SessionLogin)
			auth.POST("/logout", authHandler.SessionLogout)
			auth.GET("/verify", authHandler.SessionVerify)
			auth.POST("/token", authHandler.TokenLogin)
		}

		teacher := api.Group("/teacher")
		teacher.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
		{
			teacher.GET("/info", teacherHandler.Info)
			teacher.GET("/slots", teacherHandler.Slots)
			teacher.GET("/bookings", teacherHandler.Bookings)
			teacher.PUT("/bookings/:id/accept", teacherHandler.AcceptBooking)
			teacher.DELETE("/bookings/:id", teacherHandler.CancelBooking)
			teacher.GET("/export/ical", teacherHandler.ExportCalendar)
			teacher.GET("/export/csv", teacherHandler.ExportCSV)
			teacher.GET("/export/pdf", teacherHandler.ExportPDF)
		}

		// The admin dashboard is a browser UI; its routes ride on the
		// Redis-backed session, not on API tokens.
		admin := api.Group("/admin")
		admin.Use(middleware.Session(sessionSvc, cfg.Session.CookieName))
		{
			admin.POST("/teachers", adminHandler.CreateTeacher)
			admin.DELETE("/teachers/:id", adminHandler.DeleteTeacher)
			admin.POST("/slots/generate", adminHandler.GenerateSlots)
			admin.GET("/bookings", adminHandler.AllBookings)
			admin.PUT("/bookings/:id/accept", adminHandler.AcceptBooking)
			admin.DELETE("/bookings/:id", adminHandler.CancelBooking)
			admin.GET("/export/ical", adminHandler.ExportCalendar)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
