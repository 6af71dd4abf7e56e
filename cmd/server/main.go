package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/api"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/cache"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/config"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/database"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/notifications"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/repository"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/services/scheduler"
	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/services/sla"
)

const (
	jobComplianceCheck = "sla-compliance-check"
	jobCacheWarm       = "sla-threshold-cache-warm"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}
	if err := config.Load(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	location := cfg.App.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	thresholdCache := cache.NewThresholdCache(cfg.Redis)
	defer thresholdCache.Close()

	caseRepo := repository.NewCaseRepository(db)
	thresholdRepo := repository.NewThresholdRepository(db)
	dealerRepo := repository.NewDealerRepository(db)
	detailRepo := repository.NewSlaDetailRepository(db)

	resolver := sla.NewResolver(thresholdRepo, thresholdCache)
	sender := notifications.NewSMTPSender(&cfg.Email)

	engine := sla.NewService(
		caseRepo, resolver, dealerRepo, dealerRepo, caseRepo, caseRepo, detailRepo, sender,
		sla.Options{
			WarningWindow: cfg.Sla.WarningWindow,
			NotifyTimeout: cfg.Sla.NotifyTimeout,
			BatchLimit:    cfg.Sla.BatchLimit,
			Location:      location,
			Logger:        logger,
		})

	sched := scheduler.NewService(location, logger)
	if err := sched.Register(jobComplianceCheck, cfg.Sla.Schedule, func(ctx context.Context) error {
		_, err := engine.Run(ctx)
		return err
	}); err != nil {
		logger.Fatalf("Failed to register %s: %v", jobComplianceCheck, err)
	}
	if cfg.Redis.Enabled {
		if err := sched.Register(jobCacheWarm, "@every 5m", func(ctx context.Context) error {
			_, err := resolver.Warm(ctx)
			return err
		}); err != nil {
			logger.Fatalf("Failed to register %s: %v", jobCacheWarm, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	handlers := api.NewHandlers(thresholdRepo, engine, sched)
	handlers.RegisterRoutes(router, cfg.Metrics.Enabled, cfg.Metrics.Path)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Printf("%s listening on %s", cfg.App.Name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}
}
