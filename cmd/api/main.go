package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/resqmed/patient-api/internal/config"
	"github.com/resqmed/patient-api/internal/gateway"
	"github.com/resqmed/patient-api/internal/geo"
	appointmentHandler "github.com/resqmed/patient-api/internal/handler/appointment"
	authHandler "github.com/resqmed/patient-api/internal/handler/auth"
	healthHandler "github.com/resqmed/patient-api/internal/handler/health"
	locatorHandler "github.com/resqmed/patient-api/internal/handler/locator"
	patientHandler "github.com/resqmed/patient-api/internal/handler/patient"
	reportHandler "github.com/resqmed/patient-api/internal/handler/report"
	rewardsHandler "github.com/resqmed/patient-api/internal/handler/rewards"
	sosHandler "github.com/resqmed/patient-api/internal/handler/sos"
	"github.com/resqmed/patient-api/internal/middleware"
	"github.com/resqmed/patient-api/internal/model"
	"github.com/resqmed/patient-api/internal/repository"
	"github.com/resqmed/patient-api/internal/repository/filestore"
	"github.com/resqmed/patient-api/internal/repository/localstore"
	"github.com/resqmed/patient-api/internal/repository/postgres"
	"github.com/resqmed/patient-api/internal/router"
	alertService "github.com/resqmed/patient-api/internal/service/alert"
	appointmentService "github.com/resqmed/patient-api/internal/service/appointment"
	authService "github.com/resqmed/patient-api/internal/service/auth"
	patientService "github.com/resqmed/patient-api/internal/service/patient"
	reportService "github.com/resqmed/patient-api/internal/service/report"
	rewardsService "github.com/resqmed/patient-api/internal/service/rewards"
	"github.com/resqmed/patient-api/internal/sos"
	"github.com/resqmed/patient-api/pkg/logger"
	"github.com/resqmed/patient-api/pkg/messaging"
	redisBroker "github.com/resqmed/patient-api/pkg/messaging/redis"
	"github.com/resqmed/patient-api/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("resqmed", "api")

	// Local fallback store. Always present: the gateway degrades onto it
	// whenever the remote backend is unconfigured or fails.
	local, err := localstore.New(cfg.LocalData.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	// Report binaries live in the storage bucket when one is configured.
	var files repository.FileStore
	if cfg.Backend.ReportsBucket != "" {
		s3Store, err := filestore.NewS3Store(context.Background(), cfg.Backend.ReportsBucket)
		if err != nil {
			appLogger.Error(err, "failed to init report bucket, report binaries will not be stored")
		} else {
			files = s3Store
		}
	}

	gw := gateway.New(cfg.Backend, local, files, appLogger, appMetrics)
	appLogger.Info("gateway initialized", "mode", string(gw.Mode()))

	// Emergency alert broker. Optional: without redis the alerts are
	// dropped, the SOS flow itself never depends on it.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, appLogger.Zerolog())
		if err != nil {
			appLogger.Error(err, "failed to connect alert broker, alerts disabled")
			broker = nil
		}
	}
	alerts := alertService.NewService(broker, appLogger)

	// Rewards ledger. Optional: without postgres the service runs on its
	// seeded demo set.
	var rewardsRepo repository.RewardsRepository
	if cfg.Database.Host != "" {
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			appLogger.Error(err, "failed to connect rewards database, using demo set")
		} else {
			defer db.Close()
			rewardsRepo = postgres.NewRewardsRepository(db)
		}
	}

	authSvc := authService.NewService(gw, local, cfg.JWT)
	appointmentSvc := appointmentService.NewService(gw)
	patientSvc := patientService.NewService(gw)
	reportSvc := reportService.NewService(gw)
	rewardsSvc := rewardsService.NewService(rewardsRepo)

	geocoder := geo.NewNominatimGeocoder(cfg.Locator.GeocoderURL, cfg.Locator.ViewboxDelta)
	locator := geo.NewLocator(geocoder, cfg.Locator, appLogger, appMetrics)

	sosManager := sos.NewManager(cfg.SOS, appMetrics, func(userID string) {
		alerts.Publish(context.Background(), alertService.Alert{UserID: userID, Kind: "sos_accepted"})
	})

	model.RegisterValidations()
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	r := router.NewRouter(
		authMiddleware,
		router.Config{
			RateLimitEnabled:  cfg.RateLimit.Enabled,
			RateLimit:         rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:         cfg.RateLimit.Burst,
			CORS:              corsConfig,
			PrometheusEnabled: cfg.Monitoring.PrometheusEnabled,
			MetricsPath:       cfg.Monitoring.MetricsPath,
		},
		[]router.Handler{
			healthHandler.NewHandler(gw),
			authHandler.NewHandler(authSvc),
			locatorHandler.NewHandler(locator),
		},
		[]router.Handler{
			appointmentHandler.NewHandler(appointmentSvc),
			patientHandler.NewHandler(patientSvc),
			reportHandler.NewHandler(reportSvc),
			rewardsHandler.NewHandler(rewardsSvc),
			sosHandler.NewHandler(sosManager, alerts),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "forced shutdown")
	}
	if broker != nil {
		_ = broker.Close()
	}
}
