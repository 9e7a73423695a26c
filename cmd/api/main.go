package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cleanmachine/detailing-platform/cmd/mainconfig"
	"github.com/cleanmachine/detailing-platform/internal/api/router"
	"github.com/cleanmachine/detailing-platform/internal/appointments"
	"github.com/cleanmachine/detailing-platform/internal/availability"
	"github.com/cleanmachine/detailing-platform/internal/catalog"
	appconfig "github.com/cleanmachine/detailing-platform/internal/config"
	"github.com/cleanmachine/detailing-platform/internal/customers"
	"github.com/cleanmachine/detailing-platform/internal/gallery"
	"github.com/cleanmachine/detailing-platform/internal/geo"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/notify"
	"github.com/cleanmachine/detailing-platform/internal/observability/metrics"
	"github.com/cleanmachine/detailing-platform/internal/pricing"
	"github.com/cleanmachine/detailing-platform/internal/recurring"
	"github.com/cleanmachine/detailing-platform/internal/weather"
	"github.com/cleanmachine/detailing-platform/internal/webchat"
	"github.com/cleanmachine/detailing-platform/internal/wizard"
	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting detailing-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// database/sql handle for the admin dashboard rollup queries
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis for booking sessions and chat transcripts
	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	// Geocoding and service area
	geocoder := geo.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey, logger)
	area := geo.NewAreaChecker(geocoder,
		geo.Location{Lat: cfg.BaseLatitude, Lng: cfg.BaseLongitude},
		cfg.ServiceRadiusMi, cfg.ExtendedRadiusMi, cfg.AverageSpeedMPH)

	// Weather
	forecaster := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, logger)

	// Catalog, pricing, availability
	catalogRepo := catalog.NewPostgresRepository(pool)
	priceCalc := pricing.Calculator{PointsEarningRate: cfg.PointsEarningRate}
	availabilitySvc := availability.NewService(
		availability.NewPostgresBookedSource(pool),
		availability.Schedule{
			OpenHour:     cfg.BookingOpenHour,
			CloseHour:    cfg.BookingCloseHour,
			SlotInterval: time.Duration(cfg.SlotIntervalMinutes) * time.Minute,
		},
		logger)

	// Loyalty and referrals
	loyaltyRepo := loyalty.NewPostgresRepository(pool)
	loyaltyChecker := loyalty.NewChecker(loyaltyRepo, cfg.MinRedemptionCents, logger)
	referrals := loyalty.NewReferralValidator(loyaltyRepo, logger)

	// Customers
	customersRepo := customers.NewPostgresRepository(pool)

	// Notifications
	var publisher *notify.Publisher
	if cfg.UseMemoryQueue {
		publisher = notify.NewPublisher(notify.NewMemoryQueue(64), logger)
	} else {
		publisher = notify.NewPublisher(notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL), logger)
	}

	// Recurring plans
	recurringSvc := recurring.NewService(pool, logger)

	// Booking pipeline
	bookingRepo := appointments.NewPostgresRepository(pool, logger)
	bookingSvc := appointments.NewService(appointments.ServiceConfig{
		Repo:      bookingRepo,
		Catalog:   catalogRepo,
		Pricing:   priceCalc,
		Loyalty:   loyaltyRepo,
		Recurring: recurringSvc,
		Publisher: publisher,
		Metrics:   bookingMetrics,
		Logger:    logger,
	})

	// Booking wizard
	wizardHandler := wizard.NewHandler(wizard.HandlerConfig{
		Store:         wizard.NewRedisStore(redisClient, cfg.SessionTTL),
		Catalog:       catalogRepo,
		Area:          area,
		Forecaster:    forecaster,
		RainThreshold: cfg.RainChanceThreshold,
		Availability:  availabilitySvc,
		Pricing:       priceCalc,
		Loyalty:       loyaltyChecker,
		LoyaltyRepo:   loyaltyRepo,
		Referrals:     referrals,
		CustomersRepo: customersRepo,
		PhoneQuiet:    cfg.PhoneDebounce,
		HistoryLimit:  cfg.PastAppointmentsLimit,
		Submitter:     bookingSvc,
		Metrics:       bookingMetrics,
		Logger:        logger,
	})

	// Gallery
	galleryStore := gallery.NewStore(s3.NewFromConfig(awsCfg), cfg.GalleryBucket, cfg.PublicBaseURL, logger)
	galleryRepo := gallery.NewRepository(pool)

	// Web chat
	var handoffEmail notify.EmailSender
	if cfg.SendGridAPIKey != "" {
		handoffEmail = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	handoff := notify.NewChatHandoff(handoffEmail, cfg.OwnerAlertEmail, logger)
	chatHistory := webchat.NewRedisHistory(redisClient, cfg.SessionTTL, 200)
	chatHandler := webchat.NewHandler(webchat.NewResponder(nil), chatHistory, handoff, logger)

	routerCfg := &router.Config{
		Logger:         logger,
		BookingMetrics: bookingMetrics,

		WizardHandler:       wizardHandler,
		CatalogHandler:      catalog.NewHandler(catalogRepo, logger),
		GeoHandler:          geo.NewHandler(geocoder, area, logger),
		WeatherHandler:      weather.NewHandler(forecaster, cfg.RainChanceThreshold, logger),
		AvailabilityHandler: availability.NewHandler(availabilitySvc, logger),
		BookingHandler:      appointments.NewHandler(bookingSvc, logger),
		RecurringHandler:    recurring.NewHandler(recurringSvc, logger),
		LoyaltyHandler:      loyalty.NewHandler(loyaltyChecker, referrals, loyaltyRepo, logger),
		CustomersHandler:    customers.NewHandler(wizardHandler.Detector(), logger),
		GalleryHandler:      gallery.NewHandler(galleryStore, galleryRepo, logger),
		ChatHandler:         chatHandler,

		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DB:                 sqlDB,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let any in-flight phone lookups finish writing their sessions.
	wizardHandler.Detector().Wait()

	logger.Info("server stopped")
}
