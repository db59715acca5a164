// Entry point for REST API
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"timebank.service/internal/adapters/calendar"
	"timebank.service/internal/adapters/timeclock"
	"timebank.service/internal/api"
	"timebank.service/internal/config"
	"timebank.service/internal/core"
	"timebank.service/internal/ports/messaging"
	"timebank.service/internal/ports/repository"
	"timebank.service/pkg/aws"
	"timebank.service/pkg/database"
	"timebank.service/pkg/logger"
	"timebank.service/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load time zone")
	}

	shutdownTracer, err := telemetry.InitTracer("timebank-api", cfg.OTelEndpoint, cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	clock, err := timeclock.NewClient(cfg.TimeClockURL, cfg.TimeClockUser, cfg.TimeClockPassword, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create time clock client")
	}
	holidays := calendar.NewClient(cfg.CalendarURL, cfg.CalendarCity, cfg.CalendarToken, loc)

	sqsClient := sqs.NewFromConfig(awsCfg)
	repo := repository.NewDayRecordRepository(db, loc)
	producer := messaging.NewSQSProducer(sqsClient, cfg.SubmissionSQSQueueURL, cfg.ReminderSQSQueueURL)
	service := core.NewTimeBankService(repo, producer, clock, holidays, cfg.TimeClockUser, loc)

	router := api.NewRouter(service, loc)

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.EnrichContextWithLogger(r.Context())
			ctx = telemetry.WithEmployeeID(ctx, service.EmployeeID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	handler := otelhttp.NewHandler(loggerMiddleware(router), "api")

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Refreshes scrape the time clock, so give in-flight requests time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
