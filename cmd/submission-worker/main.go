package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"

	"timebank.service/internal/adapters/timeclock"
	"timebank.service/internal/config"
	"timebank.service/internal/ports/repository"
	"timebank.service/internal/worker"
	"timebank.service/internal/worker/submission"
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

	shutdownTracer, err := telemetry.InitTracer("timebank-submission-worker", cfg.OTelEndpoint, cfg.IsLocalDev)
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
	log.Info().Msg("Successfully connected to the database.")

	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	clock, err := timeclock.NewClient(cfg.TimeClockURL, cfg.TimeClockUser, cfg.TimeClockPassword, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create time clock client")
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	repo := repository.NewDayRecordRepository(db, loc)
	processor := submission.NewProcessor(repo, clock, loc)

	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.SubmissionSQSQueueURL, processor)
	// The time clock is a single legacy server; keep the pool small.
	app.Concurrency = cfg.SubmissionMaxConcurrency

	done := make(chan struct{})
	go func() {
		app.Start(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down worker...")

	cancel()
	<-done

	log.Info().Msg("Worker exited gracefully")
}
