package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/genimage/internal/auth"
	"github.com/snappy-loop/genimage/internal/config"
	"github.com/snappy-loop/genimage/internal/database"
	"github.com/snappy-loop/genimage/internal/handlers"
	"github.com/snappy-loop/genimage/internal/invoke"
	"github.com/snappy-loop/genimage/internal/kafka"
	"github.com/snappy-loop/genimage/internal/output"
	"github.com/snappy-loop/genimage/internal/services"
	"github.com/snappy-loop/genimage/internal/storage"
	"github.com/snappy-loop/genimage/migrations"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().Msg("Starting genimage API")

	// Optional: creations are only persisted when a database is configured
	var repo services.CreationRepository
	var health handlers.HealthFunc
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := migrations.Run(db.SQLDB()); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		repo = database.NewCreationRepository(db)
		health = db.Health
	} else {
		log.Warn().Msg("DATABASE_URL not set; creations will not be persisted")
	}

	var publisher services.CreationPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicCreations)
		defer producer.Close()
		publisher = producer
	}

	storageClient, err := storage.NewClient(
		context.Background(),
		cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket,
		cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3PublicURL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}

	wrapper := invoke.NewWrapper(
		invoke.ImagenConnector(cfg.ImagenOptions()),
		output.NewStore(cfg.OutputDir),
	)
	creationService := services.NewCreationService(wrapper, storageClient, repo, publisher, cfg.SignedURLExpiry)

	authService := auth.NewService(cfg.APIKeyHash)

	r := mux.NewRouter()
	handlers.NewHandler(creationService, health).Register(r, authService.Middleware)

	// Image generation can take tens of seconds; write timeout is generous.
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("API exited")
}
