package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/calendariko/api"
	"example.com/calendariko/config"
	"example.com/calendariko/internal/audit"
	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/cache"
	"example.com/calendariko/internal/database"
	"example.com/calendariko/internal/messaging"
	"example.com/calendariko/internal/notification"
	"example.com/calendariko/internal/repository"
	"example.com/calendariko/internal/search"
	"example.com/calendariko/internal/service"
	"example.com/calendariko/internal/telemetry"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Serve command flags
	disableNewRelic bool
	serverPort      int
	gracefulTimeout int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the calendar API server that handles authentication, band
management and event scheduling with conflict detection.

The server respects the configuration in config.yaml or specified via the --config flag.
It will gracefully shut down on receiving SIGINT or SIGTERM signals.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Serve-specific flags
	serveCmd.Flags().BoolVar(&disableNewRelic, "disable-newrelic", false, "Disable New Relic monitoring")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (overrides config file)")
	serveCmd.Flags().IntVar(&gracefulTimeout, "graceful-timeout", 30, "Graceful shutdown timeout in seconds")
}

// startServer initializes and starts the API server
func startServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override config with command line flags if provided
	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}

	log.WithFields(logrus.Fields{
		"port":             cfg.Server.Port,
		"newrelic_enabled": cfg.NewRelic.Enabled && !disableNewRelic,
	}).Info("Initializing service components...")

	// Initialize database with retry logic
	var db database.DB
	maxRetries := 5
	retryInterval := time.Second

	for i := 0; i < maxRetries; i++ {
		log.WithField("attempt", i+1).Info("Connecting to database...")
		db, err = database.Connect(cfg.Database)
		if err == nil {
			break
		}

		log.WithFields(logrus.Fields{
			"error":         err.Error(),
			"retry_attempt": i + 1,
			"max_retries":   maxRetries,
		}).Error("Failed to connect to database, retrying...")

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			// Exponential backoff
			retryInterval *= 2
		}
	}

	if err != nil {
		log.Fatalf("Failed to connect to database after %d attempts: %v", maxRetries, err)
	}

	log.Info("Successfully connected to database")
	defer func() {
		log.Info("Closing database connection...")
		if err := db.Close(); err != nil {
			log.WithField("error", err.Error()).Error("Error closing database connection")
		}
	}()

	// Initialize Redis cache client
	log.Info("Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		log.Info("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.WithField("error", err.Error()).Error("Error closing Redis connection")
		}
	}()

	// Initialize messaging client for notifications
	log.Info("Connecting to message broker...")
	busClient, err := messaging.NewServiceBusClient(cfg.ServiceBus)
	if err != nil {
		log.Fatalf("Failed to connect to message broker: %v", err)
	}
	defer func() {
		log.Info("Closing messaging connection...")
		if err := busClient.Close(); err != nil {
			log.WithField("error", err.Error()).Error("Error closing messaging connection")
		}
	}()

	// Initialize Elasticsearch for event indexing, if enabled
	esClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warnf("Failed to connect to Elasticsearch, indexing disabled: %v", err)
	}

	// Initialize New Relic if enabled
	nrCfg := cfg.NewRelic
	if disableNewRelic {
		nrCfg.Enabled = false
	}
	nrApp, err := telemetry.InitNewRelic(nrCfg)
	if err != nil {
		log.Warnf("Failed to initialize New Relic: %v", err)
	}

	// Create the token manager
	tokens, err := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	// Create repositories
	log.Info("Initializing repositories...")
	repo := repository.NewRepository(db)

	// Create service with configuration
	log.Info("Initializing service layer...")
	svc, err := service.NewService(service.ServiceConfig{
		Repository: repo,
		Cache:      redisClient,
		Tokens:     tokens,
		Audit:      audit.NewRecorder(repo, log),
		Notifier:   notification.NewNotifier(repo, busClient, log),
		Searcher:   esClient,
		Logger:     log,
	})
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}

	// Create and initialize the server
	log.Info("Initializing API server...")
	server := api.NewServer(cfg, log, nrApp, svc, tokens)

	// Set up graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port": cfg.Server.Port,
		}).Info("Starting server...")

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-stop
	log.Infof("Received signal %s, shutting down gracefully...", sig.String())

	// Create a timeout context for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gracefulTimeout)*time.Second)
	defer cancel()

	// Shutdown HTTP server
	log.Info("Shutting down HTTP server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("Server shutdown error: %v", err)
	}

	log.Info("Server shutdown complete")
}
