package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/calendariko/config"
	"example.com/calendariko/internal/database"
	"example.com/calendariko/internal/messaging"
	"example.com/calendariko/internal/notification"
	"example.com/calendariko/internal/repository"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Starts the background worker that republishes pending event
notifications from the outbox to the message queue. Notifications that
failed to publish inline are retried here until they go through.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Connect to database
	log.Info("Connecting to database...")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize messaging client
	log.Info("Connecting to message broker...")
	busClient, err := messaging.NewServiceBusClient(cfg.ServiceBus)
	if err != nil {
		return err
	}
	defer busClient.Close()

	repo := repository.NewRepository(db)
	notifier := notification.NewNotifier(repo, busClient, log)

	// Create a scheduler
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Worker.NotificationInterval),
		gocron.NewTask(func() {
			log.Debug("Republishing pending notifications...")
			if err := notifier.RepublishPending(ctx, cfg.Worker.NotificationBatch); err != nil {
				log.WithError(err).Error("Failed to republish pending notifications")
			}
		}),
	)
	if err != nil {
		return err
	}

	log.WithField("interval", cfg.Worker.NotificationInterval).Info("Starting notification worker")
	scheduler.Start()

	// Wait for context cancellation
	<-ctx.Done()

	log.Info("Worker shutting down gracefully")
	return scheduler.Shutdown()
}
