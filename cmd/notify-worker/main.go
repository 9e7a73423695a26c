package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/cleanmachine/detailing-platform/cmd/mainconfig"
	appconfig "github.com/cleanmachine/detailing-platform/internal/config"
	"github.com/cleanmachine/detailing-platform/internal/notify"
	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.UseMemoryQueue && cfg.NotifyQueueURL == "" {
		logger.Error("notify worker requires NOTIFY_QUEUE_URL or USE_MEMORY_QUEUE=true")
		os.Exit(1)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	email := buildEmailSender(cfg, awsCfg, logger)
	sms := notify.NewStubSMSSender(logger)
	opts := []notify.WorkerOption{notify.WithWorkerCount(cfg.WorkerCount)}

	var worker *notify.Worker
	if cfg.UseMemoryQueue {
		worker = notify.NewWorker(notify.NewMemoryQueue(64), email, sms, cfg.OwnerAlertEmail, logger, opts...)
	} else {
		queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
		worker = notify.NewWorker(queue, email, sms, cfg.OwnerAlertEmail, logger, opts...)
	}

	logger.Info("notify worker starting",
		"workers", cfg.WorkerCount,
		"email_provider", cfg.EmailProvider,
		"memory_queue", cfg.UseMemoryQueue,
	)
	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("notify worker shutting down")
	cancel()
	worker.Wait()
}

// buildEmailSender picks a provider: explicit EMAIL_PROVIDER wins, otherwise
// whichever provider has credentials configured, otherwise a logging stub.
func buildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		return sendGridSender(cfg, logger)
	case "ses":
		return sesSender(cfg, awsCfg, logger)
	case "stub":
		return notify.NewStubEmailSender(logger)
	}
	if cfg.SendGridAPIKey != "" {
		return sendGridSender(cfg, logger)
	}
	if cfg.SESFromEmail != "" {
		return sesSender(cfg, awsCfg, logger)
	}
	logger.Warn("no email provider configured, using stub sender")
	return notify.NewStubEmailSender(logger)
}

func sendGridSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	return notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
}

func sesSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) notify.EmailSender {
	return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SESFromName,
	}, logger)
}
