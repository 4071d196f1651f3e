// Package main is the entrypoint for the email worker Lambda function.
//
// The email worker consumes notification requests from the SQS queue, fetches
// the authorized voucher document from S3, renders the summary PDF, assembles
// the raw email and dispatches it via SES. Failed items are reported through
// partial batch responses so the queue redelivers only those.
//
// Cold start (main):
//  1. Load configuration from the environment (fail fast).
//  2. Initialize the structured logger at the configured level.
//  3. Load the AWS SDK configuration.
//  4. Initialize the S3 document store, SES client and CloudWatch metrics.
//  5. Wire the dispatch coordinator and register the SQS handler.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"sri-notifier/internal/config"
	"sri-notifier/internal/dispatch"
	"sri-notifier/internal/external"
	"sri-notifier/internal/metrics"
	"sri-notifier/internal/storage"
)

// parseLogLevel maps the configured level name to a slog level, defaulting
// to info.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("email worker initializing (cold start)",
		"app_env", cfg.AppEnv,
		"region", cfg.AWS.Region,
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region),
	)
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err.Error())
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			o.UsePathStyle = true
		}
	})
	sesClient := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})

	store := storage.NewDocumentStore(s3Client, cfg.Storage, logger)
	sender := external.NewSESClientWithAPI(sesClient, external.SESClientConfig{
		ConfigSetName: cfg.Mail.ConfigSetName,
		Logger:        logger,
	})

	var recorder metrics.Recorder = metrics.Noop{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewCloudWatchRecorder(
			cloudwatch.NewFromConfig(awsCfg), cfg.Metrics.Namespace, logger)
	}

	coordinator := dispatch.NewCoordinator(dispatch.CoordinatorConfig{
		Store:   store,
		Sender:  sender,
		From:    cfg.Mail.Sender,
		Metrics: recorder,
		Logger:  logger,
	})
	handler := dispatch.NewHandler(coordinator, logger)

	logger.Info("email worker initialized",
		"sender", cfg.Mail.Sender,
		"test_bucket", cfg.Storage.TestBucket,
		"production_bucket", cfg.Storage.ProductionBucket,
		"metric_namespace", cfg.Metrics.Namespace,
	)

	// Local mode: read a JSON SQS event from stdin instead of starting the
	// Lambda runtime. Enables local integration testing without the RIE.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/email-worker
	if cfg.AppEnv == "local" {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("failed to read stdin", "error", err.Error())
			os.Exit(1)
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			logger.Error("failed to parse stdin as SQS event", "error", err.Error())
			os.Exit(1)
		}
		response, err := handler.Handle(context.Background(), sqsEvent)
		if err != nil {
			logger.Error("handler execution failed", "error", err.Error())
			os.Exit(1)
		}
		if len(response.BatchItemFailures) > 0 {
			respJSON, _ := json.MarshalIndent(response, "", "  ")
			fmt.Fprintln(os.Stderr, string(respJSON))
			os.Exit(1)
		}
		logger.Info("handler execution completed",
			"records_processed", len(sqsEvent.Records),
		)
		return
	}

	lambda.Start(handler.Handle)
}
