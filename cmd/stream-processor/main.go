// Package main is the entrypoint for the stream processor Lambda function.
//
// The stream processor consumes the voucher table's change stream, detects
// vouchers transitioning into AUTHORIZED and hands the status change off to
// the notification pipeline. The hand-off destination is either an SNS topic
// or the notification SQS queue directly, selected by configuration.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"sri-notifier/internal/config"
	"sri-notifier/internal/metrics"
	"sri-notifier/internal/queue"
	"sri-notifier/internal/stream"
)

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

// newPublisher selects the hand-off destination: the SNS topic when
// configured, otherwise the SQS queue. At least one must be set.
func newPublisher(awsCfg aws.Config, cfg *config.Config, logger *slog.Logger) queue.Publisher {
	endpointOverride := cfg.AWS.EndpointURL

	if cfg.Handoff.TopicARN != "" {
		client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
			if endpointOverride != "" {
				o.BaseEndpoint = aws.String(endpointOverride)
			}
		})
		return queue.NewTopicPublisher(client, cfg.Handoff.TopicARN, logger)
	}

	if cfg.Handoff.QueueURL != "" {
		client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if endpointOverride != "" {
				o.BaseEndpoint = aws.String(endpointOverride)
			}
		})
		return queue.NewQueuePublisher(client, cfg.Handoff.QueueURL, logger)
	}

	logger.Error("no hand-off destination configured, set TOPIC_ARN or QUEUE_URL")
	os.Exit(1)
	return nil
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

	logger.Info("stream processor initializing (cold start)",
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

	publisher := newPublisher(awsCfg, cfg, logger)

	var recorder metrics.Recorder = metrics.Noop{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewCloudWatchRecorder(
			cloudwatch.NewFromConfig(awsCfg), cfg.Metrics.Namespace, logger)
	}

	detector := stream.NewDetector(stream.DetectorConfig{
		Publisher:         publisher,
		SourceEnvironment: cfg.Handoff.SourceEnvironment,
		Metrics:           recorder,
		Logger:            logger,
	})

	logger.Info("stream processor initialized",
		"topic_arn", cfg.Handoff.TopicARN,
		"queue_url", cfg.Handoff.QueueURL,
		"source_environment", cfg.Handoff.SourceEnvironment,
	)

	// Local mode: read a JSON DynamoDB stream event from stdin instead of
	// starting the Lambda runtime.
	if cfg.AppEnv == "local" {
		logger.Info("APP_ENV=local: reading stream event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("failed to read stdin", "error", err.Error())
			os.Exit(1)
		}
		var streamEvent events.DynamoDBEvent
		if err := json.Unmarshal(payload, &streamEvent); err != nil {
			logger.Error("failed to parse stdin as stream event", "error", err.Error())
			os.Exit(1)
		}
		if err := detector.HandleEvent(context.Background(), streamEvent); err != nil {
			logger.Error("handler execution failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("handler execution completed",
			"records_processed", len(streamEvent.Records),
		)
		return
	}

	lambda.Start(detector.HandleEvent)
}
