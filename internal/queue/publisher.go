// Package queue provides the downstream hand-off publishers used by the
// stream processor to dispatch status-change notifications. The hand-off is
// normally an SNS topic (subscribers filter on the mirrored message
// attributes), but deployments without an intermediate topic can publish
// straight to the notification SQS queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"sri-notifier/internal/types"
)

// Publisher hands a status change off to the downstream queue or topic.
type Publisher interface {
	PublishStatusChange(ctx context.Context, msg types.StatusChange) error
}

// SNSAPI abstracts the SNS Publish operation for testability.
// Production code uses the *sns.Client from aws-sdk-go-v2.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SQSSender abstracts the SQS SendMessage operation for testability.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// TopicPublisher publishes status changes to an SNS topic, mirroring
// eventType and status as message attributes so subscriptions can filter
// without parsing the body.
type TopicPublisher struct {
	client   SNSAPI
	topicARN string
	logger   *slog.Logger
}

// NewTopicPublisher creates a TopicPublisher for the given topic.
func NewTopicPublisher(client SNSAPI, topicARN string, logger *slog.Logger) *TopicPublisher {
	return &TopicPublisher{client: client, topicARN: topicARN, logger: logger}
}

// PublishStatusChange serializes the message to JSON and publishes it.
func (p *TopicPublisher) PublishStatusChange(ctx context.Context, msg types.StatusChange) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal StatusChange: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.EventType),
			},
			"status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Status),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("queue: failed to publish StatusChange to %s: %w", p.topicARN, err)
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	p.logger.InfoContext(ctx, "status change published",
		"topic_arn", p.topicARN,
		"message_id", messageID,
		"access_key", msg.AccessKey,
		"status", msg.Status,
		"environment", string(msg.Environment),
	)

	return nil
}

// QueuePublisher sends status changes directly to the notification SQS
// queue, bypassing the topic. Message attributes mirror the SNS variant so
// downstream consumers see the same shape either way.
type QueuePublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewQueuePublisher creates a QueuePublisher for the given queue URL.
func NewQueuePublisher(client SQSSender, queueURL string, logger *slog.Logger) *QueuePublisher {
	return &QueuePublisher{client: client, queueURL: queueURL, logger: logger}
}

// PublishStatusChange serializes the message to JSON and enqueues it.
func (p *QueuePublisher) PublishStatusChange(ctx context.Context, msg types.StatusChange) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal StatusChange: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.EventType),
			},
			"status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(msg.Status),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("queue: failed to send StatusChange to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "status change enqueued",
		"queue_url", p.queueURL,
		"access_key", msg.AccessKey,
		"status", msg.Status,
		"environment", string(msg.Environment),
	)

	return nil
}

// Compile-time assertions.
var (
	_ Publisher = (*TopicPublisher)(nil)
	_ Publisher = (*QueuePublisher)(nil)
)
