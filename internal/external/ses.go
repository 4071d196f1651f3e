// Package external holds the outbound mail transport client. The dispatch
// pipeline depends on the MailSender interface, never on the concrete AWS
// client, so tests substitute fakes freely.
package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"sri-notifier/internal/types"
)

// MailSender dispatches a fully assembled raw message and returns the
// provider's message id.
type MailSender interface {
	SendRaw(ctx context.Context, raw []byte, referenceID string) (string, error)
}

// SESAPI defines the subset of the SES v2 client used by SESClient.
// Extracted for testability: tests can provide a mock implementation.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClientConfig holds the configuration for creating an SESClient.
type SESClientConfig struct {
	// ConfigSetName is the SES configuration set name for tracking.
	// Optional; if empty, no configuration set is used.
	ConfigSetName string
	// Logger for SES operations.
	Logger *slog.Logger
}

// SESClient implements MailSender using AWS SES v2 raw sending. The message
// headers (From, To, Subject, MIME structure) all live inside the raw bytes;
// SES transmits them untouched. Authentication is handled via IAM roles.
type SESClient struct {
	api           SESAPI
	configSetName string
	logger        *slog.Logger
}

// NewSESClient creates a new SESClient from an AWS config.
func NewSESClient(awsCfg aws.Config, cfg SESClientConfig) *SESClient {
	return newSESClient(sesv2.NewFromConfig(awsCfg), cfg)
}

// NewSESClientWithAPI creates an SESClient with a pre-configured SESAPI.
// Useful for testing with a mock SES interface.
func NewSESClientWithAPI(api SESAPI, cfg SESClientConfig) *SESClient {
	return newSESClient(api, cfg)
}

func newSESClient(api SESAPI, cfg SESClientConfig) *SESClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SESClient{
		api:           api,
		configSetName: cfg.ConfigSetName,
		logger:        logger,
	}
}

// SendRaw transmits the assembled message via SES v2 SendEmail with raw
// content. The referenceID (the voucher access key) is attached as a message
// tag for delivery-event correlation.
//
// Error mapping:
//   - MessageRejected → dispatch_rejected (permanent)
//   - TooManyRequestsException → dispatch_throttled (retryable)
//   - SendingPausedException → dispatch_unavailable (retryable)
//   - Other → dispatch_failed (retryable)
func (s *SESClient) SendRaw(ctx context.Context, raw []byte, referenceID string) (string, error) {
	input := &sesv2.SendEmailInput{
		Content: &sestypes.EmailContent{
			Raw: &sestypes.RawMessage{Data: raw},
		},
	}

	if s.configSetName != "" {
		input.ConfigurationSetName = aws.String(s.configSetName)
	}

	if referenceID != "" {
		input.EmailTags = []sestypes.MessageTag{
			{
				Name:  aws.String("ReferenceID"),
				Value: aws.String(referenceID),
			},
		}
	}

	result, err := s.api.SendEmail(ctx, input)
	if err != nil {
		return "", mapSESError(err)
	}

	msgID := ""
	if result.MessageId != nil {
		msgID = *result.MessageId
	}

	s.logger.Info("raw email dispatched",
		"message_id", msgID,
		"reference_id", referenceID,
		"size_bytes", len(raw),
	)

	return msgID, nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(
			types.ErrCodeDispatchRejected,
			fmt.Sprintf("SES rejected message: %v", err),
			err,
		)
	}

	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeDispatchThrottled,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	var sendingPaused *sestypes.SendingPausedException
	if errors.As(err, &sendingPaused) {
		return types.NewAppError(
			types.ErrCodeDispatchUnavailable,
			fmt.Sprintf("SES account sending paused: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeDispatch,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}

// Compile-time assertion that SESClient satisfies MailSender.
var _ MailSender = (*SESClient)(nil)
