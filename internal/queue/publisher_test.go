package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"sri-notifier/internal/types"
)

// --- Mocks ---

type mockSNS struct {
	calls []*sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

type mockSQS struct {
	calls []*sqs.SendMessageInput
	err   error
}

func (m *mockSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

const (
	testTopicARN = "arn:aws:sns:us-east-1:123456789:sri-status-changes"
	testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789/sri-notifications"
)

func sampleStatusChange() types.StatusChange {
	return types.StatusChange{
		EventType:   types.EventTypeStatusChange,
		Status:      types.StatusAuthorized,
		AccessKey:   "0102202601171900421800111001100000000011234567891",
		Environment: types.EnvProduction,
		Timestamp:   "2026-02-01T12:00:00Z",
	}
}

// --- Topic publisher ---

func TestTopicPublisherSendsToConfiguredTopic(t *testing.T) {
	mock := &mockSNS{}
	pub := NewTopicPublisher(mock, testTopicARN, slog.Default())

	err := pub.PublishStatusChange(context.Background(), sampleStatusChange())
	if err != nil {
		t.Fatalf("PublishStatusChange returned unexpected error: %v", err)
	}

	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 SNS call, got %d", len(mock.calls))
	}
	if *mock.calls[0].TopicArn != testTopicARN {
		t.Errorf("TopicArn = %q, want %q", *mock.calls[0].TopicArn, testTopicARN)
	}
}

func TestTopicPublisherBodyRoundTrips(t *testing.T) {
	mock := &mockSNS{}
	pub := NewTopicPublisher(mock, testTopicARN, slog.Default())
	original := sampleStatusChange()

	if err := pub.PublishStatusChange(context.Background(), original); err != nil {
		t.Fatalf("PublishStatusChange returned unexpected error: %v", err)
	}

	var decoded types.StatusChange
	if err := json.Unmarshal([]byte(*mock.calls[0].Message), &decoded); err != nil {
		t.Fatalf("failed to unmarshal message body: %v", err)
	}
	if decoded != original {
		t.Errorf("decoded message %+v, want %+v", decoded, original)
	}
}

func TestTopicPublisherMirrorsMessageAttributes(t *testing.T) {
	mock := &mockSNS{}
	pub := NewTopicPublisher(mock, testTopicARN, slog.Default())

	if err := pub.PublishStatusChange(context.Background(), sampleStatusChange()); err != nil {
		t.Fatalf("PublishStatusChange returned unexpected error: %v", err)
	}

	attrs := mock.calls[0].MessageAttributes
	et, ok := attrs["eventType"]
	if !ok {
		t.Fatal("expected eventType message attribute")
	}
	if *et.StringValue != types.EventTypeStatusChange {
		t.Errorf("eventType = %q, want %q", *et.StringValue, types.EventTypeStatusChange)
	}
	st, ok := attrs["status"]
	if !ok {
		t.Fatal("expected status message attribute")
	}
	if *st.StringValue != types.StatusAuthorized {
		t.Errorf("status = %q, want %q", *st.StringValue, types.StatusAuthorized)
	}
	if *st.DataType != "String" {
		t.Errorf("status DataType = %q, want String", *st.DataType)
	}
}

func TestTopicPublisherError(t *testing.T) {
	mock := &mockSNS{err: fmt.Errorf("access denied")}
	pub := NewTopicPublisher(mock, testTopicARN, slog.Default())

	err := pub.PublishStatusChange(context.Background(), sampleStatusChange())
	if err == nil {
		t.Fatal("expected error from PublishStatusChange, got nil")
	}
	if !strings.Contains(err.Error(), testTopicARN) {
		t.Errorf("error %q does not name the topic", err.Error())
	}
}

// --- Queue publisher ---

func TestQueuePublisherSendsToConfiguredQueue(t *testing.T) {
	mock := &mockSQS{}
	pub := NewQueuePublisher(mock, testQueueURL, slog.Default())

	if err := pub.PublishStatusChange(context.Background(), sampleStatusChange()); err != nil {
		t.Fatalf("PublishStatusChange returned unexpected error: %v", err)
	}

	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 SQS call, got %d", len(mock.calls))
	}
	if *mock.calls[0].QueueUrl != testQueueURL {
		t.Errorf("QueueUrl = %q, want %q", *mock.calls[0].QueueUrl, testQueueURL)
	}

	var decoded types.StatusChange
	if err := json.Unmarshal([]byte(*mock.calls[0].MessageBody), &decoded); err != nil {
		t.Fatalf("failed to unmarshal message body: %v", err)
	}
	if decoded.AccessKey != sampleStatusChange().AccessKey {
		t.Errorf("AccessKey = %q, want fixture key", decoded.AccessKey)
	}
}

func TestQueuePublisherMirrorsMessageAttributes(t *testing.T) {
	mock := &mockSQS{}
	pub := NewQueuePublisher(mock, testQueueURL, slog.Default())

	if err := pub.PublishStatusChange(context.Background(), sampleStatusChange()); err != nil {
		t.Fatalf("PublishStatusChange returned unexpected error: %v", err)
	}

	attrs := mock.calls[0].MessageAttributes
	if _, ok := attrs["eventType"]; !ok {
		t.Error("expected eventType message attribute")
	}
	if _, ok := attrs["status"]; !ok {
		t.Error("expected status message attribute")
	}
}

func TestQueuePublisherError(t *testing.T) {
	mock := &mockSQS{err: fmt.Errorf("service unavailable")}
	pub := NewQueuePublisher(mock, testQueueURL, slog.Default())

	err := pub.PublishStatusChange(context.Background(), sampleStatusChange())
	if err == nil {
		t.Fatal("expected error from PublishStatusChange, got nil")
	}
	if !strings.Contains(err.Error(), "failed to send StatusChange") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}
